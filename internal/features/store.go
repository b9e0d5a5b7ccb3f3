package features

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/joonho/argus/internal/contracts"
	"github.com/joonho/argus/pkg/redis"
)

// Store Redis hand-off 버퍼 기반 HistoryReader
// processed:history:<entity>에 프로세싱 스테이지가 적재한 피처 히스토리를 읽음
type Store struct {
	store *redis.Store
	log   zerolog.Logger
}

// NewStore creates a new feature history store
func NewStore(store *redis.Store, log zerolog.Logger) *Store {
	return &Store{
		store: store,
		log:   log.With().Str("component", "features").Logger(),
	}
}

// ReadHistory 엔티티 피처 히스토리 조회
//
// asOf 이후 관측은 스냅샷 일관성을 위해 제외하고, lookback > 0이면
// 가장 최근 lookback개만 반환. 키가 없으면 빈 슬라이스 (엔티티 단위 실패는
// 호출자의 최소 관측 수 검사에 맡김)
func (s *Store) ReadHistory(ctx context.Context, entity string, asOf time.Time, lookback int) ([]contracts.FeatureVector, error) {
	var history []contracts.FeatureVector

	found, err := s.store.GetJSON(ctx, redis.HistoryKey(entity), &history)
	if err != nil {
		return nil, fmt.Errorf("read history for %s: %w", entity, err)
	}
	if !found {
		s.log.Warn().Str("entity", entity).Msg("no feature history in hand-off buffer")
		return nil, nil
	}

	// 스냅샷 경계: asOf 이후 도착한 관측은 이 런에 보이지 않아야 함
	cut := len(history)
	for cut > 0 && history[cut-1].Timestamp.After(asOf) {
		cut--
	}
	history = history[:cut]

	if lookback > 0 && len(history) > lookback {
		history = history[len(history)-lookback:]
	}

	return history, nil
}

// LastProcessed 프로세싱 스테이지의 마지막 완료 시각
// 메타데이터가 아직 없으면 zero time
func (s *Store) LastProcessed(ctx context.Context) (time.Time, error) {
	var meta contracts.StageMetadata

	found, err := s.store.GetJSON(ctx, redis.KeyLastProcessing, &meta)
	if err != nil {
		return time.Time{}, fmt.Errorf("read processing metadata: %w", err)
	}
	if !found {
		return time.Time{}, nil
	}
	return meta.CompletedAt.UTC(), nil
}
