package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/joonho/argus/internal/contracts"
	"github.com/joonho/argus/pkg/redis"
)

// handoffStore 퍼블리셔가 필요로 하는 hand-off 버퍼 연산
// *redis.Store가 구현. 테스트에서는 인메모리 페이크로 대체
type handoffStore interface {
	GetRaw(ctx context.Context, key string) ([]byte, bool, error)
	SetJSON(ctx context.Context, key string, value interface{}) error
}

// Publisher 런 산출물을 hand-off 버퍼에 발행
//
// 멱등성 계약 (runID 키 기준):
//   - 동일 runID + 동일 내용 재발행 = no-op (재시도 안전)
//   - 확정된 runID에 다른 내용 = ErrRunAlreadyFinalized. 핑거프린트가
//     동일한 런은 동일한 산출물을 재생산해야 하므로 이는 프로그래밍 오류
type Publisher struct {
	store handoffStore
	log   zerolog.Logger
}

// New creates a new publisher
func New(store *redis.Store, log zerolog.Logger) *Publisher {
	return newWithStore(store, log)
}

func newWithStore(store handoffStore, log zerolog.Logger) *Publisher {
	return &Publisher{
		store: store,
		log:   log.With().Str("component", "publish").Logger(),
	}
}

// PublishOpportunities 기회 리스트 발행 + 최신 포인터 갱신
func (p *Publisher) PublishOpportunities(ctx context.Context, runID string, list *contracts.OpportunityList) error {
	if err := p.writeOnce(ctx, redis.OpportunitiesKey(runID), runID, list); err != nil {
		return err
	}

	// 최신 포인터는 런 키와 달리 덮어쓰기. 항상 마지막 성공 런을 가리킴
	if err := p.store.SetJSON(ctx, redis.KeyLatestOpportunity, list); err != nil {
		return fmt.Errorf("publish latest opportunities: %w", err)
	}

	p.log.Info().
		Str("run_id", runID).
		Int("opportunities", len(list.Opportunities)).
		Int("excluded", len(list.Excluded)).
		Msg("opportunities published")

	return nil
}

// PublishForecasts 런의 예측 분포 발행
func (p *Publisher) PublishForecasts(ctx context.Context, runID string, dists map[string]*contracts.ForecastDistribution) error {
	return p.writeOnce(ctx, redis.ForecastsKey(runID), runID, dists)
}

// PublishRunSummary 헬스 체크용 런 요약 발행 (항상 덮어쓰기)
func (p *Publisher) PublishRunSummary(ctx context.Context, summary *contracts.RunSummary) error {
	if err := p.store.SetJSON(ctx, redis.KeyLastRun, summary); err != nil {
		return fmt.Errorf("publish run summary: %w", err)
	}
	return nil
}

// writeOnce 멱등 쓰기: 존재하면 내용 비교, 없으면 기록
func (p *Publisher) writeOnce(ctx context.Context, key, runID string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	existing, found, err := p.store.GetRaw(ctx, key)
	if err != nil {
		return fmt.Errorf("check %s: %w", key, err)
	}
	if found {
		if bytes.Equal(existing, payload) {
			p.log.Debug().Str("key", key).Msg("identical payload already published, skipping")
			return nil
		}
		return fmt.Errorf("%w: %s already published with different content", contracts.ErrRunAlreadyFinalized, runID)
	}

	if err := p.store.SetJSON(ctx, key, value); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}
