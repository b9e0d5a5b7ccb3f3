package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// Store provides typed JSON read/write over the hand-off buffer
// ⭐ SSOT: hand-off 키 스킴은 여기서만 정의
//
// 키 스킴 (원 파이프라인과 동일):
//
//	raw:fred:<indicator>            수집된 경제지표 원시 시계열
//	raw:satellite:<entity>          위성 활동 관측
//	raw:jobs:<entity>               채용공고 시계열
//	raw:metadata:last_collection    수집 스테이지 메타데이터
//	processed:history:<entity>      엔지니어링된 피처 히스토리
//	processed:metadata:last_processing
//	forecasts:<run_id>              런별 예측 분포
//	opportunities:<run_id>          런별 기회 리스트
//	opportunities:latest            최신 기회 리스트 (대시보드용)
//	engine:metadata:last_run        엔진 런 요약 (freshness 체크용)
type Store struct {
	client *Client
}

// NewStore creates a new hand-off store
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// GetJSON retrieves and unmarshals a value
// 키가 없으면 (false, nil)
func (s *Store) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.client.Enabled() {
		return false, nil
	}

	data, err := s.client.Redis().Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}

	return true, nil
}

// SetJSON marshals and stores a value (TTL 없음. 다음 런이 통째로 교체)
func (s *Store) SetJSON(ctx context.Context, key string, value interface{}) error {
	if !s.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	return s.client.Redis().Set(ctx, key, data, 0).Err()
}

// SetJSONNX stores a value only if the key does not exist
// 반환: 실제로 썼는지 여부
func (s *Store) SetJSONNX(ctx context.Context, key string, value interface{}) (bool, error) {
	if !s.client.Enabled() {
		return true, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal %s: %w", key, err)
	}

	return s.client.Redis().SetNX(ctx, key, data, 0).Result()
}

// GetRaw returns the raw bytes stored at key
func (s *Store) GetRaw(ctx context.Context, key string) ([]byte, bool, error) {
	if !s.client.Enabled() {
		return nil, false, nil
	}

	data, err := s.client.Redis().Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Hand-off key generators

// RawFredKey 경제지표 원시 시계열 키
func RawFredKey(indicator string) string {
	return fmt.Sprintf("raw:fred:%s", indicator)
}

// RawSatelliteKey 위성 활동 관측 키
func RawSatelliteKey(entity string) string {
	return fmt.Sprintf("raw:satellite:%s", entity)
}

// RawJobsKey 채용공고 시계열 키
func RawJobsKey(entity string) string {
	return fmt.Sprintf("raw:jobs:%s", entity)
}

// HistoryKey 엔지니어링된 피처 히스토리 키
func HistoryKey(entity string) string {
	return fmt.Sprintf("processed:history:%s", entity)
}

// ForecastsKey 런별 예측 분포 키
func ForecastsKey(runID string) string {
	return fmt.Sprintf("forecasts:%s", runID)
}

// OpportunitiesKey 런별 기회 리스트 키
func OpportunitiesKey(runID string) string {
	return fmt.Sprintf("opportunities:%s", runID)
}

// Stage metadata keys (freshness 체크 대상)
const (
	KeyLastCollection    = "raw:metadata:last_collection"
	KeyLastProcessing    = "processed:metadata:last_processing"
	KeyLastRun           = "engine:metadata:last_run"
	KeyLatestOpportunity = "opportunities:latest"
)
