package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/joonho/argus/internal/contracts"
	"github.com/joonho/argus/pkg/redis"
)

// fakeStore 인메모리 hand-off 버퍼
type fakeStore struct {
	data map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (f *fakeStore) GetRaw(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok := f.data[key]
	return data, ok, nil
}

func (f *fakeStore) SetJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = data
	return nil
}

func sampleList(runID string) *contracts.OpportunityList {
	return &contracts.OpportunityList{
		RunID:       runID,
		GeneratedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		Threshold:   0.15,
		Iterations:  1000,
		Seed:        42,
		Opportunities: []contracts.OpportunityRecord{
			{Entity: "port_busan", ExpectedReturn: 0.3, Dispersion: 0.05, Score: 6, RunID: runID},
		},
		Evaluations: []contracts.OpportunityRecord{
			{Entity: "port_busan", ExpectedReturn: 0.3, Dispersion: 0.05, Score: 6, RunID: runID},
		},
		Excluded: map[string]string{"mine_pilbara": "insufficient history"},
	}
}

func TestPublishOpportunitiesWritesRunAndLatest(t *testing.T) {
	store := newFakeStore()
	p := newWithStore(store, zerolog.Nop())

	list := sampleList("run-1")
	if err := p.PublishOpportunities(context.Background(), "run-1", list); err != nil {
		t.Fatalf("PublishOpportunities failed: %v", err)
	}

	if _, ok := store.data[redis.OpportunitiesKey("run-1")]; !ok {
		t.Error("run-keyed opportunities must be written")
	}
	if _, ok := store.data[redis.KeyLatestOpportunity]; !ok {
		t.Error("latest pointer must be updated")
	}
}

func TestPublishIdempotentRepublish(t *testing.T) {
	// 시나리오: 동일 runID + 동일 내용 재발행 = no-op
	store := newFakeStore()
	p := newWithStore(store, zerolog.Nop())

	list := sampleList("run-2")
	if err := p.PublishOpportunities(context.Background(), "run-2", list); err != nil {
		t.Fatalf("first publish failed: %v", err)
	}
	if err := p.PublishOpportunities(context.Background(), "run-2", list); err != nil {
		t.Errorf("identical republish must be a no-op, got %v", err)
	}
}

func TestPublishConflictingContentRejected(t *testing.T) {
	// 확정된 런에 다른 내용 → RunAlreadyFinalized
	store := newFakeStore()
	p := newWithStore(store, zerolog.Nop())

	first := sampleList("run-3")
	if err := p.PublishOpportunities(context.Background(), "run-3", first); err != nil {
		t.Fatalf("first publish failed: %v", err)
	}

	second := sampleList("run-3")
	second.Opportunities[0].Score = 99
	second.Evaluations[0].Score = 99

	err := p.PublishOpportunities(context.Background(), "run-3", second)
	if !errors.Is(err, contracts.ErrRunAlreadyFinalized) {
		t.Errorf("expected ErrRunAlreadyFinalized, got %v", err)
	}

	// 원본 내용은 보존되어야 함
	var stored contracts.OpportunityList
	_ = json.Unmarshal(store.data[redis.OpportunitiesKey("run-3")], &stored)
	if stored.Opportunities[0].Score != 6 {
		t.Error("conflicting publish must not overwrite the finalized payload")
	}
}

func TestPublishForecasts(t *testing.T) {
	store := newFakeStore()
	p := newWithStore(store, zerolog.Nop())

	dists := map[string]*contracts.ForecastDistribution{
		"port_busan": {
			Entity:       "port_busan",
			Baseline:     50,
			ModelVersion: "linear_v1",
			Horizons: []contracts.HorizonForecast{
				{Horizon: 1, Mean: 50.2, StdDev: 1, Lower: 48.2, Upper: 52.2},
			},
		},
	}

	if err := p.PublishForecasts(context.Background(), "run-4", dists); err != nil {
		t.Fatalf("PublishForecasts failed: %v", err)
	}
	if _, ok := store.data[redis.ForecastsKey("run-4")]; !ok {
		t.Error("forecasts must be written under the run key")
	}

	// 동일 내용 재발행은 통과, 다른 내용은 거부
	if err := p.PublishForecasts(context.Background(), "run-4", dists); err != nil {
		t.Errorf("identical republish must succeed: %v", err)
	}
	dists["port_busan"].Baseline = 60
	if err := p.PublishForecasts(context.Background(), "run-4", dists); !errors.Is(err, contracts.ErrRunAlreadyFinalized) {
		t.Errorf("expected ErrRunAlreadyFinalized, got %v", err)
	}
}

func TestPublishRunSummaryOverwrites(t *testing.T) {
	store := newFakeStore()
	p := newWithStore(store, zerolog.Nop())

	s1 := &contracts.RunSummary{RunID: "run-5", Opportunities: 2}
	s2 := &contracts.RunSummary{RunID: "run-6", Opportunities: 3}

	if err := p.PublishRunSummary(context.Background(), s1); err != nil {
		t.Fatalf("PublishRunSummary failed: %v", err)
	}
	if err := p.PublishRunSummary(context.Background(), s2); err != nil {
		t.Fatalf("second summary failed: %v", err)
	}

	var stored contracts.RunSummary
	_ = json.Unmarshal(store.data[redis.KeyLastRun], &stored)
	if stored.RunID != "run-6" {
		t.Errorf("summary must track the latest run, got %s", stored.RunID)
	}
}
