package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/joonho/argus/internal/api/handlers"
	"github.com/joonho/argus/internal/contracts"
	"github.com/joonho/argus/internal/health"
	"github.com/joonho/argus/internal/policy"
	"github.com/joonho/argus/internal/runs"
	"github.com/joonho/argus/pkg/config"
	"github.com/joonho/argus/pkg/logger"
	"github.com/joonho/argus/pkg/redis"
)

// fakeTrigger 고정 결과 런 트리거
type fakeTrigger struct {
	list *contracts.OpportunityList
	err  error
}

func (f *fakeTrigger) Run(ctx context.Context, snapshotTime time.Time) (*contracts.OpportunityList, error) {
	return f.list, f.err
}

// disabledStore Redis 비활성 클라이언트 기반 스토어 (모든 키 미존재로 동작)
func disabledStore(t *testing.T) *redis.Store {
	t.Helper()
	client, err := redis.New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	if err != nil {
		t.Fatalf("redis client init failed: %v", err)
	}
	return redis.NewStore(client)
}

func testRouter(t *testing.T, store *redis.Store, runStore contracts.RunStore, trigger handlers.RunTrigger) http.Handler {
	t.Helper()
	log := logger.NewNop()
	checker := health.NewChecker(store, policy.Default(), log)
	h := handlers.NewEngineHandler(store, checker, runStore, trigger, log)
	return NewRouter(h, log)
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t, disabledStore(t), runs.NewMemoryStore(), &fakeTrigger{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestPipelineHealthUnhealthyReturns503(t *testing.T) {
	// 빈 hand-off 버퍼 = 어떤 스테이지도 완료된 적 없음 → 503
	router := testRouter(t, disabledStore(t), runs.NewMemoryStore(), &fakeTrigger{})

	req := httptest.NewRequest(http.MethodGet, "/api/pipeline/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 for unhealthy pipeline, got %d", rec.Code)
	}

	var report health.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("response must be a health report: %v", err)
	}
	if report.Healthy {
		t.Error("report must be unhealthy")
	}
}

func TestLatestOpportunitiesNotFound(t *testing.T) {
	router := testRouter(t, disabledStore(t), runs.NewMemoryStore(), &fakeTrigger{})

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities/latest", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 with empty buffer, got %d", rec.Code)
	}
}

func TestGetRunLifecycle(t *testing.T) {
	runStore := runs.NewMemoryStore()
	record, _ := runStore.Begin(context.Background(), "fp-api")
	router := testRouter(t, disabledStore(t), runStore, &fakeTrigger{})

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+record.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got contracts.RunRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid run record payload: %v", err)
	}
	if got.ID != record.ID || got.Status != contracts.RunPending {
		t.Errorf("unexpected run record %+v", got)
	}

	// 없는 런은 404
	req = httptest.NewRequest(http.MethodGet, "/api/runs/nonexistent", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown run, got %d", rec.Code)
	}
}

func TestTriggerRun(t *testing.T) {
	trigger := &fakeTrigger{list: &contracts.OpportunityList{
		RunID: "run-42",
		Opportunities: []contracts.OpportunityRecord{
			{Entity: "port_busan", Score: 5, RunID: "run-42"},
		},
		Evaluations: []contracts.OpportunityRecord{
			{Entity: "port_busan", Score: 5, RunID: "run-42"},
		},
	}}
	router := testRouter(t, disabledStore(t), runs.NewMemoryStore(), trigger)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["run_id"] != "run-42" {
		t.Errorf("expected run_id run-42, got %v", resp["run_id"])
	}
}

func TestTriggerRunConflict(t *testing.T) {
	trigger := &fakeTrigger{err: contracts.ErrDuplicateConcurrentRun}
	router := testRouter(t, disabledStore(t), runs.NewMemoryStore(), trigger)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate in-flight run, got %d", rec.Code)
	}
}
