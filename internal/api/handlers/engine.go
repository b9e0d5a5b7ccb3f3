package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/joonho/argus/internal/contracts"
	"github.com/joonho/argus/internal/health"
	"github.com/joonho/argus/pkg/logger"
	"github.com/joonho/argus/pkg/redis"
)

// RunTrigger 런 트리거 인터페이스 (engine.Orchestrator가 구현)
type RunTrigger interface {
	Run(ctx context.Context, snapshotTime time.Time) (*contracts.OpportunityList, error)
}

// EngineHandler 엔진 조회/트리거 핸들러
// 조회 엔드포인트는 hand-off 버퍼 페이로드를 그대로 전달. 재계산 없음
type EngineHandler struct {
	store    *redis.Store
	checker  *health.Checker
	runStore contracts.RunStore
	trigger  RunTrigger
	logger   *logger.Logger
}

// NewEngineHandler creates a new engine handler
func NewEngineHandler(
	store *redis.Store,
	checker *health.Checker,
	runStore contracts.RunStore,
	trigger RunTrigger,
	log *logger.Logger,
) *EngineHandler {
	return &EngineHandler{
		store:    store,
		checker:  checker,
		runStore: runStore,
		trigger:  trigger,
		logger:   log.Component("api.engine"),
	}
}

// GetLatestOpportunities GET /api/opportunities/latest
func (h *EngineHandler) GetLatestOpportunities(w http.ResponseWriter, r *http.Request) {
	h.serveRaw(w, r, redis.KeyLatestOpportunity, "no opportunity list published yet")
}

// GetOpportunitiesByRun GET /api/opportunities/{runID}
func (h *EngineHandler) GetOpportunitiesByRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runID"]
	h.serveRaw(w, r, redis.OpportunitiesKey(runID), "run not found in hand-off buffer")
}

// GetForecastsByRun GET /api/forecasts/{runID}
func (h *EngineHandler) GetForecastsByRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runID"]
	h.serveRaw(w, r, redis.ForecastsKey(runID), "run not found in hand-off buffer")
}

// GetRun GET /api/runs/{id}
func (h *EngineHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := h.runStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, contracts.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		h.logger.WithError(err).Error("Failed to load run record")
		writeError(w, http.StatusInternalServerError, "failed to load run record")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// TriggerRun POST /api/runs
// 스냅샷 시각은 마지막 가공 완료 시각에서 유도되므로 같은 데이터에 대한
// 동시 트리거는 같은 핑거프린트로 수렴. 진행 중 런이 있으면 그 결과에 합류
func (h *EngineHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	list, err := h.trigger.Run(r.Context(), time.Time{})
	if err != nil {
		if errors.Is(err, contracts.ErrDuplicateConcurrentRun) {
			writeError(w, http.StatusConflict, "identical run already in flight")
			return
		}
		h.logger.WithError(err).Error("Engine run failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":        list.RunID,
		"opportunities": len(list.Opportunities),
		"evaluated":     len(list.Evaluations),
		"excluded":      len(list.Excluded),
	})
}

// GetPipelineHealth GET /api/pipeline/health
// unhealthy면 503. 외부 모니터가 상태코드만으로 판정 가능
func (h *EngineHandler) GetPipelineHealth(w http.ResponseWriter, r *http.Request) {
	report, err := h.checker.Check(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Health check failed")
		writeError(w, http.StatusInternalServerError, "health check failed")
		return
	}

	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// serveRaw hand-off 버퍼의 JSON 페이로드를 그대로 전달
func (h *EngineHandler) serveRaw(w http.ResponseWriter, r *http.Request, key, notFoundMsg string) {
	data, found, err := h.store.GetRaw(r.Context(), key)
	if err != nil {
		h.logger.WithError(err).WithField("key", key).Error("Failed to read hand-off buffer")
		writeError(w, http.StatusInternalServerError, "failed to read hand-off buffer")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, notFoundMsg)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
