package health

import (
	"context"
	"fmt"
	"time"

	"github.com/joonho/argus/internal/contracts"
	"github.com/joonho/argus/internal/policy"
	"github.com/joonho/argus/pkg/logger"
	"github.com/joonho/argus/pkg/redis"
)

// StageHealth 스테이지 하나의 staleness 판정
type StageHealth struct {
	Stage         string    `json:"stage"`
	Healthy       bool      `json:"healthy"`
	LastCompleted time.Time `json:"last_completed,omitempty"`
	AgeMinutes    float64   `json:"age_minutes"`
	MaxAgeMinutes int       `json:"max_age_minutes"`
	Detail        string    `json:"detail,omitempty"`
}

// Report 파이프라인 전체 헬스 리포트
type Report struct {
	Healthy   bool          `json:"healthy"`
	CheckedAt time.Time     `json:"checked_at"`
	Stages    []StageHealth `json:"stages"`
}

// Checker hand-off 버퍼의 스테이지 메타데이터로 staleness 판정
// 각 스테이지가 기록한 완료 시각만 읽음. 통계 재계산 없음
type Checker struct {
	store  *redis.Store
	policy *policy.Policy
	logger *logger.Logger
}

// NewChecker creates a new pipeline health checker
func NewChecker(store *redis.Store, pol *policy.Policy, log *logger.Logger) *Checker {
	return &Checker{
		store:  store,
		policy: pol,
		logger: log.Component("health"),
	}
}

// Check 현재 시각 기준 전체 스테이지 판정
func (c *Checker) Check(ctx context.Context) (*Report, error) {
	var collection, processing contracts.StageMetadata
	var run contracts.RunSummary

	collectionFound, err := c.store.GetJSON(ctx, redis.KeyLastCollection, &collection)
	if err != nil {
		return nil, fmt.Errorf("read collection metadata: %w", err)
	}
	processingFound, err := c.store.GetJSON(ctx, redis.KeyLastProcessing, &processing)
	if err != nil {
		return nil, fmt.Errorf("read processing metadata: %w", err)
	}
	runFound, err := c.store.GetJSON(ctx, redis.KeyLastRun, &run)
	if err != nil {
		return nil, fmt.Errorf("read run summary: %w", err)
	}

	var collectionPtr, processingPtr *contracts.StageMetadata
	var runPtr *contracts.RunSummary
	if collectionFound {
		collectionPtr = &collection
	}
	if processingFound {
		processingPtr = &processing
	}
	if runFound {
		runPtr = &run
	}

	report := Evaluate(time.Now().UTC(), c.policy.Freshness, collectionPtr, processingPtr, runPtr)

	if !report.Healthy {
		for _, s := range report.Stages {
			if !s.Healthy {
				c.logger.WithFields(map[string]interface{}{
					"stage":  s.Stage,
					"detail": s.Detail,
				}).Warn("Pipeline stage unhealthy")
			}
		}
	}

	return report, nil
}

// Evaluate staleness 판정 (순수 함수)
// nil 메타데이터 = 해당 스테이지가 한 번도 완료된 적 없음
func Evaluate(
	now time.Time,
	freshness policy.Freshness,
	collection, processing *contracts.StageMetadata,
	run *contracts.RunSummary,
) *Report {
	report := &Report{Healthy: true, CheckedAt: now}

	var collectionAt, processingAt, runAt time.Time
	if collection != nil {
		collectionAt = collection.CompletedAt
	}
	if processing != nil {
		processingAt = processing.CompletedAt
	}
	if run != nil {
		runAt = run.CompletedAt
	}

	report.add(evalStage("collection", now, collectionAt, freshness.CollectionMaxAgeMin))
	report.add(evalStage("processing", now, processingAt, freshness.ProcessingMaxAgeMin))
	report.add(evalStage("engine", now, runAt, freshness.EngineMaxAgeMin))

	return report
}

func (r *Report) add(s StageHealth) {
	r.Stages = append(r.Stages, s)
	if !s.Healthy {
		r.Healthy = false
	}
}

func evalStage(stage string, now, completedAt time.Time, maxAgeMin int) StageHealth {
	h := StageHealth{Stage: stage, MaxAgeMinutes: maxAgeMin}

	if completedAt.IsZero() {
		h.Detail = "stage has never completed"
		return h
	}

	h.LastCompleted = completedAt
	h.AgeMinutes = now.Sub(completedAt).Minutes()

	if maxAgeMin > 0 && h.AgeMinutes > float64(maxAgeMin) {
		h.Detail = fmt.Sprintf("stale: last completed %.0f minutes ago (max %d)", h.AgeMinutes, maxAgeMin)
		return h
	}

	h.Healthy = true
	return h
}
