package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/joonho/argus/internal/contracts"
	"github.com/joonho/argus/internal/forecast"
	"github.com/joonho/argus/internal/opportunity"
	"github.com/joonho/argus/internal/policy"
	"github.com/joonho/argus/internal/runs"
	"github.com/joonho/argus/internal/simulate"
)

// AuditStore 런 평가 결과 아카이브 (선택적. DB 비활성 시 nil)
type AuditStore interface {
	SaveOpportunities(ctx context.Context, list *contracts.OpportunityList) error
}

// Orchestrator 예측 → 시뮬레이션 → 랭킹 → 발행 파이프라인 조율
// ⭐ SSOT: 런 수명주기(핑거프린트, 상태 전이, 발행 순서)는 여기서만
//
// 실패 격리 규칙:
//   - 엔티티 단위 실패(히스토리 부족, 퇴화 입력, 적합 실패)는 제외
//     매니페스트에 기록하고 런은 계속
//   - 런 단위 실패(설정 오류, 저장소 장애)는 런을 failed로 전이하고
//     산출물은 아무것도 발행하지 않음
type Orchestrator struct {
	reader      contracts.HistoryReader
	forecaster  *forecast.Forecaster
	simulator   *simulate.Simulator
	ranker      *opportunity.Ranker
	publisher   contracts.Publisher
	runStore    contracts.RunStore
	coordinator *runs.Coordinator
	audit       AuditStore

	policy     *policy.Policy
	policyHash string

	log zerolog.Logger
}

// NewOrchestrator creates a new engine orchestrator
func NewOrchestrator(
	reader contracts.HistoryReader,
	forecaster *forecast.Forecaster,
	simulator *simulate.Simulator,
	ranker *opportunity.Ranker,
	publisher contracts.Publisher,
	runStore contracts.RunStore,
	coordinator *runs.Coordinator,
	audit AuditStore,
	pol *policy.Policy,
	policyHash string,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		reader:      reader,
		forecaster:  forecaster,
		simulator:   simulator,
		ranker:      ranker,
		publisher:   publisher,
		runStore:    runStore,
		coordinator: coordinator,
		audit:       audit,
		policy:      pol,
		policyHash:  policyHash,
		log:         log.With().Str("component", "engine").Logger(),
	}
}

// Run 스냅샷 시점 기준 전체 런 실행
//
// zero snapshotTime은 마지막 가공 완료 시각으로 해석한다: 같은 가공 산출물에
// 대한 트리거들이 같은 핑거프린트를 공유해야 중복 제거와 멱등 재발행이 작동.
// 동일 핑거프린트의 동시 트리거는 하나의 계산에 합류한다.
// 결과 리스트는 호출자가 즉시 소비 가능 (발행도 이미 완료된 상태)
func (o *Orchestrator) Run(ctx context.Context, snapshotTime time.Time) (*contracts.OpportunityList, error) {
	if snapshotTime.IsZero() {
		last, err := o.reader.LastProcessed(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve snapshot time: %w", err)
		}
		if last.IsZero() {
			// 가공 메타데이터가 아직 없으면 시간 단위로 절단한 현재 시각 사용
			// (나노초 정밀도면 동시 트리거가 절대 충돌하지 않음)
			last = time.Now().UTC().Truncate(time.Hour)
		}
		snapshotTime = last
	}
	snapshotTime = snapshotTime.UTC()

	inputs := contracts.RunInputs{
		Entities:     o.policy.EntityNames(),
		SnapshotTime: snapshotTime,
		ModelVersion: o.forecaster.ModelVersion(),
		PolicyHash:   o.policyHash,
		Seed:         o.policy.Engine.Seed,
		Iterations:   o.policy.Engine.Iterations,
	}
	fingerprint := inputs.Fingerprint()

	list, shared, err := o.coordinator.Do(fingerprint, func() (*contracts.OpportunityList, error) {
		return o.execute(ctx, fingerprint, snapshotTime)
	})
	if shared {
		o.log.Info().Str("fingerprint", fingerprint).Msg("joined in-flight run with identical fingerprint")
	}
	return list, err
}

// execute 핑거프린트당 한 번만 도달하는 실제 런 본체
func (o *Orchestrator) execute(ctx context.Context, fingerprint string, snapshotTime time.Time) (*contracts.OpportunityList, error) {
	record, err := o.runStore.Begin(ctx, fingerprint)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	o.log.Info().
		Str("run_id", record.ID).
		Str("fingerprint", fingerprint).
		Time("snapshot", snapshotTime).
		Msg("starting engine run")

	list, dists, err := o.pipeline(ctx, record.ID, snapshotTime)
	if err != nil {
		// 실패 런은 아무것도 발행하지 않음. 다운스트림은 이전 런을 계속 사용
		if cerr := o.runStore.Complete(ctx, record.ID, contracts.RunFailed, err); cerr != nil {
			o.log.Error().Err(cerr).Str("run_id", record.ID).Msg("failed to mark run as failed")
		}
		return nil, fmt.Errorf("run %s failed: %w", record.ID, err)
	}

	if err := o.publish(ctx, record.ID, list, dists); err != nil {
		if cerr := o.runStore.Complete(ctx, record.ID, contracts.RunFailed, err); cerr != nil {
			o.log.Error().Err(cerr).Str("run_id", record.ID).Msg("failed to mark run as failed")
		}
		return nil, fmt.Errorf("run %s publish failed: %w", record.ID, err)
	}

	if err := o.runStore.Complete(ctx, record.ID, contracts.RunSucceeded, nil); err != nil {
		return nil, err
	}

	o.log.Info().
		Str("run_id", record.ID).
		Int("opportunities", len(list.Opportunities)).
		Int("evaluated", len(list.Evaluations)).
		Int("excluded", len(list.Excluded)).
		Dur("duration", time.Since(startTime)).
		Msg("engine run completed")

	return list, nil
}

// pipeline S1 예측 → S2 시뮬레이션 → S3 랭킹
func (o *Orchestrator) pipeline(ctx context.Context, runID string, snapshotTime time.Time) (*contracts.OpportunityList, map[string]*contracts.ForecastDistribution, error) {
	// S1: 엔티티별 예측 (실패는 격리)
	dists, excluded := o.forecastAll(ctx, snapshotTime)
	o.log.Info().
		Int("forecast", len(dists)).
		Int("excluded", len(excluded)).
		Msg("S1: forecasting completed")

	// S2: Monte Carlo 시나리오 (설정 오류는 런 단위 실패)
	paths, err := o.simulator.Simulate(ctx, runID, dists)
	if err != nil {
		return nil, nil, fmt.Errorf("S2 simulation: %w", err)
	}

	// S3: 위험조정 랭킹
	opps, evals, rankExcluded := o.ranker.Rank(runID, paths, dists)
	for entity, reason := range rankExcluded {
		excluded[entity] = reason
	}

	list := &contracts.OpportunityList{
		RunID:         runID,
		GeneratedAt:   time.Now().UTC(),
		Threshold:     o.policy.Engine.MinimumReturnThreshold,
		Iterations:    o.policy.Engine.Iterations,
		Seed:          o.policy.Engine.Seed,
		Opportunities: opps,
		Evaluations:   evals,
		Excluded:      excluded,
	}

	return list, dists, nil
}

// forecastAll 전체 엔티티 병렬 예측
// 엔티티 실패는 사유와 함께 제외 매니페스트로. 런은 계속 진행
func (o *Orchestrator) forecastAll(ctx context.Context, snapshotTime time.Time) (map[string]*contracts.ForecastDistribution, map[string]string) {
	entities := o.policy.EntityNames()
	maxHorizon := o.policy.Engine.Horizons[len(o.policy.Engine.Horizons)-1]
	lookback := o.policy.Engine.MinHistoryMultiplier * maxHorizon * 4 // 필요 최소치의 여유분

	workers := o.policy.Engine.Workers
	if workers <= 0 {
		workers = 4
	}

	var mu sync.Mutex
	dists := make(map[string]*contracts.ForecastDistribution)
	excluded := make(map[string]string)

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, entity := range entities {
		wg.Add(1)
		sem <- struct{}{}
		go func(entity string) {
			defer wg.Done()
			defer func() { <-sem }()

			dist, err := o.forecastOne(ctx, entity, snapshotTime, lookback)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				excluded[entity] = err.Error()
				return
			}
			dists[entity] = dist
		}(entity)
	}

	wg.Wait()
	return dists, excluded
}

func (o *Orchestrator) forecastOne(ctx context.Context, entity string, snapshotTime time.Time, lookback int) (*contracts.ForecastDistribution, error) {
	history, err := o.reader.ReadHistory(ctx, entity, snapshotTime, lookback)
	if err != nil {
		return nil, fmt.Errorf("history read: %w", err)
	}

	dist, err := o.forecaster.Forecast(history)
	if err != nil {
		o.log.Warn().Err(err).Str("entity", entity).Msg("entity excluded from run")
		return nil, err
	}
	return dist, nil
}

// publish 산출물 발행. 예측, 기회, 감사 아카이브, 런 요약 순서
func (o *Orchestrator) publish(ctx context.Context, runID string, list *contracts.OpportunityList, dists map[string]*contracts.ForecastDistribution) error {
	if err := o.publisher.PublishForecasts(ctx, runID, dists); err != nil {
		return fmt.Errorf("publish forecasts: %w", err)
	}
	if err := o.publisher.PublishOpportunities(ctx, runID, list); err != nil {
		return fmt.Errorf("publish opportunities: %w", err)
	}

	if o.audit != nil {
		if err := o.audit.SaveOpportunities(ctx, list); err != nil {
			// 아카이브 실패는 런을 실패시키지 않음. hand-off가 일차 산출 경로
			o.log.Error().Err(err).Str("run_id", runID).Msg("failed to archive opportunity records")
		}
	}

	summary := &contracts.RunSummary{
		RunID:            runID,
		CompletedAt:      time.Now().UTC(),
		EntitiesIn:       len(o.policy.Entities),
		EntitiesForecast: len(dists),
		EntitiesExcluded: len(list.Excluded),
		Opportunities:    len(list.Opportunities),
	}
	if err := o.publisher.PublishRunSummary(ctx, summary); err != nil {
		return fmt.Errorf("publish run summary: %w", err)
	}

	return nil
}
