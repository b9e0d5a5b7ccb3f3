package opportunity

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/joonho/argus/internal/contracts"
)

// Config 랭커 설정
type Config struct {
	MinimumReturnThreshold float64 // 이 미만의 기대수익은 기회 목록에서 제외
	DispersionFloor        float64 // 점수 분모 하한 (0으로 나누기 방지)
}

// Ranker 시나리오 집합을 위험조정 기회 목록으로 집계
// 시나리오 경로와 기준값의 순수 함수
type Ranker struct {
	config Config
	log    zerolog.Logger
}

// New creates a new ranker
func New(config Config, log zerolog.Logger) *Ranker {
	return &Ranker{
		config: config,
		log:    log.With().Str("component", "opportunity").Logger(),
	}
}

// Rank 엔티티별 시나리오 집합을 집계하고 점수 내림차순으로 정렬
//
// 반환:
//   - opportunities: 임계값을 통과한 레코드 (점수 내림차순, 동점 시 엔티티명 오름차순)
//   - evaluations: 평가된 전체 레코드 (임계값 미달 포함, 동일 정렬)
//   - excluded: 집계 불가 엔티티 → 사유. 임계값 미달은 실패가 아니므로 여기 없음
func (r *Ranker) Rank(
	runID string,
	paths map[string][]contracts.ScenarioPath,
	dists map[string]*contracts.ForecastDistribution,
) (opportunities, evaluations []contracts.OpportunityRecord, excluded map[string]string) {
	excluded = make(map[string]string)

	entities := make([]string, 0, len(paths))
	for entity := range paths {
		entities = append(entities, entity)
	}
	sort.Strings(entities)

	for _, entity := range entities {
		record, err := r.evaluate(runID, entity, paths[entity], dists[entity])
		if err != nil {
			excluded[entity] = err.Error()
			continue
		}
		evaluations = append(evaluations, *record)
	}

	sortByScore(evaluations)

	for _, rec := range evaluations {
		// 임계값은 하드 컷오프. 점수로 보상 불가
		if rec.ExpectedReturn >= r.config.MinimumReturnThreshold {
			opportunities = append(opportunities, rec)
		}
	}

	r.log.Info().
		Str("run_id", runID).
		Int("evaluated", len(evaluations)).
		Int("opportunities", len(opportunities)).
		Int("excluded", len(excluded)).
		Msg("opportunity ranking completed")

	return opportunities, evaluations, excluded
}

// evaluate 단일 엔티티의 시나리오 집합 집계
func (r *Ranker) evaluate(
	runID, entity string,
	paths []contracts.ScenarioPath,
	dist *contracts.ForecastDistribution,
) (*contracts.OpportunityRecord, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no scenario paths for %s", contracts.ErrEmptyScenarioSet, entity)
	}
	if dist == nil {
		return nil, fmt.Errorf("%w: no forecast distribution for %s", contracts.ErrEmptyScenarioSet, entity)
	}
	if dist.Baseline == 0 {
		return nil, fmt.Errorf("%w: zero baseline for %s, relative return undefined", contracts.ErrDegenerateInput, entity)
	}

	terminals := make([]float64, len(paths))
	returns := make([]float64, len(paths))
	positive := 0
	for i := range paths {
		t := paths[i].Terminal()
		terminals[i] = t
		returns[i] = (t - dist.Baseline) / dist.Baseline
		if returns[i] > 0 {
			positive++
		}
	}

	expected := stat.Mean(returns, nil)
	var dispersion float64
	if len(returns) > 1 {
		dispersion = stat.StdDev(returns, nil)
	}

	// 위험조정 점수: 분산이 floor 아래로 떨어져도 분모는 floor를 유지
	denom := dispersion
	if denom < r.config.DispersionFloor {
		denom = r.config.DispersionFloor
	}
	var score float64
	if denom > 0 {
		score = expected / denom
	}

	sort.Float64s(terminals)

	return &contracts.OpportunityRecord{
		Entity:         entity,
		ExpectedReturn: expected,
		Dispersion:     dispersion,
		Score:          score,
		ProbPositive:   float64(positive) / float64(len(returns)),
		P5:             stat.Quantile(0.05, stat.Empirical, terminals, nil),
		P50:            stat.Quantile(0.50, stat.Empirical, terminals, nil),
		P95:            stat.Quantile(0.95, stat.Empirical, terminals, nil),
		RunID:          runID,
	}, nil
}

// sortByScore 점수 내림차순, 동점 시 엔티티명 오름차순 (결정적 순서)
func sortByScore(records []contracts.OpportunityRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].Entity < records[j].Entity
	})
}
