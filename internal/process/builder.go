package process

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/joonho/argus/internal/contracts"
	"github.com/joonho/argus/internal/ingest"
	"github.com/joonho/argus/internal/policy"
	"github.com/joonho/argus/pkg/logger"
	"github.com/joonho/argus/pkg/redis"
)

// 합성 점수 가중치: 위성 활동이 주 신호, 채용공고가 보조 신호
const (
	satelliteWeight = 0.7
	jobsWeight      = 0.3

	trendWindow      = 7
	volatilityWindow = 14
	jobsAvgWindow    = 90
)

// Builder 프로세싱 스테이지: 원시 시계열 → 엔지니어링된 피처 히스토리
// ⭐ SSOT: processed:history:* 키 쓰기는 이 스테이지에서만
//
// 결측 정책: 원시 관측이 없는 날의 피처는 Missing으로 태깅.
// 0이나 직전 값으로 채우지 않음 (다운스트림 예측기가 제외 여부를 결정)
type Builder struct {
	store  *redis.Store
	policy *policy.Policy
	logger *logger.Logger
}

// NewBuilder creates a new feature builder
func NewBuilder(store *redis.Store, pol *policy.Policy, log *logger.Logger) *Builder {
	return &Builder{
		store:  store,
		policy: pol,
		logger: log.Component("process"),
	}
}

// Process 전체 엔티티 피처 히스토리 재계산
func (b *Builder) Process(ctx context.Context) error {
	now := time.Now().UTC()
	items := 0
	failures := make(map[string]string)

	// 매크로 지표는 전 엔티티 공유
	macros := make(map[string]*ingest.Series)
	for _, ind := range b.policy.Indicators {
		var series ingest.Series
		found, err := b.store.GetJSON(ctx, redis.RawFredKey(ind.Name), &series)
		if err != nil {
			return fmt.Errorf("read indicator %s: %w", ind.Name, err)
		}
		if !found {
			b.logger.WithField("indicator", ind.Name).Warn("Indicator series missing from hand-off buffer")
			continue
		}
		macros[ind.Name] = &series
	}

	for _, entity := range b.policy.Entities {
		history, err := b.buildEntity(ctx, entity.Name, macros)
		if err != nil {
			b.logger.WithError(err).WithField("entity", entity.Name).Warn("Feature build failed")
			failures[entity.Name] = err.Error()
			continue
		}

		if err := b.store.SetJSON(ctx, redis.HistoryKey(entity.Name), history); err != nil {
			failures[entity.Name] = err.Error()
			continue
		}
		items++
	}

	meta := &contracts.StageMetadata{
		Stage:       "processing",
		CompletedAt: now,
		Items:       items,
		Errors:      failures,
	}
	if err := b.store.SetJSON(ctx, redis.KeyLastProcessing, meta); err != nil {
		return fmt.Errorf("write processing metadata: %w", err)
	}

	if items == 0 {
		return fmt.Errorf("processing produced nothing: %d entities failed", len(failures))
	}

	b.logger.WithFields(map[string]interface{}{
		"entities": items,
		"failures": len(failures),
	}).Info("Processing completed")

	return nil
}

func (b *Builder) buildEntity(ctx context.Context, entity string, macros map[string]*ingest.Series) ([]contracts.FeatureVector, error) {
	var satellite ingest.Series
	found, err := b.store.GetJSON(ctx, redis.RawSatelliteKey(entity), &satellite)
	if err != nil {
		return nil, fmt.Errorf("read satellite series: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("no satellite series for %s", entity)
	}

	var jobs ingest.Series
	if _, err := b.store.GetJSON(ctx, redis.RawJobsKey(entity), &jobs); err != nil {
		return nil, fmt.Errorf("read jobs series: %w", err)
	}

	return BuildVectors(entity, &satellite, &jobs, macros), nil
}

// BuildVectors 원시 시계열로부터 피처 벡터 시퀀스 생성 (순수 함수)
// 타임라인은 위성 관측 날짜를 따름. 위성 관측이 없는 날은 벡터 자체가 없음
func BuildVectors(entity string, satellite, jobs *ingest.Series, macros map[string]*ingest.Series) []contracts.FeatureVector {
	jobsByDate := indexByDate(jobs)
	jobsMax := seriesMax(jobs)
	jobsValues, jobsIndex := alignedValues(jobs)

	vectors := make([]contracts.FeatureVector, 0, len(satellite.Observations))
	values := make([]float64, 0, len(satellite.Observations))

	for _, obs := range satellite.Observations {
		if obs.Missing {
			continue
		}
		values = append(values, obs.Value)
		i := len(values) - 1

		features := map[string]contracts.FeatureValue{
			"activity_raw":            {Value: obs.Value},
			"activity_avg_7d":         rollingMean(values, i, trendWindow),
			"activity_trend_7d":       rollingTrend(values, i, trendWindow),
			"activity_volatility_14d": rollingStdDev(values, i, volatilityWindow),
		}

		// 채용공고 피처
		jobsScore := contracts.FeatureValue{Missing: true}
		if jv, ok := jobsByDate[dateKey(obs.Date)]; ok {
			ji := jobsIndex[dateKey(obs.Date)]
			features["jobs_count"] = contracts.FeatureValue{Value: jv}
			features["jobs_trend_7d"] = rollingTrend(jobsValues, ji, trendWindow)
			features["jobs_avg_90d"] = rollingMean(jobsValues, ji, jobsAvgWindow)
			if jobsMax > 0 {
				jobsScore = contracts.FeatureValue{Value: 100 * jv / jobsMax}
			}
		} else {
			features["jobs_count"] = contracts.FeatureValue{Missing: true}
			features["jobs_trend_7d"] = contracts.FeatureValue{Missing: true}
			features["jobs_avg_90d"] = contracts.FeatureValue{Missing: true}
		}

		// 매크로 지표: 해당 날짜 이전의 마지막 발표값 + 직전 발표 대비 변화율
		for name, series := range macros {
			features["macro_"+name] = latestAsOf(series, obs.Date)
			features["macro_"+name+"_change"] = changeAsOf(series, obs.Date)
		}

		// 합성 활동 점수 (엔진의 예측 대상)
		// 채용 신호가 결측이면 위성 단독으로 구성. 결측을 0으로 치환하지 않음
		score := obs.Value
		if !jobsScore.Missing {
			score = satelliteWeight*obs.Value + jobsWeight*jobsScore.Value
		}
		features["activity_score"] = contracts.FeatureValue{Value: clamp(score, 0, 100)}

		vectors = append(vectors, contracts.FeatureVector{
			Entity:    entity,
			Timestamp: obs.Date,
			Features:  features,
		})
	}

	return vectors
}

func rollingMean(values []float64, i, window int) contracts.FeatureValue {
	lo := i - window + 1
	if lo < 0 {
		return contracts.FeatureValue{Missing: true}
	}
	return contracts.FeatureValue{Value: stat.Mean(values[lo:i+1], nil)}
}

// rollingTrend 윈도 내 평균 일간 변화량
func rollingTrend(values []float64, i, window int) contracts.FeatureValue {
	lo := i - window + 1
	if lo < 0 {
		return contracts.FeatureValue{Missing: true}
	}
	return contracts.FeatureValue{Value: (values[i] - values[lo]) / float64(window-1)}
}

func rollingStdDev(values []float64, i, window int) contracts.FeatureValue {
	lo := i - window + 1
	if lo < 0 {
		return contracts.FeatureValue{Missing: true}
	}
	return contracts.FeatureValue{Value: stat.StdDev(values[lo:i+1], nil)}
}

// latestAsOf date 이전(포함) 마지막 결측 아닌 관측
func latestAsOf(series *ingest.Series, date time.Time) contracts.FeatureValue {
	for i := len(series.Observations) - 1; i >= 0; i-- {
		obs := series.Observations[i]
		if obs.Missing || obs.Date.After(date) {
			continue
		}
		return contracts.FeatureValue{Value: obs.Value}
	}
	return contracts.FeatureValue{Missing: true}
}

// changeAsOf date 기준 마지막 발표값의 직전 대비 변화율 (%)
func changeAsOf(series *ingest.Series, date time.Time) contracts.FeatureValue {
	var vals []float64
	for _, obs := range series.Observations {
		if obs.Missing || obs.Date.After(date) {
			continue
		}
		vals = append(vals, obs.Value)
	}
	n := len(vals)
	if n < 2 || vals[n-2] == 0 {
		return contracts.FeatureValue{Missing: true}
	}
	return contracts.FeatureValue{Value: (vals[n-1] - vals[n-2]) / vals[n-2] * 100}
}

// alignedValues 결측 제외 값 슬라이스와 날짜별 인덱스
func alignedValues(series *ingest.Series) ([]float64, map[string]int) {
	idx := make(map[string]int)
	if series == nil {
		return nil, idx
	}
	values := make([]float64, 0, len(series.Observations))
	for _, obs := range series.Observations {
		if obs.Missing {
			continue
		}
		idx[dateKey(obs.Date)] = len(values)
		values = append(values, obs.Value)
	}
	return values, idx
}

func indexByDate(series *ingest.Series) map[string]float64 {
	idx := make(map[string]float64)
	if series == nil {
		return idx
	}
	for _, obs := range series.Observations {
		if obs.Missing {
			continue
		}
		idx[dateKey(obs.Date)] = obs.Value
	}
	return idx
}

func seriesMax(series *ingest.Series) float64 {
	var max float64
	if series == nil {
		return 0
	}
	for _, obs := range series.Observations {
		if !obs.Missing && obs.Value > max {
			max = obs.Value
		}
	}
	return max
}

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
