package forecast

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/joonho/argus/internal/contracts"
)

// Config Forecaster 설정
// 모든 값은 외부에서 주입 (엔진 정책 YAML). ambient 상태 없음
type Config struct {
	TargetFeature        string // 예측 대상 피처 (예: activity_score)
	Horizons             []int  // strictly increasing 양의 오프셋
	MinHistoryMultiplier int    // 최소 관측 수 = multiplier × max(horizons)
	DispersionFloor      float64
	Model                string // linear | holt
}

// Forecaster 엔티티별 예측 분포 생성기
// history + config의 순수 함수. 엔티티 간 공유 상태 없음
type Forecaster struct {
	config Config
	model  TrendModel
	log    zerolog.Logger
}

// New creates a new forecaster
func New(config Config, log zerolog.Logger) (*Forecaster, error) {
	if len(config.Horizons) == 0 {
		return nil, fmt.Errorf("forecast: no horizons configured")
	}
	prev := 0
	for _, h := range config.Horizons {
		if h <= prev {
			return nil, fmt.Errorf("forecast: horizons must be positive and strictly increasing")
		}
		prev = h
	}
	if config.MinHistoryMultiplier < 1 {
		return nil, fmt.Errorf("forecast: min_history_multiplier must be >= 1")
	}

	model, err := NewModel(config.Model)
	if err != nil {
		return nil, err
	}

	return &Forecaster{
		config: config,
		model:  model,
		log:    log.With().Str("component", "forecast").Logger(),
	}, nil
}

// ModelVersion 모델 전략 식별자 (런 핑거프린트에 포함)
func (f *Forecaster) ModelVersion() string {
	return f.model.Name() + "_v1"
}

// Forecast 단일 엔티티 히스토리로부터 예측 분포 생성
//
// 실패 분류 (모두 엔티티 단위. 다른 엔티티 처리를 중단시키지 않음):
//   - ErrInsufficientHistory: 관측 수 < multiplier × max(horizon)
//   - ErrDegenerateInput: 비단조 타임스탬프, 또는 floor 없이 zero-variance
//   - ErrModelFitFailure: 수치적 비수렴 (비유한 계수)
func (f *Forecaster) Forecast(history []contracts.FeatureVector) (*contracts.ForecastDistribution, error) {
	if err := contracts.ValidateHistory(history); err != nil {
		return nil, fmt.Errorf("%w: non-monotonic or duplicate timestamps", contracts.ErrDegenerateInput)
	}

	// 결측 처리 정책: 제외 (암묵적 zero-fill 금지)
	series, last := f.extractSeries(history)

	maxHorizon := f.config.Horizons[len(f.config.Horizons)-1]
	minObs := f.config.MinHistoryMultiplier * maxHorizon
	if len(series) < minObs {
		return nil, fmt.Errorf("%w: have %d usable observations of %q, need %d",
			contracts.ErrInsufficientHistory, len(series), f.config.TargetFeature, minObs)
	}

	// zero-variance 히스토리: floor가 있으면 floor로 폴백, 없으면 실패
	// (0으로 나누는 스케일링을 만들지 않기 위한 fail-closed)
	if stat.StdDev(series, nil) == 0 && f.config.DispersionFloor <= 0 {
		return nil, fmt.Errorf("%w: zero-variance history for %q and no dispersion floor",
			contracts.ErrDegenerateInput, f.config.TargetFeature)
	}

	fitted, err := f.model.Fit(series)
	if err != nil {
		return nil, err
	}

	return f.buildDistribution(series, fitted, last)
}

// extractSeries 타깃 피처 시계열 추출
// 결측 관측은 제외하고, 마지막으로 포함된 관측을 기준점으로 반환
func (f *Forecaster) extractSeries(history []contracts.FeatureVector) ([]float64, *contracts.FeatureVector) {
	series := make([]float64, 0, len(history))
	var last *contracts.FeatureVector

	for i := range history {
		v, ok := history[i].Get(f.config.TargetFeature)
		if !ok {
			continue
		}
		series = append(series, v)
		last = &history[i]
	}

	return series, last
}

// buildDistribution 분포 조립
// ⭐ 분산 규칙은 여기 한 곳에서만: σ_h = max(residual σ × sqrt(h), floor)
// sqrt(h)는 단조 증가이므로 "불확실성은 거리에 따라 줄지 않는다" 불변식이 성립
func (f *Forecaster) buildDistribution(series []float64, fitted FittedModel, last *contracts.FeatureVector) (*contracts.ForecastDistribution, error) {
	residuals := make([]float64, len(series))
	for i, v := range series {
		residuals[i] = v - fitted.Fitted()[i]
	}
	residSigma := stat.StdDev(residuals, nil)
	if !isFinite(residSigma) {
		return nil, fmt.Errorf("%w: non-finite residual variance", contracts.ErrModelFitFailure)
	}

	horizons := make([]contracts.HorizonForecast, len(f.config.Horizons))
	for i, h := range f.config.Horizons {
		mean := fitted.Predict(h)
		if !isFinite(mean) {
			return nil, fmt.Errorf("%w: non-finite forecast at horizon %d", contracts.ErrModelFitFailure, h)
		}

		sigma := residSigma * math.Sqrt(float64(h))
		if sigma < f.config.DispersionFloor {
			sigma = f.config.DispersionFloor
		}

		horizons[i] = contracts.HorizonForecast{
			Horizon: h,
			Mean:    mean,
			StdDev:  sigma,
			Lower:   mean - 2*sigma,
			Upper:   mean + 2*sigma,
		}
	}

	dist := &contracts.ForecastDistribution{
		Entity:        last.Entity,
		ReferenceTime: last.Timestamp,
		Baseline:      series[len(series)-1],
		ModelVersion:  f.ModelVersion(),
		Horizons:      horizons,
	}

	// 불변식은 생성 직후 한 번 더 검증 (새 모델 전략이 깨뜨리면 즉시 탐지)
	if err := dist.Validate(); err != nil {
		return nil, err
	}

	return dist, nil
}
