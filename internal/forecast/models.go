package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/joonho/argus/internal/contracts"
)

// TrendModel 추세 모델 전략
// ⭐ 모델 패밀리는 플러그러블. 분산 단조성 불변식은 모델이 아니라
// Forecaster.buildDistribution에서 강제하므로 어느 구현이든 안전
type TrendModel interface {
	// Name 모델 식별자 (model_version에 포함)
	Name() string
	// Fit 시계열 적합. series는 결측 제거 후의 등간격 관측값
	Fit(series []float64) (FittedModel, error)
}

// FittedModel 적합된 모델
type FittedModel interface {
	// Predict 마지막 관측 시점 기준 h 기간 뒤의 점 예측
	Predict(h int) float64
	// Fitted in-sample 적합값 (잔차 분산 계산용, len == len(series))
	Fitted() []float64
}

// NewModel 모델 이름으로 전략 선택
func NewModel(name string) (TrendModel, error) {
	switch name {
	case "linear":
		return &LinearTrend{}, nil
	case "holt":
		return &ExponentialSmoothing{Alpha: 0.5, Beta: 0.3}, nil
	default:
		return nil, fmt.Errorf("unknown trend model %q", name)
	}
}

// =============================================================================
// Linear Trend (OLS)
// =============================================================================

// LinearTrend 단순 선형 추세 모델 (최소제곱)
// 원 시스템의 LinearRegression 예측기와 동일한 패밀리
type LinearTrend struct{}

// Name returns the model identifier
func (m *LinearTrend) Name() string { return "linear" }

// Fit 시간 인덱스에 대한 OLS 적합
func (m *LinearTrend) Fit(series []float64) (FittedModel, error) {
	n := len(series)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 observations for OLS", contracts.ErrModelFitFailure)
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}

	alpha, beta := stat.LinearRegression(xs, series, nil, false)
	if !isFinite(alpha) || !isFinite(beta) {
		return nil, fmt.Errorf("%w: OLS produced non-finite coefficients", contracts.ErrModelFitFailure)
	}

	fitted := make([]float64, n)
	for i := range fitted {
		fitted[i] = alpha + beta*float64(i)
	}

	return &linearFit{alpha: alpha, beta: beta, n: n, fitted: fitted}, nil
}

type linearFit struct {
	alpha, beta float64
	n           int
	fitted      []float64
}

func (f *linearFit) Predict(h int) float64 {
	return f.alpha + f.beta*float64(f.n-1+h)
}

func (f *linearFit) Fitted() []float64 { return f.fitted }

// =============================================================================
// Exponential Smoothing (Holt)
// =============================================================================

// ExponentialSmoothing Holt 이중 지수평활 (level + trend)
type ExponentialSmoothing struct {
	Alpha float64 // level 평활 계수 (0, 1]
	Beta  float64 // trend 평활 계수 (0, 1]
}

// Name returns the model identifier
func (m *ExponentialSmoothing) Name() string { return "holt" }

// Fit Holt 재귀 적합
func (m *ExponentialSmoothing) Fit(series []float64) (FittedModel, error) {
	n := len(series)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 observations for Holt", contracts.ErrModelFitFailure)
	}
	if m.Alpha <= 0 || m.Alpha > 1 || m.Beta <= 0 || m.Beta > 1 {
		return nil, fmt.Errorf("%w: smoothing parameters out of (0, 1]", contracts.ErrModelFitFailure)
	}

	level := series[0]
	trend := series[1] - series[0]

	fitted := make([]float64, n)
	fitted[0] = series[0]

	for i := 1; i < n; i++ {
		// 갱신 전의 level+trend가 i 시점의 one-step 예측
		fitted[i] = level + trend

		prevLevel := level
		level = m.Alpha*series[i] + (1-m.Alpha)*(level+trend)
		trend = m.Beta*(level-prevLevel) + (1-m.Beta)*trend
	}

	if !isFinite(level) || !isFinite(trend) {
		return nil, fmt.Errorf("%w: smoothing diverged", contracts.ErrModelFitFailure)
	}

	return &holtFit{level: level, trend: trend, fitted: fitted}, nil
}

type holtFit struct {
	level, trend float64
	fitted       []float64
}

func (f *holtFit) Predict(h int) float64 {
	return f.level + float64(h)*f.trend
}

func (f *holtFit) Fitted() []float64 { return f.fitted }

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
