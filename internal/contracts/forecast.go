package contracts

import (
	"fmt"
	"time"
)

// HorizonForecast 단일 호라이즌의 분포 요약
type HorizonForecast struct {
	Horizon int     `json:"horizon"` // 미래 오프셋 (기간 단위)
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Lower   float64 `json:"lower"` // mean - 2σ (바운드 적용 후)
	Upper   float64 `json:"upper"` // mean + 2σ (바운드 적용 후)
}

// ForecastDistribution 엔티티별 예측 분포
// ⭐ SSOT: 생성 후 불변 (새 예측 = 새 객체)
// 불변식: Horizons는 strictly increasing, StdDev는 음수 불가 + 호라이즌에 대해 non-decreasing
type ForecastDistribution struct {
	Entity        string            `json:"entity"`
	ReferenceTime time.Time         `json:"reference_time"` // 예측 기준 시점 (마지막 관측)
	Baseline      float64           `json:"baseline"`       // 마지막 관측값 (수익률 기준점)
	ModelVersion  string            `json:"model_version"`  // 모델 전략 + 파라미터 버전
	Horizons      []HorizonForecast `json:"horizons"`
}

// Validate 분포 불변식 검증
func (d *ForecastDistribution) Validate() error {
	if len(d.Horizons) == 0 {
		return fmt.Errorf("%w: distribution has no horizons", ErrDegenerateInput)
	}

	prevHorizon := 0
	prevStdDev := 0.0
	for i, h := range d.Horizons {
		if h.Horizon <= prevHorizon {
			return fmt.Errorf("%w: horizons must be strictly increasing (index %d)", ErrDegenerateInput, i)
		}
		if h.StdDev < 0 {
			return fmt.Errorf("%w: negative dispersion at horizon %d", ErrDegenerateInput, h.Horizon)
		}
		if i > 0 && h.StdDev < prevStdDev {
			return fmt.Errorf("%w: dispersion shrinks at horizon %d", ErrDegenerateInput, h.Horizon)
		}
		prevHorizon = h.Horizon
		prevStdDev = h.StdDev
	}

	return nil
}

// HorizonOffsets 호라이즌 오프셋 목록
func (d *ForecastDistribution) HorizonOffsets() []int {
	offsets := make([]int, len(d.Horizons))
	for i, h := range d.Horizons {
		offsets[i] = h.Horizon
	}
	return offsets
}
