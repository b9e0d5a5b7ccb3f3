package contracts

// ScenarioPath 시뮬레이션 시나리오 경로 하나
// 불변식: len(Values) == 원본 ForecastDistribution의 호라이즌 수
// 시뮬레이션 런이 단독 소유하며 집계 후 폐기 (명시적 저장 시에만 유지)
type ScenarioPath struct {
	Entity string    `json:"entity"`
	RunID  string    `json:"run_id"`
	Index  int       `json:"index"` // 0..N-1 시나리오 인덱스
	Values []float64 `json:"values"`
}

// Terminal 경로의 마지막(최장 호라이즌) 값
func (p *ScenarioPath) Terminal() float64 {
	if len(p.Values) == 0 {
		return 0
	}
	return p.Values[len(p.Values)-1]
}

// ValueBounds 시뮬레이션 값 바운드
// 정책: 범위를 벗어난 샘플은 클리핑 (재샘플링 아님)
// 원 시스템의 activity score는 [0, 100] 범위
type ValueBounds struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Clip 값을 바운드 안으로 클리핑
func (b *ValueBounds) Clip(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// CorrelationPolicy 엔티티 간 상관 정책
// Groups: 그룹명 → 공유 매크로 쇼크를 받는 엔티티 목록
// Weight: 공유 쇼크 비중 ρ (0=독립, 1=완전 공유)
type CorrelationPolicy struct {
	Groups map[string][]string `json:"groups" yaml:"groups"`
	Weight float64             `json:"weight" yaml:"weight"`
}

// Correlated 엔티티가 상관 그룹에 속하는지 여부
func (p *CorrelationPolicy) Correlated(entity string) bool {
	if p == nil {
		return false
	}
	for _, members := range p.Groups {
		for _, m := range members {
			if m == entity {
				return true
			}
		}
	}
	return false
}

// Members 정책이 참조하는 전체 엔티티 목록 (중복 제거 안 함)
func (p *CorrelationPolicy) Members() []string {
	if p == nil {
		return nil
	}
	var all []string
	for _, members := range p.Groups {
		all = append(all, members...)
	}
	return all
}
