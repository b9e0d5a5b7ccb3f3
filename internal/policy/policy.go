package policy

import (
	"github.com/joonho/argus/internal/contracts"
)

// Policy 엔진 정책 전체
// ⭐ SSOT: config/policy/*.yaml이 원본, 이 struct는 그 스키마
// 런 핑거프린트에 Hash(policy)가 포함되므로 정책 변경 = 새 런
type Policy struct {
	Meta       Meta         `yaml:"meta" json:"meta"`
	Entities   []Entity     `yaml:"entities" json:"entities"`
	Indicators []Indicator  `yaml:"indicators" json:"indicators"`
	Engine     EngineConfig `yaml:"engine" json:"engine"`
	Freshness  Freshness    `yaml:"freshness" json:"freshness"`
}

// Meta 정책 메타데이터
type Meta struct {
	PolicyID string `yaml:"policy_id" json:"policy_id"`
	Version  int    `yaml:"version" json:"version"`
}

// Entity 모니터링 대상 엔티티
type Entity struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"` // port | factory | mine | retail_hub
	// CareersURL 채용공고 페이지 (비어 있으면 합성 시계열로 대체)
	CareersURL string `yaml:"careers_url,omitempty" json:"careers_url,omitempty"`
}

// Indicator 수집 대상 경제지표 (FRED)
type Indicator struct {
	Name     string `yaml:"name" json:"name"`
	SeriesID string `yaml:"series_id" json:"series_id"`
}

// EngineConfig 예측/시뮬레이션/랭킹 파라미터
type EngineConfig struct {
	TargetFeature          string                      `yaml:"target_feature" json:"target_feature"`
	Horizons               []int                       `yaml:"horizons" json:"horizons"`
	MinHistoryMultiplier   int                         `yaml:"min_history_multiplier" json:"min_history_multiplier"`
	Iterations             int                         `yaml:"iterations" json:"iterations"`
	Seed                   int64                       `yaml:"seed" json:"seed"`
	MinimumReturnThreshold float64                     `yaml:"minimum_return_threshold" json:"minimum_return_threshold"`
	DispersionFloor        float64                     `yaml:"dispersion_floor" json:"dispersion_floor"`
	Model                  string                      `yaml:"model" json:"model"` // linear | holt
	Bounds                 *contracts.ValueBounds      `yaml:"bounds" json:"bounds,omitempty"`
	Correlation            *contracts.CorrelationPolicy `yaml:"correlation" json:"correlation,omitempty"`
	Workers                int                         `yaml:"workers" json:"workers"` // 0 = GOMAXPROCS
}

// Freshness 스테이지별 staleness 한도 (분)
type Freshness struct {
	CollectionMaxAgeMin int `yaml:"collection_max_age_min" json:"collection_max_age_min"`
	ProcessingMaxAgeMin int `yaml:"processing_max_age_min" json:"processing_max_age_min"`
	EngineMaxAgeMin     int `yaml:"engine_max_age_min" json:"engine_max_age_min"`
}

// EntityNames 엔티티 이름 목록
func (p *Policy) EntityNames() []string {
	names := make([]string, len(p.Entities))
	for i, e := range p.Entities {
		names[i] = e.Name
	}
	return names
}

// Default returns the built-in default policy
// YAML 파일이 없을 때 개발 환경용
func Default() *Policy {
	return &Policy{
		Meta: Meta{PolicyID: "osint_alpha_v1", Version: 1},
		Entities: []Entity{
			{Name: "port_shanghai", Type: "port"},
			{Name: "port_busan", Type: "port"},
			{Name: "factory_shenzhen", Type: "factory"},
			{Name: "mine_pilbara", Type: "mine"},
			{Name: "retail_hub_memphis", Type: "retail_hub"},
		},
		Indicators: []Indicator{
			{Name: "gdp", SeriesID: "GDP"},
			{Name: "unemployment", SeriesID: "UNRATE"},
			{Name: "industrial_production", SeriesID: "INDPRO"},
		},
		Engine: EngineConfig{
			TargetFeature:          "activity_score",
			Horizons:               []int{1, 7, 30},
			MinHistoryMultiplier:   2,
			Iterations:             1000,
			Seed:                   42,
			MinimumReturnThreshold: 0.15,
			DispersionFloor:        0.01,
			Model:                  "linear",
			Bounds:                 &contracts.ValueBounds{Min: 0, Max: 100},
		},
		Freshness: Freshness{
			CollectionMaxAgeMin: 120,
			ProcessingMaxAgeMin: 120,
			EngineMaxAgeMin:     180,
		},
	}
}
