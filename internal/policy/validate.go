package policy

import "fmt"

// ValidationError 검증 실패 (런 전체 중단. 설정 오류는 엔티티 단위로 격리하지 않음)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(p *Policy) error {
	// === Meta ===
	if p.Meta.PolicyID == "" {
		return ValidationError{"meta.policy_id", "required"}
	}

	// === Entities ===
	if len(p.Entities) == 0 {
		return ValidationError{"entities", "at least one monitored entity required"}
	}
	seen := make(map[string]bool, len(p.Entities))
	for i, e := range p.Entities {
		if e.Name == "" {
			return ValidationError{fmt.Sprintf("entities[%d].name", i), "required"}
		}
		if seen[e.Name] {
			return ValidationError{fmt.Sprintf("entities[%d].name", i), "duplicate entity " + e.Name}
		}
		seen[e.Name] = true
	}

	// === Engine ===
	eng := &p.Engine
	if eng.TargetFeature == "" {
		return ValidationError{"engine.target_feature", "required"}
	}
	if len(eng.Horizons) == 0 {
		return ValidationError{"engine.horizons", "required"}
	}
	prev := 0
	for i, h := range eng.Horizons {
		if h <= prev {
			return ValidationError{
				fmt.Sprintf("engine.horizons[%d]", i),
				"horizons must be positive and strictly increasing",
			}
		}
		prev = h
	}
	if eng.MinHistoryMultiplier < 1 {
		return ValidationError{"engine.min_history_multiplier", "must be >= 1"}
	}
	if eng.Iterations <= 0 {
		return ValidationError{"engine.iterations", "must be positive"}
	}
	if eng.MinimumReturnThreshold < 0 {
		return ValidationError{"engine.minimum_return_threshold", "must be >= 0"}
	}
	if eng.DispersionFloor < 0 {
		return ValidationError{"engine.dispersion_floor", "must be >= 0"}
	}
	if eng.Model != "linear" && eng.Model != "holt" {
		return ValidationError{"engine.model", "must be one of: linear, holt"}
	}
	if eng.Bounds != nil && eng.Bounds.Min >= eng.Bounds.Max {
		return ValidationError{"engine.bounds", "min must be < max"}
	}

	// === Correlation ===
	// 정책이 참조하는 엔티티는 모니터링 대상이어야 함
	if eng.Correlation != nil {
		if eng.Correlation.Weight < 0 || eng.Correlation.Weight > 1 {
			return ValidationError{"engine.correlation.weight", "must be in [0, 1]"}
		}
		for group, members := range eng.Correlation.Groups {
			for _, m := range members {
				if !seen[m] {
					return ValidationError{
						"engine.correlation.groups." + group,
						"unknown entity " + m,
					}
				}
			}
		}
	}

	return nil
}
