package contracts

import (
	"sort"
	"time"
)

// FeatureValue 단일 피처 값
// ⭐ SSOT: 결측값은 Missing 플래그로만 표현 (0으로 암묵 치환 금지)
type FeatureValue struct {
	Value   float64 `json:"value"`
	Missing bool    `json:"missing,omitempty"`
}

// FeatureVector 엔티티의 특정 시점 피처 벡터
// 업스트림 파이프라인이 생성한 후에는 불변
type FeatureVector struct {
	Entity    string                  `json:"entity"`
	Timestamp time.Time               `json:"timestamp"`
	Features  map[string]FeatureValue `json:"features"`
}

// FeatureNames 피처 이름 목록 (정렬된 순서)
// map 순회 순서에 의존하지 않도록 직렬화/해시 전에 사용
func (fv *FeatureVector) FeatureNames() []string {
	names := make([]string, 0, len(fv.Features))
	for name := range fv.Features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get 피처 값 조회
// 결측이거나 없으면 ok=false
func (fv *FeatureVector) Get(name string) (float64, bool) {
	v, exists := fv.Features[name]
	if !exists || v.Missing {
		return 0, false
	}
	return v.Value, true
}

// ValidateHistory 히스토리 시퀀스 검증
// 타임스탬프가 strictly increasing이 아니면 DegenerateInput
func ValidateHistory(history []FeatureVector) error {
	for i := 1; i < len(history); i++ {
		if !history[i].Timestamp.After(history[i-1].Timestamp) {
			return ErrDegenerateInput
		}
	}
	return nil
}
