package contracts

import "time"

// OpportunityRecord 엔티티별 기회 레코드
// 불변식: ExpectedReturn과 Dispersion은 동일 시나리오 집합에서 계산
// 부분 갱신 금지. 런마다 통째로 교체
type OpportunityRecord struct {
	Entity         string  `json:"entity"`
	ExpectedReturn float64 `json:"expected_return"` // 평균 말단 수익률 (baseline 대비)
	Dispersion     float64 `json:"dispersion"`      // 말단 수익률 표준편차
	Score          float64 `json:"score"`           // 위험조정 점수 (return / dispersion)
	ProbPositive   float64 `json:"prob_positive"`   // 양(+)의 수익 확률
	P5             float64 `json:"p5"`              // 말단 값 백분위수
	P50            float64 `json:"p50"`
	P95            float64 `json:"p95"`
	RunID          string  `json:"run_id"`
}

// OpportunityList 런 하나의 최종 산출물
// Excluded는 실패로 제외된 엔티티의 사유 매니페스트.
// "기회 없음"과 "데이터 사용 불가"를 다운스트림에서 구분할 수 있게 함
type OpportunityList struct {
	RunID         string              `json:"run_id"`
	GeneratedAt   time.Time           `json:"generated_at"`
	Threshold     float64             `json:"threshold"`  // 최소 기대수익 임계값
	Iterations    int                 `json:"iterations"` // 시나리오 수 (재현성 기록)
	Seed          int64               `json:"seed"`
	Opportunities []OpportunityRecord `json:"opportunities"`   // 임계값 통과, 점수 내림차순
	Evaluations   []OpportunityRecord `json:"all_evaluations"` // 평가된 전체 엔티티
	Excluded      map[string]string   `json:"excluded"`        // entity → 실패 사유
}

// RunSummary 헬스 체크용 런 요약
// 외부 freshness 체커가 통계 재계산 없이 staleness를 판단할 수 있어야 함
type RunSummary struct {
	RunID            string    `json:"run_id"`
	CompletedAt      time.Time `json:"completed_at"`
	EntitiesIn       int       `json:"entities_in"`
	EntitiesForecast int       `json:"entities_forecast"`
	EntitiesExcluded int       `json:"entities_excluded"`
	Opportunities    int       `json:"opportunities"`
}
