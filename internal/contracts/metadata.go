package contracts

import "time"

// StageMetadata 파이프라인 스테이지 완료 기록
// 각 스테이지가 자기 메타데이터 키에 기록하고 헬스 체커가 staleness 판정에 사용
type StageMetadata struct {
	Stage       string            `json:"stage"` // collection | processing
	CompletedAt time.Time         `json:"completed_at"`
	Items       int               `json:"items"`            // 기록한 시계열/벡터 수
	Errors      map[string]string `json:"errors,omitempty"` // 소스/엔티티 → 실패 사유
}
