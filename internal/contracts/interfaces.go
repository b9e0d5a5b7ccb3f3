package contracts

import (
	"context"
	"time"
)

// HistoryReader FeatureSnapshot 저장소 읽기 인터페이스
// 코어 입장에서 외부 협력자. 읽기 전용
// 반환 시퀀스의 타임스탬프가 비단조/중복이면 해당 엔티티는 DegenerateInput
type HistoryReader interface {
	ReadHistory(ctx context.Context, entity string, asOf time.Time, lookback int) ([]FeatureVector, error)

	// LastProcessed 프로세싱 스테이지의 마지막 완료 시각 (없으면 zero time).
	// 스냅샷 시각의 기본값: 같은 가공 산출물에 대한 트리거들이
	// 같은 런 핑거프린트로 수렴하는 기준점
	LastProcessed(ctx context.Context) (time.Time, error)
}

// Publisher 런 산출물 발행 인터페이스
// runID 기준 멱등 쓰기:
//   - 동일 runID + 동일 내용 재발행 = no-op
//   - 확정된 runID에 다른 내용 발행 = RunAlreadyFinalized (프로그래밍 오류)
type Publisher interface {
	PublishOpportunities(ctx context.Context, runID string, list *OpportunityList) error
	PublishForecasts(ctx context.Context, runID string, dists map[string]*ForecastDistribution) error
	PublishRunSummary(ctx context.Context, summary *RunSummary) error
}

// RunStore 런 레코드 저장소
// Complete는 원자적 상태 전이여야 함. pending이 아닌 레코드 전이 시도는
// RunAlreadyFinalized
type RunStore interface {
	Begin(ctx context.Context, fingerprint string) (*RunRecord, error)
	Complete(ctx context.Context, id string, status RunStatus, runErr error) error
	GetByID(ctx context.Context, id string) (*RunRecord, error)
	GetByFingerprint(ctx context.Context, fingerprint string) (*RunRecord, error)
}
