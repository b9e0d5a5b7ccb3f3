package contracts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"
)

// RunStatus 런 상태
// 상태 머신: pending → {succeeded, failed}, 터미널 도달 후 전이 불가
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Terminal 터미널 상태 여부
func (s RunStatus) Terminal() bool {
	return s == RunSucceeded || s == RunFailed
}

// RunRecord 런 북키핑 레코드
// ⭐ SSOT: Fingerprint가 재현성 키. 동일 입력+시드 재실행은 동일 결과를 재생산해야 함
type RunRecord struct {
	ID          string     `json:"id"`
	Fingerprint string     `json:"fingerprint"`
	Status      RunStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// RunInputs 핑거프린트를 구성하는 런 결정 입력
type RunInputs struct {
	Entities     []string  `json:"entities"` // 정렬 후 해시
	SnapshotTime time.Time `json:"snapshot_time"`
	ModelVersion string    `json:"model_version"`
	PolicyHash   string    `json:"policy_hash"`
	Seed         int64     `json:"seed"`
	Iterations   int       `json:"iterations"`
}

// Fingerprint 입력으로부터 결정적 핑거프린트 계산
// canonical JSON(엔티티 정렬, UTC 타임스탬프)의 sha256 hex
func (in RunInputs) Fingerprint() string {
	canonical := in
	canonical.Entities = make([]string, len(in.Entities))
	copy(canonical.Entities, in.Entities)
	sort.Strings(canonical.Entities)
	canonical.SnapshotTime = in.SnapshotTime.UTC()

	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
