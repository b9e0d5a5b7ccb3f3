package runs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joonho/argus/internal/contracts"
)

// MemoryStore 인메모리 RunStore
// DB 비활성 환경(로컬 단발 실행, 테스트)용. 프로세스 재시작 시 소실
type MemoryStore struct {
	mu     sync.Mutex
	byID   map[string]*contracts.RunRecord
	byFP   map[string]string // fingerprint → 최신 run ID
	nowFn  func() time.Time
}

// NewMemoryStore creates a new in-memory run store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[string]*contracts.RunRecord),
		byFP:  make(map[string]string),
		nowFn: time.Now,
	}
}

// Begin pending 런 레코드 생성
// 동일 핑거프린트의 pending 런이 이미 있으면 ErrDuplicateConcurrentRun.
// 터미널 런은 재실행을 막지 않음 (재현성 재검증 허용)
func (s *MemoryStore) Begin(ctx context.Context, fingerprint string) (*contracts.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byFP[fingerprint]; ok {
		if existing := s.byID[id]; existing != nil && !existing.Status.Terminal() {
			return nil, fmt.Errorf("%w: fingerprint %s held by run %s",
				contracts.ErrDuplicateConcurrentRun, fingerprint, id)
		}
	}

	record := &contracts.RunRecord{
		ID:          uuid.New().String(),
		Fingerprint: fingerprint,
		Status:      contracts.RunPending,
		CreatedAt:   s.nowFn().UTC(),
	}
	s.byID[record.ID] = record
	s.byFP[fingerprint] = record.ID

	return copyRecord(record), nil
}

// Complete pending → terminal 상태 전이
// 이미 터미널인 레코드 전이 시도는 ErrRunAlreadyFinalized
func (s *MemoryStore) Complete(ctx context.Context, id string, status contracts.RunStatus, runErr error) error {
	if !status.Terminal() {
		return fmt.Errorf("runs: cannot complete run %s with non-terminal status %s", id, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", contracts.ErrRunNotFound, id)
	}
	if record.Status.Terminal() {
		return fmt.Errorf("%w: run %s is %s", contracts.ErrRunAlreadyFinalized, id, record.Status)
	}

	now := s.nowFn().UTC()
	record.Status = status
	record.CompletedAt = &now
	if runErr != nil {
		record.Error = runErr.Error()
	}

	return nil
}

// GetByID ID로 런 조회
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*contracts.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contracts.ErrRunNotFound, id)
	}
	return copyRecord(record), nil
}

// GetByFingerprint 핑거프린트의 최신 런 조회
func (s *MemoryStore) GetByFingerprint(ctx context.Context, fingerprint string) (*contracts.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byFP[fingerprint]
	if !ok {
		return nil, fmt.Errorf("%w: fingerprint %s", contracts.ErrRunNotFound, fingerprint)
	}
	return copyRecord(s.byID[id]), nil
}

func copyRecord(r *contracts.RunRecord) *contracts.RunRecord {
	c := *r
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
