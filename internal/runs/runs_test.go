package runs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joonho/argus/internal/contracts"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record, err := store.Begin(ctx, "fp-1")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if record.Status != contracts.RunPending {
		t.Errorf("new run must be pending, got %s", record.Status)
	}
	if record.ID == "" {
		t.Error("run must be assigned an ID")
	}

	if err := store.Complete(ctx, record.ID, contracts.RunSucceeded, nil); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	got, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != contracts.RunSucceeded {
		t.Errorf("expected succeeded, got %s", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("completed run must have completion time")
	}
}

func TestMemoryStoreDuplicatePending(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.Begin(ctx, "fp-dup")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	// pending 상태에서 동일 핑거프린트 → 거부
	if _, err := store.Begin(ctx, "fp-dup"); !errors.Is(err, contracts.ErrDuplicateConcurrentRun) {
		t.Errorf("expected ErrDuplicateConcurrentRun, got %v", err)
	}

	// 터미널 전이 후에는 재실행 허용 (재현성 재검증)
	if err := store.Complete(ctx, first.ID, contracts.RunFailed, errors.New("redis down")); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if _, err := store.Begin(ctx, "fp-dup"); err != nil {
		t.Errorf("re-run after terminal state must be allowed: %v", err)
	}
}

func TestMemoryStoreCompleteTwice(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record, _ := store.Begin(ctx, "fp-2")
	if err := store.Complete(ctx, record.ID, contracts.RunSucceeded, nil); err != nil {
		t.Fatalf("first Complete failed: %v", err)
	}

	// 터미널 레코드 재전이 → RunAlreadyFinalized
	err := store.Complete(ctx, record.ID, contracts.RunFailed, errors.New("late failure"))
	if !errors.Is(err, contracts.ErrRunAlreadyFinalized) {
		t.Errorf("expected ErrRunAlreadyFinalized, got %v", err)
	}

	// 상태는 첫 전이가 유지되어야 함
	got, _ := store.GetByID(ctx, record.ID)
	if got.Status != contracts.RunSucceeded {
		t.Errorf("terminal status must not change, got %s", got.Status)
	}
}

func TestMemoryStoreNonTerminalComplete(t *testing.T) {
	store := NewMemoryStore()
	record, _ := store.Begin(context.Background(), "fp-3")

	if err := store.Complete(context.Background(), record.ID, contracts.RunPending, nil); err == nil {
		t.Error("transition to pending must be rejected")
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	store := NewMemoryStore()

	if _, err := store.GetByID(context.Background(), "missing"); !errors.Is(err, contracts.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := store.GetByFingerprint(context.Background(), "missing"); !errors.Is(err, contracts.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if err := store.Complete(context.Background(), "missing", contracts.RunSucceeded, nil); !errors.Is(err, contracts.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestMemoryStoreGetByFingerprint(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, _ := store.Begin(ctx, "fp-4")
	_ = store.Complete(ctx, first.ID, contracts.RunSucceeded, nil)
	second, _ := store.Begin(ctx, "fp-4")

	got, err := store.GetByFingerprint(ctx, "fp-4")
	if err != nil {
		t.Fatalf("GetByFingerprint failed: %v", err)
	}
	if got.ID != second.ID {
		t.Errorf("expected latest run %s, got %s", second.ID, got.ID)
	}
}

func TestCoordinatorSingleComputation(t *testing.T) {
	// 시나리오: 동일 핑거프린트 동시 트리거 → 계산은 최대 1회
	coord := NewCoordinator()

	var calls atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	results := make([]*contracts.OpportunityList, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			list, _, err := coord.Do("fp-shared", func() (*contracts.OpportunityList, error) {
				calls.Add(1)
				time.Sleep(20 * time.Millisecond) // 합류 윈도우 확보
				return &contracts.OpportunityList{RunID: "run-1"}, nil
			})
			if err != nil {
				t.Errorf("Do failed: %v", err)
			}
			results[i] = list
		}(i)
	}

	close(start)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected exactly 1 computation, got %d", calls.Load())
	}
	for i, list := range results {
		if list == nil || list.RunID != "run-1" {
			t.Errorf("caller %d did not receive the shared result", i)
		}
	}
}

func TestCoordinatorDistinctFingerprints(t *testing.T) {
	coord := NewCoordinator()

	var calls atomic.Int32
	fn := func() (*contracts.OpportunityList, error) {
		calls.Add(1)
		return &contracts.OpportunityList{}, nil
	}

	if _, _, err := coord.Do("fp-a", fn); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if _, _, err := coord.Do("fp-b", fn); err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	if calls.Load() != 2 {
		t.Errorf("distinct fingerprints must compute independently, got %d calls", calls.Load())
	}
}

func TestCoordinatorPropagatesError(t *testing.T) {
	coord := NewCoordinator()

	wantErr := errors.New("feature store unavailable")
	list, _, err := coord.Do("fp-err", func() (*contracts.OpportunityList, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected propagated error, got %v", err)
	}
	if list != nil {
		t.Error("failed computation must not return a list")
	}
}
