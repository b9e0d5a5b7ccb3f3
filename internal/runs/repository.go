package runs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/joonho/argus/internal/contracts"
	"github.com/joonho/argus/pkg/database"
)

// Repository PostgreSQL RunStore
// ⭐ SSOT: engine_runs 테이블 접근은 이 저장소를 통해서만
//
// 동시성 제어는 DB가 최종 결정:
//   - Begin: 핑거프린트별 pending 유일성은 partial unique index로 강제
//   - Complete: status='pending' 조건부 UPDATE (CAS). 경합 시 한쪽만 성공
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new run repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "runs_repository").Logger(),
	}
}

// Begin pending 런 레코드 삽입
// engine_runs는 (fingerprint) WHERE status='pending'에 unique index.
// 중복 삽입은 DB가 거부하고 ErrDuplicateConcurrentRun으로 변환
func (r *Repository) Begin(ctx context.Context, fingerprint string) (*contracts.RunRecord, error) {
	record := &contracts.RunRecord{
		ID:          uuid.New().String(),
		Fingerprint: fingerprint,
		Status:      contracts.RunPending,
		CreatedAt:   time.Now().UTC(),
	}

	query := `
		INSERT INTO engine_runs (id, fingerprint, status, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (fingerprint) WHERE status = 'pending' DO NOTHING
	`
	tag, err := r.db.Pool.Exec(ctx, query,
		record.ID, record.Fingerprint, string(record.Status), record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: fingerprint %s", contracts.ErrDuplicateConcurrentRun, fingerprint)
	}

	r.log.Debug().
		Str("run_id", record.ID).
		Str("fingerprint", fingerprint).
		Msg("run started")

	return record, nil
}

// Complete pending → terminal 조건부 전이
func (r *Repository) Complete(ctx context.Context, id string, status contracts.RunStatus, runErr error) error {
	if !status.Terminal() {
		return fmt.Errorf("runs: cannot complete run %s with non-terminal status %s", id, status)
	}

	var errText string
	if runErr != nil {
		errText = runErr.Error()
	}

	query := `
		UPDATE engine_runs
		SET status = $2, completed_at = $3, error = $4
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := r.db.Pool.Exec(ctx, query, id, string(status), time.Now().UTC(), errText)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// 존재하지 않거나 이미 터미널. 구분해서 보고
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: run %s", contracts.ErrRunAlreadyFinalized, id)
	}

	return nil
}

// GetByID ID로 런 조회
func (r *Repository) GetByID(ctx context.Context, id string) (*contracts.RunRecord, error) {
	query := `
		SELECT id, fingerprint, status, created_at, completed_at, COALESCE(error, '')
		FROM engine_runs
		WHERE id = $1
	`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id), id)
}

// GetByFingerprint 핑거프린트의 최신 런 조회
func (r *Repository) GetByFingerprint(ctx context.Context, fingerprint string) (*contracts.RunRecord, error) {
	query := `
		SELECT id, fingerprint, status, created_at, completed_at, COALESCE(error, '')
		FROM engine_runs
		WHERE fingerprint = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, fingerprint), fingerprint)
}

func (r *Repository) scanOne(row pgx.Row, key string) (*contracts.RunRecord, error) {
	var record contracts.RunRecord
	var status string
	var completedAt *time.Time

	err := row.Scan(&record.ID, &record.Fingerprint, &status,
		&record.CreatedAt, &completedAt, &record.Error)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", contracts.ErrRunNotFound, key)
		}
		return nil, fmt.Errorf("failed to scan run record: %w", err)
	}

	record.Status = contracts.RunStatus(status)
	record.CompletedAt = completedAt

	return &record, nil
}
