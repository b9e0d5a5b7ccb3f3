package publish

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/joonho/argus/internal/contracts"
	"github.com/joonho/argus/pkg/database"
)

// Repository 기회 레코드 감사 저장소 (PostgreSQL)
// hand-off 버퍼는 최신 런만 유지하므로 과거 런 조회는 여기서만 가능
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new audit repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "publish_repository").Logger(),
	}
}

// SaveOpportunities 런의 전체 평가 결과를 일괄 저장
// (run_id, entity) 유니크. 재시도 삽입은 무시되어 멱등
func (r *Repository) SaveOpportunities(ctx context.Context, list *contracts.OpportunityList) error {
	if len(list.Evaluations) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO opportunity_records
			(run_id, entity, expected_return, dispersion, score, prob_positive, p5, p50, p95, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id, entity) DO NOTHING
	`
	for _, rec := range list.Evaluations {
		batch.Queue(query,
			rec.RunID, rec.Entity, rec.ExpectedReturn, rec.Dispersion, rec.Score,
			rec.ProbPositive, rec.P5, rec.P50, rec.P95, list.GeneratedAt)
	}

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	for range list.Evaluations {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to save opportunity records: %w", err)
		}
	}

	r.log.Debug().
		Str("run_id", list.RunID).
		Int("records", len(list.Evaluations)).
		Msg("opportunity records archived")

	return nil
}

// GetByRun 과거 런의 평가 결과 조회
func (r *Repository) GetByRun(ctx context.Context, runID string) ([]contracts.OpportunityRecord, error) {
	query := `
		SELECT run_id, entity, expected_return, dispersion, score, prob_positive, p5, p50, p95
		FROM opportunity_records
		WHERE run_id = $1
		ORDER BY score DESC, entity ASC
	`
	rows, err := r.db.Pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunity records: %w", err)
	}
	defer rows.Close()

	var records []contracts.OpportunityRecord
	for rows.Next() {
		var rec contracts.OpportunityRecord
		if err := rows.Scan(&rec.RunID, &rec.Entity, &rec.ExpectedReturn, &rec.Dispersion,
			&rec.Score, &rec.ProbPositive, &rec.P5, &rec.P50, &rec.P95); err != nil {
			return nil, fmt.Errorf("failed to scan opportunity record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
