package jobs

import (
	"context"

	"github.com/joonho/argus/internal/health"
	"github.com/joonho/argus/pkg/logger"
)

// HealthJob 파이프라인 staleness 점검 잡 (15분 간격)
// unhealthy 판정은 로그로만 알림. 복구 시도는 하지 않음
type HealthJob struct {
	checker *health.Checker
	logger  *logger.Logger
}

// NewHealthJob creates a new health check job
func NewHealthJob(checker *health.Checker, log *logger.Logger) *HealthJob {
	return &HealthJob{
		checker: checker,
		logger:  log,
	}
}

// Name returns the job name
func (j *HealthJob) Name() string {
	return "health_check"
}

// Schedule returns the cron schedule (15분 간격)
func (j *HealthJob) Schedule() string {
	return "0 */15 * * * *"
}

// Run executes the health check
func (j *HealthJob) Run(ctx context.Context) error {
	report, err := j.checker.Check(ctx)
	if err != nil {
		return err
	}

	if report.Healthy {
		j.logger.Debug("Pipeline healthy")
	}
	// unhealthy 상세는 Checker가 스테이지별로 이미 로깅함

	return nil
}
