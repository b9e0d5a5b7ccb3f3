package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/joonho/argus/internal/engine"
	"github.com/joonho/argus/internal/process"
	"github.com/joonho/argus/pkg/logger"
)

// PipelineJob 프로세싱 + 엔진 런 잡 (수집 후 매시 15분)
// 프로세싱이 실패하면 엔진은 돌리지 않음. 낡은 피처로 런을 만들지 않기 위함
type PipelineJob struct {
	builder      *process.Builder
	orchestrator *engine.Orchestrator
	logger       *logger.Logger
}

// NewPipelineJob creates a new pipeline job
func NewPipelineJob(builder *process.Builder, orchestrator *engine.Orchestrator, log *logger.Logger) *PipelineJob {
	return &PipelineJob{
		builder:      builder,
		orchestrator: orchestrator,
		logger:       log,
	}
}

// Name returns the job name
func (j *PipelineJob) Name() string {
	return "pipeline"
}

// Schedule returns the cron schedule (매시 15분, 수집 완료 후)
func (j *PipelineJob) Schedule() string {
	return "0 15 * * * *"
}

// Run executes processing followed by an engine run
func (j *PipelineJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled pipeline: process + engine")

	if err := j.builder.Process(ctx); err != nil {
		return fmt.Errorf("processing stage: %w", err)
	}

	// zero snapshot → 방금 끝난 가공의 완료 시각으로 핑거프린트 고정
	list, err := j.orchestrator.Run(ctx, time.Time{})
	if err != nil {
		return fmt.Errorf("engine run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":        list.RunID,
		"opportunities": len(list.Opportunities),
		"excluded":      len(list.Excluded),
	}).Info("Scheduled pipeline completed")

	return nil
}
