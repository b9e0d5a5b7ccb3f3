package jobs

import (
	"context"

	"github.com/joonho/argus/internal/ingest"
	"github.com/joonho/argus/pkg/logger"
)

// CollectionJob 원시 소스 수집 잡 (매시 정각)
type CollectionJob struct {
	collector *ingest.Collector
	logger    *logger.Logger
}

// NewCollectionJob creates a new collection job
func NewCollectionJob(collector *ingest.Collector, log *logger.Logger) *CollectionJob {
	return &CollectionJob{
		collector: collector,
		logger:    log,
	}
}

// Name returns the job name
func (j *CollectionJob) Name() string {
	return "collection"
}

// Schedule returns the cron schedule (매시 정각)
func (j *CollectionJob) Schedule() string {
	return "0 0 * * * *"
}

// Run executes the collection stage
func (j *CollectionJob) Run(ctx context.Context) error {
	return j.collector.Collect(ctx)
}
