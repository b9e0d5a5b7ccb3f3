package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joonho/argus/internal/health"
	"github.com/joonho/argus/internal/ingest"
	"github.com/joonho/argus/internal/process"
	"github.com/joonho/argus/internal/scheduler"
	"github.com/joonho/argus/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 시작 (수집 → 가공 → 엔진 자동 실행)",
	Long: `파이프라인 전체를 cron 스케줄로 반복 실행합니다.

Jobs:
  collection    매시 정각     원시 소스 수집
  pipeline      매시 15분     피처 가공 + 엔진 런
  health_check  15분 간격     staleness 점검

Example:
  go run ./cmd/argus scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argus Scheduler ===")

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	orchestrator, err := a.newOrchestrator()
	if err != nil {
		return err
	}

	collector := ingest.NewCollector(
		ingest.NewFREDClient(a.cfg.FRED, a.log),
		ingest.NewJobsScraper(a.log),
		ingest.NewSyntheticGenerator(a.pol.Engine.Seed),
		a.store,
		a.pol,
		a.log,
	)
	builder := process.NewBuilder(a.store, a.pol, a.log)
	checker := health.NewChecker(a.store, a.pol, a.log)

	sched := scheduler.New(a.log)
	for _, job := range []scheduler.Job{
		jobs.NewCollectionJob(collector, a.log),
		jobs.NewPipelineJob(builder, orchestrator, a.log),
		jobs.NewHealthJob(checker, a.log),
	} {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("add job %s: %w", job.Name(), err)
		}
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler running")
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
