package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joonho/argus/internal/health"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "파이프라인 상태 조회",
	Long: `hand-off 버퍼의 스테이지 메타데이터로 파이프라인의
staleness를 판정해 출력합니다.

Example:
  go run ./cmd/argus status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argus Pipeline Status ===")

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	checker := health.NewChecker(a.store, a.pol, a.log)
	report, err := checker.Check(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	fmt.Println()
	for _, s := range report.Stages {
		mark := "✅"
		if !s.Healthy {
			mark = "❌"
		}
		if s.LastCompleted.IsZero() {
			fmt.Printf("%s %-12s never completed\n", mark, s.Stage)
			continue
		}
		fmt.Printf("%s %-12s last %s (%.0f min ago, max %d min)\n",
			mark, s.Stage, s.LastCompleted.Format(time.RFC3339), s.AgeMinutes, s.MaxAgeMinutes)
	}

	if report.Healthy {
		fmt.Println("\nPipeline healthy")
	} else {
		fmt.Println("\nPipeline UNHEALTHY")
	}

	if a.redis.Enabled() {
		if latency, err := a.redis.HealthCheck(ctx); err != nil {
			fmt.Printf("\nRedis: UNHEALTHY (%v)\n", err)
		} else {
			fmt.Printf("\nRedis: healthy (%s)\n", latency)
		}
	}

	// DB가 켜져 있으면 연결 상태도 출력
	if a.db != nil {
		db := a.db.HealthCheck(ctx)
		if db.Healthy {
			fmt.Printf("\nDatabase: healthy (%s, %d conns)\n", db.ResponseTime, db.TotalConns)
		} else {
			fmt.Printf("\nDatabase: UNHEALTHY (%s)\n", db.Error)
		}
	}

	return nil
}
