package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joonho/argus/internal/ingest"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "원시 소스 수집 실행",
	Long: `FRED 경제지표, 위성 활동, 채용공고를 수집해
hand-off 버퍼의 raw:* 키에 적재합니다.

소스 하나의 실패는 나머지 수집을 막지 않으며
raw:metadata:last_collection의 Errors에 기록됩니다.

Example:
  go run ./cmd/argus collect`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argus Collection ===")

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	collector := ingest.NewCollector(
		ingest.NewFREDClient(a.cfg.FRED, a.log),
		ingest.NewJobsScraper(a.log),
		ingest.NewSyntheticGenerator(a.pol.Engine.Seed),
		a.store,
		a.pol,
		a.log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := collector.Collect(ctx); err != nil {
		return fmt.Errorf("collection: %w", err)
	}

	fmt.Println("\n✅ Collection completed")
	return nil
}
