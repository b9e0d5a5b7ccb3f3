package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "엔진 런 1회 실행",
	Long: `예측 → Monte Carlo 시뮬레이션 → 위험조정 랭킹을 한 번 실행하고
기회 리스트를 hand-off 버퍼에 발행합니다.

이 명령어는:
- processed:history:*에서 피처 히스토리 읽기
- 엔티티별 예측 분포 생성 (실패 엔티티는 제외 매니페스트에 기록)
- 시드 고정 시나리오 시뮬레이션
- opportunities:<run_id> + opportunities:latest 발행

Example:
  go run ./cmd/argus run
  go run ./cmd/argus run --timeout 5m`,
	RunE: runEngine,
}

var runTimeout time.Duration

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "런 전체 타임아웃")
}

func runEngine(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argus Engine Run ===")

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	orchestrator, err := a.newOrchestrator()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	// 스냅샷 시각은 마지막 가공 완료 시각에서 유도 (핑거프린트 수렴)
	list, err := orchestrator.Run(ctx, time.Time{})
	if err != nil {
		return fmt.Errorf("engine run: %w", err)
	}

	fmt.Printf("\n✅ Run %s completed\n", list.RunID)
	fmt.Printf("   evaluated:     %d\n", len(list.Evaluations))
	fmt.Printf("   opportunities: %d (threshold %.2f)\n", len(list.Opportunities), list.Threshold)
	fmt.Printf("   excluded:      %d\n", len(list.Excluded))

	for _, opp := range list.Opportunities {
		fmt.Printf("   - %-22s score=%.3f return=%+.2f%% dispersion=%.4f p(+)=%.0f%%\n",
			opp.Entity, opp.Score, opp.ExpectedReturn*100, opp.Dispersion, opp.ProbPositive*100)
	}
	for entity, reason := range list.Excluded {
		fmt.Printf("   ! %-22s %s\n", entity, reason)
	}

	return nil
}
