package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joonho/argus/internal/process"
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "피처 엔지니어링 실행",
	Long: `raw:* 시계열로부터 엔티티별 피처 히스토리를 재계산해
processed:history:*에 적재합니다.

결측 원시 관측은 Missing으로 태깅되어 보존됩니다 (zero-fill 없음).

Example:
  go run ./cmd/argus process`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argus Processing ===")

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	builder := process.NewBuilder(a.store, a.pol, a.log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := builder.Process(ctx); err != nil {
		return fmt.Errorf("processing: %w", err)
	}

	fmt.Println("\n✅ Processing completed")
	return nil
}
