package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joonho/argus/internal/api"
	"github.com/joonho/argus/internal/api/handlers"
	"github.com/joonho/argus/internal/health"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- 기회/예측 조회 엔드포인트 제공
- 엔진 런 트리거 제공
- 파이프라인 staleness 판정 제공

Endpoints:
  GET  /health                      - Health check
  GET  /api/pipeline/health         - 파이프라인 staleness 판정
  GET  /api/opportunities/latest    - 최신 기회 리스트
  GET  /api/opportunities/{runID}   - 런별 기회 리스트
  GET  /api/forecasts/{runID}       - 런별 예측 분포
  POST /api/runs                    - 엔진 런 트리거
  GET  /api/runs/{id}               - 런 레코드 조회

Example:
  go run ./cmd/argus api
  go run ./cmd/argus api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argus API Server ===")

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	orchestrator, err := a.newOrchestrator()
	if err != nil {
		return err
	}

	checker := health.NewChecker(a.store, a.pol, a.log)
	engineHandler := handlers.NewEngineHandler(a.store, checker, a.runStore, orchestrator, a.log)
	router := api.NewRouter(engineHandler, a.log)
	server := api.New(a.cfg, a.log, router)

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	a.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
