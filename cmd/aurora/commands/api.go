package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/aurora/engine/internal/api"
	"github.com/wonny/aurora/engine/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `운영용 REST API 서버를 시작합니다.

Endpoints:
  GET  /health               - Health check
  GET  /api/runs?user=<id>   - 사용자 실행 목록
  GET  /api/runs/{id}        - 실행 상태 조회
  POST /api/runs             - 실행 생성 + 큐 등록
  GET  /api/queue/stats      - 큐 대기/진행/dead 건수

Example:
  go run ./cmd/aurora api
  go run ./cmd/aurora api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본값: PORT 환경변수)")
}

// newAPIServer wires the run handler onto the router
func newAPIServer(a *app) *api.Server {
	runHandler := handlers.NewRunHandler(a.runs, a.submitter, a.queue, a.log)
	router := api.NewRouter(runHandler, a.db, a.log)
	return api.New(a.cfg, a.log, router)
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireQueue(); err != nil {
		return err
	}

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	server := newAPIServer(a)

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	a.log.Info("Server stopped")
	return nil
}
