package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/valuescan/backend/internal/api"
	"github.com/wonny/valuescan/backend/internal/api/handlers"
	"github.com/wonny/valuescan/backend/internal/scheduler"
	"github.com/wonny/valuescan/backend/internal/scheduler/jobs"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 스크리닝 트리거/결과 조회 엔드포인트 제공
- 웹소켓 진행률 피드 제공
- (옵션) 장 마감 후 정기 스크리닝 스케줄러

Endpoints:
  GET  /health                     - Health check
  POST /api/v1/screen              - 스크리닝 실행 트리거
  GET  /api/v1/results             - 마지막 결과 조회
  GET  /api/v1/sentiment/{code}    - 공포/탐욕 지수
  GET  /api/v1/rate                - 기준금리
  GET  /api/v1/jobs                - 스케줄 작업 상태/이력
  POST /api/v1/jobs/{name}/run     - 작업 즉시 실행
  WS   /ws/progress                - 진행률 피드

Example:
  go run ./cmd/screener serve
  go run ./cmd/screener serve --port 8091`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (기본: env PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Valuescan API Server ===")

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	a.log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	// Progress hub: 실행 진행률을 웹소켓으로 중계
	hub := handlers.NewProgressHub(a.log)
	a.orch.SetProgress(hub.Broadcast)

	// Scheduler (옵션): 꺼져 있으면 /jobs 엔드포인트는 503
	var sched *scheduler.Scheduler
	if a.cfg.Screen.ScheduleEnabled {
		sched = scheduler.New(a.log)
		if err := sched.AddJob(jobs.NewScreeningJob(a.orch, a.cache, a.cfg, a.log)); err != nil {
			return fmt.Errorf("add screening job: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	screenHandler := handlers.NewScreenHandler(a.orch, a.naver, a.naver, a.cache, a.cfg, a.log)
	schedHandler := handlers.NewSchedulerHandler(sched, a.log)
	router := api.NewRouter(screenHandler, schedHandler, hub, a.log)
	server := api.New(a.cfg, a.log, router)

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	a.log.Info("API server started successfully")
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
