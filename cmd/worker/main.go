package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/selaras-pos/selaras-pos/internal/app"
	"github.com/selaras-pos/selaras-pos/internal/attendance"
	jobmetrics "github.com/selaras-pos/selaras-pos/internal/jobs"
	"github.com/selaras-pos/selaras-pos/internal/outlet"
	"github.com/selaras-pos/selaras-pos/internal/payroll"
	"github.com/selaras-pos/selaras-pos/internal/platform/db"
	"github.com/selaras-pos/selaras-pos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	outletRepo := outlet.NewRepository(pool)
	attendanceRepo := attendance.NewRepository(pool)
	payrollRepo := payroll.NewRepository(pool)

	metrics := jobmetrics.NewMetrics(nil)
	computer := payroll.NewComputer(payrollRepo, attendanceRepo, outletRepo, logger)
	computeJob := jobs.NewPayrollComputeJob(computer, metrics, logger)
	rollforwardJob := jobs.NewInternalRollforwardJob(payrollRepo, metrics, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPayrollCompute, Handler: computeJob.Handle},
			{Type: jobs.TaskInternalRollforward, Handler: rollforwardJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "@daily", Task: jobs.NewInternalRollforwardTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
