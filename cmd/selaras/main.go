package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/selaras-pos/selaras-pos/internal/app"
	"github.com/selaras-pos/selaras-pos/internal/attendance"
	"github.com/selaras-pos/selaras-pos/internal/observability"
	"github.com/selaras-pos/selaras-pos/internal/outlet"
	"github.com/selaras-pos/selaras-pos/internal/payroll"
	"github.com/selaras-pos/selaras-pos/internal/platform/cache"
	"github.com/selaras-pos/selaras-pos/internal/platform/db"
	"github.com/selaras-pos/selaras-pos/internal/stock"
	"github.com/selaras-pos/selaras-pos/jobs"
	"github.com/selaras-pos/selaras-pos/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	outletRepo := outlet.NewRepository(pool)
	attendanceRepo := attendance.NewRepository(pool)
	payrollRepo := payroll.NewRepository(pool)

	computer := payroll.NewComputer(payrollRepo, attendanceRepo, outletRepo, logger)
	enqueuer := jobs.NewEnqueuer(asynqClient)
	attendanceService := attendance.NewService(attendanceRepo, outletRepo, computer, enqueuer, logger)

	selector := payroll.NewSelector(outletRepo, payrollRepo)
	aggregator := payroll.NewAggregator(payrollRepo, selector, attendanceRepo, logger)

	productSource := stock.NewProductSource(pool)
	materialSource := stock.NewMaterialSource(pool)
	calculator := stock.NewCalculator(productSource, materialSource)
	publisher := stock.NewRedisPublisher(redisClient)
	broadcaster := stock.NewBroadcaster(calculator, productSource, publisher, logger)

	metrics := observability.NewMetrics()
	reportClient := report.NewClient(cfg.GotenbergURL)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Metrics:           metrics,
		AttendanceHandler: attendance.NewHandler(logger, attendanceService),
		PayrollHandler:    payroll.NewHandler(logger, aggregator),
		StockHandler:      stock.NewHandler(logger, calculator, broadcaster),
		ReportHandler:     report.NewHandler(reportClient, aggregator, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
