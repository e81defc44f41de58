package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"cupsreport/internal/backend"
	"cupsreport/internal/cli"
	"cupsreport/internal/core"
	apphttp "cupsreport/internal/http"
	applog "cupsreport/internal/log"
	"cupsreport/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	archive, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", backendCfg.Type)
		os.Exit(1)
	}

	engine := core.NewEngine(core.DefaultCatalog(), core.WithBranch(cfg.BranchName))
	svc := services.NewReportService(engine, cfg.ReportDir,
		append(archive.ServiceOptions(), services.WithLogger(logger))...)

	if cfg.RestoreReport != "" {
		res, err := svc.LoadFile(ctx, cfg.RestoreReport)
		if err != nil {
			logger.Error("Failed to restore report", applog.FieldError, err, "path", cfg.RestoreReport)
			os.Exit(1)
		}
		logger.Info("Restored tally from report",
			"path", cfg.RestoreReport,
			applog.FieldRowsApplied, res.Applied,
			applog.FieldRowsSkipped, res.Skipped)
	}

	srvOpts := []apphttp.Option{apphttp.WithLogger(logger)}
	if archive.Repo != nil {
		srvOpts = append(srvOpts, apphttp.WithReadinessCheck("archive", archive.Ping))
	}
	srv := apphttp.NewServer(":"+cfg.Port, svc, srvOpts...)
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := archive.Close(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	logger.Info("Starting cupsreport server",
		"port", cfg.Port,
		"backend", backendCfg.Type,
		"report_dir", cfg.ReportDir,
		"branch", cfg.BranchName)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
