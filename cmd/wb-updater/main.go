package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wb-updater/internal/config"
	"wb-updater/internal/logger"
	"wb-updater/internal/pipeline"
	"wb-updater/internal/submit"
	"wb-updater/internal/template"
	"wb-updater/internal/wbapi"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to config.yaml (default: standard locations)")
	flag.Parse()

	bootstrapLog := logger.NewStderr()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		bootstrapLog.Error("failed to load config", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrNoToken) {
			bootstrapLog.Error("no API token; set WB_API_TOKEN or api.token in config.yaml", nil)
			return 1
		}
		bootstrapLog.Error("invalid config", err)
		return 1
	}

	logSvc, err := logger.New(cfg)
	if err != nil {
		bootstrapLog.Error("logger init failed; using stderr", err)
		logSvc = bootstrapLog
	}
	defer logSvc.Close()

	client, err := wbapi.New(wbapi.Options{
		PricesBaseURL: cfg.API.PricesBaseURL,
		StocksBaseURL: cfg.API.StocksBaseURL,
		Token:         cfg.API.Token,
	})
	if err != nil {
		logSvc.Error("api client init failed", err)
		return 1
	}

	deps := pipeline.Deps{
		API:    client,
		Engine: submit.NewEngine(logSvc),
		Log:    logSvc,
	}
	if cfg.AcquireTemplate {
		acquirer, err := template.NewHTTPAcquirer(template.HTTPAcquirerOptions{
			BaseURL:   cfg.API.PricesBaseURL,
			Token:     cfg.API.Token,
			TargetDir: cfg.TargetDir,
		})
		if err != nil {
			logSvc.Warn("template acquirer init failed: " + err.Error())
		} else {
			deps.Acquirer = acquirer
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := pipeline.Run(ctx, cfg, deps)
	if err != nil {
		logSvc.Error("update run failed", err)
		return 1
	}
	if !rep.OK() {
		logSvc.Warn(fmt.Sprintf("run %s finished with failures", rep.RunID))
		return 1
	}

	logSvc.Info(fmt.Sprintf("run %s complete", rep.RunID))
	return 0
}
