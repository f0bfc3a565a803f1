package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/rainwise/internal/buildinfo"
	"github.com/dmitrijs2005/rainwise/internal/devapi"
	"github.com/dmitrijs2005/rainwise/internal/devapi/config"
	"github.com/dmitrijs2005/rainwise/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	app, err := devapi.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "failed to initialize", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
}
