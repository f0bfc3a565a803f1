package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/rainwise/internal/buildinfo"
	"github.com/dmitrijs2005/rainwise/internal/client/cli"
	"github.com/dmitrijs2005/rainwise/internal/client/config"
	"github.com/dmitrijs2005/rainwise/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	app, closeFn, err := cli.Bootstrap(ctx, cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer closeFn()

	app.Run(ctx, cfg.OnlineCheckInterval)

}
