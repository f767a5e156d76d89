package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/restclient/internal/cli"
	"github.com/samvad-hq/restclient/internal/config"
	"github.com/samvad-hq/restclient/internal/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "restclient start failed: load config: %v\n", err)
		return cli.ExitConfig
	}

	// stdout carries command output, logs go to stderr
	if _, err := logger.InitWriter(cfg, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "restclient start failed: init logger: %v\n", err)
		return cli.ExitConfig
	}
	defer logger.Close()

	logger.DebugObj("restclient starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version, buildTime)
	return cli.Execute(ctx, cli.Options{
		Config:  cfg,
		Log:     logger.ZapLogger{},
		Out:     os.Stdout,
		Err:     os.Stderr,
		NoColor: os.Getenv("NO_COLOR") != "",
	}, os.Args[1:])
}
