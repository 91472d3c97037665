package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/mo-shahab/quadpong/config"
	"github.com/mo-shahab/quadpong/logger"
	"github.com/mo-shahab/quadpong/tcpserver"
)

func main() {
	cfg, err := config.FromArgs(os.Args[0], os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Fatal("invalid configuration", "error", err)
	}
	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := tcpserver.New(cfg)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Fatal("error starting server", "error", err)
	}
}
