package main

import (
	"context"
	"os/signal"
	"syscall"

	"pgnest/config"
	"pgnest/di"
	"pgnest/shared/logger"
)

// @title pgnest API
// @version 1.0
// @description Booking lifecycle backend for paying-guest accommodations.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	retention := di.InitializeRetentionWorker()
	go retention.Run(ctx)

	http := di.InitializeService()
	http.Serve()
}
