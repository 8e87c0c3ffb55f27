package main

import (
	"context"
	"log"

	"github.com/RigelNana/baselibrary/gateway/handler"
	"github.com/RigelNana/baselibrary/gateway/router"
	"github.com/RigelNana/baselibrary/pkg/metrics"
	"github.com/RigelNana/baselibrary/services/mint-service/app"
	"github.com/RigelNana/baselibrary/services/mint-service/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg.Log.Level)

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatalf("init: %v", err)
	}
	defer a.Close()

	metrics.StartMetricsServer(cfg.Server.MetricsPort)
	logger.Infof("metrics server listening on :%s", cfg.Server.MetricsPort)

	mint, mintErr := a.Minting()
	r := router.Setup(router.Handlers{
		Auth:     handler.NewAuthHandler(a.Backend, logger),
		Material: handler.NewMaterialHandler(a.Backend, logger),
		Process:  handler.NewProcessHandler(a.Backend, cfg.Backend.ProcessTimeout, logger),
		Pinata:   handler.NewPinataHandler(a.Pinata, logger),
		Mint:     handler.NewMintHandler(mint, mintErr, cfg.Server.WorkflowTimeout, logger),
		Prompt:   handler.NewPromptHandler(a.Backend, logger),
		Session:  a.Session,
	})

	logger.Infof("Gateway listening on %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatalf("gateway failed: %v", err)
	}
}
