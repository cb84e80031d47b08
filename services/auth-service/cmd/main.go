package main

import (
	"context"

	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/app"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/config"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/logger"
)

func main() {
	ctx := context.Background()

	bootLogger := logger.New("info", false)
	cfg := config.NewAuthServiceConfig(bootLogger)
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	a, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start auth service")
	}

	if err := a.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("auth service stopped")
	}
}
