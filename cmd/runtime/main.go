package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/tier-engine/internal/config"
	"github.com/hxuan190/tier-engine/internal/engine"
	"github.com/hxuan190/tier-engine/internal/http"
)

// @title Tier Engine API
// @version 1.0
// @description Split-routing engine for multi-fee-tier full-range AMM pools.
// @description
// @description A pool holds several parallel constant-product tiers, each with its own
// @description fee rate. For an exact-in order the engine computes the division of the
// @description input across tiers that maximizes total output (equalized post-trade
// @description marginal price), then applies it atomically.
// @description
// @description ## Endpoints
// @description - **GET /api/v1/quote** - solve the split without touching reserves
// @description - **POST /api/v1/swap** - solve and execute against the live tier set
// @description - **GET /api/v1/pools/...** - inspect registered tier sets
// @description - **POST /api/v1/admin/pools** - register a tier set
// @host localhost:8080
// @BasePath /
// @schemes http
// @tag.name quote
// @tag.description Solve allocation plans without mutating pool state
// @tag.name swap
// @tag.description Execute swaps atomically across a pool's tiers
// @tag.name pools
// @tag.description Register and inspect tier sets

func main() {
	// .env is optional; env vars may come from the environment directly
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.SolverConfig{},
		&config.StorageConfig{},
	)

	dic, err := container.New(
		conf,

		&engine.Service{},
		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
