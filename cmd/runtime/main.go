package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/dustprotocol/dust-client/internal/adapters/evm"
	"github.com/dustprotocol/dust-client/internal/common"
	"github.com/dustprotocol/dust-client/internal/config"
	"github.com/dustprotocol/dust-client/internal/http"
	"github.com/dustprotocol/dust-client/internal/services"
	"github.com/dustprotocol/dust-client/internal/services/amounts"
	"github.com/dustprotocol/dust-client/internal/services/basket"
	"github.com/dustprotocol/dust-client/internal/services/liquidity"
	"github.com/dustprotocol/dust-client/internal/services/tokens"
)

// @title Dust Client Engine API
// @version 1.0
// @description Investment computation engine for basket allocation and AMM liquidity provision.
// @description
// @description ## - Features
// @description - **Basket Normalization**: Fractional weights to integer percentages summing to exactly 100
// @description - **Amount Synchronization**: Live price-ratio driven pairing of the two deposit amounts
// @description - **Two-Phase Deposits**: approve/approve/addLiquidity with partial-failure resume
// @description
// @description ## - Usage Tips
// @description - Amounts are decimal strings in token units, not smallest units
// @description - A cleared amount field is absent, not zero
// @description - Failed deposits keep granted approvals; resubmit with resume=true
// @host localhost:8080
// @BasePath /
// @schemes http
// @tag.name basket
// @tag.description Normalize and persist weighted allocation baskets
// @tag.name pair
// @tag.description Open pair sessions and edit deposit amounts
// @tag.name liquidity
// @tag.description Run and inspect liquidity deposit attempts

func main() {
	// load env
	err := godotenv.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load env")
		return
	}

	services.SetupLogging(os.Getenv("LOG_LEVEL"), os.Getenv("ENV"))
	common.InitRuntime()

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.ChainConfig{},
		&config.EngineConfig{},
	)

	// di container
	dic, err := container.New(
		conf,

		// services
		&tokens.Service{},
		&evm.Service{},
		&basket.Service{},
		&amounts.Service{},
		&liquidity.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run() waits for SIGINT/SIGTERM
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
