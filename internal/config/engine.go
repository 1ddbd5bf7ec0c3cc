package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/shopspring/decimal"
)

type EngineConfig struct {
	// SlippagePercent is the fixed slippage tolerance applied to deposits.
	// Default: 10
	SlippagePercent int

	// FeedPollInterval is how often pair reserves are polled (in seconds).
	// Default: 10
	FeedPollInterval int

	// DBPath is the path to the BoltDB file for basket persistence.
	// Default: "./data/dust-client.db"
	DBPath string

	// StaticRatio, when set, is a fixed forward price ratio used for pairs
	// without a configured pair contract. Local runs only.
	StaticRatio string
}

func (c *EngineConfig) Key() string {
	return ENGINE_CONFIG_KEY
}

func (c *EngineConfig) Load() error {
	c.SlippagePercent = common.GetEnvOrDefaultInt("SLIPPAGE_PERCENT", 10)
	c.FeedPollInterval = common.GetEnvOrDefaultInt("FEED_POLL_INTERVAL", 10)
	c.DBPath = common.GetEnvOrDefault("ENGINE_DB_PATH", "./data/dust-client.db")
	c.StaticRatio = common.GetEnvOrDefault("STATIC_RATIO", "")
	return c.Validate()
}

func (c *EngineConfig) Validate() error {
	if c.SlippagePercent < 0 || c.SlippagePercent > 100 {
		return errors.New("slippage percent out of range")
	}
	if c.FeedPollInterval <= 0 {
		return errors.New("feed poll interval must be positive")
	}
	if c.StaticRatio != "" {
		d, err := decimal.NewFromString(c.StaticRatio)
		if err != nil || !d.IsPositive() {
			return errors.New("static ratio must be a positive decimal")
		}
	}
	return nil
}
