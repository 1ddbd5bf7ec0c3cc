package config

import (
	"errors"
	"os"
	"slices"

	"github.com/andrew-solarstorm/go-packages/common"
)

type ChainConfig struct {
	RPCUrl string
	// ChainID of the target EVM network.
	ChainID int64
	// RouterAddress is the AMM router the engine approves and deposits into.
	RouterAddress string
	// SignerKey is a hex-encoded private key used to sign transactions.
	SignerKey string
}

func (c *ChainConfig) Key() string {
	return CHAIN_CONFIG_KEY
}

func (c *ChainConfig) Load() error {
	c.RPCUrl = os.Getenv("RPC_URL")
	c.ChainID = int64(common.GetEnvOrDefaultInt("CHAIN_ID", 1))
	c.RouterAddress = os.Getenv("ROUTER_ADDRESS")
	c.SignerKey = os.Getenv("SIGNER_KEY")
	return c.Validate()
}

func (c *ChainConfig) Validate() error {
	if slices.Contains([]string{c.RPCUrl, c.RouterAddress}, "") {
		return errors.New("invalid chain config")
	}
	return nil
}
