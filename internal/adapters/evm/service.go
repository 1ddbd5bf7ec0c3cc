package evm

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/dustprotocol/dust-client/internal/config"
	"github.com/dustprotocol/dust-client/internal/domain"
	"github.com/dustprotocol/dust-client/internal/services"
)

const EVM_SERVICE = "evm-service"

var ErrNoSigner = errors.New("no signer key configured")

// Service is the boundary to the EVM chain: it hands out token contract
// handles, the router handle, and reserve-backed price feeds.
type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	chainConf  *config.ChainConfig
	engineConf *config.EngineConfig

	client     *ethclient.Client
	chainID    *big.Int
	router     common.Address
	signerKey  *ecdsa.PrivateKey
	signerAddr common.Address
}

func (svc *Service) ID() string {
	return EVM_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.chainConf = c.GetConfig(config.CHAIN_CONFIG_KEY).(*config.ChainConfig)
	svc.engineConf = c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)

	svc.chainID = big.NewInt(svc.chainConf.ChainID)
	svc.router = common.HexToAddress(svc.chainConf.RouterAddress)

	if key := svc.chainConf.SignerKey; key != "" {
		pk, err := crypto.HexToECDSA(strings.TrimPrefix(key, "0x"))
		if err != nil {
			return err
		}
		svc.signerKey = pk
		svc.signerAddr = crypto.PubkeyToAddress(pk.PublicKey)
	}
	return nil
}

func (svc *Service) Start() error {
	client, err := ethclient.Dial(svc.chainConf.RPCUrl)
	if err != nil {
		return err
	}
	svc.client = client

	ev := svc.logger.Info().
		Str("rpc", svc.chainConf.RPCUrl).
		Int64("chainId", svc.chainConf.ChainID).
		Str("router", svc.router.Hex())
	if svc.signerKey != nil {
		ev = ev.Str("signer", svc.signerAddr.Hex())
	}
	ev.Msg("connected to chain")
	return nil
}

func (svc *Service) Stop() error {
	if svc.client != nil {
		svc.client.Close()
	}
	return nil
}

// Handle returns the contract handle for a token. Native assets get a
// handle whose approval is trivially satisfied.
func (svc *Service) Handle(t domain.Token) domain.TokenContractHandle {
	if t.Native {
		return &nativeHandle{token: t}
	}
	return &erc20Handle{svc: svc, token: t}
}

// Router returns the AMM router handle.
func (svc *Service) Router() domain.RouterHandle {
	return &routerHandle{svc: svc}
}

// PairFeed builds a price feed polling a pair contract's reserves.
func (svc *Service) PairFeed(pairAddress string, tokenA, tokenB domain.Token) (domain.PriceFeed, error) {
	if !common.IsHexAddress(pairAddress) {
		return nil, errors.New("invalid pair address: " + pairAddress)
	}
	return &reserveFeed{
		svc:      svc,
		pair:     common.HexToAddress(pairAddress),
		tokenA:   tokenA,
		tokenB:   tokenB,
		interval: time.Duration(svc.engineConf.FeedPollInterval) * time.Second,
	}, nil
}
