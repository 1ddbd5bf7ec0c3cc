package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/andrew-solarstorm/go-packages/common"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/dustprotocol/dust-client/internal/domain"
	"github.com/dustprotocol/dust-client/internal/services"
)

const TOKENS_SERVICE = "tokens-service"

// DefaultDisplayDecimals is used for tokens without an explicit policy.
const DefaultDisplayDecimals int32 = 5

// Service is a registry of known tokens and their display precision, plus
// the pair contract addresses the price feeds poll.
type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	mu       sync.RWMutex
	bySymbol map[string]domain.Token
	pairs    map[string]string
}

func (svc *Service) ID() string {
	return TOKENS_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.bySymbol = make(map[string]domain.Token)
	svc.pairs = make(map[string]string)

	for _, t := range defaultTokens() {
		svc.bySymbol[t.Symbol] = t
	}

	// PAIR_ADDRESSES example: "DUST-ETH=0xabc...,DUST-USDT=0xdef..."
	raw := common.GetEnvOrDefault("PAIR_ADDRESSES", "")
	if raw != "" {
		for _, entry := range strings.Split(raw, ",") {
			parts := strings.SplitN(strings.TrimSpace(entry), "=", 2)
			if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
				return fmt.Errorf("invalid PAIR_ADDRESSES entry: %q", entry)
			}
			svc.pairs[parts[0]] = parts[1]
		}
	}

	svc.logger.Info().
		Int("tokens", len(svc.bySymbol)).
		Int("pairs", len(svc.pairs)).
		Msg("token registry configured")
	return nil
}

func (svc *Service) Start() error {
	return nil
}

func (svc *Service) Stop() error {
	return nil
}

func (svc *Service) Get(symbol string) (domain.Token, bool) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	t, ok := svc.bySymbol[symbol]
	return t, ok
}

func (svc *Service) Register(t domain.Token) {
	svc.mu.Lock()
	svc.bySymbol[t.Symbol] = t
	svc.mu.Unlock()
}

// DisplayDecimals implements the amounts.DisplayPolicy contract.
func (svc *Service) DisplayDecimals(symbol string) int32 {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	if t, ok := svc.bySymbol[symbol]; ok {
		return t.DisplayDecimals
	}
	return DefaultDisplayDecimals
}

// PairAddress returns the pair contract address for a pair id.
func (svc *Service) PairAddress(pairID string) (string, bool) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	addr, ok := svc.pairs[pairID]
	return addr, ok
}

// ResolvePair splits a "A-B" pair id into its two known tokens.
func (svc *Service) ResolvePair(pairID string) (domain.Token, domain.Token, error) {
	parts := strings.SplitN(pairID, "-", 2)
	if len(parts) != 2 {
		return domain.Token{}, domain.Token{}, fmt.Errorf("invalid pair id: %q", pairID)
	}
	a, ok := svc.Get(parts[0])
	if !ok {
		return domain.Token{}, domain.Token{}, fmt.Errorf("unknown token: %q", parts[0])
	}
	b, ok := svc.Get(parts[1])
	if !ok {
		return domain.Token{}, domain.Token{}, fmt.Errorf("unknown token: %q", parts[1])
	}
	return a, b, nil
}

func defaultTokens() []domain.Token {
	return []domain.Token{
		{
			Symbol:          "DUST",
			Address:         "0x6AFCFF9189e8ed3fCc1CFfa184FEB1276f6A82A5",
			Decimals:        18,
			DisplayDecimals: 0,
		},
		{
			Symbol:          "ETH",
			Address:         "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
			Decimals:        18,
			DisplayDecimals: 5,
			Native:          true,
		},
		{
			Symbol:          "USDT",
			Address:         "0xdAC17F958D2ee523a2206206994597C13D831ec7",
			Decimals:        6,
			DisplayDecimals: 2,
		},
	}
}
