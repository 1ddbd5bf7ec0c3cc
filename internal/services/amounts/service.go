package amounts

import (
	"errors"

	"github.com/shopspring/decimal"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/dustprotocol/dust-client/internal/adapters/evm"
	"github.com/dustprotocol/dust-client/internal/config"
	"github.com/dustprotocol/dust-client/internal/domain"
	"github.com/dustprotocol/dust-client/internal/services"
	"github.com/dustprotocol/dust-client/internal/services/tokens"
)

const AMOUNTS_SERVICE = "amounts-service"

var ErrSessionNotFound = errors.New("no session for pair")

// FeedProvider builds live price feeds for pair contracts.
type FeedProvider interface {
	PairFeed(pairAddress string, tokenA, tokenB domain.Token) (domain.PriceFeed, error)
}

// Service owns the registry of open pair sessions.
type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	tokensSvc   *tokens.Service
	feeds       FeedProvider
	sessions    *ShardedSessionMap
	staticRatio string
}

func (svc *Service) ID() string {
	return AMOUNTS_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.tokensSvc = c.Instance(tokens.TOKENS_SERVICE).(*tokens.Service)
	svc.feeds = c.Instance(evm.EVM_SERVICE).(FeedProvider)
	svc.sessions = NewShardedSessionMap()

	engineConf := c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)
	svc.staticRatio = engineConf.StaticRatio
	return nil
}

func (svc *Service) Start() error {
	return nil
}

func (svc *Service) Stop() error {
	svc.sessions.Range(func(key string, s *Session) bool {
		s.Close()
		return true
	})
	svc.logger.Info().Msg("closed all pair sessions")
	return nil
}

// Open returns the session for a pair id, creating it (with a live price
// feed, when one is configured) on first use.
func (svc *Service) Open(pairID string) (*Session, error) {
	if s, ok := svc.sessions.Get(pairID); ok {
		return s, nil
	}

	tokenA, tokenB, err := svc.tokensSvc.ResolvePair(pairID)
	if err != nil {
		return nil, err
	}

	var feed domain.PriceFeed
	if addr, ok := svc.tokensSvc.PairAddress(pairID); ok {
		feed, err = svc.feeds.PairFeed(addr, tokenA, tokenB)
		if err != nil {
			return nil, err
		}
	} else if svc.staticRatio != "" {
		ratio, err := decimal.NewFromString(svc.staticRatio)
		if err != nil {
			return nil, err
		}
		feed, err = evm.NewStaticFeed(ratio)
		if err != nil {
			return nil, err
		}
		svc.logger.Warn().Str("pair", pairID).Str("ratio", svc.staticRatio).Msg("no pair address configured, using static ratio feed")
	} else {
		svc.logger.Warn().Str("pair", pairID).Msg("no pair address configured, session has no live feed")
	}

	s, created := svc.sessions.GetOrSet(pairID, func() *Session {
		return NewSession(tokenA, tokenB, svc.tokensSvc, feed)
	})
	if created {
		svc.logger.Info().Str("pair", pairID).Msg("pair session opened")
	}
	return s, nil
}

// Get returns an already-open session.
func (svc *Service) Get(pairID string) (*Session, bool) {
	return svc.sessions.Get(pairID)
}

// Drop tears down the session for a pair. Any in-flight feed or contract
// results for it are discarded.
func (svc *Service) Drop(pairID string) error {
	s, ok := svc.sessions.Delete(pairID)
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	svc.logger.Info().Str("pair", pairID).Msg("pair session dropped")
	return nil
}
