package basket

import (
	"fmt"
	"time"

	container "github.com/thehyperflames/dicontainer-go"

	"github.com/dustprotocol/dust-client/internal/adapters/persistence"
	"github.com/dustprotocol/dust-client/internal/config"
	"github.com/dustprotocol/dust-client/internal/domain"
	"github.com/dustprotocol/dust-client/internal/metrics"
	"github.com/dustprotocol/dust-client/internal/services"
)

const BASKET_SERVICE = "basket-service"

// Service normalizes baskets and persists named ones.
type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	engineConf *config.EngineConfig
	store      *persistence.Storage
}

func (svc *Service) ID() string {
	return BASKET_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.engineConf = c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)
	return nil
}

func (svc *Service) Start() error {
	store, err := persistence.NewStorage(svc.engineConf.DBPath)
	if err != nil {
		return err
	}
	svc.store = store

	if count, err := store.GetBasketCount(); err == nil {
		metrics.StoredBasketCount.Set(float64(count))
	}
	return nil
}

func (svc *Service) Stop() error {
	if svc.store != nil {
		return svc.store.Close()
	}
	return nil
}

// NormalizeBasket converts fractional weights to integer percentages
// summing to 100.
func (svc *Service) NormalizeBasket(b domain.Basket) (domain.NormalizedBasket, error) {
	normalized, err := Normalize(b)
	if err != nil {
		metrics.BasketNormalizations.WithLabelValues("invalid").Inc()
		return nil, err
	}
	metrics.BasketNormalizations.WithLabelValues("ok").Inc()
	return normalized, nil
}

// Save normalizes and persists a basket. An empty name gets a generated
// one; the chosen name is returned.
func (svc *Service) Save(name string, weights domain.Basket) (string, domain.NormalizedBasket, error) {
	normalized, err := svc.NormalizeBasket(weights)
	if err != nil {
		return "", nil, err
	}
	if name == "" {
		name = GenerateName()
	}
	if err := svc.store.SaveBasket(name, weights, normalized); err != nil {
		return "", nil, err
	}
	if count, err := svc.store.GetBasketCount(); err == nil {
		metrics.StoredBasketCount.Set(float64(count))
	}
	svc.logger.Info().Str("name", name).Int("entries", len(weights)).Msg("basket saved")
	return name, normalized, nil
}

// Import re-normalizes and persists a batch of baskets in one transaction.
// Stored normalized values are ignored; the weights are the source of truth.
func (svc *Service) Import(baskets []*domain.StoredBasket) (int, error) {
	for _, b := range baskets {
		weights, err := persistence.StoredWeights(b)
		if err != nil {
			return 0, err
		}
		normalized, err := svc.NormalizeBasket(weights)
		if err != nil {
			return 0, fmt.Errorf("basket %s: %w", b.Name, err)
		}
		b.Normalized = normalized
		if b.CreatedAt == 0 {
			b.CreatedAt = time.Now().Unix()
		}
	}
	if err := svc.store.SaveBasketBatch(baskets); err != nil {
		return 0, err
	}
	if count, err := svc.store.GetBasketCount(); err == nil {
		metrics.StoredBasketCount.Set(float64(count))
	}
	svc.logger.Info().Int("count", len(baskets)).Msg("baskets imported")
	return len(baskets), nil
}

// Get loads one stored basket by name.
func (svc *Service) Get(name string) (*domain.StoredBasket, error) {
	return svc.store.LoadBasket(name)
}

// List loads all stored baskets.
func (svc *Service) List() ([]*domain.StoredBasket, error) {
	return svc.store.LoadAllBaskets()
}
