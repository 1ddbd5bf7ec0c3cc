package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/dustprotocol/dust-client/internal/domain"
)

const (
	BasketsBucket = "baskets"

	DefaultDBPath = "./data/dust-client.db"
)

var ErrBasketNotFound = fmt.Errorf("basket not found")

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[basketStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SaveBasket(name string, weights domain.Basket, normalized domain.NormalizedBasket) error {
	stored := basketToStored(name, weights, normalized)
	data, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal basket: %w", err)
	}

	return s.db.Set(BasketsBucket, []byte(name), data)
}

func (s *Storage) SaveBasketBatch(baskets []*domain.StoredBasket) error {
	if len(baskets) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for _, b := range baskets {
		data, err := sonic.Marshal(b)
		if err != nil {
			return fmt.Errorf("failed to marshal basket %s: %w", b.Name, err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(BasketsBucket),
			Key:    []byte(b.Name),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add basket %s to batch: %w", b.Name, err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(baskets)).Msg("[basketStorage] FAILED to execute batch")
		return err
	}

	log.Info().Int("count", len(baskets)).Msg("[basketStorage] saved basket batch")
	return nil
}

func (s *Storage) LoadBasket(name string) (*domain.StoredBasket, error) {
	data, err := s.db.List(BasketsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list baskets: %w", err)
	}

	value, ok := data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBasketNotFound, name)
	}

	var stored domain.StoredBasket
	if err := sonic.Unmarshal(value, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal basket %s: %w", name, err)
	}
	return &stored, nil
}

func (s *Storage) LoadAllBaskets() ([]*domain.StoredBasket, error) {
	data, err := s.db.List(BasketsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list baskets: %w", err)
	}

	baskets := make([]*domain.StoredBasket, 0, len(data))
	unmarshalFailed := 0

	for name, value := range data {
		var stored domain.StoredBasket
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("name", name).Err(err).Msg("[basketStorage] failed to unmarshal basket, skipping")
			unmarshalFailed++
			continue
		}
		baskets = append(baskets, &stored)
	}

	if unmarshalFailed > 0 {
		log.Error().
			Int("total_in_db", len(data)).
			Int("loaded", len(baskets)).
			Int("unmarshal_failed", unmarshalFailed).
			Msg("[basketStorage] basket loading completed with errors")
	} else {
		log.Info().
			Int("total_in_db", len(data)).
			Int("loaded", len(baskets)).
			Msg("[basketStorage] basket loading completed successfully")
	}

	return baskets, nil
}

func (s *Storage) GetBasketCount() (int, error) {
	data, err := s.db.List(BasketsBucket)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func basketToStored(name string, weights domain.Basket, normalized domain.NormalizedBasket) *domain.StoredBasket {
	w := make(map[string]string, len(weights))
	for k, v := range weights {
		w[k] = v.String()
	}
	return &domain.StoredBasket{
		Name:       name,
		Weights:    w,
		Normalized: normalized,
		CreatedAt:  time.Now().Unix(),
	}
}

// StoredWeights decodes the persisted fractional weights of a basket.
func StoredWeights(b *domain.StoredBasket) (domain.Basket, error) {
	weights := make(domain.Basket, len(b.Weights))
	for k, v := range b.Weights {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid stored weight %s=%s: %w", k, v, err)
		}
		weights[k] = d
	}
	return weights, nil
}
