package basket

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/dustprotocol/dust-client/internal/domain"
	"github.com/dustprotocol/dust-client/internal/metrics"
)

var (
	ErrEmptyBasket    = errors.New("basket has no entries")
	ErrNegativeWeight = errors.New("negative weight")
)

var oneHundred = decimal.NewFromInt(100)

// Normalize converts fractional allocation weights into integer percentages
// that sum to exactly 100. Each weight is scaled to percent and rounded half
// away from zero; any rounding slack is assigned to the largest entry.
// Ties for the largest entry break on canonical (lexicographic) key order,
// first occurrence wins, so the result is deterministic.
func Normalize(b domain.Basket) (domain.NormalizedBasket, error) {
	if len(b) == 0 {
		return nil, ErrEmptyBasket
	}

	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(domain.NormalizedBasket, len(b))
	sum := 0
	for _, k := range keys {
		w := b[k]
		if w.IsNegative() {
			return nil, fmt.Errorf("%w: %s=%s", ErrNegativeWeight, k, w)
		}
		v := int(w.Mul(oneHundred).Round(0).IntPart())
		out[k] = v
		sum += v
	}
	if sum == 100 {
		metrics.BasketSlackAdjustment.Observe(0)
		return out, nil
	}

	slack := 100 - sum
	if slack < 0 {
		metrics.BasketSlackAdjustment.Observe(float64(-slack))
	} else {
		metrics.BasketSlackAdjustment.Observe(float64(slack))
	}

	maxKey := keys[0]
	for _, k := range keys[1:] {
		if out[k] > out[maxKey] {
			maxKey = k
		}
	}
	adjusted := out[maxKey] + slack
	if adjusted < 0 {
		// Only reachable with pathological inputs. Not clamped: the caller
		// sees the raw adjustment and the sum invariant still holds.
		log.Warn().
			Str("key", maxKey).
			Int("value", adjusted).
			Msg("[basket] slack adjustment drove entry below zero")
	}
	out[maxKey] = adjusted
	return out, nil
}
