package basket

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dustprotocol/dust-client/internal/domain"
)

func mustBasket(weights map[string]string) domain.Basket {
	b := make(domain.Basket, len(weights))
	for k, v := range weights {
		b[k] = decimal.RequireFromString(v)
	}
	return b
}

func TestNormalizeSingleEntry(t *testing.T) {
	got, err := Normalize(mustBasket(map[string]string{"UNI-POOL": "1.0"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["UNI-POOL"] != 100 {
		t.Errorf("single entry = %d, want 100", got["UNI-POOL"])
	}
}

func TestNormalizeExactSum(t *testing.T) {
	got, err := Normalize(mustBasket(map[string]string{
		"A": "0.33", "B": "0.33", "C": "0.34",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.NormalizedBasket{"A": 33, "B": 33, "C": 34}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %d, want %d", k, got[k], v)
		}
	}
}

func TestNormalizeDeficitGoesToTieWinner(t *testing.T) {
	// All three round to 33 (sum 99); the slack goes to the first max in
	// canonical key order, so A becomes 34.
	got, err := Normalize(mustBasket(map[string]string{
		"A": "0.333", "B": "0.333", "C": "0.334",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Sum() != 100 {
		t.Fatalf("sum = %d, want 100", got.Sum())
	}
	if got["A"] != 34 || got["B"] != 33 || got["C"] != 33 {
		t.Errorf("got %v, want A=34 B=33 C=33", got)
	}
}

func TestNormalizeExcessSubtractedFromMax(t *testing.T) {
	// 0.335 and 0.335 round up to 34 each, 0.33 rounds to 33: sum 101.
	got, err := Normalize(mustBasket(map[string]string{
		"X": "0.335", "Y": "0.335", "Z": "0.33",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Sum() != 100 {
		t.Fatalf("sum = %d, want 100", got.Sum())
	}
	if got["X"] != 33 {
		t.Errorf("X = %d, want 33 (excess taken from first max)", got["X"])
	}
}

func TestNormalizeSumInvariant(t *testing.T) {
	cases := []map[string]string{
		{"A": "0.1", "B": "0.2", "C": "0.7"},
		{"A": "0.333", "B": "0.333", "C": "0.333"},
		{"A": "0.166", "B": "0.166", "C": "0.166", "D": "0.166", "E": "0.166", "F": "0.166"},
		{"A": "0.005", "B": "0.995"},
		{"A": "0.5", "B": "0.5"},
		{"A": "0.2499", "B": "0.2499", "C": "0.2499", "D": "0.2503"},
		{"ONLY": "0.42"},
	}
	for _, c := range cases {
		got, err := Normalize(mustBasket(c))
		if err != nil {
			t.Fatalf("Normalize(%v): %v", c, err)
		}
		if got.Sum() != 100 {
			t.Errorf("Normalize(%v) sum = %d, want 100", c, got.Sum())
		}
	}
}

func TestNormalizeEmptyBasket(t *testing.T) {
	_, err := Normalize(domain.Basket{})
	if !errors.Is(err, ErrEmptyBasket) {
		t.Errorf("err = %v, want ErrEmptyBasket", err)
	}
}

func TestNormalizeNegativeWeight(t *testing.T) {
	_, err := Normalize(mustBasket(map[string]string{"A": "0.5", "B": "-0.1"}))
	if !errors.Is(err, ErrNegativeWeight) {
		t.Errorf("err = %v, want ErrNegativeWeight", err)
	}
}

func BenchmarkNormalize(b *testing.B) {
	basket := mustBasket(map[string]string{
		"A": "0.125", "B": "0.333", "C": "0.042", "D": "0.25", "E": "0.25",
	})
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = Normalize(basket)
	}
}
