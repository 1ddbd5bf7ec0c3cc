package basket

import (
	"fmt"
	"math/rand"
)

var (
	nameAdjectives = []string{
		"bold", "calm", "keen", "lunar", "mellow", "nimble", "prime",
		"rapid", "solar", "steady", "vivid", "zesty",
	}
	nameNouns = []string{
		"basket", "bundle", "harvest", "orchard", "portfolio", "reserve",
		"stack", "trove", "vault", "yield",
	}
)

// GenerateName produces a human-readable basket name, e.g. "solar-trove-482".
// Names are not guaranteed unique; the store overwrites on collision.
func GenerateName() string {
	adj := nameAdjectives[rand.Intn(len(nameAdjectives))]
	noun := nameNouns[rand.Intn(len(nameNouns))]
	return fmt.Sprintf("%s-%s-%d", adj, noun, rand.Intn(1000))
}
