// Package randutil holds the deterministic random source used for dealing.
package randutil

import (
	rand "math/rand/v2"

	"github.com/lox/handscope/poker"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a PCG-backed *rand.Rand derived from seed. The same seed always
// produces the same sequence.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(splitmix(u), splitmix(u+goldenRatio64)))
}

func splitmix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// DealHoleCards deals count hole-card pairs. Each pair comes off a freshly
// shuffled deck, so its two cards are always distinct.
func DealHoleCards(rng *rand.Rand, count int) [][2]poker.Card {
	if count <= 0 {
		return nil
	}

	deck := poker.Deck()
	hands := make([][2]poker.Card, count)
	for i := range hands {
		// Partial Fisher-Yates: only the first two slots need settling.
		for j := range 2 {
			k := j + rng.IntN(len(deck)-j)
			deck[j], deck[k] = deck[k], deck[j]
		}
		hands[i] = [2]poker.Card{deck[0], deck[1]}
	}
	return hands
}
