package poker

import (
	"errors"
	"fmt"
)

// ErrInvalidHandKey is returned when a string is not a starting-hand key like "AA", "AKs" or "72o".
var ErrInvalidHandKey = errors.New("invalid starting hand key")

// StartingHandKey identifies one of the 169 starting-hand classes,
// e.g. "AA", "AKs" or "72o".
type StartingHandKey string

// StartingHand describes a starting-hand class.
type StartingHand struct {
	Key    StartingHandKey `json:"key"`
	High   Rank            `json:"-"`
	Low    Rank            `json:"-"`
	Suited bool            `json:"suited"`
}

// Pair reports whether the class is a pocket pair.
func (h StartingHand) Pair() bool {
	return h.High == h.Low
}

// KeyFor builds the starting-hand key for two cards. The higher rank always
// comes first, so KeyFor(a, b) == KeyFor(b, a).
func KeyFor(c1, c2 Card) StartingHandKey {
	return handFor(c1.Rank, c2.Rank, c1.Suit == c2.Suit).Key
}

// ClassOf returns the starting-hand class for two cards.
func ClassOf(c1, c2 Card) StartingHand {
	return handFor(c1.Rank, c2.Rank, c1.Suit == c2.Suit)
}

func handFor(r1, r2 Rank, suited bool) StartingHand {
	high, low := r1, r2
	if CompareRanks(low, high) > 0 {
		high, low = low, high
	}

	h := StartingHand{High: high, Low: low}
	switch {
	case high == low:
		h.Key = StartingHandKey(high.String() + low.String())
	case suited:
		h.Suited = true
		h.Key = StartingHandKey(high.String() + low.String() + "s")
	default:
		h.Key = StartingHandKey(high.String() + low.String() + "o")
	}
	return h
}

// ParseKey parses a starting-hand key. The higher rank must come first and
// non-pairs must carry an "s" or "o" suffix.
func ParseKey(s string) (StartingHand, error) {
	if len(s) != 2 && len(s) != 3 {
		return StartingHand{}, fmt.Errorf("%w: %q", ErrInvalidHandKey, s)
	}
	high, err := ParseRank(s[0])
	if err != nil {
		return StartingHand{}, fmt.Errorf("%w: %q", ErrInvalidHandKey, s)
	}
	low, err := ParseRank(s[1])
	if err != nil {
		return StartingHand{}, fmt.Errorf("%w: %q", ErrInvalidHandKey, s)
	}

	if len(s) == 2 {
		if high != low {
			return StartingHand{}, fmt.Errorf("%w: %q needs an s or o suffix", ErrInvalidHandKey, s)
		}
		return handFor(high, low, false), nil
	}

	if CompareRanks(high, low) <= 0 {
		return StartingHand{}, fmt.Errorf("%w: %q must list the higher rank first", ErrInvalidHandKey, s)
	}
	switch s[2] {
	case 's':
		return handFor(high, low, true), nil
	case 'o':
		return handFor(high, low, false), nil
	default:
		return StartingHand{}, fmt.Errorf("%w: %q has suffix %q", ErrInvalidHandKey, s, s[2])
	}
}

// StartingHands enumerates all 169 classes in 13x13 grid order: row-major
// from AA, suited hands above the diagonal and offsuit hands below it.
func StartingHands() []StartingHand {
	hands := make([]StartingHand, 0, NumRanks*NumRanks)
	for row := range Ranks {
		for col := range Ranks {
			hands = append(hands, gridHand(row, col))
		}
	}
	return hands
}

// gridHand returns the class shown at (row, col) of the starting-hand grid.
func gridHand(row, col int) StartingHand {
	switch {
	case row == col:
		return handFor(Ranks[row], Ranks[col], false)
	case row < col:
		return handFor(Ranks[row], Ranks[col], true)
	default:
		return handFor(Ranks[col], Ranks[row], false)
	}
}

// gridPosition is the inverse of gridHand.
func (h StartingHand) gridPosition() (row, col int) {
	hi, lo := h.High.Index(), h.Low.Index()
	if h.Suited || hi == lo {
		return hi, lo
	}
	return lo, hi
}
