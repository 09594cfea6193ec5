// Package analysis scores a starting hand and enumerates the poker hands
// reachable from it.
package analysis

import (
	"fmt"

	"github.com/lox/handscope/poker"
)

// HandAnalysis is the complete result of analyzing two hole cards.
type HandAnalysis struct {
	Key           poker.StartingHandKey `json:"key"`
	Cards         [2]poker.Card         `json:"cards"`
	Strength      poker.HandStrength    `json:"strength"`
	PossibleHands []HandArchetype       `json:"possibleHands"`
}

// Find returns the entries for an archetype in display order.
func (a HandAnalysis) Find(name Archetype) []HandArchetype {
	var found []HandArchetype
	for _, h := range a.PossibleHands {
		if h.Name == name {
			found = append(found, h)
		}
	}
	return found
}

// Has reports whether the archetype is reachable.
func (a HandAnalysis) Has(name Archetype) bool {
	return len(a.Find(name)) > 0
}

// Analyze scores two hole cards and lists their reachable archetypes. The
// result does not depend on the order of the cards.
func Analyze(c1, c2 poker.Card) (HandAnalysis, error) {
	for _, c := range []poker.Card{c1, c2} {
		if !c.Valid() {
			return HandAnalysis{}, fmt.Errorf("%w: rank %d suit %d", poker.ErrInvalidCardFormat, c.Rank, c.Suit)
		}
	}
	if c1 == c2 {
		return HandAnalysis{}, fmt.Errorf("%w: %s", poker.ErrDuplicateCard, c1)
	}

	h := normalize(c1, c2)
	key := poker.KeyFor(h.high, h.low)
	return HandAnalysis{
		Key:           key,
		Cards:         [2]poker.Card{h.high, h.low},
		Strength:      poker.StrengthOf(key),
		PossibleHands: possibleHands(h),
	}, nil
}

// AnalyzeStartingHand parses two card strings such as "A♠" and "K♠" and
// analyzes them.
func AnalyzeStartingHand(card1, card2 string) (HandAnalysis, error) {
	c1, err := poker.ParseCard(card1)
	if err != nil {
		return HandAnalysis{}, fmt.Errorf("card 1: %w", err)
	}
	c2, err := poker.ParseCard(card2)
	if err != nil {
		return HandAnalysis{}, fmt.Errorf("card 2: %w", err)
	}
	return Analyze(c1, c2)
}
