package analysis

import (
	"fmt"

	"github.com/lox/handscope/poker"
)

// Archetype names one of the ten standard poker hand categories.
type Archetype string

const (
	RoyalFlush    Archetype = "Royal Flush"
	StraightFlush Archetype = "Straight Flush"
	FourOfAKind   Archetype = "Four of a Kind"
	FullHouse     Archetype = "Full House"
	Flush         Archetype = "Flush"
	Straight      Archetype = "Straight"
	ThreeOfAKind  Archetype = "Three of a Kind"
	TwoPair       Archetype = "Two Pair"
	OnePair       Archetype = "One Pair"
	HighCard      Archetype = "High Card"
)

// Archetypes lists every archetype in display order, strongest first.
var Archetypes = []Archetype{
	RoyalFlush, StraightFlush, FourOfAKind, FullHouse, Flush,
	Straight, ThreeOfAKind, TwoPair, OnePair, HighCard,
}

// HandArchetype is a hand reachable from the hole cards together with what
// is still needed to complete it.
type HandArchetype struct {
	Name          Archetype `json:"name"`
	Description   string    `json:"description"`
	RequiredCards []string  `json:"requiredCards"`
	Completed     bool      `json:"completed"`
}

// straightSpan is the number of ranks in a straight.
const straightSpan = 5

var royalRanks = []poker.Rank{poker.Ace, poker.King, poker.Queen, poker.Jack, poker.Ten}

// holeCards is a normalized starting hand: high holds the higher rank, and
// for pairs the lower suit index.
type holeCards struct {
	high, low poker.Card
}

func normalize(c1, c2 poker.Card) holeCards {
	if c2.Rank < c1.Rank || (c2.Rank == c1.Rank && c2.Suit < c1.Suit) {
		c1, c2 = c2, c1
	}
	return holeCards{high: c1, low: c2}
}

func (h holeCards) paired() bool {
	return h.high.Rank == h.low.Rank
}

func (h holeCards) suited() bool {
	return h.high.Suit == h.low.Suit
}

// gap is the rank-index distance between the two cards.
func (h holeCards) gap() int {
	return h.low.Rank.Index() - h.high.Rank.Index()
}

func (h holeCards) holds(c poker.Card) bool {
	return h.high == c || h.low == c
}

func (h holeCards) holdsRank(r poker.Rank) bool {
	return h.high.Rank == r || h.low.Rank == r
}

// possibleHands enumerates the reachable archetypes in display order.
func possibleHands(h holeCards) []HandArchetype {
	var hands []HandArchetype

	hands = append(hands, royalFlushes(h)...)
	if a, ok := straightFlush(h); ok {
		hands = append(hands, a)
	}
	if h.paired() {
		hands = append(hands, fourOfAKind(h), fullHouse())
	}
	if h.suited() {
		hands = append(hands, flush(h))
	}
	if a, ok := straight(h); ok {
		hands = append(hands, a)
	}

	return append(hands,
		threeOfAKind(h),
		twoPair(h),
		onePair(h),
		highCard(h),
	)
}

// royalFlushes emits one entry per distinct suit held by a royal-rank card,
// listing the royal cards of that suit still missing.
func royalFlushes(h holeCards) []HandArchetype {
	var hands []HandArchetype
	var seen [poker.NumSuits]bool

	for _, c := range []poker.Card{h.high, h.low} {
		if !c.Rank.IsRoyal() || seen[c.Suit] {
			continue
		}
		seen[c.Suit] = true

		missing := []string{}
		for _, r := range royalRanks {
			if card := poker.NewCard(r, c.Suit); !h.holds(card) {
				missing = append(missing, card.String())
			}
		}
		hands = append(hands, HandArchetype{
			Name:          RoyalFlush,
			Description:   fmt.Sprintf("need %s more royal %s", countWord(len(missing)), c.Suit.Name()),
			RequiredCards: missing,
		})
	}
	return hands
}

// straightWindow returns the ranks within four positions of either held card,
// clamped to the rank list and excluding the held ranks. It reports false when
// the cards are too far apart to share a five-rank window.
func straightWindow(h holeCards) ([]poker.Rank, bool) {
	if h.gap() >= straightSpan {
		return nil, false
	}
	from := max(h.high.Rank.Index()-(straightSpan-1), 0)
	to := min(h.low.Rank.Index()+(straightSpan-1), poker.NumRanks-1)

	var ranks []poker.Rank
	for i := from; i <= to; i++ {
		if r := poker.Ranks[i]; !h.holdsRank(r) {
			ranks = append(ranks, r)
		}
	}
	return ranks, true
}

func straightFlush(h holeCards) (HandArchetype, bool) {
	if !h.suited() {
		return HandArchetype{}, false
	}
	ranks, ok := straightWindow(h)
	if !ok {
		return HandArchetype{}, false
	}

	suit := h.high.Suit
	required := make([]string, 0, len(ranks))
	for _, r := range ranks {
		required = append(required, poker.NewCard(r, suit).String())
	}
	return HandArchetype{
		Name:          StraightFlush,
		Description:   fmt.Sprintf("need three consecutive cards of %s", suit),
		RequiredCards: required,
	}, true
}

func straight(h holeCards) (HandArchetype, bool) {
	ranks, ok := straightWindow(h)
	if !ok {
		return HandArchetype{}, false
	}

	required := make([]string, 0, len(ranks))
	for _, r := range ranks {
		required = append(required, r.String())
	}
	return HandArchetype{
		Name:          Straight,
		Description:   "need three more cards in sequence",
		RequiredCards: required,
	}, true
}

// missingCopies filters the four cards of the paired rank against the held cards.
func missingCopies(h holeCards) []string {
	missing := []string{}
	for _, s := range poker.Suits {
		if card := poker.NewCard(h.high.Rank, s); !h.holds(card) {
			missing = append(missing, card.String())
		}
	}
	return missing
}

func fourOfAKind(h holeCards) HandArchetype {
	missing := missingCopies(h)
	return HandArchetype{
		Name:          FourOfAKind,
		Description:   fmt.Sprintf("need %s more %s", countWord(len(missing)), h.high.Rank.Plural()),
		RequiredCards: missing,
	}
}

func fullHouse() HandArchetype {
	return HandArchetype{
		Name:          FullHouse,
		Description:   "need three of any other rank",
		RequiredCards: []string{},
	}
}

func flush(h holeCards) HandArchetype {
	return HandArchetype{
		Name:          Flush,
		Description:   "need three more " + h.high.Suit.Name(),
		RequiredCards: []string{},
	}
}

func threeOfAKind(h holeCards) HandArchetype {
	if !h.paired() {
		return HandArchetype{
			Name:          ThreeOfAKind,
			Description:   "need two matching cards",
			RequiredCards: []string{},
		}
	}
	missing := missingCopies(h)
	return HandArchetype{
		Name:          ThreeOfAKind,
		Description:   "need one more " + h.high.Rank.Name(),
		RequiredCards: missing[:min(1, len(missing))],
	}
}

func twoPair(h holeCards) HandArchetype {
	desc := "need matching cards for both"
	if h.paired() {
		desc = "need another pair"
	}
	return HandArchetype{Name: TwoPair, Description: desc, RequiredCards: []string{}}
}

func onePair(h holeCards) HandArchetype {
	desc := "need one matching card"
	if h.paired() {
		desc = "already have a pair"
	}
	return HandArchetype{Name: OnePair, Description: desc, RequiredCards: []string{}, Completed: h.paired()}
}

func highCard(h holeCards) HandArchetype {
	return HandArchetype{
		Name:          HighCard,
		Description:   h.high.Rank.String() + " high",
		RequiredCards: []string{},
		Completed:     true,
	}
}

var countWords = []string{"zero", "one", "two", "three", "four", "five"}

func countWord(n int) string {
	if n >= 0 && n < len(countWords) {
		return countWords[n]
	}
	return fmt.Sprint(n)
}
