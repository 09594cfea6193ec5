package analysis

import (
	"fmt"
	"strings"

	"github.com/lox/handscope/poker"
)

// Range is a set of starting-hand classes.
type Range struct {
	keys map[poker.StartingHandKey]bool
}

// NewRange creates a new empty range.
func NewRange() *Range {
	return &Range{keys: make(map[poker.StartingHandKey]bool)}
}

// FullRange returns a range holding all 169 classes.
func FullRange() *Range {
	r := NewRange()
	for _, h := range poker.StartingHands() {
		r.keys[h.Key] = true
	}
	return r
}

// ParseRange creates a range from standard poker notation.
// Examples: "AA,KK", "AKs,AKo", "TT+", "A5s-A2s", "KTs+", "22-66", "AK".
// An empty notation yields the full range.
func ParseRange(notation string) (*Range, error) {
	if strings.TrimSpace(notation) == "" {
		return FullRange(), nil
	}

	r := NewRange()
	for part := range strings.SplitSeq(notation, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if err := r.addRangePart(part); err != nil {
			return nil, fmt.Errorf("invalid range part %q: %w", part, err)
		}
	}
	return r, nil
}

func (r *Range) addRangePart(part string) error {
	switch {
	case strings.HasSuffix(part, "+"):
		return r.addPlusRange(strings.TrimSuffix(part, "+"))
	case strings.Contains(part, "-"):
		return r.addDashRange(part)
	default:
		return r.addNotation(part)
	}
}

// handNotation is a parsed "AK", "AKs", "AKo" or "TT".
type handNotation struct {
	high, low       poker.Rank
	suited, offsuit bool
}

func parseNotation(s string) (handNotation, error) {
	if len(s) < 2 || len(s) > 3 {
		return handNotation{}, fmt.Errorf("invalid notation length: %s", s)
	}
	r1, err := poker.ParseRank(s[0])
	if err != nil {
		return handNotation{}, err
	}
	r2, err := poker.ParseRank(s[1])
	if err != nil {
		return handNotation{}, err
	}
	if poker.CompareRanks(r2, r1) > 0 {
		r1, r2 = r2, r1
	}

	n := handNotation{high: r1, low: r2, suited: true, offsuit: true}
	if len(s) == 3 {
		if r1 == r2 {
			return handNotation{}, fmt.Errorf("pocket pairs cannot have suited/offsuit modifier: %s", s)
		}
		switch s[2] {
		case 's':
			n.offsuit = false
		case 'o':
			n.suited = false
		default:
			return handNotation{}, fmt.Errorf("invalid modifier: %c", s[2])
		}
	}
	return n, nil
}

func (r *Range) add(high, low poker.Rank, n handNotation) {
	if high == low {
		r.keys[poker.KeyFor(poker.NewCard(high, poker.Spades), poker.NewCard(low, poker.Hearts))] = true
		return
	}
	if n.suited {
		r.keys[poker.KeyFor(poker.NewCard(high, poker.Spades), poker.NewCard(low, poker.Spades))] = true
	}
	if n.offsuit {
		r.keys[poker.KeyFor(poker.NewCard(high, poker.Spades), poker.NewCard(low, poker.Hearts))] = true
	}
}

func (r *Range) addNotation(s string) error {
	n, err := parseNotation(s)
	if err != nil {
		return err
	}
	r.add(n.high, n.low, n)
	return nil
}

// addPlusRange handles "TT+" (TT and every higher pair) and "KTs+" (the
// kicker climbs up to one below the high card).
func (r *Range) addPlusRange(base string) error {
	n, err := parseNotation(base)
	if err != nil {
		return err
	}
	if n.high == n.low {
		for i := n.high.Index(); i >= 0; i-- {
			r.add(poker.Ranks[i], poker.Ranks[i], n)
		}
		return nil
	}
	for i := n.low.Index(); i > n.high.Index(); i-- {
		r.add(n.high, poker.Ranks[i], n)
	}
	return nil
}

// addDashRange handles "22-66" and "A5s-A2s".
func (r *Range) addDashRange(part string) error {
	start, end, _ := strings.Cut(part, "-")
	from, err := parseNotation(strings.TrimSpace(start))
	if err != nil {
		return err
	}
	to, err := parseNotation(strings.TrimSpace(end))
	if err != nil {
		return err
	}

	if from.high == from.low && to.high == to.low {
		lo, hi := min(from.high.Index(), to.high.Index()), max(from.high.Index(), to.high.Index())
		for i := lo; i <= hi; i++ {
			r.add(poker.Ranks[i], poker.Ranks[i], from)
		}
		return nil
	}

	if from.high == to.high && from.high != from.low && to.high != to.low {
		if from.suited != to.suited || from.offsuit != to.offsuit {
			return fmt.Errorf("mismatched suffixes in %s", part)
		}
		lo, hi := min(from.low.Index(), to.low.Index()), max(from.low.Index(), to.low.Index())
		for i := lo; i <= hi; i++ {
			r.add(from.high, poker.Ranks[i], from)
		}
		return nil
	}

	return fmt.Errorf("unsupported range format: %s", part)
}

// Contains reports whether the class is in the range.
func (r *Range) Contains(key poker.StartingHandKey) bool {
	return r.keys[key]
}

// ContainsCards reports whether the class of the hole cards is in the range.
func (r *Range) ContainsCards(c1, c2 poker.Card) bool {
	return r.keys[poker.KeyFor(c1, c2)]
}

// Size returns the number of classes in the range.
func (r *Range) Size() int {
	return len(r.keys)
}

// Hands returns the classes in the range in grid order.
func (r *Range) Hands() []poker.StartingHand {
	hands := make([]poker.StartingHand, 0, len(r.keys))
	for _, h := range poker.StartingHands() {
		if r.keys[h.Key] {
			hands = append(hands, h)
		}
	}
	return hands
}

// Combos returns the number of two-card combinations the range covers:
// 6 per pair, 4 per suited class and 12 per offsuit class.
func (r *Range) Combos() int {
	total := 0
	for _, h := range r.Hands() {
		switch {
		case h.Pair():
			total += 6
		case h.Suited:
			total += 4
		default:
			total += 12
		}
	}
	return total
}
