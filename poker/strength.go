package poker

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category represents the preflop strength category of a starting hand
type Category uint8

const (
	CategoryFold Category = iota
	CategoryWeak
	CategoryNormal
	CategoryStrong
	CategoryExtremelyStrong
)

// Categories lists every category from weakest to strongest.
var Categories = []Category{CategoryFold, CategoryWeak, CategoryNormal, CategoryStrong, CategoryExtremelyStrong}

func (c Category) String() string {
	switch c {
	case CategoryFold:
		return "Fold"
	case CategoryWeak:
		return "Weak"
	case CategoryNormal:
		return "Normal"
	case CategoryStrong:
		return "Strong"
	case CategoryExtremelyStrong:
		return "Extremely Strong"
	default:
		return "Unknown"
	}
}

// Value returns the numeric strength, 0 for Fold through 4 for ExtremelyStrong.
func (c Category) Value() int {
	return int(c)
}

// ParseCategory parses a category label. Matching ignores case and spaces.
func ParseCategory(s string) (Category, error) {
	norm := strings.ReplaceAll(strings.ToLower(s), " ", "")
	for _, c := range Categories {
		if norm == strings.ReplaceAll(strings.ToLower(c.String()), " ", "") {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// HandStrength is the strength table entry for a starting-hand class.
type HandStrength struct {
	Category Category
	Value    int
}

func strengthFor(c Category) HandStrength {
	return HandStrength{Category: c, Value: c.Value()}
}

// Label returns the display label of the category.
func (s HandStrength) Label() string {
	return s.Category.String()
}

type handStrengthJSON struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// MarshalJSON encodes the entry as {"value":4,"label":"Extremely Strong"}.
func (s HandStrength) MarshalJSON() ([]byte, error) {
	return json.Marshal(handStrengthJSON{Value: s.Value, Label: s.Label()})
}

// UnmarshalJSON decodes the form written by MarshalJSON. The value must agree
// with the label.
func (s *HandStrength) UnmarshalJSON(data []byte) error {
	var raw handStrengthJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c, err := ParseCategory(raw.Label)
	if err != nil {
		return err
	}
	if raw.Value != c.Value() {
		return fmt.Errorf("strength value %d does not match label %q", raw.Value, raw.Label)
	}
	*s = strengthFor(c)
	return nil
}

// fallbackStrength is returned for keys the table does not cover.
var fallbackStrength = strengthFor(CategoryWeak)

// strengthGroup lists the unordered rank pairs that belong to a category.
type strengthGroup struct {
	category Category
	pairs    string
}

var pairGroups = []strengthGroup{
	{CategoryExtremelyStrong, "AA KK QQ"},
	{CategoryStrong, "JJ"},
	{CategoryNormal, "99 88 77"},
	{CategoryWeak, "66 55 44"},
	{CategoryFold, "33 22"},
}

var suitedGroups = []strengthGroup{
	{CategoryExtremelyStrong, "AK AQ AJ KQ"},
	{CategoryStrong, "KJ KT QJ QT JT"},
	{CategoryNormal, "AT A9 A8 A7 A6 A5 A3 A2 K9 K8 K7 K6 K5 K4 K3 K2 " +
		"Q9 Q8 Q7 Q6 Q5 Q4 Q3 Q2 J9 J8 J7 J6 J5 J4 J3 J2 " +
		"T9 T8 T7 T6 T5 T4 T3 T2 98 87 76 65"},
	{CategoryWeak, "A4 97 86 75 64 54 43 32"},
	{CategoryFold, "96 85 74 63 52 42"},
}

var offsuitGroups = []strengthGroup{
	{CategoryStrong, "AK AQ KQ KJ"},
	{CategoryNormal, "AJ AT A9 A8 A7 A6 A5 KT QT JT T9 T8 T7 T6 T5 T4 T3 T2 98 87"},
	{CategoryWeak, "A4 A3 A2 K9 K8 K7 K6 K5 K4 K3 K2 Q9 Q8 Q7 Q6 Q5 Q4 Q3 Q2 " +
		"J9 J8 J7 J6 J5 J4 J3 J2 97 86 76 65 54 43 32"},
	{CategoryFold, "96 85 74 63 52 42"},
}

// strengthGrid holds one entry per starting-hand class, laid out like StartingHands.
type strengthGrid [NumRanks][NumRanks]HandStrength

// strengthTable is built once at package init and never mutated, so
// concurrent readers need no locking.
var strengthTable = buildStrengthTable()

// buildStrengthTable generates the 169-entry table from the group lists.
// Non-pairs that no group of their suitedness names fall to Fold; a pocket
// pair missing from pairGroups (TT) takes the fallback strength.
func buildStrengthTable() *strengthGrid {
	var grid strengthGrid
	for row := range grid {
		for col := range grid[row] {
			if row == col {
				grid[row][col] = fallbackStrength
				continue
			}
			grid[row][col] = strengthFor(CategoryFold)
		}
	}

	assign := func(groups []strengthGroup, suited bool) {
		for _, g := range groups {
			for _, p := range strings.Fields(g.pairs) {
				h := groupHand(p, suited)
				row, col := h.gridPosition()
				grid[row][col] = strengthFor(g.category)
			}
		}
	}
	assign(pairGroups, false)
	assign(suitedGroups, true)
	assign(offsuitGroups, false)
	return &grid
}

// groupHand converts an unordered rank pair like "KA" or "AK" into its class.
func groupHand(p string, suited bool) StartingHand {
	r1, err := ParseRank(p[0])
	if err != nil {
		panic(fmt.Sprintf("strength group %q: %v", p, err))
	}
	r2, err := ParseRank(p[1])
	if err != nil {
		panic(fmt.Sprintf("strength group %q: %v", p, err))
	}
	return handFor(r1, r2, suited && r1 != r2)
}

// LookupStrength returns the table entry for key. The boolean is false when
// the key is not a valid starting-hand key, in which case the Weak fallback
// is returned.
func LookupStrength(key StartingHandKey) (HandStrength, bool) {
	h, err := ParseKey(string(key))
	if err != nil {
		return fallbackStrength, false
	}
	row, col := h.gridPosition()
	return strengthTable[row][col], true
}

// StrengthOf returns the strength of a starting-hand class, falling back to
// Weak for keys outside the table.
func StrengthOf(key StartingHandKey) HandStrength {
	s, _ := LookupStrength(key)
	return s
}

// StrengthOfCards returns the strength of two hole cards.
func StrengthOfCards(c1, c2 Card) HandStrength {
	return StrengthOf(KeyFor(c1, c2))
}

// CategoryCounts reports how many of the 169 classes fall into each category.
func CategoryCounts() map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, row := range strengthTable {
		for _, s := range row {
			counts[s.Category]++
		}
	}
	return counts
}
