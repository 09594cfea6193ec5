package poker

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidCardFormat is returned when a string does not parse into a rank and suit.
	ErrInvalidCardFormat = errors.New("invalid card format")

	// ErrDuplicateCard is returned when the same physical card appears twice in a hand.
	ErrDuplicateCard = errors.New("duplicate card")
)

// Rank represents a card rank. The numeric value is the rank's position in
// the high-to-low ordering, so Ace is 0 and Two is 12.
type Rank uint8

const (
	Ace Rank = iota
	King
	Queen
	Jack
	Ten
	Nine
	Eight
	Seven
	Six
	Five
	Four
	Three
	Two
)

// NumRanks is the number of distinct ranks in a standard deck.
const NumRanks = 13

// Ranks lists every rank from highest to lowest.
var Ranks = [NumRanks]Rank{Ace, King, Queen, Jack, Ten, Nine, Eight, Seven, Six, Five, Four, Three, Two}

const rankSymbols = "AKQJT98765432"

var rankNames = [NumRanks]string{
	"ace", "king", "queen", "jack", "ten", "nine", "eight",
	"seven", "six", "five", "four", "three", "two",
}

// Index returns the rank's ordinal position, 0 for Ace through 12 for Two.
func (r Rank) Index() int {
	return int(r)
}

// Valid reports whether r is one of the 13 ranks.
func (r Rank) Valid() bool {
	return r < NumRanks
}

// String returns the single character symbol for the rank ("T" for ten).
func (r Rank) String() string {
	if !r.Valid() {
		return "?"
	}
	return rankSymbols[r : r+1]
}

// Name returns the English name of the rank.
func (r Rank) Name() string {
	if !r.Valid() {
		return "unknown"
	}
	return rankNames[r]
}

// Plural returns the English plural of the rank name ("aces", "sixes").
func (r Rank) Plural() string {
	if r == Six {
		return "sixes"
	}
	return r.Name() + "s"
}

// IsRoyal reports whether the rank can appear in a royal flush.
func (r Rank) IsRoyal() bool {
	return r <= Ten
}

// CompareRanks orders two ranks by index: it returns 1 if a ranks higher
// than b, -1 if lower and 0 if they are equal.
func CompareRanks(a, b Rank) int {
	switch {
	case a.Index() < b.Index():
		return 1
	case a.Index() > b.Index():
		return -1
	default:
		return 0
	}
}

// ParseRank parses a rank symbol. Letters are case-insensitive.
func ParseRank(c byte) (Rank, error) {
	switch c {
	case 'a':
		c = 'A'
	case 'k':
		c = 'K'
	case 'q':
		c = 'Q'
	case 'j':
		c = 'J'
	case 't':
		c = 'T'
	}
	if i := strings.IndexByte(rankSymbols, c); i >= 0 {
		return Rank(i), nil
	}
	return 0, fmt.Errorf("%w: invalid rank %q", ErrInvalidCardFormat, c)
}

// Suit represents a card suit. Suits carry no ranking of their own.
type Suit uint8

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// NumSuits is the number of suits in a standard deck.
const NumSuits = 4

// variationSelector follows emoji-presentation suit symbols such as "♠\ufe0f".
const variationSelector = "\ufe0f"

// Suits lists every suit in canonical order.
var Suits = [NumSuits]Suit{Spades, Hearts, Diamonds, Clubs}

var (
	suitSymbols = [NumSuits]string{"♠", "♥", "♦", "♣"}
	suitLetters = [NumSuits]string{"s", "h", "d", "c"}
	suitNames   = [NumSuits]string{"spades", "hearts", "diamonds", "clubs"}
)

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	return s < NumSuits
}

// String returns the unicode symbol for the suit.
func (s Suit) String() string {
	if !s.Valid() {
		return "?"
	}
	return suitSymbols[s]
}

// Letter returns the ASCII letter for the suit.
func (s Suit) Letter() string {
	if !s.Valid() {
		return "?"
	}
	return suitLetters[s]
}

// Name returns the English plural name of the suit, e.g. "spades".
func (s Suit) Name() string {
	if !s.Valid() {
		return "unknown"
	}
	return suitNames[s]
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// ParseSuit parses a unicode suit symbol or an ASCII suit letter.
func ParseSuit(s string) (Suit, error) {
	for i := range NumSuits {
		if s == suitSymbols[i] || strings.EqualFold(s, suitLetters[i]) {
			return Suit(i), nil
		}
	}
	// Text-presentation variants such as "♠️" carry a trailing selector.
	if trimmed := strings.TrimSuffix(s, variationSelector); trimmed != s {
		return ParseSuit(trimmed)
	}
	return 0, fmt.Errorf("%w: invalid suit %q", ErrInvalidCardFormat, s)
}

// Card is an immutable playing card.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a new card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// String returns the rank followed by the unicode suit, e.g. "A♠".
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// ASCII returns the rank followed by the suit letter, e.g. "As".
func (c Card) ASCII() string {
	return c.Rank.String() + c.Suit.Letter()
}

// Valid reports whether both rank and suit are in range.
func (c Card) Valid() bool {
	return c.Rank.Valid() && c.Suit.Valid()
}

// MarshalText encodes the card in its unicode form.
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: rank %d suit %d", ErrInvalidCardFormat, c.Rank, c.Suit)
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes any form accepted by ParseCard.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard parses a card string such as "A♠", "As", "Td" or "10h".
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "10") {
		s = "T" + s[2:]
	}
	if len(s) < 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCardFormat, s)
	}

	rank, err := ParseRank(s[0])
	if err != nil {
		return Card{}, fmt.Errorf("%w in %q", err, s)
	}
	suit, err := ParseSuit(s[1:])
	if err != nil {
		return Card{}, fmt.Errorf("%w in %q", err, s)
	}
	return NewCard(rank, suit), nil
}

// MustParseCard parses a card and panics on error. Intended for tests and constants.
func MustParseCard(s string) Card {
	c, err := ParseCard(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseHoleCards parses exactly two cards from a string such as "AsKd",
// "As Kd", "A♠K♦" or "10h 9h".
func ParseHoleCards(s string) (Card, Card, error) {
	cards, err := ParseCards(s)
	if err != nil {
		return Card{}, Card{}, err
	}
	if len(cards) != 2 {
		return Card{}, Card{}, fmt.Errorf("%w: expected 2 cards, got %d in %q", ErrInvalidCardFormat, len(cards), s)
	}
	if cards[0] == cards[1] {
		return Card{}, Card{}, fmt.Errorf("%w: %s", ErrDuplicateCard, cards[0])
	}
	return cards[0], cards[1], nil
}

// ParseCards parses a run of cards, optionally separated by spaces or commas.
func ParseCards(s string) ([]Card, error) {
	var cards []Card
	rest := strings.TrimSpace(s)
	for rest != "" {
		token, remainder, err := nextCardToken(rest)
		if err != nil {
			return nil, err
		}
		card, err := ParseCard(token)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
		rest = strings.TrimLeft(remainder, " ,\t")
	}
	return cards, nil
}

// nextCardToken splits the leading card (rank plus one suit rune) off s.
func nextCardToken(s string) (string, string, error) {
	rankLen := 1
	if strings.HasPrefix(s, "10") {
		rankLen = 2
	}
	if len(s) <= rankLen {
		return "", "", fmt.Errorf("%w: truncated card %q", ErrInvalidCardFormat, s)
	}
	_, size := utf8.DecodeRuneInString(s[rankLen:])
	end := rankLen + size
	if strings.HasPrefix(s[end:], variationSelector) {
		end += len(variationSelector)
	}
	return s[:end], s[end:], nil
}

// Deck returns all 52 cards, suit-major in canonical order.
func Deck() []Card {
	cards := make([]Card, 0, NumRanks*NumSuits)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return cards
}
