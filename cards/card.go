package cards

import (
	"fmt"
	"strings"
)

// Rank is a card rank, 2 through 14 (ace high).
type Rank int

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// Suit is a card suit. Suits carry no ranking.
type Suit int

const (
	Spades   Suit = 0
	Hearts   Suit = 1
	Clubs    Suit = 2
	Diamonds Suit = 3
)

var (
	Ranks = []Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}
	Suits = []Suit{Spades, Hearts, Clubs, Diamonds}
)

// Card represents a playing card
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// Cards represents a collection of playing cards
type Cards []Card

func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	}
	return fmt.Sprintf("%d", int(r))
}

func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	}
	return "?"
}

// String returns the suit followed by the rank, e.g. "♠A"
func (c Card) String() string {
	return c.Suit.String() + c.Rank.String()
}

// Valid reports whether the card is one of the 52 standard cards
func (c Card) Valid() bool {
	return c.Rank >= Two && c.Rank <= Ace && c.Suit >= Spades && c.Suit <= Diamonds
}

func (cards Cards) String() string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// CardFromString creates a card from its shorthand.
// The suit may lead or trail the rank, as a symbol or a letter:
// "♠A", "A♠", "As", "10h", "QD".
func CardFromString(s string) (Card, error) {
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card shorthand: %q", s)
	}

	rankPart, suitPart, ok := splitCard(s)
	if !ok {
		return Card{}, fmt.Errorf("invalid card suit: %q", s)
	}

	var suit Suit
	switch suitPart {
	case "♠", "s", "S":
		suit = Spades
	case "♥", "h", "H":
		suit = Hearts
	case "♣", "c", "C":
		suit = Clubs
	case "♦", "d", "D":
		suit = Diamonds
	}

	var rank Rank
	switch strings.ToUpper(rankPart) {
	case "A":
		rank = Ace
	case "K":
		rank = King
	case "Q":
		rank = Queen
	case "J":
		rank = Jack
	case "10", "T":
		rank = Ten
	case "9":
		rank = Nine
	case "8":
		rank = Eight
	case "7":
		rank = Seven
	case "6":
		rank = Six
	case "5":
		rank = Five
	case "4":
		rank = Four
	case "3":
		rank = Three
	case "2":
		rank = Two
	default:
		return Card{}, fmt.Errorf("invalid card rank: %q", rankPart)
	}

	return Card{Rank: rank, Suit: suit}, nil
}

// MustParse parses space separated card shorthands and panics on error.
func MustParse(s string) Cards {
	fields := strings.Fields(s)
	out := make(Cards, 0, len(fields))
	for _, f := range fields {
		c, err := CardFromString(f)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}

var suitTokens = []string{"♠", "♥", "♣", "♦", "s", "S", "h", "H", "c", "C", "d", "D"}

func splitCard(s string) (rank string, suit string, ok bool) {
	for _, tok := range suitTokens {
		if strings.HasSuffix(s, tok) && len(s) > len(tok) {
			return s[:len(s)-len(tok)], tok, true
		}
	}
	for _, tok := range suitTokens[:4] {
		if strings.HasPrefix(s, tok) && len(s) > len(tok) {
			return s[len(tok):], tok, true
		}
	}
	return "", "", false
}
