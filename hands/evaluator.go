package hands

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/lazharichir/zhajinhua/cards"
)

// Category is the class of a three-card hand, weakest first.
// Flush outranks straight and triple is the top category.
type Category int

const (
	HighCard Category = iota
	Pair
	Straight
	Flush
	StraightFlush
	Triple
)

var categoryNames = map[Category]string{
	HighCard:      "high card",
	Pair:          "pair",
	Straight:      "straight",
	Flush:         "flush",
	StraightFlush: "straight flush",
	Triple:        "triple",
}

var categoryLocalNames = map[Category]string{
	HighCard:      "单张",
	Pair:          "对子",
	Straight:      "顺子",
	Flush:         "金花",
	StraightFlush: "顺金",
	Triple:        "豹子",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// LocalName returns the traditional table name of the category.
func (c Category) LocalName() string {
	return categoryLocalNames[c]
}

// Evaluation is the strength of a single hand
type Evaluation struct {
	Category Category
	Keys     []int // Tiebreak ranks, most significant first
	Strength int   // Coarse scalar, not authoritative for showdowns
}

// MarshalJSON includes the category names next to the numeric category.
func (e Evaluation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Category  Category `json:"category"`
		Name      string   `json:"name"`
		LocalName string   `json:"localName"`
		Keys      []int    `json:"keys"`
		Strength  int      `json:"strength"`
	}{
		Category:  e.Category,
		Name:      e.Category.String(),
		LocalName: e.Category.LocalName(),
		Keys:      e.Keys,
		Strength:  e.Strength,
	})
}

// sortByRank returns a copy of the hand sorted by rank, highest first
func sortByRank(hand []cards.Card) []cards.Card {
	sorted := make([]cards.Card, len(hand))
	copy(sorted, hand)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rank > sorted[j].Rank
	})

	return sorted
}

// Evaluate ranks a three-card hand. It panics if the hand does not hold exactly three cards.
func Evaluate(hand []cards.Card) Evaluation {
	if len(hand) != cards.HandSize {
		panic(fmt.Sprintf("hand must contain exactly %d cards, got %d", cards.HandSize, len(hand)))
	}

	sorted := sortByRank(hand)
	ranks := []int{int(sorted[0].Rank), int(sorted[1].Rank), int(sorted[2].Rank)}

	var (
		category Category
		keys     []int
	)

	flush := isFlush(sorted)
	top, straight := straightTop(ranks)

	switch {
	case ranks[0] == ranks[2]:
		category = Triple
		keys = []int{ranks[0]}
	case flush && straight:
		category = StraightFlush
		keys = []int{top}
	case flush:
		category = Flush
		keys = ranks
	case straight:
		category = Straight
		keys = []int{top}
	case ranks[0] == ranks[1]:
		category = Pair
		keys = []int{ranks[0], ranks[2]}
	case ranks[1] == ranks[2]:
		category = Pair
		keys = []int{ranks[1], ranks[0]}
	default:
		category = HighCard
		keys = ranks
	}

	return Evaluation{
		Category: category,
		Keys:     keys,
		Strength: strength(category, keys),
	}
}

// Compare evaluates both hands and returns 1 if a beats b, -1 if b beats a and 0 on a tie.
func Compare(a, b []cards.Card) int {
	return CompareEvaluations(Evaluate(a), Evaluate(b))
}

// CompareEvaluations orders two evaluations by category, then tiebreak keys.
// A missing key position counts as 0.
func CompareEvaluations(a, b Evaluation) int {
	if a.Category != b.Category {
		if a.Category > b.Category {
			return 1
		}
		return -1
	}

	n := max(len(a.Keys), len(b.Keys))
	for i := range n {
		ka, kb := keyAt(a.Keys, i), keyAt(b.Keys, i)
		if ka != kb {
			if ka > kb {
				return 1
			}
			return -1
		}
	}

	return 0
}

const (
	minStrength = int(HighCard)*1000 + int(cards.Two)*50
	maxStrength = int(Triple)*1000 + int(cards.Ace)*50
)

// NormalizeStrength maps a strength score onto [0, 1].
func NormalizeStrength(score int) float64 {
	clamped := min(max(score, minStrength), maxStrength)
	return float64(clamped-minStrength) / float64(maxStrength-minStrength)
}

func strength(category Category, keys []int) int {
	return int(category)*1000 + keyAt(keys, 0)*50 + keyAt(keys, 1)*2 + keyAt(keys, 2)
}

func keyAt(keys []int, i int) int {
	if i < len(keys) {
		return keys[i]
	}
	return 0
}

func isFlush(hand []cards.Card) bool {
	return hand[0].Suit == hand[1].Suit && hand[1].Suit == hand[2].Suit
}

// straightTop reports whether the descending ranks form a straight and its top rank.
// A-3-2 is the lowest straight and tops out at 3.
func straightTop(ranks []int) (int, bool) {
	if ranks[0] == int(cards.Ace) && ranks[1] == int(cards.Three) && ranks[2] == int(cards.Two) {
		return int(cards.Three), true
	}
	if ranks[0]-1 == ranks[1] && ranks[1]-1 == ranks[2] {
		return ranks[0], true
	}
	return 0, false
}
