package cards

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// HandSize is the number of cards dealt to each player
const HandSize = 3

var (
	ErrInsufficientCards = errors.New("not enough cards in deck")
	ErrInvalidDeal       = errors.New("invalid deal request")
)

// NewDeck returns the canonical 52-card deck: every rank of spades, then hearts, clubs and diamonds.
func NewDeck() Cards {
	deck := make(Cards, 0, len(Suits)*len(Ranks))
	for _, suit := range Suits {
		for _, rank := range Ranks {
			deck = append(deck, Card{Rank: rank, Suit: suit})
		}
	}
	return deck
}

// Shuffle returns a shuffled copy of deck using Fisher-Yates.
// A nil rng falls back to the global math/rand/v2 source.
func Shuffle(deck Cards, rng *rand.Rand) Cards {
	shuffled := make(Cards, len(deck))
	copy(shuffled, deck)

	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}

	for i := len(shuffled) - 1; i > 0; i-- {
		j := intN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled
}

// Deal hands out cardsPerPlayer cards to each of playerCount players, front to back,
// and returns the hands in player order together with the undealt remainder.
func Deal(deck Cards, playerCount int, cardsPerPlayer int) ([]Cards, Cards, error) {
	if playerCount < 0 || cardsPerPlayer < 0 {
		return nil, nil, fmt.Errorf("%w: %d players x %d cards", ErrInvalidDeal, playerCount, cardsPerPlayer)
	}

	need := playerCount * cardsPerPlayer
	if need > len(deck) {
		return nil, nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientCards, need, len(deck))
	}

	hands := make([]Cards, playerCount)
	index := 0
	for p := range playerCount {
		hand := make(Cards, cardsPerPlayer)
		copy(hand, deck[index:index+cardsPerPlayer])
		hands[p] = hand
		index += cardsPerPlayer
	}

	remainder := make(Cards, len(deck)-index)
	copy(remainder, deck[index:])

	return hands, remainder, nil
}
