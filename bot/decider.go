package bot

import (
	"math/rand/v2"
	"sync"

	"github.com/lazharichir/zhajinhua/cards"
	"github.com/lazharichir/zhajinhua/game"
	"github.com/lazharichir/zhajinhua/hands"
)

// Decision is what a decision source wants to do with its hand
type Decision struct {
	Action game.Action `json:"action"`
	Reason string      `json:"reason"`
}

// DecisionSource picks an action for a three card hand.
type DecisionSource interface {
	Decide(hand []cards.Card) Decision
}

// DecisionFunc adapts a plain function to a DecisionSource
type DecisionFunc func(hand []cards.Card) Decision

func (f DecisionFunc) Decide(hand []cards.Card) Decision {
	return f(hand)
}

// Always returns a source that plays the same action every turn.
func Always(action game.Action) DecisionSource {
	return DecisionFunc(func([]cards.Card) Decision {
		return Decision{Action: action, Reason: "fixed"}
	})
}

// Strength thresholds on the normalized hand strength.
const (
	StrongHand = 0.8
	MediumHand = 0.5
)

// RandomDecider plays a biased random strategy: strong hands mostly stay or raise,
// weak hands mostly fold and never raise.
type RandomDecider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomDecider creates a decider drawing from rng. A nil rng uses the global source.
func NewRandomDecider(rng *rand.Rand) *RandomDecider {
	return &RandomDecider{rng: rng}
}

// Decide evaluates hand and draws an action. It panics if hand is not three cards.
func (d *RandomDecider) Decide(hand []cards.Card) Decision {
	s := hands.NormalizeStrength(hands.Evaluate(hand).Strength)
	r := d.float()

	switch {
	case s > StrongHand:
		switch {
		case r < 0.1:
			return Decision{Action: game.ActionFold, Reason: "强牌诈唬弃牌"}
		case r < 0.6:
			return Decision{Action: game.ActionStay, Reason: "强牌稳跟"}
		default:
			return Decision{Action: game.ActionRaise, Reason: "强牌加注"}
		}
	case s > MediumHand:
		switch {
		case r < 0.2:
			return Decision{Action: game.ActionFold, Reason: "中等牌选择观望弃牌"}
		case r < 0.8:
			return Decision{Action: game.ActionStay, Reason: "中等牌跟注"}
		default:
			return Decision{Action: game.ActionRaise, Reason: "中等牌试探性加注"}
		}
	default:
		if r < 0.6 {
			return Decision{Action: game.ActionFold, Reason: "弱牌理性弃牌"}
		}
		return Decision{Action: game.ActionStay, Reason: "弱牌偶尔拼一把"}
	}
}

func (d *RandomDecider) float() float64 {
	if d.rng == nil {
		return rand.Float64()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.Float64()
}
