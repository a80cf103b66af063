package payout

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	DealerStandsOn = 17
	blackjackValue = 21
)

var (
	NaturalMultiplier = decimal.RequireFromString("2.5")
	WinMultiplier     = decimal.NewFromInt(2)
	PushMultiplier    = decimal.NewFromInt(1)

	ErrHandFinished = errors.New("hand already finished")
)

var suits = []string{"S", "H", "D", "C"}

type Card struct {
	Rank int // 1 = ace, 11..13 = J Q K
	Suit string
}

func (c Card) Value() int {
	switch {
	case c.Rank == 1:
		return 11
	case c.Rank >= 10:
		return 10
	default:
		return c.Rank
	}
}

func (c Card) String() string {
	var r string
	switch c.Rank {
	case 1:
		r = "A"
	case 11:
		r = "J"
	case 12:
		r = "Q"
	case 13:
		r = "K"
	default:
		r = fmt.Sprint(c.Rank)
	}
	return r + c.Suit
}

// NewShuffledDeck returns 52 cards in Fisher-Yates order.
func NewShuffledDeck(rng RandomSource) []Card {
	deck := make([]Card, 0, 52)
	for _, s := range suits {
		for rank := 1; rank <= 13; rank++ {
			deck = append(deck, Card{Rank: rank, Suit: s})
		}
	}
	for i := len(deck) - 1; i > 0; i-- {
		j := intn(rng, i+1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// HandValue counts aces high and softens them one at a time past 21.
func HandValue(cards []Card) int {
	total, aces := 0, 0
	for _, c := range cards {
		total += c.Value()
		if c.Rank == 1 {
			aces++
		}
	}
	for total > blackjackValue && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

func IsNatural(cards []Card) bool {
	return len(cards) == 2 && HandValue(cards) == blackjackValue
}

type BlackjackOutcome string

const (
	OutcomeBlackjack BlackjackOutcome = "blackjack"
	OutcomeWin       BlackjackOutcome = "win"
	OutcomePush      BlackjackOutcome = "push"
	OutcomeLoss      BlackjackOutcome = "loss"
)

type BlackjackResult struct {
	Outcome    BlackjackOutcome
	Multiplier decimal.Decimal
}

func resultOf(o BlackjackOutcome) BlackjackResult {
	switch o {
	case OutcomeBlackjack:
		return BlackjackResult{Outcome: o, Multiplier: NaturalMultiplier}
	case OutcomeWin:
		return BlackjackResult{Outcome: o, Multiplier: WinMultiplier}
	case OutcomePush:
		return BlackjackResult{Outcome: o, Multiplier: PushMultiplier}
	default:
		return BlackjackResult{Outcome: OutcomeLoss, Multiplier: zero}
	}
}

type BlackjackHand struct {
	Player []Card
	Dealer []Card

	deck     []Card
	finished bool
	result   BlackjackResult
}

// DealBlackjack deals player, dealer, player, dealer from a fresh deck.
func DealBlackjack(rng RandomSource) *BlackjackHand {
	deck := NewShuffledDeck(rng)
	h := &BlackjackHand{deck: deck}
	h.Player = append(h.Player, h.draw())
	h.Dealer = append(h.Dealer, h.draw())
	h.Player = append(h.Player, h.draw())
	h.Dealer = append(h.Dealer, h.draw())
	return h
}

func (h *BlackjackHand) draw() Card {
	c := h.deck[0]
	h.deck = h.deck[1:]
	return c
}

// CheckNaturals resolves the hand at the deal when either side holds 21.
func (h *BlackjackHand) CheckNaturals() (BlackjackResult, bool) {
	player, dealer := IsNatural(h.Player), IsNatural(h.Dealer)
	switch {
	case player && dealer:
		return h.finish(OutcomePush), true
	case player:
		return h.finish(OutcomeBlackjack), true
	case dealer:
		return h.finish(OutcomeLoss), true
	}
	return BlackjackResult{}, false
}

// Hit draws one card for the player. A bust finishes the hand.
func (h *BlackjackHand) Hit() (Card, bool, error) {
	if h.finished {
		return Card{}, false, ErrHandFinished
	}
	c := h.draw()
	h.Player = append(h.Player, c)
	if HandValue(h.Player) > blackjackValue {
		h.finish(OutcomeLoss)
		return c, true, nil
	}
	return c, false, nil
}

// Stand plays the dealer out and compares hands.
func (h *BlackjackHand) Stand() (BlackjackResult, error) {
	if h.finished {
		return h.result, ErrHandFinished
	}

	player := HandValue(h.Player)
	if player > blackjackValue {
		return h.finish(OutcomeLoss), nil
	}

	for HandValue(h.Dealer) < DealerStandsOn {
		h.Dealer = append(h.Dealer, h.draw())
	}
	dealer := HandValue(h.Dealer)

	switch {
	case dealer > blackjackValue:
		return h.finish(OutcomeWin), nil
	case player > dealer:
		return h.finish(OutcomeWin), nil
	case player == dealer:
		return h.finish(OutcomePush), nil
	default:
		return h.finish(OutcomeLoss), nil
	}
}

func (h *BlackjackHand) finish(o BlackjackOutcome) BlackjackResult {
	h.finished = true
	h.result = resultOf(o)
	return h.result
}

func (h *BlackjackHand) Finished() bool          { return h.finished }
func (h *BlackjackHand) Result() BlackjackResult { return h.result }
