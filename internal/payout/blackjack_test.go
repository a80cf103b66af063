package payout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cards(ranks ...int) []Card {
	out := make([]Card, len(ranks))
	for i, r := range ranks {
		out[i] = Card{Rank: r, Suit: "S"}
	}
	return out
}

// naturalDeal makes the shuffle leave the ace of spades first and the
// king of spades third, so the player is dealt a natural.
func naturalDeal() *Sequence {
	var draws []float64
	for i := 51; i >= 1; i-- {
		if i == 12 {
			draws = append(draws, 0.2)
			continue
		}
		draws = append(draws, 0.999)
	}
	return NewSequence(draws...)
}

func TestHandValue(t *testing.T) {
	assert.Equal(t, 21, HandValue(cards(1, 13)))
	assert.Equal(t, 12, HandValue(cards(1, 1)))
	assert.Equal(t, 21, HandValue(cards(1, 1, 9)))
	assert.Equal(t, 25, HandValue(cards(13, 12, 5)))
	assert.Equal(t, 13, HandValue(cards(1, 5, 7)))
}

func TestNewShuffledDeckIsComplete(t *testing.T) {
	deck := NewShuffledDeck(NewSeeded(11))
	require.Len(t, deck, 52)

	seen := map[string]bool{}
	for _, c := range deck {
		seen[c.String()] = true
	}
	assert.Len(t, seen, 52)
}

func TestDealBlackjackNatural(t *testing.T) {
	h := DealBlackjack(naturalDeal())
	assert.Equal(t, "AS", h.Player[0].String())
	assert.Equal(t, "KS", h.Player[1].String())

	res, done := h.CheckNaturals()
	require.True(t, done)
	assert.Equal(t, OutcomeBlackjack, res.Outcome)
	assert.True(t, NaturalMultiplier.Equal(res.Multiplier))
}

func TestCheckNaturals(t *testing.T) {
	h := &BlackjackHand{Player: cards(1, 10), Dealer: cards(1, 12)}
	res, done := h.CheckNaturals()
	require.True(t, done)
	assert.Equal(t, OutcomePush, res.Outcome)

	h = &BlackjackHand{Player: cards(9, 10), Dealer: cards(1, 12)}
	res, done = h.CheckNaturals()
	require.True(t, done)
	assert.Equal(t, OutcomeLoss, res.Outcome)

	h = &BlackjackHand{Player: cards(9, 10), Dealer: cards(7, 12)}
	_, done = h.CheckNaturals()
	assert.False(t, done)
}

func TestBlackjackHitBust(t *testing.T) {
	h := &BlackjackHand{Player: cards(10, 6), Dealer: cards(10, 7), deck: cards(9)}
	_, bust, err := h.Hit()
	require.NoError(t, err)
	assert.True(t, bust)
	assert.Equal(t, OutcomeLoss, h.Result().Outcome)

	_, _, err = h.Hit()
	assert.ErrorIs(t, err, ErrHandFinished)
}

func TestBlackjackStand(t *testing.T) {
	tests := []struct {
		name   string
		player []Card
		dealer []Card
		deck   []Card
		want   BlackjackOutcome
	}{
		{"dealer busts", cards(10, 8), cards(10, 6), cards(9), OutcomeWin},
		{"player higher", cards(10, 10), cards(10, 7), nil, OutcomeWin},
		{"push", cards(10, 8), cards(10, 6), cards(2), OutcomePush},
		{"dealer higher", cards(10, 7), cards(10, 9), nil, OutcomeLoss},
		{"dealer draws to seventeen", cards(10, 7), cards(2, 3), cards(4, 5, 6), OutcomeLoss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BlackjackHand{Player: tt.player, Dealer: tt.dealer, deck: tt.deck}
			res, err := h.Stand()
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Outcome)
			assert.GreaterOrEqual(t, HandValue(h.Dealer), DealerStandsOn)
		})
	}
}

func TestBlackjackMultipliers(t *testing.T) {
	assert.Equal(t, "2.5", resultOf(OutcomeBlackjack).Multiplier.String())
	assert.Equal(t, "2", resultOf(OutcomeWin).Multiplier.String())
	assert.Equal(t, "1", resultOf(OutcomePush).Multiplier.String())
	assert.True(t, resultOf(OutcomeLoss).Multiplier.IsZero())
}
