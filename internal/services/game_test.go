package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/payout"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.RoundSettledEvent
}

func (s *recordingSink) Enqueue(_ string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, v.(models.RoundSettledEvent))
	return nil
}

func newTestEngine(l Ledger, rng payout.RandomSource, opts ...EngineOption) *GameEngine {
	opts = append([]EngineOption{WithRandomSource(rng), WithoutCrashTicker()}, opts...)
	return NewGameEngine(l, opts...)
}

// blackjackNatural deals AS 2S KS 4S.
func blackjackNatural() *payout.Sequence {
	var draws []float64
	for i := 51; i >= 1; i-- {
		if i == 12 {
			draws = append(draws, 0.2)
			continue
		}
		draws = append(draws, 0.999)
	}
	return payout.NewSequence(draws...)
}

func TestDiceWinSettlesAgainstLedger(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	fund(t, l, "acc-1", "100")
	sink := &recordingSink{}
	e := newTestEngine(l, payout.NewSequence(0.30), WithEvents(sink))

	view, err := e.PlaceBet(ctx, "acc-1", &models.BetRequest{
		GameType: models.GameTypeDice,
		Amount:   dec("20"),
		Target:   dec("50"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoundSettled, view.Status)
	assert.Equal(t, models.OutcomeWin, view.Outcome)
	assert.True(t, dec("1.98").Equal(view.Multiplier))
	assert.True(t, dec("39.6").Equal(view.Payout))
	require.NotNil(t, view.Balance)
	assert.True(t, dec("119.6").Equal(*view.Balance))

	history, err := l.History(ctx, "acc-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "round:"+view.ID+":win", history[0].IdempotencyKey)
	assert.Equal(t, "round:"+view.ID+":spend", history[1].IdempotencyKey)

	require.Len(t, sink.events, 1)
	assert.Equal(t, view.ID, sink.events[0].RoundID)
}

func TestDiceLossWritesOnlySpend(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	fund(t, l, "acc-1", "100")
	e := newTestEngine(l, payout.NewSequence(0.75))

	view, err := e.PlaceBet(ctx, "acc-1", &models.BetRequest{
		GameType: models.GameTypeDice,
		Amount:   dec("20"),
		Target:   dec("50"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeLoss, view.Outcome)
	assert.True(t, view.Payout.IsZero())

	bal, err := l.GetBalance(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, dec("80").Equal(bal))

	history, err := l.History(ctx, "acc-1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestPracticeBetSkipsLedger(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	e := newTestEngine(l, payout.NewSequence(0.10))

	view, err := e.PlaceBet(ctx, "acc-1", &models.BetRequest{
		GameType: models.GameTypeDice,
		Amount:   decimal.Zero,
		Target:   dec("50"),
	})
	require.NoError(t, err)
	assert.True(t, view.Practice)
	assert.Equal(t, models.OutcomeWin, view.Outcome)

	history, err := l.History(ctx, "acc-1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPlaceBetRejections(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	fund(t, l, "acc-1", "10")
	e := newTestEngine(l, payout.NewSeeded(1), WithMaxBet(dec("500")))

	_, err := e.PlaceBet(ctx, "", &models.BetRequest{GameType: models.GameTypeDice, Amount: dec("1"), Target: dec("50")})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypeMines, Amount: dec("1"), MineCount: 15, GemCount: 15})
	assert.ErrorIs(t, err, ErrInvalidBet)

	_, err = e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypeDice, Amount: dec("-1"), Target: dec("50")})
	assert.ErrorIs(t, err, ErrInvalidBet)

	_, err = e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypeDice, Amount: dec("501"), Target: dec("50")})
	assert.ErrorIs(t, err, ErrInvalidBet)

	_, err = e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypeDice, Amount: dec("5"), Target: dec("99")})
	assert.ErrorIs(t, err, ErrInvalidBet)

	_, err = e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypePlinko, Amount: dec("5"), Risk: "extreme"})
	assert.ErrorIs(t, err, ErrInvalidBet)

	_, err = e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypeMines, Amount: dec("20"), MineCount: 5, GemCount: 5})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	assert.Empty(t, e.ActiveRounds("acc-1"))
	assert.Empty(t, e.rounds, "rejected bets never register a round")
}

func TestMinesAutoRevealSettles(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	fund(t, l, "acc-1", "100")
	e := newTestEngine(l, payout.NewSeeded(7))

	view, err := e.PlaceBet(ctx, "acc-1", &models.BetRequest{
		GameType:  models.GameTypeMines,
		Amount:    dec("10"),
		MineCount: 2,
		GemCount:  3,
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoundSettled, view.Status)
	assert.True(t, dec("7.26").Equal(view.Multiplier))
	assert.True(t, dec("72.6").Equal(view.Payout))
	require.NotNil(t, view.Mines)
	assert.Equal(t, 3, view.Mines.GemsFound)
	assert.Len(t, view.Mines.Mines, 2)
}

func TestMinesRevealAndCashout(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	fund(t, l, "acc-1", "100")
	e := newTestEngine(l, payout.NewSeeded(3))

	view, err := e.PlaceBet(ctx, "acc-1", &models.BetRequest{
		GameType:  models.GameTypeMines,
		Amount:    dec("10"),
		MineCount: 10,
		GemCount:  15,
	})
	require.NoError(t, err)
	require.Equal(t, models.RoundActive, view.Status)
	assert.Empty(t, view.Mines.Mines, "mine positions stay hidden while active")

	_, err = e.Cashout(ctx, "acc-1", view.ID)
	assert.ErrorIs(t, err, ErrInvalidMove)

	gems := e.rounds[view.ID].mines.Cells(payout.CellGem)
	view, err = e.RevealMine(ctx, "acc-1", view.ID, gems[0])
	require.NoError(t, err)
	assert.Equal(t, 1, view.Mines.GemsFound)
	assert.True(t, dec("1.58").Equal(view.Multiplier))

	_, err = e.RevealMine(ctx, "acc-1", view.ID, gems[0])
	assert.ErrorIs(t, err, ErrInvalidMove)

	view, err = e.Cashout(ctx, "acc-1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCashedOut, view.Outcome)
	assert.True(t, dec("15.8").Equal(view.Payout))
	assert.Len(t, view.Mines.Mines, 10)

	_, err = e.Cashout(ctx, "acc-1", view.ID)
	assert.ErrorIs(t, err, ErrRoundSettled)

	bal, err := l.GetBalance(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, dec("105.8").Equal(bal))
}

func TestMinesHitLoses(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	fund(t, l, "acc-1", "100")
	e := newTestEngine(l, payout.NewSeeded(11))

	view, err := e.PlaceBet(ctx, "acc-1", &models.BetRequest{
		GameType:  models.GameTypeMines,
		Amount:    dec("10"),
		MineCount: 5,
		GemCount:  5,
	})
	require.NoError(t, err)

	mines := e.rounds[view.ID].mines.Cells(payout.CellMine)
	view, err = e.RevealMine(ctx, "acc-1", view.ID, mines[0])
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeLoss, view.Outcome)
	assert.True(t, view.Payout.IsZero())

	_, err = e.RevealMine(ctx, "acc-1", view.ID, 0)
	assert.ErrorIs(t, err, ErrRoundSettled)
}

func TestSettleTwiceIsRejected(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	fund(t, l, "acc-1", "100")
	e := newTestEngine(l, payout.NewSequence(0.30))

	view, err := e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypeDice, Amount: dec("20"), Target: dec("50")})
	require.NoError(t, err)

	r := e.rounds[view.ID]
	r.mu.Lock()
	err = e.settleLocked(ctx, r, dec("2"), models.OutcomeWin)
	r.mu.Unlock()
	assert.ErrorIs(t, err, ErrRoundSettled)

	bal, err := l.GetBalance(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, dec("119.6").Equal(bal))
}

func TestCrashAtStartingMultiplierBustsOnDeal(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	fund(t, l, "acc-1", "100")
	e := newTestEngine(l, payout.NewSequence(0))

	view, err := e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypeCrash, Amount: dec("10")})
	require.NoError(t, err)
	assert.Equal(t, models.RoundSettled, view.Status)
	assert.Equal(t, models.OutcomeCrashed, view.Outcome)
	assert.True(t, view.Payout.IsZero())
	require.NotNil(t, view.Crash.CrashPoint)
	assert.True(t, dec("1").Equal(*view.Crash.CrashPoint))

	_, err = e.Cashout(ctx, "acc-1", view.ID)
	assert.ErrorIs(t, err, ErrRoundSettled)

	assert.Empty(t, e.ActiveRounds("acc-1"))

	bal, err := l.GetBalance(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, dec("90").Equal(bal))
}

func TestCrashCashoutFreezesMultiplier(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	fund(t, l, "acc-1", "100")
	e := newTestEngine(l, payout.NewSequence(0.5))

	view, err := e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypeCrash, Amount: dec("10")})
	require.NoError(t, err)

	r := e.rounds[view.ID]
	for i := 0; i < 10; i++ {
		require.False(t, e.tickCrash(r))
	}

	view, err = e.Cashout(ctx, "acc-1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCashedOut, view.Outcome)
	assert.True(t, dec("1.02").Equal(view.Multiplier))
	assert.True(t, dec("10.2").Equal(view.Payout))
	assert.True(t, dec("1.97").Equal(*view.Crash.CrashPoint))

	assert.True(t, e.tickCrash(r), "ticks after cashout stop the loop")
	view, err = e.GetRound("acc-1", view.ID)
	require.NoError(t, err)
	assert.True(t, dec("1.02").Equal(view.Crash.Multiplier))

	bal, err := l.GetBalance(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, dec("100.2").Equal(bal))
}

func TestCrashAutoCashout(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	fund(t, l, "acc-1", "100")
	e := newTestEngine(l, payout.NewSequence(0.5))

	target := dec("1.01")
	view, err := e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypeCrash, Amount: dec("10"), AutoCashout: &target})
	require.NoError(t, err)

	r := e.rounds[view.ID]
	done := false
	for i := 0; i < 20 && !done; i++ {
		done = e.tickCrash(r)
	}
	require.True(t, done)

	view, err = e.GetRound("acc-1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCashedOut, view.Outcome)
	assert.True(t, target.Equal(view.Multiplier))
	assert.True(t, dec("10.1").Equal(view.Payout))
}

func TestCrashTickerRunsToCompletion(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	fund(t, l, "acc-1", "100")
	e := NewGameEngine(l, WithRandomSource(payout.NewSequence(0.05)), WithCrashTick(time.Millisecond))
	defer e.Stop()

	view, err := e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypeCrash, Amount: dec("10")})
	require.NoError(t, err)
	require.Equal(t, models.RoundActive, view.Status)

	assert.Eventually(t, func() bool {
		v, err := e.GetRound("acc-1", view.ID)
		return err == nil && v.Status == models.RoundSettled
	}, time.Second, 5*time.Millisecond)
}

func TestBlackjackNaturalPaysThreeToTwo(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	fund(t, l, "acc-1", "100")
	e := newTestEngine(l, blackjackNatural())

	view, err := e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypeBlackjack, Amount: dec("10")})
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeBlackjack, view.Outcome)
	assert.True(t, dec("25").Equal(view.Payout))
	assert.Equal(t, []string{"AS", "KS"}, view.Blackjack.Player)
	assert.Equal(t, 21, view.Blackjack.PlayerValue)

	bal, err := l.GetBalance(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, dec("115").Equal(bal))
}

func TestBlackjackStandSettles(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	fund(t, l, "acc-1", "100")
	e := newTestEngine(l, payout.NewSeeded(42))

	var view *models.RoundView
	var err error
	for i := 0; i < 20; i++ {
		view, err = e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypeBlackjack, Amount: decimal.Zero})
		require.NoError(t, err)
		if view.Status == models.RoundActive {
			break
		}
	}
	require.Equal(t, models.RoundActive, view.Status)
	assert.Equal(t, "??", view.Blackjack.Dealer[1])

	view, err = e.Stand(ctx, "acc-1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoundSettled, view.Status)
	assert.GreaterOrEqual(t, view.Blackjack.DealerValue, payout.DealerStandsOn)
	assert.NotEqual(t, "??", view.Blackjack.Dealer[1])

	_, err = e.Hit(ctx, "acc-1", view.ID)
	assert.ErrorIs(t, err, ErrRoundSettled)
}

func TestPlinkoAndMiningAreInstant(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	fund(t, l, "acc-1", "100")
	e := newTestEngine(l, payout.NewSeeded(5))

	view, err := e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypePlinko, Amount: dec("1"), Risk: "HIGH"})
	require.NoError(t, err)
	assert.Equal(t, models.RoundSettled, view.Status)
	assert.Equal(t, "high", view.Plinko.Risk)
	assert.Equal(t, view.Plinko.Bucket, payout.PathBucket(view.Plinko.Path))

	view, err = e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypeMining, Amount: dec("1")})
	require.NoError(t, err)
	assert.Equal(t, models.RoundSettled, view.Status)
	assert.Equal(t, "easy", view.Mining.Difficulty)
}

func TestSettlementFailureRetriesWithoutDoubleCredit(t *testing.T) {
	ctx := context.Background()
	l, flaky := newFlakyLedger(t)
	fund(t, l, "acc-1", "100")
	e := newTestEngine(l, payout.NewSequence(0.30))

	flaky.fail.Store(true)
	view, err := e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypeDice, Amount: dec("20"), Target: dec("50")})
	assert.ErrorIs(t, err, ErrSettlementFailure)
	require.NotNil(t, view)
	assert.Equal(t, models.RoundSettled, view.Status)
	assert.True(t, view.CreditPending)
	assert.Equal(t, 1, e.PendingSettlements())
	assert.Equal(t, "settlement_pending", betResult(err))

	assert.Equal(t, 0, e.RetryPendingSettlements(ctx))

	flaky.fail.Store(false)
	view, err = e.RetrySettlement(ctx, "acc-1", view.ID)
	require.NoError(t, err)
	assert.False(t, view.CreditPending)
	assert.Equal(t, 0, e.PendingSettlements())

	_, err = e.RetrySettlement(ctx, "acc-1", view.ID)
	require.NoError(t, err)
	_, err = l.Credit(ctx, "acc-1", dec("39.6"), WithIdempotencyKey("round:"+view.ID+":win"))
	require.NoError(t, err)

	bal, err := l.GetBalance(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, dec("119.6").Equal(bal))
}

func TestRoundsAreScopedToAccount(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	e := newTestEngine(l, payout.NewSeeded(9))

	view, err := e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypeMines, MineCount: 5, GemCount: 5})
	require.NoError(t, err)

	_, err = e.GetRound("acc-2", view.ID)
	assert.ErrorIs(t, err, ErrRoundNotFound)
	_, err = e.Cashout(ctx, "acc-2", view.ID)
	assert.ErrorIs(t, err, ErrRoundNotFound)

	assert.Len(t, e.ActiveRounds("acc-1"), 1)
	assert.Empty(t, e.ActiveRounds("acc-2"))
}

func TestCleanupStaleGames(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(l, payout.NewSeeded(13), WithClock(func() time.Time { return now }))

	view, err := e.PlaceBet(ctx, "acc-1", &models.BetRequest{GameType: models.GameTypeMines, MineCount: 5, GemCount: 5})
	require.NoError(t, err)

	assert.Equal(t, 0, e.CleanupStaleGames(ctx, 10*time.Minute))

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, e.CleanupStaleGames(ctx, 10*time.Minute))

	view, err = e.GetRound("acc-1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeLoss, view.Outcome)

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, e.CleanupStaleGames(ctx, 10*time.Minute))
	_, err = e.GetRound("acc-1", view.ID)
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestBetResultLabels(t *testing.T) {
	assert.Equal(t, "accepted", betResult(nil))
	assert.Equal(t, "accepted", betResult(ErrRoundSettled))
	assert.Equal(t, "settlement_pending", betResult(fmt.Errorf("%w: %w", ErrSettlementFailure, errors.New("timeout"))))
}
