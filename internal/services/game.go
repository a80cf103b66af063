package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"casino-miniapp-backend/internal/metrics"
	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/payout"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const settleTimeout = 5 * time.Second

// game is one game's rules as seen by the engine.
type game interface {
	validate(req *models.BetRequest) error
	// begin deals the round. A non-nil result settles it at once.
	begin(r *Round, req *models.BetRequest) *result
}

type result struct {
	multiplier decimal.Decimal
	outcome    models.RoundOutcome
}

type GameEngine struct {
	ledger      Ledger
	rng         payout.RandomSource
	tables      payout.Tables
	broadcaster Broadcaster
	events      EventSink
	logger      *zap.Logger
	now         func() time.Time
	crashTick   time.Duration
	tickCrashes bool
	maxBet      decimal.Decimal

	games map[models.GameType]game

	mu      sync.RWMutex
	rounds  map[string]*Round
	pending map[string]*Round

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

type EngineOption func(*GameEngine)

func WithRandomSource(rng payout.RandomSource) EngineOption {
	return func(e *GameEngine) { e.rng = rng }
}

func WithTables(tables payout.Tables) EngineOption {
	return func(e *GameEngine) { e.tables = tables }
}

func WithBroadcaster(b Broadcaster) EngineOption {
	return func(e *GameEngine) { e.broadcaster = b }
}

func WithEvents(sink EventSink) EngineOption {
	return func(e *GameEngine) { e.events = sink }
}

func WithCrashTick(d time.Duration) EngineOption {
	return func(e *GameEngine) {
		if d > 0 {
			e.crashTick = d
		}
	}
}

// WithoutCrashTicker leaves crash rounds to be advanced by the caller.
func WithoutCrashTicker() EngineOption {
	return func(e *GameEngine) { e.tickCrashes = false }
}

func WithMaxBet(maxBet decimal.Decimal) EngineOption {
	return func(e *GameEngine) { e.maxBet = maxBet }
}

func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *GameEngine) { e.logger = logger }
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *GameEngine) { e.now = now }
}

func NewGameEngine(ledger Ledger, opts ...EngineOption) *GameEngine {
	e := &GameEngine{
		ledger:      ledger,
		rng:         payout.Default,
		tables:      payout.DefaultTables(),
		broadcaster: nopBroadcaster{},
		logger:      zap.NewNop(),
		now:         time.Now,
		crashTick:   payout.CrashTick,
		tickCrashes: true,
		rounds:      make(map[string]*Round),
		pending:     make(map[string]*Round),
		stopCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.games = map[models.GameType]game{
		models.GameTypeCrash:     crashGame{e},
		models.GameTypeDice:      diceGame{e},
		models.GameTypeMines:     minesGame{e},
		models.GameTypePlinko:    plinkoGame{e},
		models.GameTypeBlackjack: blackjackGame{e},
		models.GameTypeMining:    miningGame{e},
	}
	return e
}

// PlaceBet spends the bet and starts the round. Instant games come back
// already settled. A failed spend leaves nothing behind.
func (e *GameEngine) PlaceBet(ctx context.Context, accountID string, req *models.BetRequest) (*models.RoundView, error) {
	if accountID == "" {
		return nil, ErrUnauthenticated
	}
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", ErrInvalidBet)
	}
	if err := req.Validate(e.maxBet); err != nil {
		metrics.RecordBet(string(req.GameType), "invalid")
		return nil, fmt.Errorf("%w: %w", ErrInvalidBet, err)
	}

	g := e.games[req.GameType]
	if err := g.validate(req); err != nil {
		metrics.RecordBet(string(req.GameType), "invalid")
		return nil, fmt.Errorf("%w: %w", ErrInvalidBet, err)
	}

	r := newRound(accountID, req.GameType, req.Amount, e.now())

	if !r.Practice {
		balance, err := e.ledger.Spend(ctx, accountID, r.Bet,
			WithGame(r.GameType, r.ID),
			WithIdempotencyKey(r.spendKey()),
			WithDescription(fmt.Sprintf("Bet on %s", r.GameType)))
		if err != nil {
			metrics.RecordBet(string(r.GameType), "rejected")
			return nil, err
		}
		r.Balance = &balance
	}

	r.mu.Lock()
	r.Status = models.RoundActive
	e.register(r)

	var settleErr error
	if res := g.begin(r, req); res != nil {
		settleErr = e.settleLocked(ctx, r, res.multiplier, res.outcome)
	}
	view := r.view()
	startTicker := r.crash != nil && r.Status == models.RoundActive && e.tickCrashes
	r.mu.Unlock()

	metrics.RecordBet(string(r.GameType), betResult(settleErr))
	e.logger.Info("bet placed",
		zap.String("round_id", r.ID),
		zap.String("account_id", accountID),
		zap.String("game", string(r.GameType)),
		zap.String("bet", r.Bet.String()))

	if startTicker {
		e.startCrash(r)
	}
	return view, settleErr
}

// Cashout settles a crash or mines round at its current multiplier.
func (e *GameEngine) Cashout(ctx context.Context, accountID, roundID string) (*models.RoundView, error) {
	r, err := e.lookup(accountID, roundID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkActive(); err != nil {
		return nil, err
	}

	switch r.GameType {
	case models.GameTypeCrash:
		err = e.cashoutCrash(ctx, r)
	case models.GameTypeMines:
		err = e.cashoutMines(ctx, r)
	default:
		return nil, fmt.Errorf("%w: %s rounds cannot cash out", ErrInvalidMove, r.GameType)
	}
	if err != nil && r.Status != models.RoundSettled {
		return nil, err
	}
	return r.view(), err
}

// betResult labels an accepted bet for metrics. An instant round whose
// credit failed is counted apart from clean acceptances.
func betResult(settleErr error) string {
	if errors.Is(settleErr, ErrSettlementFailure) {
		return "settlement_pending"
	}
	return "accepted"
}

func (e *GameEngine) GetRound(accountID, roundID string) (*models.RoundView, error) {
	r, err := e.lookup(accountID, roundID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view(), nil
}

// ActiveRounds lists the account's open rounds, oldest first.
func (e *GameEngine) ActiveRounds(accountID string) []*models.RoundView {
	var views []*models.RoundView
	for _, r := range e.snapshot() {
		if r.AccountID != accountID {
			continue
		}
		r.mu.Lock()
		if r.Status == models.RoundActive {
			views = append(views, r.view())
		}
		r.mu.Unlock()
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
	return views
}

// RetrySettlement reissues a pending credit under its original key.
func (e *GameEngine) RetrySettlement(ctx context.Context, accountID, roundID string) (*models.RoundView, error) {
	r, err := e.lookup(accountID, roundID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Status != models.RoundSettled {
		return nil, fmt.Errorf("%w: round is not settled", ErrInvalidMove)
	}
	if !r.CreditPending {
		return r.view(), nil
	}
	if err := e.retryLocked(ctx, r); err != nil {
		return r.view(), fmt.Errorf("%w: %w", ErrSettlementFailure, err)
	}
	return r.view(), nil
}

// RetryPendingSettlements retries every pending credit once and returns
// how many were resolved.
func (e *GameEngine) RetryPendingSettlements(ctx context.Context) int {
	e.mu.RLock()
	pending := make([]*Round, 0, len(e.pending))
	for _, r := range e.pending {
		pending = append(pending, r)
	}
	e.mu.RUnlock()

	resolved := 0
	for _, r := range pending {
		if ctx.Err() != nil {
			break
		}
		r.mu.Lock()
		if r.CreditPending && e.retryLocked(ctx, r) == nil {
			resolved++
		}
		r.mu.Unlock()
	}
	return resolved
}

// PendingSettlements is the number of rounds waiting on a credit.
func (e *GameEngine) PendingSettlements() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.pending)
}

// CleanupStaleGames settles Active rounds idle for longer than maxAge and
// forgets Settled rounds that are no longer needed.
func (e *GameEngine) CleanupStaleGames(ctx context.Context, maxAge time.Duration) int {
	cutoff := e.now().Add(-maxAge)
	cleaned := 0

	for _, r := range e.snapshot() {
		r.mu.Lock()
		switch {
		case !r.LastUpdate.Before(cutoff):
		case r.Status == models.RoundSettled:
			if !r.CreditPending {
				e.unregister(r)
				cleaned++
			}
		case r.Status == models.RoundActive:
			if err := e.expireLocked(ctx, r); err != nil {
				e.logger.Warn("failed to settle stale round",
					zap.String("round_id", r.ID),
					zap.Error(err))
			}
			if r.Status == models.RoundSettled {
				cleaned++
			}
		}
		r.mu.Unlock()
	}
	return cleaned
}

func (e *GameEngine) expireLocked(ctx context.Context, r *Round) error {
	switch r.GameType {
	case models.GameTypeCrash:
		if e.tickCrashes {
			return nil
		}
		r.crash.multiplier = r.crash.point
		return e.settleLocked(ctx, r, decimal.Zero, models.OutcomeCrashed)
	case models.GameTypeMines:
		if r.mines.GemsFound() >= 1 {
			return e.settleLocked(ctx, r, r.mines.Multiplier(), models.OutcomeCashedOut)
		}
		return e.settleLocked(ctx, r, decimal.Zero, models.OutcomeLoss)
	case models.GameTypeBlackjack:
		return e.standLocked(ctx, r)
	}
	return nil
}

// Stop halts crash tickers and waits for them to exit.
func (e *GameEngine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
	e.wg.Wait()
}

// settleLocked moves an Active round to Settled and credits the payout.
// The outcome stands even when the credit fails; the credit is then
// left pending for the retrier.
func (e *GameEngine) settleLocked(ctx context.Context, r *Round, multiplier decimal.Decimal, outcome models.RoundOutcome) error {
	if err := r.checkActive(); err != nil {
		return err
	}

	now := e.now()
	r.Status = models.RoundSettled
	r.Multiplier = multiplier
	r.Payout = payout.Payout(r.Bet, multiplier)
	r.Outcome = outcome
	r.SettledAt = &now
	r.LastUpdate = now

	if r.crash != nil && r.crash.stop != nil {
		close(r.crash.stop)
	}

	var err error
	if !r.Practice && r.Payout.IsPositive() {
		if err = e.creditLocked(ctx, r); err != nil {
			r.CreditPending = true
			e.markPending(r)
			metrics.SettlementPending()
			e.logger.Error("settlement credit failed",
				zap.String("round_id", r.ID),
				zap.String("account_id", r.AccountID),
				zap.String("payout", r.Payout.String()),
				zap.Error(err))
			err = fmt.Errorf("%w: %w", ErrSettlementFailure, err)
		}
	}

	e.publishSettled(r)
	return err
}

func (e *GameEngine) creditLocked(ctx context.Context, r *Round) error {
	balance, err := e.ledger.Credit(ctx, r.AccountID, r.Payout,
		WithGame(r.GameType, r.ID),
		WithIdempotencyKey(r.winKey()),
		WithDescription(fmt.Sprintf("Won %s on %s (%sx)", r.Payout.StringFixed(2), r.GameType, r.Multiplier.StringFixed(2))))
	if err != nil {
		return err
	}
	r.Balance = &balance
	return nil
}

func (e *GameEngine) retryLocked(ctx context.Context, r *Round) error {
	if err := e.creditLocked(ctx, r); err != nil {
		e.logger.Warn("settlement retry failed",
			zap.String("round_id", r.ID),
			zap.Error(err))
		return err
	}

	r.CreditPending = false
	e.clearPending(r)
	metrics.SettlementResolved()
	e.logger.Info("settlement credit recovered",
		zap.String("round_id", r.ID),
		zap.String("payout", r.Payout.String()))
	e.broadcaster.BroadcastRoundSettled(r.AccountID, r.view())
	return nil
}

func (e *GameEngine) publishSettled(r *Round) {
	metrics.RecordSettlement(string(r.GameType), string(r.Outcome))
	e.logger.Info("round settled",
		zap.String("round_id", r.ID),
		zap.String("account_id", r.AccountID),
		zap.String("game", string(r.GameType)),
		zap.String("outcome", string(r.Outcome)),
		zap.String("multiplier", r.Multiplier.String()),
		zap.String("payout", r.Payout.String()))

	e.broadcaster.BroadcastRoundSettled(r.AccountID, r.view())

	if e.events != nil {
		if err := e.events.Enqueue(r.ID, r.settledEvent()); err != nil {
			e.logger.Warn("failed to enqueue settlement event", zap.String("round_id", r.ID), zap.Error(err))
		}
	}
}

func (r *Round) checkActive() error {
	switch r.Status {
	case models.RoundActive:
		return nil
	case models.RoundSettled:
		return ErrRoundSettled
	default:
		return ErrRoundNotActive
	}
}

func (e *GameEngine) lookup(accountID, roundID string) (*Round, error) {
	if accountID == "" {
		return nil, ErrUnauthenticated
	}

	e.mu.RLock()
	r, ok := e.rounds[roundID]
	e.mu.RUnlock()

	if !ok || r.AccountID != accountID {
		return nil, ErrRoundNotFound
	}
	return r, nil
}

func (e *GameEngine) snapshot() []*Round {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*Round, 0, len(e.rounds))
	for _, r := range e.rounds {
		out = append(out, r)
	}
	return out
}

func (e *GameEngine) register(r *Round) {
	e.mu.Lock()
	e.rounds[r.ID] = r
	e.mu.Unlock()
}

func (e *GameEngine) unregister(r *Round) {
	e.mu.Lock()
	delete(e.rounds, r.ID)
	e.mu.Unlock()
}

func (e *GameEngine) markPending(r *Round) {
	e.mu.Lock()
	e.pending[r.ID] = r
	e.mu.Unlock()
}

func (e *GameEngine) clearPending(r *Round) {
	e.mu.Lock()
	delete(e.pending, r.ID)
	e.mu.Unlock()
}
