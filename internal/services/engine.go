package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"casino-settlement/internal/config"
	"casino-settlement/internal/models"
)

// Engine settles every wager against the Redis ledger. Outcomes are drawn
// server side and each request mutates the ledger in a single script.
type Engine struct {
	store    *RedisService
	games    config.GameConfig
	logger   *zap.Logger
	notifier BalanceNotifier
	sources  SourceFactory
	now      func() time.Time
}

type Option func(*Engine)

// WithRandomSource replaces the seeded HMAC source used to draw outcomes.
func WithRandomSource(f SourceFactory) Option {
	return func(e *Engine) { e.sources = f }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithNotifier(n BalanceNotifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func NewEngine(store *RedisService, games config.GameConfig, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		games:    games,
		logger:   zap.NewNop(),
		notifier: noopNotifier{},
		sources:  NewSeedSource,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("engine")
	return e
}

// Account loads the caller's ledger row, provisioning it on first use.
func (e *Engine) Account(ctx context.Context, accountID string) (*models.Account, error) {
	if accountID == "" {
		return nil, ErrUnauthenticated
	}
	account, err := e.store.EnsureAccount(ctx, accountID)
	if err != nil {
		return nil, internal(err)
	}
	return account, nil
}

// Execute runs one action for the account. Any error leaves the ledger and
// the session untouched, except a crash claim past the crash point, which
// closes the round as lost.
func (e *Engine) Execute(ctx context.Context, accountID string, action models.Action) (models.Result, error) {
	account, err := e.Account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.IsBanned {
		return nil, ErrAccountBanned
	}

	if wager, ok := action.(models.Wager); ok {
		stake := wager.Stake()
		if stake < e.games.MinBet || stake > e.games.MaxBet {
			return nil, ErrBetOutOfRange
		}
		if account.Balance < stake {
			return nil, ErrInsufficientFunds
		}
	}

	log := e.logger.With(
		zap.String("account_id", accountID),
		zap.String("action", string(action.Name())),
	)

	result, err := e.dispatch(ctx, account, action)
	if err != nil {
		if KindOf(err) == KindInternal {
			log.Error("settlement failed", zap.Error(err))
		} else {
			log.Debug("action rejected", zap.Error(err))
		}
		return nil, err
	}

	if balance, ok := result.Balance(); ok {
		e.notifier.NotifyBalance(accountID, balance)
		log.Info("settled", zap.Int64("new_balance", balance))
	}

	return result, nil
}

func (e *Engine) dispatch(ctx context.Context, account *models.Account, action models.Action) (models.Result, error) {
	switch a := action.(type) {
	case models.CrashStart:
		return e.startCrash(ctx, account, a)
	case models.CrashCashout:
		return e.cashoutCrash(ctx, account, a)
	case models.CrashLost:
		return e.loseCrash(ctx, account, a)
	case models.Dice:
		return e.playDice(ctx, account, a)
	case models.MinesStart:
		return e.startMines(ctx, account, a)
	case models.MinesReveal:
		return e.revealMine(ctx, account, a)
	case models.MinesCashout:
		return e.cashoutMines(ctx, account, a)
	case models.Wheel:
		return e.spinWheel(ctx, account, a)
	case models.Plinko:
		return e.dropPlinko(ctx, account, a)
	case models.TowerStart:
		return e.startTower(ctx, account, a)
	case models.TowerClimb:
		return e.climbTower(ctx, account, a)
	case models.TowerCashout:
		return e.cashoutTower(ctx, account, a)
	case models.Keno:
		return e.playKeno(ctx, account, a)
	case models.DailyBonus:
		return e.claimDailyBonus(ctx, account)
	case models.ClaimReferral:
		return e.claimReferral(ctx, account)
	}
	return nil, &Error{Kind: KindInvalidInput, Msg: "Invalid action"}
}

func (e *Engine) newRound(game models.GameType) (string, Source, error) {
	seed, err := NewServerSeed()
	if err != nil {
		return "", nil, internal(err)
	}
	return seed, e.sources(seed, game), nil
}

// newInstantRound consumes the seed committed ahead for the account and
// commits the next one. The returned hash is that next commitment.
func (e *Engine) newInstantRound(ctx context.Context, accountID string, game models.GameType) (string, string, Source, error) {
	next, err := NewServerSeed()
	if err != nil {
		return "", "", nil, internal(err)
	}
	seed, err := e.store.RotateSeed(ctx, accountID, next)
	if err != nil {
		return "", "", nil, err
	}
	if seed == "" {
		// nothing was committed yet for this account
		if seed, err = NewServerSeed(); err != nil {
			return "", "", nil, internal(err)
		}
	}
	return seed, HashSeed(next), e.sources(seed, game), nil
}

// NextSeedHash is the commitment for the account's next instant wager.
func (e *Engine) NextSeedHash(ctx context.Context, accountID string) (string, error) {
	if accountID == "" {
		return "", ErrUnauthenticated
	}
	fresh, err := NewServerSeed()
	if err != nil {
		return "", internal(err)
	}
	seed, err := e.store.NextSeed(ctx, accountID, fresh)
	if err != nil {
		return "", err
	}
	return HashSeed(seed), nil
}

func chained(seed, nextHash string) models.Fairness {
	f := revealed(seed)
	f.NextServerSeedHash = nextHash
	return f
}

func revealed(seed string) models.Fairness {
	return models.Fairness{ServerSeedHash: HashSeed(seed), ServerSeed: seed}
}

func (e *Engine) historyEntry(ownerID string, game models.GameType, sessionID string, bet, win int64, multiplier float64) *models.BetHistoryEntry {
	return &models.BetHistoryEntry{
		ID:         models.GenerateHistoryID(),
		OwnerID:    ownerID,
		GameType:   game,
		SessionID:  sessionID,
		BetAmount:  bet,
		WinAmount:  win,
		Multiplier: multiplier,
		Result:     models.ResultOf(win),
		CreatedAt:  e.now().UTC(),
	}
}

// ActiveSessions lists the caller's open sessions without their secrets.
func (e *Engine) ActiveSessions(ctx context.Context, accountID string) ([]models.ActiveSessionView, error) {
	sessions, err := e.store.GetUserActiveGames(ctx, accountID)
	if err != nil {
		return nil, err
	}
	views := make([]models.ActiveSessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, s.ActiveView())
	}
	return views, nil
}

func (e *Engine) History(ctx context.Context, accountID string, limit int64) ([]*models.BetHistoryEntry, error) {
	return e.store.GetBetHistory(ctx, accountID, limit)
}
