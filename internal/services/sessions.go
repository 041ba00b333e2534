package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"casino-settlement/internal/models"
)

var errMissingState = errors.New("session state does not match its game")

func (e *Engine) openSession(ctx context.Context, account *models.Account, game models.GameType, bet int64, secret models.SessionSecret) (*models.GameSession, int64, error) {
	session := &models.GameSession{
		ID:             models.GenerateSessionID(),
		OwnerID:        account.ID,
		GameType:       game,
		BetAmount:      bet,
		Status:         models.SessionActive,
		ServerSeedHash: HashSeed(secret.ServerSeed),
		CreatedAt:      e.now().UTC(),
		Secret:         models.Hide(secret),
	}

	balance, err := e.store.OpenSession(ctx, session)
	if err != nil {
		return nil, 0, err
	}
	return session, balance, nil
}

// ownedSession fetches a session of the caller in any status.
func (e *Engine) ownedSession(ctx context.Context, ownerID, sessionID string, game models.GameType) (*models.GameSession, error) {
	session, err := e.store.GetGameSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch {
	case session.OwnerID != ownerID:
		return nil, ErrSessionForbidden
	case session.GameType != game:
		return nil, ErrWrongGame
	}
	return session, nil
}

// loadSession fetches a session the caller may still act on.
func (e *Engine) loadSession(ctx context.Context, ownerID, sessionID string, game models.GameType) (*models.GameSession, error) {
	session, err := e.ownedSession(ctx, ownerID, sessionID, game)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionActive {
		return nil, ErrSessionClosed
	}
	return session, nil
}

func (e *Engine) closeSession(ctx context.Context, session *models.GameSession, status models.SessionStatus, win int64, multiplier float64) (int64, error) {
	return e.store.CloseSession(ctx, CloseParams{
		Session:    session,
		Status:     status,
		WinAmount:  win,
		Multiplier: multiplier,
		EndedAt:    e.now().UTC(),
		Entry:      e.historyEntry(session.OwnerID, session.GameType, session.ID, session.BetAmount, win, multiplier),
	})
}

// reveal hands out the secret of a session that just reached a terminal
// status.
func reveal(session *models.GameSession) (models.SessionSecret, models.Fairness) {
	secret, _ := session.Secret.Reveal(session.Status)
	return secret, revealed(secret.ServerSeed)
}

func (e *Engine) startCrash(ctx context.Context, account *models.Account, a models.CrashStart) (models.Result, error) {
	seed, src, err := e.newRound(models.GameTypeCrash)
	if err != nil {
		return nil, err
	}

	session, balance, err := e.openSession(ctx, account, models.GameTypeCrash, a.BetAmount, models.SessionSecret{
		ServerSeed: seed,
		Crash:      &models.CrashState{CrashPoint: CrashPoint(src)},
	})
	if err != nil {
		return nil, err
	}

	return &models.SessionStarted{
		ResultBase:     models.Settled(balance),
		SessionID:      session.ID,
		ServerSeedHash: session.ServerSeedHash,
	}, nil
}

func (e *Engine) cashoutCrash(ctx context.Context, account *models.Account, a models.CrashCashout) (models.Result, error) {
	if a.Multiplier < 1 || a.Multiplier > 1000 {
		return nil, ErrInvalidMultiplier
	}

	session, err := e.loadSession(ctx, account.ID, a.SessionID, models.GameTypeCrash)
	if err != nil {
		return nil, err
	}
	secret := session.Secret.Peek()
	if secret.Crash == nil {
		return nil, internal(errMissingState)
	}

	elapsed := e.now().Sub(session.CreatedAt) + e.games.CrashLatencySlack
	if a.Multiplier > CrashCeiling(e.games.CrashGrowthRate, elapsed.Seconds()) {
		return nil, ErrInvalidMultiplier
	}

	crash := *secret.Crash
	if a.Multiplier >= crash.CrashPoint {
		crash.CrashedClaim = a.Multiplier
		secret.Crash = &crash
		session.Secret = models.Hide(secret)
		if _, err := e.closeSession(ctx, session, models.SessionLost, 0, 0); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyCrashed
	}

	crash.CashoutAt = a.Multiplier
	secret.Crash = &crash
	session.Secret = models.Hide(secret)

	win := models.CalculatePayout(session.BetAmount, a.Multiplier)
	balance, err := e.closeSession(ctx, session, models.SessionCompleted, win, a.Multiplier)
	if err != nil {
		return nil, err
	}

	final, fairness := reveal(session)
	return &models.CrashCashoutResult{
		ResultBase: models.Settled(balance),
		Fairness:   fairness,
		WinAmount:  win,
		Multiplier: a.Multiplier,
		CrashPoint: final.Crash.CrashPoint,
	}, nil
}

// loseCrash settles a round the client saw crash. A round already closed by a
// cash-out claim past the crash point is only revealed again.
func (e *Engine) loseCrash(ctx context.Context, account *models.Account, a models.CrashLost) (models.Result, error) {
	session, err := e.ownedSession(ctx, account.ID, a.SessionID, models.GameTypeCrash)
	if err != nil {
		return nil, err
	}
	crash := session.Secret.Peek().Crash
	if crash == nil {
		return nil, internal(errMissingState)
	}

	if session.Status == models.SessionLost && crash.CrashedClaim > 0 {
		final, fairness := reveal(session)
		return &models.CrashLostResult{
			ResultBase: models.Settled(account.Balance),
			Fairness:   fairness,
			CrashPoint: final.Crash.CrashPoint,
		}, nil
	}
	if session.Status != models.SessionActive {
		return nil, ErrSessionClosed
	}

	balance, err := e.closeSession(ctx, session, models.SessionLost, 0, 0)
	if err != nil {
		return nil, err
	}

	final, fairness := reveal(session)
	return &models.CrashLostResult{
		ResultBase: models.Settled(balance),
		Fairness:   fairness,
		CrashPoint: final.Crash.CrashPoint,
	}, nil
}

func (e *Engine) startMines(ctx context.Context, account *models.Account, a models.MinesStart) (models.Result, error) {
	if a.MineCount < 1 || a.MineCount > GridSize-1 {
		return nil, ErrInvalidMineCount
	}

	seed, src, err := e.newRound(models.GameTypeMines)
	if err != nil {
		return nil, err
	}

	session, balance, err := e.openSession(ctx, account, models.GameTypeMines, a.BetAmount, models.SessionSecret{
		ServerSeed: seed,
		Mines: &models.MinesState{
			Mines:     MineLayout(src, a.MineCount),
			MineCount: a.MineCount,
			Revealed:  []int{},
		},
	})
	if err != nil {
		return nil, err
	}

	return &models.SessionStarted{
		ResultBase:     models.Settled(balance),
		SessionID:      session.ID,
		ServerSeedHash: session.ServerSeedHash,
		MineCount:      a.MineCount,
	}, nil
}

func (e *Engine) revealMine(ctx context.Context, account *models.Account, a models.MinesReveal) (models.Result, error) {
	if a.CellIndex < 0 || a.CellIndex >= GridSize {
		return nil, ErrInvalidCell
	}

	session, err := e.loadSession(ctx, account.ID, a.SessionID, models.GameTypeMines)
	if err != nil {
		return nil, err
	}
	secret := session.Secret.Peek()
	if secret.Mines == nil {
		return nil, internal(errMissingState)
	}
	if secret.Mines.IsRevealed(a.CellIndex) {
		return nil, ErrCellRevealed
	}

	mines := *secret.Mines
	mines.Revealed = append(slices.Clone(mines.Revealed), a.CellIndex)
	secret.Mines = &mines
	session.Secret = models.Hide(secret)

	if mines.IsMine(a.CellIndex) {
		balance, err := e.closeSession(ctx, session, models.SessionLost, 0, 0)
		if err != nil {
			return nil, err
		}
		final, fairness := reveal(session)
		return &models.MinesRevealResult{
			ResultBase:    models.Settled(balance),
			Fairness:      &fairness,
			IsMine:        true,
			RevealedCount: len(final.Mines.Revealed) - 1,
			Mines:         final.Mines.Mines,
		}, nil
	}

	if err := e.store.AdvanceSession(ctx, session); err != nil {
		return nil, err
	}

	return &models.MinesRevealResult{
		ResultBase:    models.ResultBase{Success: true},
		RevealedCount: len(mines.Revealed),
		Multiplier:    MinesMultiplier(mines.MineCount, len(mines.Revealed)),
	}, nil
}

func (e *Engine) cashoutMines(ctx context.Context, account *models.Account, a models.MinesCashout) (models.Result, error) {
	session, err := e.loadSession(ctx, account.ID, a.SessionID, models.GameTypeMines)
	if err != nil {
		return nil, err
	}
	secret := session.Secret.Peek()
	if secret.Mines == nil {
		return nil, internal(errMissingState)
	}
	if len(secret.Mines.Revealed) == 0 {
		return nil, ErrNothingToCashout
	}

	mines := *secret.Mines
	mines.CashoutMultiplier = MinesMultiplier(mines.MineCount, len(mines.Revealed))
	secret.Mines = &mines
	session.Secret = models.Hide(secret)

	win := models.CalculatePayout(session.BetAmount, mines.CashoutMultiplier)
	balance, err := e.closeSession(ctx, session, models.SessionCompleted, win, mines.CashoutMultiplier)
	if err != nil {
		return nil, err
	}

	final, fairness := reveal(session)
	return &models.MinesCashoutResult{
		ResultBase: models.Settled(balance),
		Fairness:   fairness,
		WinAmount:  win,
		Multiplier: mines.CashoutMultiplier,
		Mines:      final.Mines.Mines,
	}, nil
}

func (e *Engine) startTower(ctx context.Context, account *models.Account, a models.TowerStart) (models.Result, error) {
	seed, src, err := e.newRound(models.GameTypeTower)
	if err != nil {
		return nil, err
	}

	session, balance, err := e.openSession(ctx, account, models.GameTypeTower, a.BetAmount, models.SessionSecret{
		ServerSeed: seed,
		Tower: &models.TowerState{
			Dangers:   TowerDangers(src),
			MaxFloors: TowerFloors,
		},
	})
	if err != nil {
		return nil, err
	}

	return &models.SessionStarted{
		ResultBase:     models.Settled(balance),
		SessionID:      session.ID,
		ServerSeedHash: session.ServerSeedHash,
	}, nil
}

func (e *Engine) climbTower(ctx context.Context, account *models.Account, a models.TowerClimb) (models.Result, error) {
	if a.ColIndex < 0 || a.ColIndex >= TowerColumns {
		return nil, ErrInvalidColumn
	}
	if a.Floor < 0 || a.Floor >= TowerFloors {
		return nil, ErrInvalidFloor
	}

	session, err := e.loadSession(ctx, account.ID, a.SessionID, models.GameTypeTower)
	if err != nil {
		return nil, err
	}
	secret := session.Secret.Peek()
	if secret.Tower == nil || len(secret.Tower.Dangers) <= a.Floor {
		return nil, internal(errMissingState)
	}
	if a.Floor != secret.Tower.CurrentFloor {
		return nil, ErrWrongFloor
	}

	tower := *secret.Tower
	danger := tower.Dangers[a.Floor]

	if a.ColIndex == danger {
		balance, err := e.closeSession(ctx, session, models.SessionLost, 0, 0)
		if err != nil {
			return nil, err
		}
		final, fairness := reveal(session)
		return &models.TowerClimbResult{
			ResultBase:   models.Settled(balance),
			Fairness:     &fairness,
			IsSafe:       false,
			DangerCol:    danger,
			CurrentFloor: final.Tower.CurrentFloor,
			Dangers:      final.Tower.Dangers,
		}, nil
	}

	tower.CurrentFloor = a.Floor + 1
	secret.Tower = &tower
	session.Secret = models.Hide(secret)

	if err := e.store.AdvanceSession(ctx, session); err != nil {
		return nil, err
	}

	return &models.TowerClimbResult{
		ResultBase:   models.ResultBase{Success: true},
		IsSafe:       true,
		DangerCol:    danger,
		CurrentFloor: tower.CurrentFloor,
		Multiplier:   TowerMultiplier(tower.CurrentFloor),
	}, nil
}

func (e *Engine) cashoutTower(ctx context.Context, account *models.Account, a models.TowerCashout) (models.Result, error) {
	session, err := e.loadSession(ctx, account.ID, a.SessionID, models.GameTypeTower)
	if err != nil {
		return nil, err
	}
	secret := session.Secret.Peek()
	if secret.Tower == nil {
		return nil, internal(errMissingState)
	}
	if secret.Tower.CurrentFloor == 0 {
		return nil, ErrNothingToCashout
	}

	tower := *secret.Tower
	tower.CashoutMultiplier = TowerMultiplier(tower.CurrentFloor)
	secret.Tower = &tower
	session.Secret = models.Hide(secret)

	win := models.CalculatePayout(session.BetAmount, tower.CashoutMultiplier)
	balance, err := e.closeSession(ctx, session, models.SessionCompleted, win, tower.CashoutMultiplier)
	if err != nil {
		return nil, err
	}

	final, fairness := reveal(session)
	return &models.TowerCashoutResult{
		ResultBase: models.Settled(balance),
		Fairness:   fairness,
		WinAmount:  win,
		Multiplier: tower.CashoutMultiplier,
		Dangers:    final.Tower.Dangers,
	}, nil
}

const staleBatch = 100

// ExpireStaleSessions closes active sessions older than maxAge as lost.
func (e *Engine) ExpireStaleSessions(ctx context.Context, maxAge time.Duration) (int, error) {
	ids, err := e.store.StaleSessionIDs(ctx, e.now().Add(-maxAge), staleBatch)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, id := range ids {
		session, err := e.store.GetGameSession(ctx, id)
		if errors.Is(err, ErrSessionNotFound) {
			_ = e.store.ForgetSession(ctx, id)
			continue
		}
		if err != nil {
			return closed, fmt.Errorf("failed to load stale session %s: %w", id, err)
		}
		if session.Status != models.SessionActive {
			_ = e.store.ForgetSession(ctx, id)
			continue
		}

		balance, err := e.closeSession(ctx, session, models.SessionLost, 0, 0)
		if err != nil {
			if KindOf(err) != KindInvalidSessionState {
				e.logger.Warn("failed to expire session",
					zap.String("session_id", id),
					zap.Error(err),
				)
			}
			continue
		}
		e.notifier.NotifyBalance(session.OwnerID, balance)
		closed++
	}

	if closed > 0 {
		e.logger.Info("expired stale sessions", zap.Int("count", closed))
	}
	return closed, nil
}
