package services

import (
	"context"

	"casino-settlement/internal/models"
)

func (e *Engine) settle(ctx context.Context, account *models.Account, game models.GameType, bet, win int64, multiplier float64) (int64, error) {
	return e.store.SettleBet(ctx, SettleParams{
		AccountID: account.ID,
		BetAmount: bet,
		WinAmount: win,
		Entry:     e.historyEntry(account.ID, game, "", bet, win, multiplier),
	})
}

func (e *Engine) playDice(ctx context.Context, account *models.Account, a models.Dice) (models.Result, error) {
	if a.Target < 5 || a.Target > 95 {
		return nil, ErrInvalidTarget
	}

	seed, nextHash, src, err := e.newInstantRound(ctx, account.ID, models.GameTypeDice)
	if err != nil {
		return nil, err
	}

	roll := DiceRoll(src)
	won := DiceWins(roll, a.Target, a.IsOver)
	multiplier := DiceMultiplier(a.Target, a.IsOver)

	var win int64
	applied := 0.0
	if won {
		win = models.CalculatePayout(a.BetAmount, multiplier)
		applied = multiplier
	}

	balance, err := e.settle(ctx, account, models.GameTypeDice, a.BetAmount, win, applied)
	if err != nil {
		return nil, err
	}

	return &models.DiceResult{
		ResultBase: models.Settled(balance),
		Fairness:   chained(seed, nextHash),
		Roll:       roll,
		DidWin:     won,
		Multiplier: multiplier,
		WinAmount:  win,
	}, nil
}

func (e *Engine) spinWheel(ctx context.Context, account *models.Account, a models.Wheel) (models.Result, error) {
	seed, nextHash, src, err := e.newInstantRound(ctx, account.ID, models.GameTypeWheel)
	if err != nil {
		return nil, err
	}

	segment := WheelSegment(src)
	multiplier := WheelSegments[segment]
	win := models.CalculatePayout(a.BetAmount, multiplier)

	balance, err := e.settle(ctx, account, models.GameTypeWheel, a.BetAmount, win, multiplier)
	if err != nil {
		return nil, err
	}

	return &models.WheelResult{
		ResultBase:   models.Settled(balance),
		Fairness:     chained(seed, nextHash),
		SegmentIndex: segment,
		Multiplier:   multiplier,
		WinAmount:    win,
	}, nil
}

func (e *Engine) dropPlinko(ctx context.Context, account *models.Account, a models.Plinko) (models.Result, error) {
	seed, nextHash, src, err := e.newInstantRound(ctx, account.ID, models.GameTypePlinko)
	if err != nil {
		return nil, err
	}

	path, slot := PlinkoDrop(src)
	multiplier := PlinkoSlots[slot]
	win := models.CalculatePayout(a.BetAmount, multiplier)

	balance, err := e.settle(ctx, account, models.GameTypePlinko, a.BetAmount, win, multiplier)
	if err != nil {
		return nil, err
	}

	return &models.PlinkoResult{
		ResultBase: models.Settled(balance),
		Fairness:   chained(seed, nextHash),
		Path:       path,
		SlotIndex:  slot,
		Multiplier: multiplier,
		WinAmount:  win,
	}, nil
}

func validPicks(picks []int) bool {
	if len(picks) < 1 || len(picks) > KenoMaxPicks {
		return false
	}
	seen := make(map[int]struct{}, len(picks))
	for _, p := range picks {
		if p < 1 || p > KenoPool {
			return false
		}
		if _, dup := seen[p]; dup {
			return false
		}
		seen[p] = struct{}{}
	}
	return true
}

func (e *Engine) playKeno(ctx context.Context, account *models.Account, a models.Keno) (models.Result, error) {
	if !validPicks(a.Picks) {
		return nil, ErrInvalidPicks
	}

	seed, nextHash, src, err := e.newInstantRound(ctx, account.ID, models.GameTypeKeno)
	if err != nil {
		return nil, err
	}

	drawn := KenoDraw(src)
	hits := CountHits(a.Picks, drawn)
	multiplier := KenoMultiplier(len(a.Picks), hits)
	win := models.CalculatePayout(a.BetAmount, multiplier)

	balance, err := e.settle(ctx, account, models.GameTypeKeno, a.BetAmount, win, multiplier)
	if err != nil {
		return nil, err
	}

	return &models.KenoResult{
		ResultBase: models.Settled(balance),
		Fairness:   chained(seed, nextHash),
		Drawn:      drawn,
		Hits:       hits,
		Multiplier: multiplier,
		WinAmount:  win,
	}, nil
}
