package services

import (
	"context"

	"go.uber.org/zap"

	"casino-settlement/internal/models"
)

// claimDailyBonus credits the fixed bonus once per UTC day.
func (e *Engine) claimDailyBonus(ctx context.Context, account *models.Account) (models.Result, error) {
	balance, err := e.store.ClaimDailyBonus(ctx, account.ID, e.now(), e.games.DailyBonus)
	if err != nil {
		return nil, err
	}

	return &models.BonusResult{
		ResultBase: models.Settled(balance),
		Bonus:      e.games.DailyBonus,
	}, nil
}

// claimReferral pays the referrer of the calling account. The claimant's own
// balance does not change.
func (e *Engine) claimReferral(ctx context.Context, account *models.Account) (models.Result, error) {
	if account.ReferredBy == "" {
		return nil, ErrNoReferrer
	}
	if account.ReferredBy == account.ReferralCode {
		return nil, ErrSelfReferral
	}

	referrerID, err := e.store.ResolveReferralCode(ctx, account.ReferredBy)
	if err != nil {
		return nil, err
	}
	if referrerID == account.ID {
		return nil, ErrSelfReferral
	}

	referrerBalance, err := e.store.ClaimReferral(ctx, ReferralParams{
		ReferrerID: referrerID,
		ReferredID: account.ID,
		Bonus:      e.games.ReferralBonus,
		MaxClaims:  e.games.ReferralMaxClaims,
		MinDeposit: e.games.ReferralMinDeposit,
	})
	if err != nil {
		return nil, err
	}

	e.notifier.NotifyBalance(referrerID, referrerBalance)
	e.logger.Info("referral bonus paid",
		zap.String("referrer_id", referrerID),
		zap.String("referred_id", account.ID),
		zap.Int64("bonus", e.games.ReferralBonus),
	)

	return &models.BonusResult{
		ResultBase: models.ResultBase{Success: true},
		Bonus:      e.games.ReferralBonus,
	}, nil
}
