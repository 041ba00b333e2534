package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func GenerateSessionID() string {
	return uuid.NewString()
}

func GenerateHistoryID() string {
	return uuid.NewString()
}

// GenerateReferralCode returns an eight character code shared with invitees.
func GenerateReferralCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:8])
}

// CalculatePayout is floor(betAmount * multiplier). The multiplier goes
// through its shortest decimal form so 100 * 1.15 pays 115.
func CalculatePayout(betAmount int64, multiplier float64) int64 {
	if multiplier <= 0 {
		return 0
	}
	return decimal.NewFromInt(betAmount).
		Mul(decimal.NewFromFloat(multiplier)).
		Floor().
		IntPart()
}

// NetResult splits a settled wager into the earnings and loss counter deltas.
func NetResult(betAmount, winAmount int64) (earnings, loss int64) {
	if winAmount > betAmount {
		return winAmount - betAmount, 0
	}
	return 0, betAmount - winAmount
}

func ResultOf(winAmount int64) BetResult {
	if winAmount > 0 {
		return BetResultWin
	}
	return BetResultLoss
}
