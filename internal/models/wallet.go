package models

import "time"

// Account is the ledger row the settlement engine reads and mutates.
// All amounts are whole currency units.
type Account struct {
	ID            string `json:"id" redis:"id"`
	Balance       int64  `json:"balance" redis:"balance"`
	Turnover      int64  `json:"turnover" redis:"turnover"`
	TotalEarnings int64  `json:"total_earnings" redis:"total_earnings"`
	TotalLoss     int64  `json:"total_loss" redis:"total_loss"`
	BonusBalance  int64  `json:"bonus_balance" redis:"bonus_balance"`
	IsBanned      bool   `json:"is_banned" redis:"is_banned"`

	ReferralCode  string `json:"referral_code" redis:"referral_code"`
	ReferredBy    string `json:"referred_by,omitempty" redis:"referred_by"`
	TotalDeposit  int64  `json:"total_deposit" redis:"total_deposit"`
	ReferralBonus int64  `json:"referral_bonus" redis:"referral_bonus"`

	CreatedAt time.Time `json:"created_at" redis:"-"`
}

type AccountView struct {
	Balance       int64  `json:"balance"`
	Turnover      int64  `json:"turnover"`
	TotalEarnings int64  `json:"total_earnings"`
	TotalLoss     int64  `json:"total_loss"`
	BonusBalance  int64  `json:"bonus_balance"`
	ReferralCode  string `json:"referral_code"`
	ReferralBonus int64  `json:"referral_bonus"`
}

func (a *Account) View() AccountView {
	return AccountView{
		Balance:       a.Balance,
		Turnover:      a.Turnover,
		TotalEarnings: a.TotalEarnings,
		TotalLoss:     a.TotalLoss,
		BonusBalance:  a.BonusBalance,
		ReferralCode:  a.ReferralCode,
		ReferralBonus: a.ReferralBonus,
	}
}

type BetResult string

const (
	BetResultWin  BetResult = "win"
	BetResultLoss BetResult = "loss"
)

// BetHistoryEntry is appended once per resolved wager and never rewritten.
type BetHistoryEntry struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	GameType   GameType  `json:"game_type"`
	SessionID  string    `json:"session_id,omitempty"`
	BetAmount  int64     `json:"bet_amount"`
	WinAmount  int64     `json:"win_amount"`
	Multiplier float64   `json:"multiplier"`
	Result     BetResult `json:"result"`
	CreatedAt  time.Time `json:"created_at"`
}
