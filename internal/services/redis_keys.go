package services

import "time"

const (
	KeyWallet          = "wallet:%s"
	KeyGameSession     = "game:session:%s"
	KeyUserActiveGames = "user:%s:active_games"
	KeyActiveSessions  = "game:active"
	KeyBetHistory      = "user:%s:bet_history"
	KeyDailyBonus      = "bonus:daily:%s:%s"
	KeyReferralClaim   = "referral:claim:%s:%s"
	KeyReferralCount   = "referral:count:%s"
	KeyReferralCode    = "referral:code:%s"
	KeyRateLimit       = "ratelimit:%s:%s"
	KeyNextSeed        = "fairness:next:%s"

	TTLGameSession = 7 * 24 * time.Hour
	TTLDailyBonus  = 48 * time.Hour

	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)
