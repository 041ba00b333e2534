package services

import (
	"errors"
	"strings"
)

type Kind string

const (
	KindUnauthenticated     Kind = "unauthenticated"
	KindForbidden           Kind = "forbidden"
	KindInvalidInput        Kind = "invalid_input"
	KindInsufficientFunds   Kind = "insufficient_funds"
	KindInvalidSessionState Kind = "invalid_session_state"
	KindInternal            Kind = "internal"
)

// Error is a settlement failure with a flat, client-safe message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind and message so sentinels compare with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Msg: "Unauthorized"}

	ErrAccountBanned    = &Error{Kind: KindForbidden, Msg: "Account is banned"}
	ErrSessionForbidden = &Error{Kind: KindForbidden, Msg: "Session belongs to another account"}

	ErrBetOutOfRange     = &Error{Kind: KindInvalidInput, Msg: "Bet amount out of range"}
	ErrInvalidTarget     = &Error{Kind: KindInvalidInput, Msg: "Invalid target"}
	ErrInvalidMineCount  = &Error{Kind: KindInvalidInput, Msg: "Invalid mine count"}
	ErrInvalidCell       = &Error{Kind: KindInvalidInput, Msg: "Invalid cell"}
	ErrCellRevealed      = &Error{Kind: KindInvalidInput, Msg: "Cell already revealed"}
	ErrInvalidColumn     = &Error{Kind: KindInvalidInput, Msg: "Invalid column"}
	ErrInvalidFloor      = &Error{Kind: KindInvalidInput, Msg: "Invalid floor"}
	ErrInvalidMultiplier = &Error{Kind: KindInvalidInput, Msg: "Invalid multiplier"}
	ErrInvalidPicks      = &Error{Kind: KindInvalidInput, Msg: "Invalid picks"}
	ErrNothingToCashout  = &Error{Kind: KindInvalidInput, Msg: "Nothing to cash out"}
	ErrAlreadyCrashed    = &Error{Kind: KindInvalidInput, Msg: "Invalid cashout - game already crashed"}
	ErrBonusClaimed      = &Error{Kind: KindInvalidInput, Msg: "Daily bonus already claimed"}
	ErrNoReferrer        = &Error{Kind: KindInvalidInput, Msg: "No referrer to reward"}
	ErrSelfReferral      = &Error{Kind: KindInvalidInput, Msg: "Self referral is not allowed"}
	ErrDepositTooLow     = &Error{Kind: KindInvalidInput, Msg: "Minimum deposit not reached"}
	ErrReferralClaimed   = &Error{Kind: KindInvalidInput, Msg: "Referral bonus already claimed"}
	ErrReferralLimit     = &Error{Kind: KindInvalidInput, Msg: "Referrer reached the claim limit"}
	ErrUnknownSeed       = &Error{Kind: KindInvalidInput, Msg: "Invalid seed"}
	ErrInvalidGame       = &Error{Kind: KindInvalidInput, Msg: "Invalid game"}
	ErrRateLimited       = &Error{Kind: KindInvalidInput, Msg: "Too many bets. Please wait."}

	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds, Msg: "Insufficient balance"}

	ErrSessionNotFound = &Error{Kind: KindInvalidSessionState, Msg: "Session not found"}
	ErrSessionClosed   = &Error{Kind: KindInvalidSessionState, Msg: "Session is not active"}
	ErrSessionConflict = &Error{Kind: KindInvalidSessionState, Msg: "Session was modified concurrently"}
	ErrWrongGame       = &Error{Kind: KindInvalidSessionState, Msg: "Session belongs to another game"}
	ErrWrongFloor      = &Error{Kind: KindInvalidSessionState, Msg: "Floor does not match session"}
)

func internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "Unable to process request", Err: err}
}

// KindOf classifies any error returned by the engine. Unknown errors are
// internal failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// scriptErrors maps redis.error_reply codes raised inside Lua scripts.
var scriptErrors = map[string]*Error{
	"ACCOUNT_NOT_FOUND":  ErrUnauthenticated,
	"ACCOUNT_BANNED":     ErrAccountBanned,
	"INSUFFICIENT_FUNDS": ErrInsufficientFunds,
	"SESSION_NOT_FOUND":  ErrSessionNotFound,
	"SESSION_FORBIDDEN":  ErrSessionForbidden,
	"SESSION_CLOSED":     ErrSessionClosed,
	"SESSION_CONFLICT":   ErrSessionConflict,
	"SESSION_GAME":       ErrWrongGame,
	"BONUS_CLAIMED":      ErrBonusClaimed,
	"REFERRAL_CLAIMED":   ErrReferralClaimed,
	"REFERRAL_LIMIT":     ErrReferralLimit,
	"REFERRER_NOT_FOUND": ErrNoReferrer,
	"DEPOSIT_TOO_LOW":    ErrDepositTooLow,
}

func fromScript(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for code, mapped := range scriptErrors {
		if strings.Contains(msg, code) {
			return mapped
		}
	}
	return internal(err)
}
