package models

import (
	"errors"
	"time"
)

type GameType string

const (
	GameTypeCrash  GameType = "crash"
	GameTypeDice   GameType = "dice"
	GameTypeMines  GameType = "mines"
	GameTypeWheel  GameType = "wheel"
	GameTypePlinko GameType = "plinko"
	GameTypeTower  GameType = "tower"
	GameTypeKeno   GameType = "keno"
)

// Stateful reports whether the game keeps a session open across requests.
func (g GameType) Stateful() bool {
	switch g {
	case GameTypeCrash, GameTypeMines, GameTypeTower:
		return true
	}
	return false
}

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionLost      SessionStatus = "lost"
)

func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionLost
}

// GameSession is one open wager of a multi-step game. The secret payload is
// only reachable through Secret.Peek on the server, or Secret.Reveal once the
// session left the active status.
type GameSession struct {
	ID             string        `json:"id"`
	OwnerID        string        `json:"owner_id"`
	GameType       GameType      `json:"game_type"`
	BetAmount      int64         `json:"bet_amount"`
	Status         SessionStatus `json:"status"`
	Version        int64         `json:"-"`
	ServerSeedHash string        `json:"server_seed_hash"`
	WinAmount      int64         `json:"win_amount"`
	Multiplier     float64       `json:"multiplier"`
	CreatedAt      time.Time     `json:"created_at"`
	EndedAt        time.Time     `json:"ended_at,omitempty"`

	Secret Hidden[SessionSecret] `json:"-"`
}

type SessionSecret struct {
	ServerSeed string      `json:"server_seed"`
	Crash      *CrashState `json:"crash,omitempty"`
	Mines      *MinesState `json:"mines,omitempty"`
	Tower      *TowerState `json:"tower,omitempty"`
}

type CrashState struct {
	CrashPoint float64 `json:"crash_point"`
	CashoutAt  float64 `json:"cashout_at,omitempty"`
	// CrashedClaim is the cash-out claim that found the round already crashed.
	CrashedClaim float64 `json:"crashed_claim,omitempty"`
}

type MinesState struct {
	Mines             []int   `json:"mines"`
	MineCount         int     `json:"mine_count"`
	Revealed          []int   `json:"revealed"`
	CashoutMultiplier float64 `json:"cashout_multiplier,omitempty"`
}

func (m *MinesState) IsMine(cell int) bool {
	for _, pos := range m.Mines {
		if pos == cell {
			return true
		}
	}
	return false
}

func (m *MinesState) IsRevealed(cell int) bool {
	for _, pos := range m.Revealed {
		if pos == cell {
			return true
		}
	}
	return false
}

type TowerState struct {
	Dangers           []int   `json:"dangers"`
	MaxFloors         int     `json:"max_floors"`
	CurrentFloor      int     `json:"current_floor"`
	CashoutMultiplier float64 `json:"cashout_multiplier,omitempty"`
}

// ActiveSessionView is what a client may see of a session that is still open.
type ActiveSessionView struct {
	ID             string        `json:"id"`
	GameType       GameType      `json:"game_type"`
	BetAmount      int64         `json:"bet_amount"`
	Status         SessionStatus `json:"status"`
	ServerSeedHash string        `json:"server_seed_hash"`
	MineCount      int           `json:"mine_count,omitempty"`
	Revealed       []int         `json:"revealed,omitempty"`
	CurrentFloor   int           `json:"current_floor,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (s *GameSession) ActiveView() ActiveSessionView {
	view := ActiveSessionView{
		ID:             s.ID,
		GameType:       s.GameType,
		BetAmount:      s.BetAmount,
		Status:         s.Status,
		ServerSeedHash: s.ServerSeedHash,
		CreatedAt:      s.CreatedAt,
	}

	secret := s.Secret.Peek()
	switch {
	case secret.Mines != nil:
		view.MineCount = secret.Mines.MineCount
		view.Revealed = append([]int(nil), secret.Mines.Revealed...)
	case secret.Tower != nil:
		view.CurrentFloor = secret.Tower.CurrentFloor
	}
	return view
}

var ErrHiddenState = errors.New("hidden session state is not serializable")

// Hidden wraps state that must never reach a client while a wager is open.
type Hidden[T any] struct {
	value T
}

func Hide[T any](v T) Hidden[T] {
	return Hidden[T]{value: v}
}

// Peek returns the value for server-side decisions only.
func (h Hidden[T]) Peek() T {
	return h.value
}

// Reveal hands out the value only once the owning session is terminal.
func (h Hidden[T]) Reveal(status SessionStatus) (T, bool) {
	if !status.Terminal() {
		var zero T
		return zero, false
	}
	return h.value, true
}

func (h Hidden[T]) MarshalJSON() ([]byte, error) {
	return nil, ErrHiddenState
}
