package models

import (
	"fmt"
	"math"
)

type ActionName string

const (
	ActionCrashStart    ActionName = "crash_start"
	ActionCrashCashout  ActionName = "crash_cashout"
	ActionCrashLost     ActionName = "crash_lost"
	ActionDice          ActionName = "dice"
	ActionMinesStart    ActionName = "mines_start"
	ActionMinesReveal   ActionName = "mines_reveal"
	ActionMinesCashout  ActionName = "mines_cashout"
	ActionWheel         ActionName = "wheel"
	ActionPlinko        ActionName = "plinko"
	ActionTowerStart    ActionName = "tower_start"
	ActionTowerClimb    ActionName = "tower_climb"
	ActionTowerCashout  ActionName = "tower_cashout"
	ActionKeno          ActionName = "keno"
	ActionDailyBonus    ActionName = "daily_bonus"
	ActionClaimReferral ActionName = "claim_referral"
)

// Action is one decoded place-bet request. Each action has its own type
// carrying exactly the fields it needs.
type Action interface {
	Name() ActionName
}

// Wager is implemented by actions that consume funds.
type Wager interface {
	Action
	Stake() int64
}

type CrashStart struct{ BetAmount int64 }

type CrashCashout struct {
	SessionID  string
	Multiplier float64
}

type CrashLost struct{ SessionID string }

type Dice struct {
	BetAmount int64
	Target    float64
	IsOver    bool
}

type MinesStart struct {
	BetAmount int64
	MineCount int
}

type MinesReveal struct {
	SessionID string
	CellIndex int
}

type MinesCashout struct{ SessionID string }

type Wheel struct{ BetAmount int64 }

type Plinko struct{ BetAmount int64 }

type TowerStart struct{ BetAmount int64 }

type TowerClimb struct {
	SessionID string
	ColIndex  int
	Floor     int
}

type TowerCashout struct{ SessionID string }

type Keno struct {
	BetAmount int64
	Picks     []int
}

type DailyBonus struct{}

type ClaimReferral struct{}

func (CrashStart) Name() ActionName    { return ActionCrashStart }
func (CrashCashout) Name() ActionName  { return ActionCrashCashout }
func (CrashLost) Name() ActionName     { return ActionCrashLost }
func (Dice) Name() ActionName          { return ActionDice }
func (MinesStart) Name() ActionName    { return ActionMinesStart }
func (MinesReveal) Name() ActionName   { return ActionMinesReveal }
func (MinesCashout) Name() ActionName  { return ActionMinesCashout }
func (Wheel) Name() ActionName         { return ActionWheel }
func (Plinko) Name() ActionName        { return ActionPlinko }
func (TowerStart) Name() ActionName    { return ActionTowerStart }
func (TowerClimb) Name() ActionName    { return ActionTowerClimb }
func (TowerCashout) Name() ActionName  { return ActionTowerCashout }
func (Keno) Name() ActionName          { return ActionKeno }
func (DailyBonus) Name() ActionName    { return ActionDailyBonus }
func (ClaimReferral) Name() ActionName { return ActionClaimReferral }

func (a CrashStart) Stake() int64 { return a.BetAmount }
func (a Dice) Stake() int64       { return a.BetAmount }
func (a MinesStart) Stake() int64 { return a.BetAmount }
func (a Wheel) Stake() int64      { return a.BetAmount }
func (a Plinko) Stake() int64     { return a.BetAmount }
func (a TowerStart) Stake() int64 { return a.BetAmount }
func (a Keno) Stake() int64       { return a.BetAmount }

const maxWireAmount = 1e15

// ActionRequest is the loose wire body of POST /place-bet.
type ActionRequest struct {
	Action     ActionName `json:"action"`
	BetAmount  *float64   `json:"bet_amount"`
	SessionID  *string    `json:"session_id"`
	Multiplier *float64   `json:"multiplier"`
	Target     *float64   `json:"target"`
	IsOver     *bool      `json:"is_over"`
	MineCount  *float64   `json:"mine_count"`
	CellIndex  *float64   `json:"cell_index"`
	ColIndex   *float64   `json:"col_index"`
	Floor      *float64   `json:"floor"`
	Picks      []float64  `json:"picks"`
}

// RequestError is a malformed or incomplete action body.
type RequestError struct {
	Msg string
}

func (e *RequestError) Error() string { return e.Msg }

func badRequest(format string, args ...any) error {
	return &RequestError{Msg: fmt.Sprintf(format, args...)}
}

// Decode turns the wire body into its typed action. It checks shape only;
// value ranges are the engine's business.
func (r *ActionRequest) Decode() (Action, error) {
	switch r.Action {
	case ActionCrashStart:
		bet, err := r.bet()
		return CrashStart{BetAmount: bet}, err
	case ActionCrashCashout:
		id, err := r.session()
		if err != nil {
			return nil, err
		}
		if r.Multiplier == nil || !finite(*r.Multiplier) {
			return nil, badRequest("Invalid multiplier")
		}
		return CrashCashout{SessionID: id, Multiplier: *r.Multiplier}, nil
	case ActionCrashLost:
		id, err := r.session()
		return CrashLost{SessionID: id}, err
	case ActionDice:
		bet, err := r.bet()
		if err != nil {
			return nil, err
		}
		if r.Target == nil || !finite(*r.Target) {
			return nil, badRequest("Invalid target")
		}
		if r.IsOver == nil {
			return nil, badRequest("Invalid parameters")
		}
		return Dice{BetAmount: bet, Target: *r.Target, IsOver: *r.IsOver}, nil
	case ActionMinesStart:
		bet, err := r.bet()
		if err != nil {
			return nil, err
		}
		count, err := integer(r.MineCount, "Invalid mine count")
		return MinesStart{BetAmount: bet, MineCount: count}, err
	case ActionMinesReveal:
		id, err := r.session()
		if err != nil {
			return nil, err
		}
		cell, err := integer(r.CellIndex, "Invalid cell")
		return MinesReveal{SessionID: id, CellIndex: cell}, err
	case ActionMinesCashout:
		id, err := r.session()
		return MinesCashout{SessionID: id}, err
	case ActionWheel:
		bet, err := r.bet()
		return Wheel{BetAmount: bet}, err
	case ActionPlinko:
		bet, err := r.bet()
		return Plinko{BetAmount: bet}, err
	case ActionTowerStart:
		bet, err := r.bet()
		return TowerStart{BetAmount: bet}, err
	case ActionTowerClimb:
		id, err := r.session()
		if err != nil {
			return nil, err
		}
		col, err := integer(r.ColIndex, "Invalid column")
		if err != nil {
			return nil, err
		}
		floor, err := integer(r.Floor, "Invalid floor")
		return TowerClimb{SessionID: id, ColIndex: col, Floor: floor}, err
	case ActionTowerCashout:
		id, err := r.session()
		return TowerCashout{SessionID: id}, err
	case ActionKeno:
		bet, err := r.bet()
		if err != nil {
			return nil, err
		}
		if len(r.Picks) == 0 {
			return nil, badRequest("Invalid picks")
		}
		picks := make([]int, len(r.Picks))
		for i, p := range r.Picks {
			v := p
			n, err := integer(&v, "Invalid pick values")
			if err != nil {
				return nil, err
			}
			picks[i] = n
		}
		return Keno{BetAmount: bet, Picks: picks}, nil
	case ActionDailyBonus:
		return DailyBonus{}, nil
	case ActionClaimReferral:
		return ClaimReferral{}, nil
	}
	return nil, badRequest("Invalid action")
}

func (r *ActionRequest) bet() (int64, error) {
	if r.BetAmount == nil || !finite(*r.BetAmount) || *r.BetAmount != math.Trunc(*r.BetAmount) || math.Abs(*r.BetAmount) > maxWireAmount {
		return 0, badRequest("Invalid bet amount")
	}
	return int64(*r.BetAmount), nil
}

func (r *ActionRequest) session() (string, error) {
	if r.SessionID == nil || *r.SessionID == "" {
		return "", badRequest("Invalid session")
	}
	return *r.SessionID, nil
}

func integer(v *float64, msg string) (int, error) {
	if v == nil || !finite(*v) || *v != math.Trunc(*v) || math.Abs(*v) > math.MaxInt32 {
		return 0, badRequest("%s", msg)
	}
	return int(*v), nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
