package models

// Result is the client-safe view returned for an action.
type Result interface {
	Balance() (int64, bool)
}

type ResultBase struct {
	Success    bool   `json:"success"`
	NewBalance *int64 `json:"new_balance,omitempty"`
}

func (r ResultBase) Balance() (int64, bool) {
	if r.NewBalance == nil {
		return 0, false
	}
	return *r.NewBalance, true
}

func Settled(balance int64) ResultBase {
	return ResultBase{Success: true, NewBalance: &balance}
}

// Fairness is the commit-reveal pair of one wager. ServerSeed is empty until
// the wager resolves. Instant games also carry the hash of the seed committed
// for the account's next instant wager.
type Fairness struct {
	ServerSeedHash     string `json:"server_seed_hash"`
	ServerSeed         string `json:"server_seed,omitempty"`
	NextServerSeedHash string `json:"next_server_seed_hash,omitempty"`
}

type SessionStarted struct {
	ResultBase
	SessionID      string `json:"session_id"`
	ServerSeedHash string `json:"server_seed_hash"`
	MineCount      int    `json:"mine_count,omitempty"`
}

type CrashCashoutResult struct {
	ResultBase
	Fairness
	WinAmount  int64   `json:"win_amount"`
	Multiplier float64 `json:"multiplier"`
	CrashPoint float64 `json:"crash_point"`
}

type CrashLostResult struct {
	ResultBase
	Fairness
	CrashPoint float64 `json:"crash_point"`
}

type DiceResult struct {
	ResultBase
	Fairness
	Roll       float64 `json:"roll"`
	DidWin     bool    `json:"did_win"`
	Multiplier float64 `json:"multiplier"`
	WinAmount  int64   `json:"win_amount"`
}

type MinesRevealResult struct {
	ResultBase
	*Fairness
	IsMine        bool    `json:"is_mine"`
	RevealedCount int     `json:"revealed_count"`
	Multiplier    float64 `json:"multiplier"`
	Mines         []int   `json:"mines,omitempty"`
}

type MinesCashoutResult struct {
	ResultBase
	Fairness
	WinAmount  int64   `json:"win_amount"`
	Multiplier float64 `json:"multiplier"`
	Mines      []int   `json:"mines"`
}

type WheelResult struct {
	ResultBase
	Fairness
	SegmentIndex int     `json:"segment_index"`
	Multiplier   float64 `json:"multiplier"`
	WinAmount    int64   `json:"win_amount"`
}

type PlinkoResult struct {
	ResultBase
	Fairness
	Path       []int   `json:"path"`
	SlotIndex  int     `json:"slot_index"`
	Multiplier float64 `json:"multiplier"`
	WinAmount  int64   `json:"win_amount"`
}

type TowerClimbResult struct {
	ResultBase
	*Fairness
	IsSafe       bool    `json:"is_safe"`
	DangerCol    int     `json:"danger_col"`
	CurrentFloor int     `json:"current_floor"`
	Multiplier   float64 `json:"multiplier"`
	Dangers      []int   `json:"dangers,omitempty"`
}

type TowerCashoutResult struct {
	ResultBase
	Fairness
	WinAmount  int64   `json:"win_amount"`
	Multiplier float64 `json:"multiplier"`
	Dangers    []int   `json:"dangers"`
}

type KenoResult struct {
	ResultBase
	Fairness
	Drawn      []int   `json:"drawn"`
	Hits       int     `json:"hits"`
	Multiplier float64 `json:"multiplier"`
	WinAmount  int64   `json:"win_amount"`
}

type BonusResult struct {
	ResultBase
	Bonus int64 `json:"bonus"`
}
