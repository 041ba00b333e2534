package models

// VerifyRequest asks the server to replay an outcome from a revealed seed.
type VerifyRequest struct {
	GameType   GameType `json:"game_type" binding:"required"`
	ServerSeed string   `json:"server_seed" binding:"required"`
	MineCount  int      `json:"mine_count,omitempty"`
}

type VerifyResult struct {
	GameType       GameType `json:"game_type"`
	ServerSeedHash string   `json:"server_seed_hash"`

	CrashPoint   float64  `json:"crash_point,omitempty"`
	Roll         *float64 `json:"roll,omitempty"`
	Mines        []int    `json:"mines,omitempty"`
	SegmentIndex *int     `json:"segment_index,omitempty"`
	Path         []int    `json:"path,omitempty"`
	SlotIndex    *int     `json:"slot_index,omitempty"`
	Dangers      []int    `json:"dangers,omitempty"`
	Drawn        []int    `json:"drawn,omitempty"`
}
