package services

import (
	"encoding/hex"

	"casino-settlement/internal/models"
)

// Verify replays the outcome a revealed server seed produces, so a player can
// check it against the hash committed before the wager.
func (e *Engine) Verify(req models.VerifyRequest) (*models.VerifyResult, error) {
	if raw, err := hex.DecodeString(req.ServerSeed); err != nil || len(raw) != 32 {
		return nil, ErrUnknownSeed
	}

	result := &models.VerifyResult{
		GameType:       req.GameType,
		ServerSeedHash: HashSeed(req.ServerSeed),
	}
	src := NewSeedSource(req.ServerSeed, req.GameType)

	switch req.GameType {
	case models.GameTypeCrash:
		result.CrashPoint = CrashPoint(src)
	case models.GameTypeDice:
		roll := DiceRoll(src)
		result.Roll = &roll
	case models.GameTypeMines:
		if req.MineCount < 1 || req.MineCount > GridSize-1 {
			return nil, ErrInvalidMineCount
		}
		result.Mines = MineLayout(src, req.MineCount)
	case models.GameTypeWheel:
		segment := WheelSegment(src)
		result.SegmentIndex = &segment
	case models.GameTypePlinko:
		path, slot := PlinkoDrop(src)
		result.Path = path
		result.SlotIndex = &slot
	case models.GameTypeTower:
		result.Dangers = TowerDangers(src)
	case models.GameTypeKeno:
		result.Drawn = KenoDraw(src)
	default:
		return nil, ErrInvalidGame
	}

	return result, nil
}
