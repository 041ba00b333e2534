package services

import "math"

const minesEdge = 0.97

func floor2(f float64) float64 {
	return math.Floor(f*100) / 100
}

func DiceMultiplier(target float64, isOver bool) float64 {
	winChance := target
	if isOver {
		winChance = 100 - target
	}
	return math.Max(1.01, floor2(98/winChance))
}

func DiceWins(roll, target float64, isOver bool) bool {
	if isOver {
		return roll > target
	}
	return roll < target
}

func MinesMultiplier(mineCount, safeRevealed int) float64 {
	odds := float64(GridSize) / float64(GridSize-mineCount)
	return floor2(math.Pow(odds, float64(safeRevealed)) * minesEdge)
}

// TowerMultiplier carries no edge factor beyond the odds.
func TowerMultiplier(floorsClimbed int) float64 {
	odds := float64(TowerColumns) / float64(TowerColumns-1)
	return floor2(math.Pow(odds, float64(floorsClimbed)))
}

var kenoPayTable = map[int]map[int]float64{
	1:  {1: 3},
	2:  {1: 1.5, 2: 5},
	3:  {1: 1, 2: 3, 3: 10},
	4:  {1: 0.5, 2: 2, 3: 6, 4: 20},
	5:  {2: 1.5, 3: 4, 4: 12, 5: 40},
	6:  {2: 1, 3: 2.5, 4: 8, 5: 25, 6: 80},
	7:  {2: 0.5, 3: 2, 4: 5, 5: 15, 6: 50, 7: 150},
	8:  {3: 1.5, 4: 3, 5: 10, 6: 30, 7: 100, 8: 300},
	9:  {3: 1, 4: 2.5, 5: 6, 6: 20, 7: 60, 8: 200, 9: 500},
	10: {3: 0.5, 4: 2, 5: 4, 6: 15, 7: 40, 8: 150, 9: 400, 10: 1000},
}

// KenoMultiplier is 0 for any combination missing from the table.
func KenoMultiplier(picks, hits int) float64 {
	return kenoPayTable[picks][hits]
}

// CrashCeiling is the highest multiplier the client curve can show after
// elapsed seconds.
func CrashCeiling(rate, elapsedSeconds float64) float64 {
	return floor2(math.Exp(rate * elapsedSeconds))
}
