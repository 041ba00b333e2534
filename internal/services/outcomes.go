package services

import (
	"math"
	"sort"
)

const (
	GridSize = 25

	TowerFloors  = 8
	TowerColumns = 3

	PlinkoRows = 8

	KenoPool     = 40
	KenoDraws    = 10
	KenoMaxPicks = 10
)

var WheelSegments = []float64{0, 1.5, 0, 2, 0.5, 3, 0, 1.2, 5, 0, 1.5, 10}

var PlinkoSlots = []float64{8, 3, 1.5, 0.5, 0.3, 0.5, 1.5, 3, 8}

func index(src Source, n int) int {
	i := int(src.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

func CrashPoint(src Source) float64 {
	r := src.Float64()
	if r >= 1 {
		r = math.Nextafter(1, 0)
	}
	return math.Max(1.0, math.Floor(100/(1-r))/100)
}

func DiceRoll(src Source) float64 {
	return math.Floor(src.Float64()*10001) / 100
}

// MineLayout picks count distinct cells with a partial Fisher-Yates shuffle.
func MineLayout(src Source, count int) []int {
	cells := make([]int, GridSize)
	for i := range cells {
		cells[i] = i
	}
	for i := 0; i < count; i++ {
		j := i + index(src, GridSize-i)
		cells[i], cells[j] = cells[j], cells[i]
	}
	mines := append([]int(nil), cells[:count]...)
	sort.Ints(mines)
	return mines
}

func WheelSegment(src Source) int {
	return index(src, len(WheelSegments))
}

// PlinkoDrop returns the bounce path (0 left, 1 right) and the landing slot.
func PlinkoDrop(src Source) ([]int, int) {
	path := make([]int, PlinkoRows)
	displacement := 0
	for i := range path {
		if src.Float64() < 0.5 {
			displacement--
		} else {
			path[i] = 1
			displacement++
		}
	}
	slot := int(math.Floor(float64(displacement+PlinkoRows) / 2))
	return path, min(max(slot, 0), len(PlinkoSlots)-1)
}

func TowerDangers(src Source) []int {
	dangers := make([]int, TowerFloors)
	for i := range dangers {
		dangers[i] = index(src, TowerColumns)
	}
	return dangers
}

// KenoDraw draws without replacement from 1..KenoPool, in draw order.
func KenoDraw(src Source) []int {
	pool := make([]int, KenoPool)
	for i := range pool {
		pool[i] = i + 1
	}
	drawn := make([]int, 0, KenoDraws)
	for i := 0; i < KenoDraws; i++ {
		idx := index(src, len(pool))
		drawn = append(drawn, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return drawn
}

func CountHits(picks, drawn []int) int {
	set := make(map[int]struct{}, len(drawn))
	for _, d := range drawn {
		set[d] = struct{}{}
	}
	hits := 0
	for _, p := range picks {
		if _, ok := set[p]; ok {
			hits++
		}
	}
	return hits
}
