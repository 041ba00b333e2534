package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casino-settlement/internal/models"
)

func decode(t *testing.T, body string) (models.Action, error) {
	t.Helper()
	var req models.ActionRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req.Decode()
}

func TestDecodeActions(t *testing.T) {
	action, err := decode(t, `{"action":"dice","bet_amount":100,"target":50,"is_over":true}`)
	require.NoError(t, err)
	assert.Equal(t, models.Dice{BetAmount: 100, Target: 50, IsOver: true}, action)

	action, err = decode(t, `{"action":"mines_reveal","session_id":"abc","cell_index":7}`)
	require.NoError(t, err)
	assert.Equal(t, models.MinesReveal{SessionID: "abc", CellIndex: 7}, action)

	action, err = decode(t, `{"action":"keno","bet_amount":10,"picks":[1,2,3]}`)
	require.NoError(t, err)
	assert.Equal(t, models.Keno{BetAmount: 10, Picks: []int{1, 2, 3}}, action)

	action, err = decode(t, `{"action":"daily_bonus"}`)
	require.NoError(t, err)
	assert.Equal(t, models.ActionDailyBonus, action.Name())

	wager, ok := action.(models.Wager)
	assert.False(t, ok, "daily bonus does not stake funds")
	assert.Nil(t, wager)
}

func TestDecodeRejectsMalformedBodies(t *testing.T) {
	cases := map[string]string{
		"unknown action":      `{"action":"roulette","bet_amount":100}`,
		"missing action":      `{"bet_amount":100}`,
		"missing bet":         `{"action":"wheel"}`,
		"fractional bet":      `{"action":"wheel","bet_amount":10.5}`,
		"dice without side":   `{"action":"dice","bet_amount":100,"target":50}`,
		"missing session":     `{"action":"mines_cashout"}`,
		"empty session":       `{"action":"crash_lost","session_id":""}`,
		"fractional cell":     `{"action":"mines_reveal","session_id":"a","cell_index":1.5}`,
		"missing multiplier":  `{"action":"crash_cashout","session_id":"a"}`,
		"no picks":            `{"action":"keno","bet_amount":10,"picks":[]}`,
		"fractional pick":     `{"action":"keno","bet_amount":10,"picks":[1.25]}`,
		"tower without floor": `{"action":"tower_climb","session_id":"a","col_index":1}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decode(t, body)
			var reqErr *models.RequestError
			assert.ErrorAs(t, err, &reqErr)
		})
	}
}

func TestCalculatePayout(t *testing.T) {
	assert.Equal(t, int64(121), models.CalculatePayout(100, 1.21))
	assert.Equal(t, int64(115), models.CalculatePayout(100, 1.15))
	assert.Equal(t, int64(300), models.CalculatePayout(200, 1.5))
	assert.Equal(t, int64(4), models.CalculatePayout(15, 0.3))
	assert.Equal(t, int64(0), models.CalculatePayout(100, 0))
}

func TestNetResult(t *testing.T) {
	earnings, loss := models.NetResult(100, 121)
	assert.Equal(t, int64(21), earnings)
	assert.Equal(t, int64(0), loss)

	earnings, loss = models.NetResult(100, 50)
	assert.Equal(t, int64(0), earnings)
	assert.Equal(t, int64(50), loss)

	earnings, loss = models.NetResult(100, 100)
	assert.Zero(t, earnings)
	assert.Zero(t, loss)
}

func TestHiddenStateStaysSealed(t *testing.T) {
	secret := models.Hide(models.SessionSecret{
		ServerSeed: "seed",
		Crash:      &models.CrashState{CrashPoint: 2.5},
	})

	_, err := json.Marshal(secret)
	assert.Error(t, err)

	_, ok := secret.Reveal(models.SessionActive)
	assert.False(t, ok)

	revealed, ok := secret.Reveal(models.SessionLost)
	require.True(t, ok)
	assert.Equal(t, 2.5, revealed.Crash.CrashPoint)

	session := models.GameSession{ID: "s1", Status: models.SessionActive, Secret: secret}
	data, err := json.Marshal(session)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "2.5")
	assert.NotContains(t, string(data), "seed\"")
}

func TestActiveViewHidesMines(t *testing.T) {
	session := models.GameSession{
		ID:       "s1",
		GameType: models.GameTypeMines,
		Status:   models.SessionActive,
		Secret: models.Hide(models.SessionSecret{
			Mines: &models.MinesState{Mines: []int{3, 9}, MineCount: 2, Revealed: []int{4}},
		}),
	}

	view := session.ActiveView()
	assert.Equal(t, 2, view.MineCount)
	assert.Equal(t, []int{4}, view.Revealed)

	data, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "mines\"")
}
