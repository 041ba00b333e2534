package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casino-settlement/internal/models"
	"casino-settlement/internal/services"
)

func newStore(t *testing.T) (*services.RedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return services.NewRedisServiceWithClient(client, time.Hour), mr
}

func minesSession(owner string, bet int64, created time.Time) *models.GameSession {
	return &models.GameSession{
		ID:             models.GenerateSessionID(),
		OwnerID:        owner,
		GameType:       models.GameTypeMines,
		BetAmount:      bet,
		ServerSeedHash: services.HashSeed("seed"),
		CreatedAt:      created,
		Secret: models.Hide(models.SessionSecret{
			ServerSeed: "seed",
			Mines:      &models.MinesState{Mines: []int{1, 2, 3}, MineCount: 3, Revealed: []int{}},
		}),
	}
}

func TestEnsureAccountIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	first, err := store.EnsureAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, first.Balance)
	require.NotEmpty(t, first.ReferralCode)

	again, err := store.EnsureAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ReferralCode, again.ReferralCode)

	owner, err := store.ResolveReferralCode(ctx, first.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	_, err = store.ResolveReferralCode(ctx, "NOPE")
	assert.ErrorIs(t, err, services.ErrNoReferrer)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	_, err := store.EnsureAccount(ctx, "alice")
	require.NoError(t, err)
	mr.HSet("wallet:alice", "balance", "500")

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := minesSession("alice", 100, created)

	balance, err := store.OpenSession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, int64(400), balance)
	assert.Equal(t, time.Hour, mr.TTL("game:session:"+session.ID))

	loaded, err := store.GetGameSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.OwnerID)
	assert.Equal(t, models.SessionActive, loaded.Status)
	assert.Equal(t, created, loaded.CreatedAt)
	assert.Equal(t, []int{1, 2, 3}, loaded.Secret.Peek().Mines.Mines)

	loaded.Secret.Peek().Mines.Revealed = []int{7}
	require.NoError(t, store.AdvanceSession(ctx, loaded))
	assert.Equal(t, int64(1), loaded.Version)

	// session still carries version 0
	assert.ErrorIs(t, store.AdvanceSession(ctx, session), services.ErrSessionConflict)

	active, err := store.GetUserActiveGames(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, active, 1)

	balance, err = store.CloseSession(ctx, services.CloseParams{
		Session:    loaded,
		Status:     models.SessionCompleted,
		WinAmount:  150,
		Multiplier: 1.5,
		EndedAt:    created.Add(time.Minute),
		Entry: &models.BetHistoryEntry{
			ID: "h1", OwnerID: "alice", GameType: models.GameTypeMines,
			SessionID: loaded.ID, BetAmount: 100, WinAmount: 150, Multiplier: 1.5,
			Result: models.BetResultWin,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(550), balance)
	assert.Equal(t, models.SessionCompleted, loaded.Status)

	_, err = store.CloseSession(ctx, services.CloseParams{Session: loaded, Status: models.SessionLost})
	assert.ErrorIs(t, err, services.ErrSessionClosed)

	active, err = store.GetUserActiveGames(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, active)

	account, err := store.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(550), account.Balance)
	assert.Equal(t, int64(100), account.Turnover)
	assert.Equal(t, int64(50), account.TotalEarnings)
}

func TestOpenSessionWithoutFundsWritesNothing(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	_, err := store.EnsureAccount(ctx, "alice")
	require.NoError(t, err)

	session := minesSession("alice", 100, time.Now())
	_, err = store.OpenSession(ctx, session)
	assert.ErrorIs(t, err, services.ErrInsufficientFunds)

	assert.False(t, mr.Exists("game:session:"+session.ID))
	assert.False(t, mr.Exists("user:alice:active_games"))
	assert.False(t, mr.Exists("game:active"))
}

func TestSessionGuards(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	_, err := store.EnsureAccount(ctx, "alice")
	require.NoError(t, err)
	mr.HSet("wallet:alice", "balance", "500")

	session := minesSession("alice", 100, time.Now())
	_, err = store.OpenSession(ctx, session)
	require.NoError(t, err)

	stolen := *session
	stolen.OwnerID = "bob"
	assert.ErrorIs(t, store.AdvanceSession(ctx, &stolen), services.ErrSessionForbidden)

	wrong := *session
	wrong.GameType = models.GameTypeTower
	assert.ErrorIs(t, store.AdvanceSession(ctx, &wrong), services.ErrWrongGame)

	_, err = store.GetGameSession(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
}

func TestSettleBetAndHistoryOrder(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	_, err := store.EnsureAccount(ctx, "alice")
	require.NoError(t, err)
	mr.HSet("wallet:alice", "balance", "1000")

	for i, win := range []int64{0, 300, 50} {
		_, err := store.SettleBet(ctx, services.SettleParams{
			AccountID: "alice",
			BetAmount: 100,
			WinAmount: win,
			Entry: &models.BetHistoryEntry{
				ID: string(rune('a' + i)), OwnerID: "alice", GameType: models.GameTypeDice,
				BetAmount: 100, WinAmount: win, Result: models.ResultOf(win),
			},
		})
		require.NoError(t, err)
	}

	account, err := store.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1050), account.Balance)
	assert.Equal(t, int64(300), account.Turnover)
	assert.Equal(t, int64(200), account.TotalEarnings)
	assert.Equal(t, int64(150), account.TotalLoss)

	history, err := store.GetBetHistory(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "c", history[0].ID)
	assert.Equal(t, "b", history[1].ID)

	history, err = store.GetBetHistory(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	_, err = store.SettleBet(ctx, services.SettleParams{AccountID: "alice", BetAmount: 5000, Entry: &models.BetHistoryEntry{}})
	assert.ErrorIs(t, err, services.ErrInsufficientFunds)

	_, err = store.SettleBet(ctx, services.SettleParams{AccountID: "ghost", BetAmount: 10, Entry: &models.BetHistoryEntry{}})
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
}

func TestStaleSessionIDs(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	_, err := store.EnsureAccount(ctx, "alice")
	require.NoError(t, err)
	mr.HSet("wallet:alice", "balance", "500")

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	old := minesSession("alice", 10, base)
	fresh := minesSession("alice", 10, base.Add(2*time.Hour))
	for _, s := range []*models.GameSession{old, fresh} {
		_, err := store.OpenSession(ctx, s)
		require.NoError(t, err)
	}

	ids, err := store.StaleSessionIDs(ctx, base.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{old.ID}, ids)

	require.NoError(t, store.ForgetSession(ctx, old.ID))
	ids, err = store.StaleSessionIDs(ctx, base.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCheckRateLimit(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	for i := 0; i < 3; i++ {
		allowed, err := store.CheckRateLimit(ctx, "alice", "place-bet", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := store.CheckRateLimit(ctx, "alice", "place-bet", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	mr.FastForward(time.Minute + time.Second)
	allowed, err = store.CheckRateLimit(ctx, "alice", "place-bet", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestBetHistoryLimitIsCapped(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	for i := 0; i < services.MaxHistoryLimit+20; i++ {
		_, err := mr.Lpush("user:alice:bet_history", `{"id":"x"}`)
		require.NoError(t, err)
	}

	history, err := store.GetBetHistory(ctx, "alice", 500)
	require.NoError(t, err)
	assert.Len(t, history, services.MaxHistoryLimit)

	history, err = store.GetBetHistory(ctx, "alice", -1)
	require.NoError(t, err)
	assert.Len(t, history, services.DefaultHistoryLimit)
}

func TestRateLimitCounterWithoutExpiryHeals(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	require.NoError(t, mr.Set("ratelimit:alice:place-bet", "99"))

	allowed, err := store.CheckRateLimit(ctx, "alice", "place-bet", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:alice:place-bet"))

	mr.FastForward(time.Minute + time.Second)
	allowed, err = store.CheckRateLimit(ctx, "alice", "place-bet", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestSeedRotation(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	prev, err := store.RotateSeed(ctx, "alice", "first")
	require.NoError(t, err)
	assert.Empty(t, prev)

	committed, err := store.NextSeed(ctx, "alice", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "first", committed)

	prev, err = store.RotateSeed(ctx, "alice", "second")
	require.NoError(t, err)
	assert.Equal(t, "first", prev)

	committed, err = store.NextSeed(ctx, "bob", "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", committed)
}
