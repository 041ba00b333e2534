package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"casino-settlement/internal/config"
	"casino-settlement/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisService struct {
	client     *redis.Client
	sessionTTL time.Duration
}

func NewRedisService(ctx context.Context, cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisServiceWithClient(client, cfg.SessionTTL), nil
}

func NewRedisServiceWithClient(client *redis.Client, sessionTTL time.Duration) *RedisService {
	if sessionTTL <= 0 {
		sessionTTL = TTLGameSession
	}
	return &RedisService{
		client:     client,
		sessionTTL: sessionTTL,
	}
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var errAccountMissing = errors.New("account not found")

func (s *RedisService) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	key := fmt.Sprintf(KeyWallet, accountID)

	cmd := s.client.HGetAll(ctx, key)
	fields, err := cmd.Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if len(fields) == 0 {
		return nil, errAccountMissing
	}

	var account models.Account
	if err := cmd.Scan(&account); err != nil {
		return nil, fmt.Errorf("failed to decode account: %w", err)
	}
	if ms, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		account.CreatedAt = time.UnixMilli(ms).UTC()
	}

	return &account, nil
}

// EnsureAccount returns the account, creating an empty one with a fresh
// referral code on first sight.
func (s *RedisService) EnsureAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.GetAccount(ctx, accountID)
	if !errors.Is(err, errAccountMissing) {
		return account, err
	}

	key := fmt.Sprintf(KeyWallet, accountID)
	for attempt := 0; attempt < 3; attempt++ {
		code := models.GenerateReferralCode()
		err = ensureAccountScript.Run(ctx, s.client,
			[]string{key, fmt.Sprintf(KeyReferralCode, code)},
			accountID, code, time.Now().UnixMilli(),
		).Err()
		if err == nil || !strings.Contains(err.Error(), "CODE_TAKEN") {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return s.GetAccount(ctx, accountID)
}

// ResolveReferralCode maps a referral code to the owning account id.
func (s *RedisService) ResolveReferralCode(ctx context.Context, code string) (string, error) {
	id, err := s.client.Get(ctx, fmt.Sprintf(KeyReferralCode, code)).Result()
	if err == redis.Nil {
		return "", ErrNoReferrer
	}
	if err != nil {
		return "", internal(fmt.Errorf("failed to resolve referral code: %w", err))
	}
	return id, nil
}

type SettleParams struct {
	AccountID string
	BetAmount int64
	WinAmount int64
	Entry     *models.BetHistoryEntry
}

// SettleBet debits the stake and credits the payout of a single step wager.
func (s *RedisService) SettleBet(ctx context.Context, p SettleParams) (int64, error) {
	entry, err := json.Marshal(p.Entry)
	if err != nil {
		return 0, internal(fmt.Errorf("failed to marshal history entry: %w", err))
	}

	earnings, loss := models.NetResult(p.BetAmount, p.WinAmount)
	balance, err := settleBetScript.Run(ctx, s.client,
		[]string{
			fmt.Sprintf(KeyWallet, p.AccountID),
			fmt.Sprintf(KeyBetHistory, p.AccountID),
		},
		p.BetAmount, p.WinAmount-p.BetAmount, earnings, loss, entry,
	).Int64()
	if err != nil {
		return 0, fromScript(err)
	}
	return balance, nil
}

// OpenSession debits the stake and stores the new session in one step.
func (s *RedisService) OpenSession(ctx context.Context, session *models.GameSession) (int64, error) {
	state, err := json.Marshal(session.Secret.Peek())
	if err != nil {
		return 0, internal(fmt.Errorf("failed to marshal session state: %w", err))
	}

	created := session.CreatedAt.UnixMilli()
	args := []interface{}{
		session.BetAmount,
		-session.BetAmount,
		int64(s.sessionTTL.Seconds()),
		session.ID,
		created,
		"id", session.ID,
		"owner_id", session.OwnerID,
		"game_type", string(session.GameType),
		"bet_amount", session.BetAmount,
		"status", string(models.SessionActive),
		"version", 0,
		"state", state,
		"server_seed_hash", session.ServerSeedHash,
		"win_amount", 0,
		"multiplier", 0,
		"created_at", created,
		"ended_at", 0,
	}

	balance, err := openSessionScript.Run(ctx, s.client,
		[]string{
			fmt.Sprintf(KeyWallet, session.OwnerID),
			fmt.Sprintf(KeyGameSession, session.ID),
			fmt.Sprintf(KeyUserActiveGames, session.OwnerID),
			KeyActiveSessions,
		},
		args...,
	).Int64()
	if err != nil {
		return 0, fromScript(err)
	}

	session.Status = models.SessionActive
	session.Version = 0
	return balance, nil
}

func (s *RedisService) GetGameSession(ctx context.Context, sessionID string) (*models.GameSession, error) {
	fields, err := s.client.HGetAll(ctx, fmt.Sprintf(KeyGameSession, sessionID)).Result()
	if err != nil {
		return nil, internal(fmt.Errorf("failed to get game session: %w", err))
	}
	if len(fields) == 0 {
		return nil, ErrSessionNotFound
	}
	return decodeSession(fields)
}

func decodeSession(fields map[string]string) (*models.GameSession, error) {
	var secret models.SessionSecret
	if err := json.Unmarshal([]byte(fields["state"]), &secret); err != nil {
		return nil, internal(fmt.Errorf("failed to decode session state: %w", err))
	}

	session := &models.GameSession{
		ID:             fields["id"],
		OwnerID:        fields["owner_id"],
		GameType:       models.GameType(fields["game_type"]),
		Status:         models.SessionStatus(fields["status"]),
		ServerSeedHash: fields["server_seed_hash"],
		Secret:         models.Hide(secret),
	}
	session.BetAmount, _ = strconv.ParseInt(fields["bet_amount"], 10, 64)
	session.Version, _ = strconv.ParseInt(fields["version"], 10, 64)
	session.WinAmount, _ = strconv.ParseInt(fields["win_amount"], 10, 64)
	session.Multiplier, _ = strconv.ParseFloat(fields["multiplier"], 64)

	if ms, _ := strconv.ParseInt(fields["created_at"], 10, 64); ms > 0 {
		session.CreatedAt = time.UnixMilli(ms).UTC()
	}
	if ms, _ := strconv.ParseInt(fields["ended_at"], 10, 64); ms > 0 {
		session.EndedAt = time.UnixMilli(ms).UTC()
	}

	return session, nil
}

// AdvanceSession stores the new secret state of a session that stays
// active. It fails if anything touched the session since it was read.
func (s *RedisService) AdvanceSession(ctx context.Context, session *models.GameSession) error {
	state, err := json.Marshal(session.Secret.Peek())
	if err != nil {
		return internal(fmt.Errorf("failed to marshal session state: %w", err))
	}

	version, err := advanceSessionScript.Run(ctx, s.client,
		[]string{fmt.Sprintf(KeyGameSession, session.ID)},
		session.OwnerID, string(session.GameType), session.Version, state,
	).Int64()
	if err != nil {
		return fromScript(err)
	}

	session.Version = version
	return nil
}

type CloseParams struct {
	Session    *models.GameSession
	Status     models.SessionStatus
	WinAmount  int64
	Multiplier float64
	EndedAt    time.Time
	Entry      *models.BetHistoryEntry
}

// CloseSession moves an active session to a terminal status and settles it.
func (s *RedisService) CloseSession(ctx context.Context, p CloseParams) (int64, error) {
	session := p.Session

	state, err := json.Marshal(session.Secret.Peek())
	if err != nil {
		return 0, internal(fmt.Errorf("failed to marshal session state: %w", err))
	}
	entry, err := json.Marshal(p.Entry)
	if err != nil {
		return 0, internal(fmt.Errorf("failed to marshal history entry: %w", err))
	}

	earnings, loss := models.NetResult(session.BetAmount, p.WinAmount)
	balance, err := closeSessionScript.Run(ctx, s.client,
		[]string{
			fmt.Sprintf(KeyGameSession, session.ID),
			fmt.Sprintf(KeyWallet, session.OwnerID),
			fmt.Sprintf(KeyBetHistory, session.OwnerID),
			fmt.Sprintf(KeyUserActiveGames, session.OwnerID),
			KeyActiveSessions,
		},
		session.OwnerID,
		string(session.GameType),
		session.Version,
		string(p.Status),
		state,
		p.WinAmount,
		earnings,
		loss,
		strconv.FormatFloat(p.Multiplier, 'f', -1, 64),
		p.EndedAt.UnixMilli(),
		entry,
		session.ID,
	).Int64()
	if err != nil {
		return 0, fromScript(err)
	}

	session.Status = p.Status
	session.Version++
	session.WinAmount = p.WinAmount
	session.Multiplier = p.Multiplier
	session.EndedAt = p.EndedAt
	return balance, nil
}

// GetUserActiveGames loads the owner's open sessions in one pipeline.
func (s *RedisService) GetUserActiveGames(ctx context.Context, ownerID string) ([]*models.GameSession, error) {
	ids, err := s.client.SMembers(ctx, fmt.Sprintf(KeyUserActiveGames, ownerID)).Result()
	if err != nil {
		return nil, internal(fmt.Errorf("failed to get active games: %w", err))
	}
	return s.bulkGetGameSessions(ctx, ids)
}

func (s *RedisService) bulkGetGameSessions(ctx context.Context, ids []string) ([]*models.GameSession, error) {
	if len(ids) == 0 {
		return []*models.GameSession{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, fmt.Sprintf(KeyGameSession, id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, internal(fmt.Errorf("pipeline execution failed: %w", err))
	}

	sessions := make([]*models.GameSession, 0, len(ids))
	for _, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		session, err := decodeSession(fields)
		if err != nil || session.Status != models.SessionActive {
			continue
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

// StaleSessionIDs lists active sessions created before the cutoff, oldest
// first.
func (s *RedisService) StaleSessionIDs(ctx context.Context, before time.Time, limit int64) ([]string, error) {
	ids, err := s.client.ZRangeByScore(ctx, KeyActiveSessions, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(before.UnixMilli(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, internal(fmt.Errorf("failed to list stale sessions: %w", err))
	}
	return ids, nil
}

// ForgetSession drops an index entry whose session hash already expired or
// closed.
func (s *RedisService) ForgetSession(ctx context.Context, sessionID string) error {
	return s.client.ZRem(ctx, KeyActiveSessions, sessionID).Err()
}

// GetBetHistory returns the most recent entries, newest first.
func (s *RedisService) GetBetHistory(ctx context.Context, ownerID string, limit int64) ([]*models.BetHistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	raw, err := s.client.LRange(ctx, fmt.Sprintf(KeyBetHistory, ownerID), -limit, -1).Result()
	if err != nil {
		return nil, internal(fmt.Errorf("failed to get bet history: %w", err))
	}

	entries := make([]*models.BetHistoryEntry, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var entry models.BetHistoryEntry
		if err := json.Unmarshal([]byte(raw[i]), &entry); err != nil {
			continue
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}

// ClaimDailyBonus credits the bonus unless a claim exists for the day.
func (s *RedisService) ClaimDailyBonus(ctx context.Context, accountID string, day time.Time, amount int64) (int64, error) {
	balance, err := dailyBonusScript.Run(ctx, s.client,
		[]string{
			fmt.Sprintf(KeyWallet, accountID),
			fmt.Sprintf(KeyDailyBonus, accountID, day.UTC().Format(time.DateOnly)),
		},
		amount, int64(TTLDailyBonus.Seconds()),
	).Int64()
	if err != nil {
		return 0, fromScript(err)
	}
	return balance, nil
}

type ReferralParams struct {
	ReferrerID string
	ReferredID string
	Bonus      int64
	MaxClaims  int64
	MinDeposit int64
}

// ClaimReferral records the pair claim and credits the referrer. It returns
// the referrer's new balance.
func (s *RedisService) ClaimReferral(ctx context.Context, p ReferralParams) (int64, error) {
	balance, err := claimReferralScript.Run(ctx, s.client,
		[]string{
			fmt.Sprintf(KeyWallet, p.ReferredID),
			fmt.Sprintf(KeyWallet, p.ReferrerID),
			fmt.Sprintf(KeyReferralClaim, p.ReferrerID, p.ReferredID),
			fmt.Sprintf(KeyReferralCount, p.ReferrerID),
		},
		p.Bonus, p.MaxClaims, p.MinDeposit,
	).Int64()
	if err != nil {
		return 0, fromScript(err)
	}
	return balance, nil
}

// CheckRateLimit counts one call in the current window. The counter and its
// expiry are set in one script.
func (s *RedisService) CheckRateLimit(ctx context.Context, accountID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, accountID, action)

	count, err := rateLimitScript.Run(ctx, s.client, []string{key}, int64(window.Seconds())).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return count <= int64(limit), nil
}

// NextSeed returns the seed committed for the account's next instant wager,
// committing fresh when none exists yet.
func (s *RedisService) NextSeed(ctx context.Context, accountID, fresh string) (string, error) {
	key := fmt.Sprintf(KeyNextSeed, accountID)
	if err := s.client.SetNX(ctx, key, fresh, 0).Err(); err != nil {
		return "", internal(fmt.Errorf("failed to commit next seed: %w", err))
	}
	seed, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return "", internal(fmt.Errorf("failed to read next seed: %w", err))
	}
	return seed, nil
}

// RotateSeed commits next and returns the seed committed before it, or ""
// when the account had none.
func (s *RedisService) RotateSeed(ctx context.Context, accountID, next string) (string, error) {
	prev, err := rotateSeedScript.Run(ctx, s.client, []string{fmt.Sprintf(KeyNextSeed, accountID)}, next).Text()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", internal(fmt.Errorf("failed to rotate seed: %w", err))
	}
	return prev, nil
}
