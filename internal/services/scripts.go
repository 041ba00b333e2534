package services

import "github.com/redis/go-redis/v9"

// Every script that moves money checks the wallet first. Failures are raised
// with redis.error_reply and a code from scriptErrors.

const walletGuard = `
local function wallet_guard(w)
	if redis.call("EXISTS", w) == 0 then
		return "ACCOUNT_NOT_FOUND"
	end
	if redis.call("HGET", w, "is_banned") == "1" then
		return "ACCOUNT_BANNED"
	end
	return nil
end
`

const sessionGuard = `
local function session_guard(s, owner, game, version)
	if redis.call("EXISTS", s) == 0 then
		return "SESSION_NOT_FOUND"
	end
	local f = redis.call("HMGET", s, "owner_id", "game_type", "status", "version")
	if f[1] ~= owner then
		return "SESSION_FORBIDDEN"
	end
	if f[2] ~= game then
		return "SESSION_GAME"
	end
	if f[3] ~= "active" then
		return "SESSION_CLOSED"
	end
	if f[4] ~= version then
		return "SESSION_CONFLICT"
	end
	return nil
end
`

// KEYS: wallet, referral code index
// ARGV: account id, referral code, created at
var ensureAccountScript = redis.NewScript(`
	if redis.call("EXISTS", KEYS[1]) == 1 then
		return 0
	end
	if redis.call("EXISTS", KEYS[2]) == 1 then
		return redis.error_reply("CODE_TAKEN")
	end
	redis.call("HSET", KEYS[1],
		"id", ARGV[1],
		"balance", 0,
		"turnover", 0,
		"total_earnings", 0,
		"total_loss", 0,
		"bonus_balance", 0,
		"is_banned", 0,
		"referral_code", ARGV[2],
		"referred_by", "",
		"total_deposit", 0,
		"referral_bonus", 0,
		"created_at", ARGV[3])
	redis.call("SET", KEYS[2], ARGV[1])
	return 1
`)

// KEYS: wallet, bet history
// ARGV: bet, balance delta, earnings, loss, history entry
var settleBetScript = redis.NewScript(walletGuard + `
	local w = KEYS[1]
	local failed = wallet_guard(w)
	if failed then
		return redis.error_reply(failed)
	end

	local balance = tonumber(redis.call("HGET", w, "balance") or "0")
	if balance < tonumber(ARGV[1]) then
		return redis.error_reply("INSUFFICIENT_FUNDS")
	end

	redis.call("HINCRBY", w, "turnover", ARGV[1])
	redis.call("HINCRBY", w, "total_earnings", ARGV[3])
	redis.call("HINCRBY", w, "total_loss", ARGV[4])
	redis.call("RPUSH", KEYS[2], ARGV[5])
	return redis.call("HINCRBY", w, "balance", ARGV[2])
`)

// KEYS: wallet, session, owner active set, global active index
// ARGV: bet, negated bet, ttl seconds, session id, created at (unix ms),
// field/value pairs...
var openSessionScript = redis.NewScript(walletGuard + `
	local w = KEYS[1]
	local failed = wallet_guard(w)
	if failed then
		return redis.error_reply(failed)
	end

	local balance = tonumber(redis.call("HGET", w, "balance") or "0")
	if balance < tonumber(ARGV[1]) then
		return redis.error_reply("INSUFFICIENT_FUNDS")
	end

	redis.call("HSET", KEYS[2], unpack(ARGV, 6))
	redis.call("EXPIRE", KEYS[2], ARGV[3])
	redis.call("SADD", KEYS[3], ARGV[4])
	redis.call("EXPIRE", KEYS[3], ARGV[3])
	redis.call("ZADD", KEYS[4], ARGV[5], ARGV[4])

	redis.call("HINCRBY", w, "turnover", ARGV[1])
	return redis.call("HINCRBY", w, "balance", ARGV[2])
`)

// KEYS: session
// ARGV: owner, game, expected version, state
var advanceSessionScript = redis.NewScript(sessionGuard + `
	local failed = session_guard(KEYS[1], ARGV[1], ARGV[2], ARGV[3])
	if failed then
		return redis.error_reply(failed)
	end
	redis.call("HSET", KEYS[1], "state", ARGV[4])
	return redis.call("HINCRBY", KEYS[1], "version", 1)
`)

// KEYS: session, wallet, bet history, owner active set, global active index
// ARGV: owner, game, expected version, status, state, win, earnings, loss,
// multiplier, ended at, history entry, session id
var closeSessionScript = redis.NewScript(sessionGuard + `
	local s = KEYS[1]
	local w = KEYS[2]

	local failed = session_guard(s, ARGV[1], ARGV[2], ARGV[3])
	if failed then
		return redis.error_reply(failed)
	end
	if redis.call("EXISTS", w) == 0 then
		return redis.error_reply("ACCOUNT_NOT_FOUND")
	end

	redis.call("HSET", s,
		"status", ARGV[4],
		"state", ARGV[5],
		"win_amount", ARGV[6],
		"multiplier", ARGV[9],
		"ended_at", ARGV[10])
	redis.call("HINCRBY", s, "version", 1)

	redis.call("HINCRBY", w, "total_earnings", ARGV[7])
	redis.call("HINCRBY", w, "total_loss", ARGV[8])
	redis.call("RPUSH", KEYS[3], ARGV[11])
	redis.call("SREM", KEYS[4], ARGV[12])
	redis.call("ZREM", KEYS[5], ARGV[12])
	return redis.call("HINCRBY", w, "balance", ARGV[6])
`)

// KEYS: wallet, daily claim
// ARGV: amount, ttl seconds
var dailyBonusScript = redis.NewScript(walletGuard + `
	local w = KEYS[1]
	local failed = wallet_guard(w)
	if failed then
		return redis.error_reply(failed)
	end
	if redis.call("EXISTS", KEYS[2]) == 1 then
		return redis.error_reply("BONUS_CLAIMED")
	end

	redis.call("SET", KEYS[2], ARGV[1], "EX", ARGV[2])
	redis.call("HINCRBY", w, "bonus_balance", ARGV[1])
	return redis.call("HINCRBY", w, "balance", ARGV[1])
`)

// KEYS: claimant wallet, referrer wallet, pair claim, referrer claim counter
// ARGV: bonus, max claims, min deposit
var claimReferralScript = redis.NewScript(walletGuard + `
	local failed = wallet_guard(KEYS[1])
	if failed then
		return redis.error_reply(failed)
	end
	if redis.call("EXISTS", KEYS[2]) == 0 then
		return redis.error_reply("REFERRER_NOT_FOUND")
	end

	local deposit = tonumber(redis.call("HGET", KEYS[1], "total_deposit") or "0")
	if deposit < tonumber(ARGV[3]) then
		return redis.error_reply("DEPOSIT_TOO_LOW")
	end
	if redis.call("EXISTS", KEYS[3]) == 1 then
		return redis.error_reply("REFERRAL_CLAIMED")
	end
	local count = tonumber(redis.call("GET", KEYS[4]) or "0")
	if count >= tonumber(ARGV[2]) then
		return redis.error_reply("REFERRAL_LIMIT")
	end

	redis.call("SET", KEYS[3], ARGV[1])
	redis.call("INCR", KEYS[4])
	redis.call("HINCRBY", KEYS[2], "referral_bonus", ARGV[1])
	return redis.call("HINCRBY", KEYS[2], "balance", ARGV[1])
`)

// KEYS: next seed
// ARGV: replacement seed
var rotateSeedScript = redis.NewScript(`
	local prev = redis.call("GET", KEYS[1])
	redis.call("SET", KEYS[1], ARGV[1])
	return prev
`)

// KEYS: rate limit counter
// ARGV: window seconds
var rateLimitScript = redis.NewScript(`
	local count = redis.call("INCR", KEYS[1])
	if redis.call("TTL", KEYS[1]) < 0 then
		redis.call("EXPIRE", KEYS[1], ARGV[1])
	end
	return count
`)
