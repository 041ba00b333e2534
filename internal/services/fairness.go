package services

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"casino-settlement/internal/models"
)

// Source yields uniform values in [0, 1).
type Source interface {
	Float64() float64
}

// SourceFactory builds the source used to resolve one wager.
type SourceFactory func(serverSeed string, game models.GameType) Source

// NewServerSeed returns a fresh 32 byte seed, hex encoded.
func NewServerSeed() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate server seed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashSeed is the commitment published before a wager resolves.
func HashSeed(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(sum[:])
}

// SeedSource expands a server seed into a stream of floats. Round n is
// HMAC-SHA256(seed, "{game}:{n}"); each digest yields eight floats.
type SeedSource struct {
	key   []byte
	game  models.GameType
	round int
	buf   []byte
}

func NewSeedSource(serverSeed string, game models.GameType) Source {
	return &SeedSource{key: []byte(serverSeed), game: game}
}

func (s *SeedSource) Float64() float64 {
	if len(s.buf) < 4 {
		h := hmac.New(sha256.New, s.key)
		fmt.Fprintf(h, "%s:%d", s.game, s.round)
		s.buf = h.Sum(nil)
		s.round++
	}
	n := binary.BigEndian.Uint32(s.buf[:4])
	s.buf = s.buf[4:]
	return float64(n) / (1 << 32)
}
