package ratelimit

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"

	"docqa/internal/domain"
)

const (
	DefaultMaxQueries    = 5
	DefaultMaxQueryChars = 500
)

// SessionLimiter caps the number of queries answered in one interactive
// session and the length of a single query, keeping API spend bounded.
// Supplying the admin password lifts the query cap for the session.
type SessionLimiter struct {
	mu            sync.Mutex
	maxQueries    int
	maxQueryChars int
	adminHash     string
	count         int
	admin         bool
}

// New creates a limiter. adminPasswordHash is the hex SHA-256 of the admin
// password; empty disables the admin bypass.
func New(maxQueries, maxQueryChars int, adminPasswordHash string) *SessionLimiter {
	if maxQueries <= 0 {
		maxQueries = DefaultMaxQueries
	}
	if maxQueryChars <= 0 {
		maxQueryChars = DefaultMaxQueryChars
	}
	return &SessionLimiter{
		maxQueries:    maxQueries,
		maxQueryChars: maxQueryChars,
		adminHash:     adminPasswordHash,
	}
}

// Check validates a query against the session budget and the length cap.
// It does not consume budget; call Record after the query is answered.
func (l *SessionLimiter) Check(query string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(query) > l.maxQueryChars {
		return fmt.Errorf("%w: query exceeds %d characters", domain.ErrInvalidQuery, l.maxQueryChars)
	}
	if !l.admin && l.count >= l.maxQueries {
		return fmt.Errorf("session limit of %d queries reached", l.maxQueries)
	}
	return nil
}

// Record consumes one query from the session budget.
func (l *SessionLimiter) Record() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.admin {
		l.count++
	}
}

// Remaining reports how many queries are left in the session; admins have no
// cap and always see the full budget.
func (l *SessionLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.admin {
		return l.maxQueries
	}
	left := l.maxQueries - l.count
	if left < 0 {
		left = 0
	}
	return left
}

// Admin reports whether the session is running uncapped.
func (l *SessionLimiter) Admin() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.admin
}

// Login lifts the session cap when password matches the configured hash.
func (l *SessionLimiter) Login(password string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.adminHash == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(HashPassword(password)), []byte(l.adminHash)) != 1 {
		return false
	}
	l.admin = true
	l.count = 0
	return true
}

// Reset starts a fresh session.
func (l *SessionLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count = 0
	l.admin = false
}

// HashPassword returns the hex SHA-256 of password, the format stored in the
// configuration file.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
