package database

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// Session is the payload kept in Redis for a browser session
type Session struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore resolves session ids to usernames. Logging in is handled elsewhere,
// this service only reads sessions, except for operator tooling.
type SessionStore struct {
	client redis.UniversalClient
}

// NewSessionStore wraps a Redis client
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client}
}

// Create stores a new session for username and returns its id
func (s *SessionStore) Create(ctx context.Context, username string, ttl time.Duration) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("session store unavailable")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("username required")
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	sid := hex.EncodeToString(b)

	payload, err := json.Marshal(Session{Username: username, CreatedAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+sid, payload, ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return sid, nil
}

// Username returns the username bound to sid, or "" when the session does not exist
func (s *SessionStore) Username(ctx context.Context, sid string) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("session store unavailable")
	}
	sid = strings.TrimSpace(sid)
	if sid == "" {
		return "", nil
	}
	data, err := s.client.Get(ctx, sessionKeyPrefix+sid).Bytes()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return "", fmt.Errorf("decode session: %w", err)
	}
	return session.Username, nil
}

// Destroy removes the session
func (s *SessionStore) Destroy(ctx context.Context, sid string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Del(ctx, sessionKeyPrefix+sid).Err()
}
