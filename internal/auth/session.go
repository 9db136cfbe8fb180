package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/paper-trader/internal/cache"
	"github.com/hongminglow/paper-trader/internal/errs"
	"github.com/hongminglow/paper-trader/internal/logging"
	"github.com/hongminglow/paper-trader/internal/models"
)

const sessionKeyPrefix = "session:"

// Session is the server-side record of a login.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionManager pairs signed tokens with records in a cache.Store so that a
// logout revokes the token before it expires.
type SessionManager struct {
	tokens *TokenManager
	store  cache.Store
	ttl    time.Duration
}

func NewSessionManager(tokens *TokenManager, store cache.Store, ttl time.Duration) *SessionManager {
	return &SessionManager{tokens: tokens, store: store, ttl: ttl}
}

// TTL is the lifetime of new sessions.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Start opens a session for user and returns its opaque token.
func (m *SessionManager) Start(ctx context.Context, user models.User) (string, Session, error) {
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.Set(ctx, sessionKeyPrefix+sess.ID, sess, m.ttl); err != nil {
		return "", Session{}, fmt.Errorf("store session: %w", err)
	}
	token, err := m.tokens.Generate(sess)
	if err != nil {
		_ = m.store.Delete(ctx, sessionKeyPrefix+sess.ID)
		return "", Session{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, sess, nil
}

// Resolve maps a token to the identity it was issued for. Bad signatures,
// expired tokens and revoked sessions all fail as unauthenticated.
func (m *SessionManager) Resolve(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, errs.Unauthenticated("login required")
	}
	claims, err := m.tokens.Parse(token)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Debug("rejected session token")
		return Identity{}, errs.Unauthenticated("login required")
	}

	var sess Session
	if err := m.store.Get(ctx, sessionKeyPrefix+claims.ID, &sess); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			return Identity{}, fmt.Errorf("load session: %w", err)
		}
		return Identity{}, errs.Unauthenticated("session expired")
	}
	uid, err := claims.UserID()
	if err != nil || uid != sess.UserID {
		return Identity{}, errs.Unauthenticated("login required")
	}
	return Identity{UserID: sess.UserID, Username: sess.Username, SessionID: sess.ID}, nil
}

// End revokes the session named by token. Unknown or malformed tokens are
// ignored.
func (m *SessionManager) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := m.tokens.ParseUnverifiedExpiry(token)
	if err != nil {
		return nil
	}
	if err := m.store.Delete(ctx, sessionKeyPrefix+claims.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
