package session

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nickolasww/nutriday/internal/store"
	"github.com/nickolasww/nutriday/pkg/logger"
)

// ErrNoToken means no credential is stored for this session.
var ErrNoToken = errors.New("no stored credential")

// Session is the process-wide credential context. It is the only component
// allowed to read or clear the stored auth token; the ledger clears it
// through this type when the server rejects a credential.
type Session struct {
	db  *sql.DB
	log *logger.Logger
}

func New(db *sql.DB, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	return &Session{db: db, log: log}
}

// Token returns the stored bearer credential. An expired JWT is still
// returned with a warning; the server's 401 stays authoritative.
func (s *Session) Token() (string, error) {
	value, ok, err := store.Value(s.db, store.KeyAuthToken)
	if err != nil {
		return "", err
	}
	if !ok || value == "" {
		return "", ErrNoToken
	}
	if expiredAt, expired := tokenExpiry(value); expired {
		s.log.Warnw("stored credential is past its expiry", "expired_at", expiredAt.Format(time.RFC3339))
	}
	return value, nil
}

func (s *Session) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is required")
	}
	if expiredAt, expired := tokenExpiry(token); expired {
		s.log.Warnw("saving an already-expired credential", "expired_at", expiredAt.Format(time.RFC3339))
	}
	return store.SetValue(s.db, store.KeyAuthToken, token)
}

// Clear removes the stored credential. Idempotent.
func (s *Session) Clear() error {
	return store.DeleteValue(s.db, store.KeyAuthToken)
}

// tokenExpiry inspects the JWT exp claim without verifying the signature
// (the client holds no key). Opaque non-JWT tokens report no expiry.
func tokenExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, exp.Time.Before(time.Now())
}
