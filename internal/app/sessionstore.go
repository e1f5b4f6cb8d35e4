/**
 * @description
 * This file implements the process-wide session store. It holds at most one
 * active access credential, persists it so a restart does not log the user
 * out, and notifies subscribers whenever the credential changes.
 *
 * Key features:
 * - Set/Clear are the only mutation points: Set is called by the auth flow
 *   on successful login, Clear by logout and by the 401-triggered implicit
 *   logout. No other component touches the credential directly.
 * - The token's `exp` claim is inspected locally (unverified parse; the
 *   wallet service is the verifying party) so an expired credential is
 *   treated as logged out without waiting for an upstream 401.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: Expiry introspection of the access token.
 * - The internal store package supplies the persistence repository.
 */
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionRepository persists the single active credential across restarts.
type SessionRepository interface {
	Save(ctx context.Context, token string) error
	Load(ctx context.Context) (string, error)
	Delete(ctx context.Context) error
}

// SessionStore holds the dashboard's single active access credential.
type SessionStore struct {
	mu          sync.RWMutex
	token       string
	repo        SessionRepository
	logger      *slog.Logger
	subscribers []func(token string)
}

// NewSessionStore creates a session store. The repository may be nil, in
// which case the credential lives only in memory.
func NewSessionStore(repo SessionRepository, logger *slog.Logger) *SessionStore {
	return &SessionStore{repo: repo, logger: logger}
}

// Restore loads a previously persisted credential, discarding it when the
// token has already expired.
func (s *SessionStore) Restore(ctx context.Context) {
	if s.repo == nil {
		return
	}
	token, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to restore session", "error", err)
		return
	}
	if token == "" || tokenExpired(token) {
		return
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.logger.Info("session restored")
}

// Set stores the credential and notifies subscribers. Persistence failures
// are logged, not surfaced: the in-memory session is still valid.
func (s *SessionStore) Set(ctx context.Context, token string) {
	s.mu.Lock()
	s.token = token
	subscribers := append([]func(string){}, s.subscribers...)
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Save(ctx, token); err != nil {
			s.logger.Warn("failed to persist session", "error", err)
		}
	}
	for _, notify := range subscribers {
		notify(token)
	}
}

// Clear removes the credential and notifies subscribers. All wallet views
// treat the session as unauthenticated afterwards.
func (s *SessionStore) Clear(ctx context.Context) {
	s.mu.Lock()
	cleared := s.token != ""
	s.token = ""
	subscribers := append([]func(string){}, s.subscribers...)
	s.mu.Unlock()

	if !cleared {
		return
	}
	if s.repo != nil {
		if err := s.repo.Delete(ctx); err != nil {
			s.logger.Warn("failed to delete persisted session", "error", err)
		}
	}
	for _, notify := range subscribers {
		notify("")
	}
}

// Token returns the active credential. ok is false when there is no
// credential or the token has expired.
func (s *SessionStore) Token() (string, bool) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" || tokenExpired(token) {
		return "", false
	}
	return token, true
}

// Subscribe registers a callback invoked with the new token on every Set
// and with an empty string on every Clear.
func (s *SessionStore) Subscribe(fn func(token string)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// tokenExpired inspects the exp claim without verifying the signature.
// Opaque tokens parse-fail and are passed through; the upstream remains
// the authority and will answer 401 if the token is bad.
func tokenExpired(token string) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
