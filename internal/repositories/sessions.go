package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/scorify/internal/shared"
	"golang.org/x/oauth2"
)

// Session binds an access/refresh token pair to a user.
//
// The access token is what travels in the session cookie; the refresh token never leaves the server.
type Session struct {
	UserID    string
	Token     *oauth2.Token
	CreatedAt time.Time
}

// Expired reports whether the access token can no longer be used.
func (s *Session) Expired() bool {
	return !s.Token.Valid()
}

// Refreshable reports whether a new access token may be issued.
func (s *Session) Refreshable() bool {
	return s.Token.RefreshToken != ""
}

// SessionRepository stores sessions keyed by access token.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create opens a session for userID whose access token lives for ttl.
func (r *SessionRepository) Create(ctx context.Context, userID string, ttl time.Duration) (*Session, error) {
	now := time.Now()
	s := &Session{
		UserID:    userID,
		CreatedAt: now,
		Token: &oauth2.Token{
			AccessToken:  shared.GenerateID(),
			RefreshToken: shared.GenerateID(),
			TokenType:    "Bearer",
			Expiry:       now.Add(ttl),
		},
	}

	query := `
		INSERT INTO sessions (token, user_id, refresh_token, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, s.Token.AccessToken, userID, s.Token.RefreshToken, s.Token.Expiry.UTC(), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	return s, nil
}

// Get looks a session up by access token, expired or not.
func (r *SessionRepository) Get(ctx context.Context, accessToken string) (*Session, error) {
	query := `
		SELECT token, user_id, refresh_token, expires_at, created_at
		FROM sessions
		WHERE token = ?
	`

	var (
		s         Session
		token     oauth2.Token
		expiresAt time.Time
	)

	err := r.db.QueryRowContext(ctx, query, accessToken).Scan(&token.AccessToken, &s.UserID, &token.RefreshToken, &expiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	token.TokenType = "Bearer"
	token.Expiry = expiresAt
	s.Token = &token
	return &s, nil
}

// Rotate replaces the session's access token with a fresh one living for ttl. The refresh token is kept.
func (r *SessionRepository) Rotate(ctx context.Context, s *Session, ttl time.Duration) (*Session, error) {
	if !s.Refreshable() {
		return nil, fmt.Errorf("%w: refresh token not found", shared.ErrRefreshFailed)
	}

	next := &oauth2.Token{
		AccessToken:  shared.GenerateID(),
		RefreshToken: s.Token.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(ttl),
	}

	query := `
		UPDATE sessions
		SET token = ?, expires_at = ?
		WHERE token = ? AND refresh_token = ?
	`

	result, err := r.db.ExecContext(ctx, query, next.AccessToken, next.Expiry.UTC(), s.Token.AccessToken, s.Token.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil || n == 0 {
		return nil, fmt.Errorf("%w: session no longer exists", shared.ErrRefreshFailed)
	}

	return &Session{UserID: s.UserID, Token: next, CreatedAt: s.CreatedAt}, nil
}

// Expire backdates the access token so the next request has to refresh.
func (r *SessionRepository) Expire(ctx context.Context, accessToken string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE sessions SET expires_at = ? WHERE token = ?", time.Unix(0, 0).UTC(), accessToken)
	if err != nil {
		return fmt.Errorf("failed to expire session: %w", err)
	}
	return nil
}

// Revoke drops the refresh token so the session can no longer be recovered.
func (r *SessionRepository) Revoke(ctx context.Context, accessToken string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE sessions SET refresh_token = '' WHERE token = ?", accessToken)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// Delete removes the session.
func (r *SessionRepository) Delete(ctx context.Context, accessToken string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", accessToken); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
