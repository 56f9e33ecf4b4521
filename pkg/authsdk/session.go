package authsdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Session holds a subject's tokens and rotates the access token when the
// service reports it expired.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	subjectID    string
	accessToken  string
	refreshToken string
}

func newSession(client *SDKClient, resp *LoginResponse) *Session {
	return &Session{
		client:       client,
		subjectID:    resp.SubjectID,
		accessToken:  resp.AccessToken,
		refreshToken: resp.RefreshToken,
	}
}

// SubjectID returns the subject the session belongs to.
func (s *Session) SubjectID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subjectID
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the refresh token issued at login.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Refresh presents the current tokens to /refresh_token and keeps whatever
// access token comes back. It reports whether a new one was minted.
func (s *Session) Refresh(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.client.RefreshToken(ctx, s.accessToken, s.refreshToken)
	if err != nil {
		return false, fmt.Errorf("failed to refresh token: %w", err)
	}
	s.accessToken = resp.AccessToken
	return resp.Rotated, nil
}

// Info returns the claims of the session's access token, rotating it once
// if the service rejects it.
func (s *Session) Info(ctx context.Context) (*SessionInfoResponse, error) {
	info, err := s.client.SessionInfo(ctx, s.AccessToken())
	if !errors.Is(err, ErrInvalidToken) {
		return info, err
	}

	if _, err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s.client.SessionInfo(ctx, s.AccessToken())
}

// Logout ends the session on the service.
func (s *Session) Logout(ctx context.Context) error {
	_, err := s.client.Logout(ctx, s.AccessToken())
	return err
}
