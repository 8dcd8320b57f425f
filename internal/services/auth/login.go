package auth

import (
	"context"
	"fmt"
	"log"
	"strings"

	supabase "github.com/supabase-community/supabase-go"
)

// Session is a signed-in operator session
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	User         *UserInfo `json:"user"`
}

// PasswordLogin exchanges operator credentials for a session
type PasswordLogin interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// GoTrueLogin signs operators in through Supabase Auth
type GoTrueLogin struct {
	projectURL string
	anonKey    string
}

var _ PasswordLogin = (*GoTrueLogin)(nil)

// NewGoTrueLogin creates a login client for a Supabase project
func NewGoTrueLogin(projectURL, anonKey string) (*GoTrueLogin, error) {
	if projectURL == "" || anonKey == "" {
		return nil, fmt.Errorf("supabase url and anon key are required for login")
	}
	return &GoTrueLogin{projectURL: strings.TrimRight(projectURL, "/"), anonKey: anonKey}, nil
}

// client returns a fresh client per call since a client carries one user's session
func (g *GoTrueLogin) client() (*supabase.Client, error) {
	client, err := supabase.NewClient(g.projectURL, g.anonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase client: %w", err)
	}
	return client, nil
}

// SignIn performs a password grant
func (g *GoTrueLogin) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	client, err := g.client()
	if err != nil {
		return nil, err
	}

	resp, err := client.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		if isCredentialError(err) {
			log.Printf("[WARN] Failed sign-in for %s", email)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("signing in: %w", err)
	}

	log.Printf("[INFO] Operator %s signed in", resp.User.Email)
	return &Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		ExpiresIn:    resp.ExpiresIn,
		User: &UserInfo{
			ID:    resp.User.ID.String(),
			Email: resp.User.Email,
			Role:  "operator",
		},
	}, nil
}

// SignOut revokes the session's refresh tokens
func (g *GoTrueLogin) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	client, err := g.client()
	if err != nil {
		return err
	}
	if err := client.Auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("signing out: %w", err)
	}
	return nil
}

// isCredentialError recognizes GoTrue's rejection of a password grant
func isCredentialError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid_grant") ||
		strings.Contains(msg, "Invalid login credentials") ||
		strings.Contains(msg, "status code 400")
}
