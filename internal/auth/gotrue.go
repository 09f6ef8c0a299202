package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// GoTrueProvider talks to a GoTrue-compatible hosted auth API.
type GoTrueProvider struct {
	client    *resty.Client
	anonKey   string
	listeners listeners
}

func NewGoTrueProvider(baseURL, anonKey string) *GoTrueProvider {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)

	return &GoTrueProvider{
		client:  client,
		anonKey: anonKey,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

type apiError struct {
	Message          string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

func (e *apiError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorDescription
}

func (p *GoTrueProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var body tokenResponse
	var errBody apiError

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("apikey", p.anonKey).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&body).
		SetError(&errBody).
		Post("/token")
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("sign in: %s", errBody.text())
	}

	session := sessionFromToken(&body)
	p.listeners.notify(EventSignedIn, session)
	return session, nil
}

func (p *GoTrueProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var body tokenResponse
	var errBody apiError

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("apikey", p.anonKey).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&body).
		SetError(&errBody).
		Post("/signup")
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("sign up: %s", errBody.text())
	}

	session := sessionFromToken(&body)
	p.listeners.notify(EventSignedIn, session)
	return session, nil
}

func (p *GoTrueProvider) SignOut(ctx context.Context, accessToken string) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("apikey", p.anonKey).
		SetAuthToken(accessToken).
		Post("/logout")
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if resp.IsError() && resp.StatusCode() != 401 {
		return fmt.Errorf("sign out: status %d", resp.StatusCode())
	}

	p.listeners.notify(EventSignedOut, nil)
	return nil
}

func (p *GoTrueProvider) CurrentSession(ctx context.Context, accessToken string) (*Session, error) {
	var user User

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("apikey", p.anonKey).
		SetAuthToken(accessToken).
		SetResult(&user).
		Get("/user")
	if err != nil {
		return nil, fmt.Errorf("current session: %w", err)
	}
	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		return nil, ErrInvalidToken
	}
	if resp.IsError() {
		return nil, fmt.Errorf("current session: status %d", resp.StatusCode())
	}

	return &Session{AccessToken: accessToken, User: user}, nil
}

func (p *GoTrueProvider) OnAuthStateChange(fn ListenerFunc) {
	p.listeners.add(fn)
}

func sessionFromToken(t *tokenResponse) *Session {
	return &Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(t.ExpiresIn) * time.Second),
		User:         t.User,
	}
}
