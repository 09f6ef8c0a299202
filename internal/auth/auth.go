package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Auth state change events delivered to registered listeners.
const (
	EventSignedIn  = "SIGNED_IN"
	EventSignedOut = "SIGNED_OUT"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Provider is the external identity collaborator. Session.User.ID is the
// owner id that scopes every product and sale record.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	CurrentSession(ctx context.Context, accessToken string) (*Session, error)
	OnAuthStateChange(fn ListenerFunc)
}

type ListenerFunc func(event string, session *Session)

// listeners is a small in-process fan-out for auth state changes.
type listeners struct {
	mu  sync.RWMutex
	fns []ListenerFunc
}

func (l *listeners) add(fn ListenerFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fns = append(l.fns, fn)
}

func (l *listeners) notify(event string, session *Session) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, fn := range l.fns {
		fn(event, session)
	}
}
