// File: internal/session/provider.go
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"minitorque_web/internal/auth"
	"minitorque_web/internal/config"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// ErrAlreadyStarted is returned by Start when the subscription is already registered.
var ErrAlreadyStarted = errors.New("session provider already started")

// Session is the signed-in user as seen by the views.
type Session struct {
	UserID      string
	DisplayName string
	Email       string
}

// State is what a browser session currently knows about its user.
// Loading is true until the initial session check has completed.
type State struct {
	Session *Session
	Loading bool
}

// SignedIn reports whether a session is present.
func (s State) SignedIn() bool {
	return s.Session != nil
}

// Active is a signed-in slot, as handed to the revalidation job.
type Active struct {
	SessionID string
	UserID    string
	Token     string
}

// AuthClient is the subset of the auth client the provider depends on.
type AuthClient interface {
	OnAuthStateChanged(fn func(auth.Change)) (unsubscribe func())
	Restore(ctx context.Context, sid, token string)
}

type slot struct {
	state State
	token string
}

// Provider keeps one state slot per browser session. Slots are only written by the
// auth-state subscription registered in Start.
type Provider struct {
	client AuthClient
	slots  *cache.Cache
	logger *zap.Logger

	mu          sync.Mutex // guards unsubscribe and the restore check
	unsubscribe func()
}

// NewProvider creates a session provider. Slots expire after the session lifetime.
func NewProvider(client AuthClient, cfg *config.Config, logger *zap.Logger) *Provider {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Provider{
		client: client,
		slots:  cache.New(ttl, 10*time.Minute),
		logger: logger.Named("SessionProvider"),
	}
}

// Start registers the single auth-state subscription.
func (p *Provider) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unsubscribe != nil {
		return ErrAlreadyStarted
	}
	p.unsubscribe = p.client.OnAuthStateChanged(p.apply)
	p.logger.Info("Session provider subscribed to auth-state changes")
	return nil
}

// Close unregisters the subscription. It is safe to call more than once.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unsubscribe == nil {
		return
	}
	p.unsubscribe()
	p.unsubscribe = nil
	p.logger.Info("Session provider unsubscribed from auth-state changes")
}

func (p *Provider) apply(change auth.Change) {
	switch {
	case change.Released:
		p.slots.Delete(change.SessionID)
	case change.Pending:
		p.slots.SetDefault(change.SessionID, slot{state: State{Loading: true}})
	case change.Identity != nil:
		p.slots.SetDefault(change.SessionID, slot{
			state: State{Session: &Session{
				UserID:      change.Identity.UID,
				DisplayName: change.Identity.DisplayName,
				Email:       change.Identity.Email,
			}},
			token: change.Token,
		})
	default:
		// Kept as an explicit empty slot so a stale token cookie is not restored again.
		p.slots.SetDefault(change.SessionID, slot{})
	}
	p.logger.Debug("Session slot updated",
		zap.String("sid", change.SessionID),
		zap.Bool("loading", change.Pending),
		zap.Bool("signedIn", change.Identity != nil),
		zap.Bool("released", change.Released))
}

// Current returns the state for sid. A token with no slot behind it (for example after
// a restart) starts a restore, and the state reads as loading until it finishes. Only
// session ids this server could have issued are restored.
func (p *Provider) Current(ctx context.Context, sid, token string) State {
	if s, ok := p.lookup(sid); ok {
		return s.state
	}
	if token == "" || !ValidSessionID(sid) {
		return State{}
	}

	p.mu.Lock()
	_, ok := p.lookup(sid)
	if !ok {
		p.client.Restore(ctx, sid, token)
	}
	p.mu.Unlock()

	s, _ := p.lookup(sid)
	return s.state
}

func (p *Provider) lookup(sid string) (slot, bool) {
	if sid == "" {
		return slot{}, false
	}
	v, ok := p.slots.Get(sid)
	if !ok {
		return slot{}, false
	}
	return v.(slot), true
}

// Active lists the signed-in slots.
func (p *Provider) Active() []Active {
	var out []Active
	for sid, item := range p.slots.Items() {
		s := item.Object.(slot)
		if s.state.Session == nil {
			continue
		}
		out = append(out, Active{SessionID: sid, UserID: s.state.Session.UserID, Token: s.token})
	}
	return out
}

// Count returns the number of signed-in slots.
func (p *Provider) Count() int {
	return len(p.Active())
}
