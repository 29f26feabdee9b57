// Package authtest provides in-memory fakes of the auth provider and profile store.
package authtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"minitorque_web/internal/auth"
	"minitorque_web/internal/common"
	"minitorque_web/internal/profile"

	"github.com/stretchr/testify/mock"
)

// Messages returned by the fake provider.
const (
	MsgInvalidPassword = "INVALID_PASSWORD"
	MsgEmailExists     = "EMAIL_EXISTS"
	MsgInvalidSession  = "INVALID_SESSION_COOKIE"
)

type account struct {
	identity auth.Identity
	password string
}

// Provider is a stateful fake auth.Provider. Every call is recorded on the embedded
// mock.Mock, so tests assert on calls with AssertNumberOfCalls and AssertNotCalled.
type Provider struct {
	mock.Mock

	mu       sync.Mutex
	accounts map[string]*account // by email
	sessions map[string]string   // session token -> uid
	revoked  map[string]bool
	nextUID  int

	// VerifyGate, when set, blocks VerifySessionToken until it is closed.
	VerifyGate chan struct{}
}

var _ auth.Provider = (*Provider)(nil)

// NewProvider creates an empty fake provider that accepts every call.
func NewProvider() *Provider {
	p := &Provider{
		accounts: make(map[string]*account),
		sessions: make(map[string]string),
		revoked:  make(map[string]bool),
	}
	p.On("SignInWithPassword", mock.Anything, mock.Anything, mock.Anything).Return()
	p.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything).Return()
	p.On("UpdateDisplayName", mock.Anything, mock.Anything, mock.Anything).Return()
	p.On("CreateSessionToken", mock.Anything, mock.Anything, mock.Anything).Return()
	p.On("VerifySessionToken", mock.Anything, mock.Anything).Return()
	p.On("RevokeSessions", mock.Anything, mock.Anything).Return()
	return p
}

// AddUser registers an account directly and returns its identity.
func (p *Provider) AddUser(email, password, displayName string) auth.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addLocked(email, password, displayName)
}

func (p *Provider) addLocked(email, password, displayName string) auth.Identity {
	p.nextUID++
	id := auth.Identity{UID: fmt.Sprintf("uid-%d", p.nextUID), Email: email, DisplayName: displayName}
	p.accounts[email] = &account{identity: id, password: password}
	return id
}

// IssueSession returns a valid session token for an existing account.
func (p *Provider) IssueSession(email string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct := p.accounts[email]
	token := "session:" + acct.identity.UID
	p.sessions[token] = acct.identity.UID
	return token
}

func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*auth.Identity, string, error) {
	p.Called(ctx, email, password)
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, ok := p.accounts[email]
	if !ok || acct.password != password {
		return nil, "", &auth.ProviderError{Op: "signInWithPassword", Message: MsgInvalidPassword}
	}
	id := acct.identity
	return &id, "id:" + id.UID, nil
}

func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*auth.Identity, error) {
	p.Called(ctx, email, password)
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[email]; exists {
		return nil, &auth.ProviderError{Op: "createUser", Message: MsgEmailExists}
	}
	id := p.addLocked(email, password, "")
	return &id, nil
}

func (p *Provider) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	p.Called(ctx, uid, displayName)
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, acct := range p.accounts {
		if acct.identity.UID == uid {
			acct.identity.DisplayName = displayName
			return nil
		}
	}
	return &auth.ProviderError{Op: "updateProfile", Message: "USER_NOT_FOUND"}
}

func (p *Provider) CreateSessionToken(ctx context.Context, idToken string, ttl time.Duration) (string, error) {
	p.Called(ctx, idToken, ttl)
	p.mu.Lock()
	defer p.mu.Unlock()
	uid := idToken[len("id:"):]
	token := "session:" + uid
	p.sessions[token] = uid
	return token, nil
}

func (p *Provider) VerifySessionToken(ctx context.Context, token string) (*auth.Identity, error) {
	if p.VerifyGate != nil {
		select {
		case <-p.VerifyGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p.Called(ctx, token)
	p.mu.Lock()
	defer p.mu.Unlock()
	uid, ok := p.sessions[token]
	if !ok || p.revoked[uid] {
		return nil, &auth.ProviderError{Op: "verifySessionCookie", Message: MsgInvalidSession}
	}
	for _, acct := range p.accounts {
		if acct.identity.UID == uid {
			id := acct.identity
			return &id, nil
		}
	}
	return nil, &auth.ProviderError{Op: "verifySessionCookie", Message: MsgInvalidSession}
}

func (p *Provider) RevokeSessions(ctx context.Context, uid string) error {
	p.Called(ctx, uid)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked[uid] = true
	return nil
}

// ProfileRepository is an in-memory profile.Repository.
type ProfileRepository struct {
	mu      sync.Mutex
	records map[string]profile.Record
}

var _ profile.Repository = (*ProfileRepository)(nil)

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{records: make(map[string]profile.Record)}
}

func (r *ProfileRepository) Create(_ context.Context, record *profile.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[record.UID]; exists {
		return common.ErrConflict.WithDetails("A profile already exists for this user.")
	}
	rec := *record
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	r.records[rec.UID] = rec
	return nil
}

func (r *ProfileRepository) FindByUID(_ context.Context, uid string) (*profile.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[uid]
	if !ok {
		return nil, common.ErrNotFound.WithDetails("Profile not found for this user.")
	}
	return &rec, nil
}

// Records returns a copy of every stored record.
func (r *ProfileRepository) Records() []profile.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]profile.Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out
}
