package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/eventpulse/client/internal/models"
	"github.com/eventpulse/client/internal/store"
)

// Status describes where the session is in its lifecycle.
type Status int

const (
	StatusUnauthenticated Status = iota
	StatusHydrating
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusHydrating:
		return "hydrating"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Theme preference values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var (
	// ErrNotAuthenticated indicates an operation requiring a session was
	// invoked without one. It is rejected before any network call.
	ErrNotAuthenticated = errors.New("session: not authenticated")
	// ErrInvalidTheme indicates an unknown theme preference value.
	ErrInvalidTheme = errors.New("session: theme must be light or dark")
)

// API captures the authentication endpoints the manager calls.
type API interface {
	Login(ctx context.Context, email, password string) (models.Credentials, error)
	Register(ctx context.Context, registration models.Registration) (models.Credentials, error)
	Me(ctx context.Context) (models.UserProfile, error)
	UpdateProfile(ctx context.Context, update models.ProfileUpdate) (models.UserProfile, error)
	DeleteAccount(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// InteractionSets is the slice of the interaction cache the session drives:
// hydrate fills it from the server, logout and registration empty it.
type InteractionSets interface {
	LoadFromServer(ctx context.Context) error
	Clear()
}

// Manager owns the credential lifecycle and exposes the authenticated
// identity to the rest of the core. There is one instance per process,
// constructed at startup and injected into its consumers.
type Manager struct {
	client       API
	interactions InteractionSets
	store        store.Store
	logger       *slog.Logger

	mu         sync.Mutex
	credential string
	identity   *models.UserProfile
	status     Status
	hydrated   bool

	subscribers []func()
}

// NewManager builds a manager reading persisted state from st.
func NewManager(client API, interactions InteractionSets, st store.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		client:       client,
		interactions: interactions,
		store:        st,
		logger:       logger,
	}
}

// Hydrate restores the session from a persisted credential. It validates the
// credential against the identity endpoint; any rejection, including a
// transport failure, clears the persisted credential and leaves the session
// unauthenticated. Hydrate is idempotent and runs once per process.
func (m *Manager) Hydrate(ctx context.Context) {
	m.mu.Lock()
	if m.hydrated {
		m.mu.Unlock()
		return
	}
	m.hydrated = true
	m.mu.Unlock()

	credential, ok := m.store.Get(store.KeyCredential)
	if !ok || credential == "" {
		return
	}

	m.mu.Lock()
	m.credential = credential
	m.status = StatusHydrating
	m.mu.Unlock()
	m.notify()

	identity, err := m.client.Me(ctx)
	if err != nil {
		m.logger.Warn("persisted credential rejected", "error", err)
		m.store.Delete(store.KeyCredential)
		m.mu.Lock()
		m.credential = ""
		m.identity = nil
		m.status = StatusUnauthenticated
		m.mu.Unlock()
		m.notify()
		return
	}

	m.mu.Lock()
	m.identity = &identity
	m.status = StatusAuthenticated
	m.mu.Unlock()
	m.notify()

	m.loadInteractions(ctx)
}

// Login exchanges credentials for a bearer token and identity in one round
// trip. On failure the prior state is untouched and the server's message is
// carried by the returned error.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	creds, err := m.client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	m.establish(creds)
	m.loadInteractions(ctx)
	return nil
}

// Register creates an account and authenticates it in the same response. A
// new account has no prior interactions, so the sets start empty rather than
// being fetched.
func (m *Manager) Register(ctx context.Context, registration models.Registration) error {
	creds, err := m.client.Register(ctx, registration)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	m.establish(creds)
	if m.interactions != nil {
		m.interactions.Clear()
	}
	return nil
}

// UpdateProfile sends only the changed fields and replaces the identity with
// the server's canonical returned object.
func (m *Manager) UpdateProfile(ctx context.Context, update models.ProfileUpdate) error {
	if !m.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	identity, err := m.client.UpdateProfile(ctx, update)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	m.mu.Lock()
	m.identity = &identity
	m.mu.Unlock()
	m.notify()
	return nil
}

// DeleteAccount removes the account and performs the same reset as Logout.
func (m *Manager) DeleteAccount(ctx context.Context) error {
	if !m.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	if err := m.client.DeleteAccount(ctx); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	m.Logout()
	return nil
}

// Logout clears the credential and every piece of derived state. It is
// synchronous and cannot fail.
func (m *Manager) Logout() {
	m.store.Delete(store.KeyCredential)

	m.mu.Lock()
	m.credential = ""
	m.identity = nil
	m.status = StatusUnauthenticated
	m.mu.Unlock()

	if m.interactions != nil {
		m.interactions.Clear()
	}
	m.notify()
}

// ForgotPassword asks the server to mail a reset link.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	if err := m.client.ForgotPassword(ctx, email); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// ResetPassword redeems a reset token for a new password.
func (m *Manager) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := m.client.ResetPassword(ctx, token, newPassword); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// Credential returns the current bearer credential, or "" when none exists.
func (m *Manager) Credential() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credential
}

// Identity returns the authenticated profile, or nil.
func (m *Manager) Identity() *models.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil
	}
	identity := *m.identity
	return &identity
}

// Status reports the session lifecycle state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// IsAuthenticated reports whether both a credential and an identity exist.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status == StatusAuthenticated && m.credential != "" && m.identity != nil
}

// Subscribe registers fn to run after every session state change.
func (m *Manager) Subscribe(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// establish persists the credential and installs the authenticated state.
func (m *Manager) establish(creds models.Credentials) {
	m.store.Set(store.KeyCredential, creds.AccessToken)

	m.mu.Lock()
	m.credential = creds.AccessToken
	identity := creds.User
	m.identity = &identity
	m.status = StatusAuthenticated
	m.mu.Unlock()
	m.notify()
}

// loadInteractions hydrates the interest sets. A failure here does not tear
// the session down; the sets simply stay empty until the next successful
// load.
func (m *Manager) loadInteractions(ctx context.Context) {
	if m.interactions == nil {
		return
	}
	if err := m.interactions.LoadFromServer(ctx); err != nil {
		m.logger.Warn("interaction sets load failed", "error", err)
	}
}

func (m *Manager) notify() {
	m.mu.Lock()
	subscribers := make([]func(), len(m.subscribers))
	copy(subscribers, m.subscribers)
	m.mu.Unlock()

	for _, fn := range subscribers {
		if fn != nil {
			fn()
		}
	}
}
