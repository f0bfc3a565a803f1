package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/rainwise/internal/client/metrics"
	"github.com/dmitrijs2005/rainwise/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/rainwise/internal/logging"
	"github.com/dmitrijs2005/rainwise/internal/models"
)

// State of the session.
type State int

const (
	Anonymous State = iota
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// AuthAPI is the part of the remote API the manager talks to.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.AuthResult, error)
}

const (
	DefaultValidityBuffer = 5 * time.Minute
	DefaultTokenTTL       = 24 * time.Hour
	DefaultLeadTime       = 10 * time.Minute
)

// Options tune a Manager. Zero values select the defaults.
type Options struct {
	// ValidityBuffer is how long before expiry a credential stops being
	// treated as valid.
	ValidityBuffer time.Duration
	// DefaultTokenTTL is assumed when the API omits expiresIn.
	DefaultTokenTTL time.Duration
	// LeadTime is how long before expiry the clock refreshes.
	LeadTime time.Duration

	TimeSource TimeSource
	Logger     logging.Logger
	Metrics    *metrics.Session
}

// Manager is the single authority for the session state of the process.
type Manager struct {
	api     AuthAPI
	store   credentials.Store
	nav     Navigator
	log     logging.Logger
	metrics *metrics.Session
	ts      TimeSource
	buffer  time.Duration
	ttl     time.Duration
	clock   *Clock

	mu       sync.Mutex
	state    State
	identity *models.Identity
	epoch    uint64
	subs     map[uint64]chan *models.Identity
	nextSub  uint64
	closed   bool

	autoRefreshing atomic.Bool
	background     sync.WaitGroup
}

// NewManager wires a manager. Call Restore to pick up a persisted session.
func NewManager(api AuthAPI, store credentials.Store, nav Navigator, opts Options) *Manager {
	if opts.ValidityBuffer <= 0 {
		opts.ValidityBuffer = DefaultValidityBuffer
	}
	if opts.DefaultTokenTTL <= 0 {
		opts.DefaultTokenTTL = DefaultTokenTTL
	}
	if opts.LeadTime <= 0 {
		opts.LeadTime = DefaultLeadTime
	}
	if opts.TimeSource == nil {
		opts.TimeSource = RealTime()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	if nav == nil {
		nav = nopNavigator{}
	}

	m := &Manager{
		api:     api,
		store:   store,
		nav:     nav,
		log:     opts.Logger.With("component", "session"),
		metrics: opts.Metrics,
		ts:      opts.TimeSource,
		buffer:  opts.ValidityBuffer,
		ttl:     opts.DefaultTokenTTL,
		subs:    make(map[uint64]chan *models.Identity),
	}
	m.clock = NewClock(opts.TimeSource, opts.LeadTime, func() {
		m.autoRefresh(context.Background(), metrics.TriggerClock)
	})
	return m
}

// Restore republishes a persisted session on startup. A stored but stale
// credential is refreshed once; no session leaves the store empty.
func (m *Manager) Restore(ctx context.Context) error {
	sess, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	switch {
	case sess != nil && sess.Credential.ValidAt(m.ts.Now(), m.buffer):
		m.mu.Lock()
		m.identity = sess.Identity
		m.state = Authenticated
		m.broadcastLocked()
		m.clock.Schedule(sess.Credential.ExpiresAt)
		m.mu.Unlock()
		m.log.Info(ctx, "session restored", "user_id", sess.Identity.ID, "expires_at", sess.Credential.ExpiresAt)
	case sess != nil:
		m.log.Info(ctx, "stored session is stale, refreshing")
		m.autoRefresh(ctx, metrics.TriggerRestore)
	default:
		if err := m.store.Clear(ctx); err != nil {
			return fmt.Errorf("restore session: %w", err)
		}
	}
	return nil
}

// Login authenticates against the API and establishes a new session.
// On failure the session is left untouched.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	res, err := m.api.Login(ctx, email, password)
	m.metrics.RecordLogin(err)
	if err != nil {
		m.log.Warn(ctx, "login failed", "email", email, "error", err)
		return nil, err
	}

	if err := m.establish(ctx, res, 0, true); err != nil {
		return nil, err
	}

	m.log.Info(ctx, "login successful", "user_id", res.User.ID, "role", res.User.Role)
	m.nav.Navigate(ctx, Redirect{Route: RouteForRole(res.User.Role)})
	return res, nil
}

// Refresh exchanges the stored refresh token for a new credential. It does
// not log out on failure; concurrent calls are not coalesced.
func (m *Manager) Refresh(ctx context.Context) (*models.AuthResult, error) {
	return m.refresh(ctx, metrics.TriggerManual)
}

// RefreshFor is Refresh with the caller recorded as trigger in metrics.
func (m *Manager) RefreshFor(ctx context.Context, trigger string) (*models.AuthResult, error) {
	return m.refresh(ctx, trigger)
}

func (m *Manager) refresh(ctx context.Context, trigger string) (*models.AuthResult, error) {
	// The epoch is taken before the load so a logout racing the load is seen.
	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()

	sess, err := m.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if sess == nil || sess.Credential.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	m.mu.Lock()
	if m.closed || m.epoch != epoch {
		m.mu.Unlock()
		return nil, ErrSessionEnded
	}
	if m.state == Authenticated {
		m.state = Refreshing
	}
	m.mu.Unlock()

	res, err := m.api.RefreshToken(ctx, sess.Credential.RefreshToken)
	m.metrics.RecordRefresh(trigger, err)
	if err != nil {
		m.mu.Lock()
		if m.epoch == epoch && m.state == Refreshing {
			m.state = Authenticated
		}
		m.mu.Unlock()
		m.log.Warn(ctx, "token refresh failed", "trigger", trigger, "error", err)
		return nil, err
	}

	if res.RefreshToken == "" {
		res.RefreshToken = sess.Credential.RefreshToken
	}
	if err := m.establish(ctx, res, epoch, false); err != nil {
		return nil, err
	}

	m.log.Debug(ctx, "token refreshed", "trigger", trigger, "user_id", res.User.ID)
	return res, nil
}

// establish persists res and makes it the current session. A refresh
// (fresh=false) only applies while the epoch it started in is current.
func (m *Manager) establish(ctx context.Context, res *models.AuthResult, epoch uint64, fresh bool) error {
	ttl := m.ttl
	if res.ExpiresIn > 0 {
		ttl = time.Duration(res.ExpiresIn) * time.Second
	}
	expiresAt := m.ts.Now().Add(ttl)
	identity := res.User.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || (!fresh && m.epoch != epoch) {
		return ErrSessionEnded
	}
	if err := m.store.Save(ctx, identity, res.AccessToken, res.RefreshToken, expiresAt); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	if fresh {
		m.epoch++
	}

	m.identity = identity
	m.state = Authenticated
	m.broadcastLocked()
	m.clock.Schedule(expiresAt)
	return nil
}

// Logout ends the session locally and redirects to sign-in. It never
// calls the API and never fails.
func (m *Manager) Logout(ctx context.Context) {
	m.end(ctx, Redirect{Route: RouteSignIn}, "user")
	m.log.Info(ctx, "logged out")
}

// Expire ends the session after an unrecoverable refresh failure and
// redirects to sign-in with reason=expired.
func (m *Manager) Expire(ctx context.Context, cause error) {
	m.end(ctx, Redirect{Route: RouteSignIn, Reason: ReasonExpired}, ReasonExpired)
	m.log.Warn(ctx, "Session expired. Please sign in again.", "cause", cause)
}

func (m *Manager) end(ctx context.Context, r Redirect, reason string) {
	m.mu.Lock()
	m.epoch++
	m.clock.Cancel()
	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		m.log.Error(ctx, "clear credential failed", "error", err)
	}
	m.identity = nil
	m.state = Anonymous
	m.broadcastLocked()
	m.mu.Unlock()

	m.metrics.RecordLogout(reason)
	m.nav.Navigate(ctx, r)
}

// autoRefresh is the unattended refresh used by the clock, Restore and
// IsAuthenticated. Failure ends the session.
func (m *Manager) autoRefresh(ctx context.Context, trigger string) {
	if !m.autoRefreshing.CompareAndSwap(false, true) {
		return
	}
	defer m.autoRefreshing.Store(false)

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return
	}

	_, err := m.refresh(ctx, trigger)
	switch {
	case err == nil:
	case errors.Is(err, ErrSessionEnded):
	case errors.Is(err, ErrNoRefreshToken):
		m.Logout(ctx)
	default:
		m.Expire(ctx, err)
	}
}

func (m *Manager) autoRefreshAsync(trigger string) {
	if m.autoRefreshing.Load() {
		return
	}
	m.background.Add(1)
	go func() {
		defer m.background.Done()
		m.autoRefresh(context.Background(), trigger)
	}()
}

func (m *Manager) load(ctx context.Context) *models.StoredSession {
	sess, err := m.store.Load(ctx)
	if err != nil {
		m.log.Error(ctx, "load credential failed", "error", err)
		return nil
	}
	return sess
}

// IsAuthenticated reports whether there is an identity and a credential
// valid beyond the safety buffer. When the credential is stale it starts
// one background refresh and returns false.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	sess := m.load(ctx)
	if sess == nil || m.CurrentUser() == nil {
		return false
	}
	if !sess.Credential.ValidAt(m.ts.Now(), m.buffer) {
		m.autoRefreshAsync(metrics.TriggerCheck)
		return false
	}
	return true
}

// IsAuthenticatedSilent is IsAuthenticated without the refresh side effect.
func (m *Manager) IsAuthenticatedSilent(ctx context.Context) bool {
	sess := m.load(ctx)
	if sess == nil || m.CurrentUser() == nil {
		return false
	}
	return sess.Credential.ValidAt(m.ts.Now(), m.buffer)
}

// CheckTokenValidity checks the stored credential alone.
func (m *Manager) CheckTokenValidity(ctx context.Context) bool {
	sess := m.load(ctx)
	return sess != nil && sess.Credential.ValidAt(m.ts.Now(), m.buffer)
}

// AccessToken returns the stored token while it is valid, otherwise "".
func (m *Manager) AccessToken(ctx context.Context) string {
	sess := m.load(ctx)
	if sess == nil || !sess.Credential.ValidAt(m.ts.Now(), m.buffer) {
		return ""
	}
	return sess.Credential.AccessToken
}

// CurrentUser returns a copy of the current identity, or nil.
func (m *Manager) CurrentUser() *models.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity.Clone()
}

func (m *Manager) HasRole(role string) bool {
	return m.CurrentUser().HasRole(role)
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe returns a stream of identity changes, starting with the
// current value. A slow reader only sees the latest value. The returned
// func releases the subscription and closes the channel.
func (m *Manager) Subscribe() (<-chan *models.Identity, func()) {
	ch := make(chan *models.Identity, 1)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	ch <- m.identity.Clone()
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(c)
			}
		})
	}
}

// broadcastLocked publishes the current identity, replacing any value a
// subscriber has not read yet.
func (m *Manager) broadcastLocked() {
	for _, ch := range m.subs {
		v := m.identity.Clone()
		select {
		case ch <- v:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// Close cancels the clock, closes all subscriptions and waits for
// background refreshes to finish.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.epoch++
	m.clock.Cancel()
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
	m.mu.Unlock()

	m.background.Wait()
}
