package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/rainwise/internal/client/metrics"
	"github.com/dmitrijs2005/rainwise/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/rainwise/internal/models"
)

type harness struct {
	m     *Manager
	api   *fakeAPI
	ft    *fakeTime
	store *credentials.MemoryStore
	nav   *recordingNav
	met   *metrics.Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		api: &fakeAPI{
			loginRes: &models.AuthResult{
				User:         models.Identity{ID: 1, Email: "admin@rainwise.dev", Name: "Admin", Role: "Admin"},
				AccessToken:  "access-1",
				RefreshToken: "refresh-1",
				ExpiresIn:    3600,
			},
			refreshRes: &models.AuthResult{
				User:         models.Identity{ID: 1, Email: "admin@rainwise.dev", Name: "Admin", Role: "Admin"},
				AccessToken:  "access-2",
				RefreshToken: "refresh-2",
				ExpiresIn:    3600,
			},
		},
		ft:    newFakeTime(),
		store: credentials.NewMemoryStore(),
		nav:   &recordingNav{},
		met:   metrics.New(prometheus.NewRegistry()),
	}
	h.m = NewManager(h.api, h.store, h.nav, Options{TimeSource: h.ft, Metrics: h.met})
	t.Cleanup(h.m.Close)
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	_, err := h.m.Login(context.Background(), "admin@rainwise.dev", "secret")
	require.NoError(t, err)
}

func (h *harness) stored(t *testing.T) *models.StoredSession {
	t.Helper()
	s, err := h.store.Load(context.Background())
	require.NoError(t, err)
	return s
}

func TestLogin_EstablishesSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	updates, cancel := h.m.Subscribe()
	defer cancel()
	require.Nil(t, <-updates, "replay of anonymous state")

	res, err := h.m.Login(ctx, "admin@rainwise.dev", "secret")
	require.NoError(t, err)
	assert.Equal(t, "access-1", res.AccessToken)

	assert.Equal(t, Authenticated, h.m.State())
	assert.True(t, h.m.IsAuthenticated(ctx))
	assert.True(t, h.m.HasRole("admin"))
	assert.Equal(t, "access-1", h.m.AccessToken(ctx))

	s := h.stored(t)
	require.NotNil(t, s)
	assert.Equal(t, "refresh-1", s.Credential.RefreshToken)
	assert.True(t, s.Credential.ExpiresAt.Equal(h.ft.Now().Add(time.Hour)))

	got := <-updates
	if diff := cmp.Diff(&h.api.loginRes.User, got); diff != "" {
		t.Fatalf("published identity mismatch (-want +got):\n%s", diff)
	}

	r, ok := h.nav.last()
	require.True(t, ok)
	assert.Equal(t, Redirect{Route: RouteAdminUsers}, r)
	assert.True(t, h.m.clock.Armed())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.met.LoginsTotal.WithLabelValues("ok")))
}

func TestLogin_DefaultTTLWhenExpiresInOmitted(t *testing.T) {
	h := newHarness(t)
	h.api.loginRes.ExpiresIn = 0

	h.login(t)

	s := h.stored(t)
	require.NotNil(t, s)
	assert.WithinDuration(t, h.ft.Now().Add(24*time.Hour), s.Credential.ExpiresAt, time.Second)
}

func TestLogin_FailureLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t)
	h.api.loginErr = errors.New("Invalid credentials")

	_, err := h.m.Login(context.Background(), "admin@rainwise.dev", "wrong")
	require.EqualError(t, err, "Invalid credentials")

	assert.Equal(t, Anonymous, h.m.State())
	assert.Nil(t, h.stored(t))
	assert.Nil(t, h.m.CurrentUser())
	assert.Equal(t, 0, h.nav.count())
	assert.False(t, h.m.clock.Armed())
}

func TestRouteForRole(t *testing.T) {
	assert.Equal(t, RouteAdminUsers, RouteForRole("ADMIN"))
	assert.Equal(t, RouteHome, RouteForRole("citizen"))
	assert.Equal(t, RouteHome, RouteForRole("auditor"))
}

func TestIsAuthenticated_StaleCredentialStartsOneRefresh(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.login(t)

	require.NoError(t, h.store.Save(ctx, h.m.CurrentUser(), "access-1", "refresh-1", h.ft.Now().Add(-time.Millisecond)))

	h.api.block()
	assert.False(t, h.m.IsAuthenticated(ctx))
	<-h.api.entered
	assert.False(t, h.m.IsAuthenticated(ctx))
	assert.False(t, h.m.IsAuthenticated(ctx))
	h.api.release()
	h.m.background.Wait()

	_, refreshes := h.api.calls()
	assert.Equal(t, 1, refreshes)
	assert.True(t, h.m.IsAuthenticated(ctx))
	assert.Equal(t, "access-2", h.m.AccessToken(ctx))
}

func TestCheckTokenValidity_InsideBufferIsInvalid(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.login(t)

	require.NoError(t, h.store.Save(ctx, h.m.CurrentUser(), "access-1", "refresh-1", h.ft.Now().Add(4*time.Minute)))
	assert.False(t, h.m.CheckTokenValidity(ctx))
	assert.Empty(t, h.m.AccessToken(ctx))
}

func TestIsAuthenticatedSilent_NeverCallsNetwork(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.False(t, h.m.IsAuthenticatedSilent(ctx))

	h.login(t)
	assert.True(t, h.m.IsAuthenticatedSilent(ctx))

	require.NoError(t, h.store.Save(ctx, h.m.CurrentUser(), "access-1", "refresh-1", h.ft.Now().Add(-time.Millisecond)))
	assert.False(t, h.m.IsAuthenticatedSilent(ctx))
	h.m.background.Wait()

	logins, refreshes := h.api.calls()
	assert.Equal(t, 1, logins)
	assert.Equal(t, 0, refreshes)
}

func TestRefresh_WithoutRefreshTokenFailsLocally(t *testing.T) {
	h := newHarness(t)
	h.api.loginRes.RefreshToken = ""
	h.login(t)

	_, err := h.m.Refresh(context.Background())
	require.ErrorIs(t, err, ErrNoRefreshToken)

	_, refreshes := h.api.calls()
	assert.Equal(t, 0, refreshes)
	assert.Equal(t, Authenticated, h.m.State())
}

func TestRefresh_KeepsRefreshTokenWhenResponseOmitsIt(t *testing.T) {
	h := newHarness(t)
	h.api.refreshRes.RefreshToken = ""
	h.login(t)

	res, err := h.m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", res.RefreshToken)

	s := h.stored(t)
	assert.Equal(t, "access-2", s.Credential.AccessToken)
	assert.Equal(t, "refresh-1", s.Credential.RefreshToken)
	assert.Equal(t, []string{"refresh-1"}, h.api.seenRefresh)
	assert.Equal(t, 1, h.nav.count(), "refresh does not navigate")
}

func TestRefresh_FailureDoesNotLogout(t *testing.T) {
	h := newHarness(t)
	h.api.refreshErr = errors.New("gateway timeout")
	h.login(t)

	_, err := h.m.Refresh(context.Background())
	require.EqualError(t, err, "gateway timeout")

	assert.Equal(t, Authenticated, h.m.State())
	assert.NotNil(t, h.stored(t))
	assert.NotNil(t, h.m.CurrentUser())
}

func TestRefresh_DirectCallsAreNotCoalesced(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.api.block()

	errs := make(chan error, 2)
	for range 2 {
		go func() {
			_, err := h.m.Refresh(context.Background())
			errs <- err
		}()
	}
	<-h.api.entered
	<-h.api.entered
	assert.Equal(t, Refreshing, h.m.State())
	h.api.release()

	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	_, refreshes := h.api.calls()
	assert.Equal(t, 2, refreshes)
	assert.Equal(t, Authenticated, h.m.State())
}

func TestRefresh_CompletingAfterLogoutIsDiscarded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.login(t)
	h.api.block()

	errc := make(chan error, 1)
	go func() {
		_, err := h.m.Refresh(ctx)
		errc <- err
	}()
	<-h.api.entered

	h.m.Logout(ctx)
	h.api.release()

	require.ErrorIs(t, <-errc, ErrSessionEnded)
	assert.Equal(t, Anonymous, h.m.State())
	assert.Nil(t, h.stored(t))
	assert.False(t, h.m.clock.Armed())
}

// hookedStore runs onLoad after every successful Load.
type hookedStore struct {
	*credentials.MemoryStore
	onLoad func()
}

func (s *hookedStore) Load(ctx context.Context) (*models.StoredSession, error) {
	sess, err := s.MemoryStore.Load(ctx)
	if err == nil && s.onLoad != nil {
		s.onLoad()
	}
	return sess, err
}

func TestRefresh_LogoutDuringLoadIsNotUndone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	store := &hookedStore{MemoryStore: h.store}
	h.m = NewManager(h.api, store, h.nav, Options{TimeSource: h.ft, Metrics: h.met})
	t.Cleanup(h.m.Close)
	h.login(t)

	store.onLoad = func() {
		store.onLoad = nil
		h.m.Logout(ctx)
	}

	_, err := h.m.Refresh(ctx)
	require.ErrorIs(t, err, ErrSessionEnded)

	_, refreshes := h.api.calls()
	assert.Equal(t, 0, refreshes)
	assert.Equal(t, Anonymous, h.m.State())
	assert.Nil(t, h.m.CurrentUser())
	assert.Nil(t, h.stored(t))
	assert.False(t, h.m.clock.Armed())
}

func TestClock_RefreshSuccessReschedules(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.ft.Advance(49 * time.Minute)
	_, refreshes := h.api.calls()
	require.Equal(t, 0, refreshes)

	h.ft.Advance(time.Minute)
	_, refreshes = h.api.calls()
	require.Equal(t, 1, refreshes)
	assert.Equal(t, Authenticated, h.m.State())
	assert.Equal(t, "access-2", h.m.AccessToken(context.Background()))

	h.ft.Advance(50 * time.Minute)
	_, refreshes = h.api.calls()
	assert.Equal(t, 2, refreshes)
	assert.Equal(t, 2.0, testutil.ToFloat64(h.met.RefreshesTotal.WithLabelValues(metrics.TriggerClock, "ok")))
}

func TestClock_RefreshFailureExpiresSession(t *testing.T) {
	h := newHarness(t)
	h.api.refreshErr = errors.New("connection refused")
	h.login(t)

	updates, cancel := h.m.Subscribe()
	defer cancel()
	require.NotNil(t, <-updates)

	h.ft.Advance(50 * time.Minute)

	assert.Equal(t, Anonymous, h.m.State())
	assert.Nil(t, h.stored(t))
	assert.Nil(t, <-updates)

	r, ok := h.nav.last()
	require.True(t, ok)
	assert.Equal(t, Redirect{Route: RouteSignIn, Reason: ReasonExpired}, r)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.met.LogoutsTotal.WithLabelValues(ReasonExpired)))
}

func TestClock_NoRefreshTokenLogsOut(t *testing.T) {
	h := newHarness(t)
	h.api.loginRes.RefreshToken = ""
	h.login(t)

	h.ft.Advance(50 * time.Minute)

	_, refreshes := h.api.calls()
	assert.Equal(t, 0, refreshes)
	assert.Equal(t, Anonymous, h.m.State())
	r, _ := h.nav.last()
	assert.Equal(t, Redirect{Route: RouteSignIn}, r)
}

func TestLogout_PreventsScheduledRefresh(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.login(t)

	h.m.Logout(ctx)
	h.ft.Advance(48 * time.Hour)

	_, refreshes := h.api.calls()
	assert.Equal(t, 0, refreshes)
	assert.Equal(t, Anonymous, h.m.State())
	assert.Nil(t, h.stored(t))
	assert.False(t, h.m.HasRole("admin"))

	r, _ := h.nav.last()
	assert.Equal(t, Redirect{Route: RouteSignIn}, r)
}

func TestLogout_WithCancelledContextStillClears(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.m.Logout(ctx)

	assert.Nil(t, h.stored(t))
}

func TestSubscribe_CoalescesAndUnsubscribes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	updates, cancel := h.m.Subscribe()
	h.login(t)
	h.m.Logout(ctx)

	assert.Nil(t, <-updates, "latest value wins")
	select {
	case v := <-updates:
		t.Fatalf("unexpected extra update %v", v)
	default:
	}

	cancel()
	cancel()
	_, ok := <-updates
	assert.False(t, ok)
}

func TestRestore(t *testing.T) {
	identity := &models.Identity{ID: 5, Email: "c@rainwise.dev", Role: "citizen"}

	t.Run("valid session is republished", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		require.NoError(t, h.store.Save(ctx, identity, "a", "r", h.ft.Now().Add(time.Hour)))

		require.NoError(t, h.m.Restore(ctx))

		assert.Equal(t, Authenticated, h.m.State())
		assert.Equal(t, identity, h.m.CurrentUser())
		assert.True(t, h.m.clock.Armed())
		assert.Equal(t, 0, h.nav.count())
	})

	t.Run("stale session is refreshed", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		require.NoError(t, h.store.Save(ctx, identity, "a", "r", h.ft.Now().Add(-time.Hour)))

		require.NoError(t, h.m.Restore(ctx))

		assert.Equal(t, []string{"r"}, h.api.seenRefresh)
		assert.Equal(t, Authenticated, h.m.State())
		assert.Equal(t, "access-2", h.m.AccessToken(ctx))
	})

	t.Run("stale session with failing refresh expires", func(t *testing.T) {
		h := newHarness(t)
		h.api.refreshErr = errors.New("invalid refresh token")
		ctx := context.Background()
		require.NoError(t, h.store.Save(ctx, identity, "a", "r", h.ft.Now().Add(-time.Hour)))

		require.NoError(t, h.m.Restore(ctx))

		assert.Equal(t, Anonymous, h.m.State())
		assert.Nil(t, h.stored(t))
		r, _ := h.nav.last()
		assert.Equal(t, ReasonExpired, r.Reason)
	})

	t.Run("partial session is cleared", func(t *testing.T) {
		h := newHarness(t)
		h.store.Put(credentials.KeyAccessToken, []byte("orphan"))

		require.NoError(t, h.m.Restore(context.Background()))

		assert.Equal(t, Anonymous, h.m.State())
		values, err := h.store.Load(context.Background())
		require.NoError(t, err)
		assert.Nil(t, values)
	})
}

func TestClose_ReleasesSubscriptionsAndClock(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	updates, _ := h.m.Subscribe()
	<-updates

	h.m.Close()
	h.m.Close()

	_, ok := <-updates
	assert.False(t, ok)
	assert.False(t, h.m.clock.Armed())

	late, _ := h.m.Subscribe()
	_, ok = <-late
	assert.False(t, ok)

	_, err := h.m.Refresh(context.Background())
	require.ErrorIs(t, err, ErrSessionEnded)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "anonymous", Anonymous.String())
	assert.Equal(t, "refreshing", Refreshing.String())
	assert.Equal(t, "State(9)", State(9).String())
}
