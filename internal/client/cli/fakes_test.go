package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/rainwise/internal/client/client"
	"github.com/dmitrijs2005/rainwise/internal/client/services"
	"github.com/dmitrijs2005/rainwise/internal/client/session"
	"github.com/dmitrijs2005/rainwise/internal/models"
)

type fakeView struct {
	authed bool
	valid  bool
	user   *models.Identity
	state  session.State

	authCalls   int
	silentCalls int
}

func signedIn(role string) *fakeView {
	return &fakeView{
		authed: true,
		valid:  true,
		user:   &models.Identity{ID: 7, Email: "ana@example.com", Name: "Ana", Role: role},
		state:  session.Authenticated,
	}
}

func (f *fakeView) IsAuthenticated(context.Context) bool {
	f.authCalls++
	return f.authed
}

func (f *fakeView) IsAuthenticatedSilent(context.Context) bool {
	f.silentCalls++
	return f.authed && f.valid
}

func (f *fakeView) CheckTokenValidity(context.Context) bool { return f.valid }
func (f *fakeView) CurrentUser() *models.Identity           { return f.user }
func (f *fakeView) HasRole(role string) bool                { return f.user.HasRole(role) }
func (f *fakeView) State() session.State                    { return f.state }

type fakeAuth struct {
	view *fakeView
	nav  session.Navigator

	loginErr   error
	pingErr    error
	logins     []string
	registered []models.RegisterRequest
	confirmed  []string
	logouts    int

	mu    sync.Mutex
	pings int
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*models.Identity, error) {
	f.logins = append(f.logins, email+":"+password)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	id := &models.Identity{ID: 1, Email: email, Role: "admin"}
	f.view.authed, f.view.valid, f.view.user, f.view.state = true, true, id, session.Authenticated
	f.nav.Navigate(ctx, session.Redirect{Route: session.RouteForRole(id.Role)})
	return id, nil
}

func (f *fakeAuth) Logout(context.Context) {
	f.logouts++
	f.view.authed, f.view.user, f.view.state = false, nil, session.Anonymous
}

func (f *fakeAuth) Register(_ context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	f.registered = append(f.registered, req)
	return &models.RegisterResponse{Message: "User registered", Email: req.Email}, nil
}

func (f *fakeAuth) ConfirmEmail(_ context.Context, token string) error {
	f.confirmed = append(f.confirmed, token)
	return nil
}

func (f *fakeAuth) WhoAmI() *models.Identity { return f.view.user }

func (f *fakeAuth) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeAuth) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

type recordingNav struct {
	got []session.Redirect
}

func (r *recordingNav) Navigate(_ context.Context, rd session.Redirect) { r.got = append(r.got, rd) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type harness struct {
	app  *App
	view *fakeView
	auth *fakeAuth
	out  *bytes.Buffer
}

// newHarness builds an App over fakes. api may be nil when the test does
// not reach the catalog. in feeds the prompts.
func newHarness(t *testing.T, view *fakeView, api http.HandlerFunc, in string) *harness {
	t.Helper()

	out := &bytes.Buffer{}
	nav := NewNavigator(out)
	auth := &fakeAuth{view: view, nav: nav}

	var catalog *services.CatalogService
	if api != nil {
		srv := httptest.NewServer(api)
		t.Cleanup(srv.Close)
		hc, err := client.New(srv.URL, nil, nil)
		require.NoError(t, err)
		catalog = services.NewCatalogService(hc)
	}

	app := NewApp(Deps{
		Session:    view,
		Auth:       auth,
		Catalog:    catalog,
		Calculator: services.NewCalculatorService(catalog),
		Navigator:  nav,
		In:         strings.NewReader(in),
		Out:        out,
	})
	return &harness{app: app, view: view, auth: auth, out: out}
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	old := getPassword
	t.Cleanup(func() { getPassword = old })
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte(pw), nil }
}
