package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/rainwise/internal/client/services"
	"github.com/dmitrijs2005/rainwise/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Deps are the collaborators of an App. Nil In/Out default to the
// process's stdin/stdout; a nil Logger discards.
type Deps struct {
	Session    SessionView
	Auth       services.AuthService
	Catalog    *services.CatalogService
	Calculator *services.CalculatorService
	Navigator  *Navigator
	Logger     logging.Logger
	In         io.Reader
	Out        io.Writer
}

type App struct {
	sess    SessionView
	auth    services.AuthService
	catalog *services.CatalogService
	calc    *services.CalculatorService
	nav     *Navigator
	log     logging.Logger
	reader  *bufio.Reader
	out     io.Writer

	modeMu sync.Mutex
	mode   Mode

	commands map[string]*command
	order    []*command
}

func NewApp(d Deps) *App {
	if d.In == nil {
		d.In = os.Stdin
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Logger == nil {
		d.Logger = logging.Nop{}
	}
	if d.Navigator == nil {
		d.Navigator = NewNavigator(d.Out)
	}
	a := &App{
		sess:    d.Session,
		auth:    d.Auth,
		catalog: d.Catalog,
		calc:    d.Calculator,
		nav:     d.Navigator,
		log:     d.Logger,
		reader:  bufio.NewReader(d.In),
		out:     d.Out,
	}
	a.registerCommands()
	return a
}

// Run prints the banner and serves the REPL until exit, EOF or ctx is done.
// The connectivity watcher runs alongside when interval is positive.
func (a *App) Run(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to rainwise CLI (type 'help' for commands)")
	if interval > 0 {
		go a.StartOnlineStatusWatcher(ctx, interval)
	}
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.sess.IsAuthenticatedSilent(ctx)
}

func (a *App) Mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

// StartOnlineStatusWatcher pings the API every interval and tracks whether
// it is reachable. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.auth.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// getStatus renders the prompt decoration, e.g. "(ana@example.com admin online)".
func (a *App) getStatus() string {
	s := ""
	if u := a.sess.CurrentUser(); u != nil {
		s = u.Email + " " + u.Role
	}
	if m := a.Mode(); m != "" {
		if s != "" {
			s += " "
		}
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}
