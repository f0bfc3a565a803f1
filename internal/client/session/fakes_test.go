package session

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/rainwise/internal/models"
)

// fakeTime is a manual clock. Due callbacks run synchronously in Advance.
type fakeTime struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	ft   *fakeTime
	at   time.Time
	f    func()
	done bool
}

func newFakeTime() *fakeTime {
	return &fakeTime{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (ft *fakeTime) Now() time.Time {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.now
}

func (ft *fakeTime) AfterFunc(d time.Duration, f func()) Timer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	t := &fakeTimer{ft: ft, at: ft.now.Add(d), f: f}
	ft.timers = append(ft.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.ft.mu.Lock()
	defer t.ft.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (ft *fakeTime) Advance(d time.Duration) {
	ft.mu.Lock()
	ft.now = ft.now.Add(d)
	var due []func()
	for _, t := range ft.timers {
		if !t.done && !t.at.After(ft.now) {
			t.done = true
			due = append(due, t.f)
		}
	}
	ft.mu.Unlock()

	for _, f := range due {
		f()
	}
}

func (ft *fakeTime) pending() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	n := 0
	for _, t := range ft.timers {
		if !t.done {
			n++
		}
	}
	return n
}

type fakeAPI struct {
	mu           sync.Mutex
	loginCalls   int
	refreshCalls int
	seenRefresh  []string

	loginRes   *models.AuthResult
	loginErr   error
	refreshRes *models.AuthResult
	refreshErr error

	// When gate is set RefreshToken signals entered and blocks until gate
	// is closed.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	res := *f.loginRes
	return &res, nil
}

func (f *fakeAPI) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthResult, error) {
	f.mu.Lock()
	f.refreshCalls++
	f.seenRefresh = append(f.seenRefresh, refreshToken)
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	res := *f.refreshRes
	return &res, nil
}

func (f *fakeAPI) calls() (login, refresh int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls, f.refreshCalls
}

func (f *fakeAPI) block() {
	f.mu.Lock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 16)
	f.mu.Unlock()
}

func (f *fakeAPI) release() {
	f.mu.Lock()
	close(f.gate)
	f.mu.Unlock()
}

type recordingNav struct {
	mu        sync.Mutex
	redirects []Redirect
}

func (n *recordingNav) Navigate(_ context.Context, r Redirect) {
	n.mu.Lock()
	n.redirects = append(n.redirects, r)
	n.mu.Unlock()
}

func (n *recordingNav) last() (Redirect, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.redirects) == 0 {
		return Redirect{}, false
	}
	return n.redirects[len(n.redirects)-1], true
}

func (n *recordingNav) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.redirects)
}
