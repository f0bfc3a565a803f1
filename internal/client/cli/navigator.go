package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/rainwise/internal/client/session"
)

// Navigator is the terminal implementation of session.Navigator. It keeps
// the current route and the pending return URL, and tells the user where
// they were sent. Safe for concurrent use; the session clock navigates from
// its own goroutine.
type Navigator struct {
	mu        sync.Mutex
	out       io.Writer
	current   string
	returnURL string
}

func NewNavigator(out io.Writer) *Navigator {
	return &Navigator{out: out, current: session.RouteHome}
}

func (n *Navigator) Navigate(_ context.Context, r session.Redirect) {
	n.mu.Lock()
	n.current = r.Route
	if r.ReturnURL != "" {
		n.returnURL = r.ReturnURL
	}
	n.mu.Unlock()

	if r.Reason == session.ReasonExpired {
		fmt.Fprintln(n.out, "Your session has expired. Please sign in again.")
	}
	if r.Route == session.RouteConfirmEmailInstruction && r.Email != "" {
		fmt.Fprintf(n.out, "We sent a confirmation link to %s. Run 'confirm <token>' to activate the account.\n", r.Email)
	}
	fmt.Fprintf(n.out, "-> %s\n", r.Route)
}

// Enter records that a command bound to route is now active.
func (n *Navigator) Enter(route string) {
	n.mu.Lock()
	n.current = route
	n.mu.Unlock()
}

func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// TakeReturnURL returns and clears the route a guard saved before sending
// the user to sign-in.
func (n *Navigator) TakeReturnURL() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	u := n.returnURL
	n.returnURL = ""
	return u
}
