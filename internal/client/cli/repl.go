package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn and printFn are test seams for user-facing output.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

var errUnknownCommand = errors.New("unknown command")

// executor is the command surface the REPL needs. App satisfies it; tests
// provide a lightweight stub.
type executor interface {
	Exec(ctx context.Context, name string, args []string) error
	Help(ctx context.Context) string
}

// runREPL reads commands line by line and dispatches them to e. The first
// token is the command, the rest are its arguments. "help" lists the
// commands available in the current state; "exit" and "quit" leave.
// Command errors are printed and the loop continues. The loop also ends on
// EOF or when ctx is done.
func runREPL(ctx context.Context, e executor, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printFn(fmt.Sprintf("rw %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			printlnFn()
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			printlnFn(e.Help(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			if err := e.Exec(ctx, cmd, parts[1:]); err != nil {
				if errors.Is(err, errUnknownCommand) {
					printlnFn("Unknown command:", cmd)
				} else {
					printlnFn("Error:", err.Error())
				}
			}
		}
	}
}

type visibility int

const (
	visAlways visibility = iota
	visSignedOut
	visSignedIn
)

type guardFunc func(ctx context.Context, route string) bool

type command struct {
	name    string
	aliases []string
	usage   string
	summary string
	route   string
	vis     visibility
	guard   guardFunc
	run     func(ctx context.Context, args []string) error
}

func (a *App) requireAuth(roles ...string) guardFunc {
	return func(ctx context.Context, route string) bool {
		return authGuard(ctx, a.sess, a.nav, route, roles...)
	}
}

func (a *App) requireAnon() guardFunc {
	return func(ctx context.Context, _ string) bool {
		return unauthGuard(ctx, a.sess, a.nav)
	}
}

func (a *App) addCommand(c *command) {
	if a.commands == nil {
		a.commands = make(map[string]*command)
	}
	a.commands[c.name] = c
	for _, al := range c.aliases {
		a.commands[al] = c
	}
	a.order = append(a.order, c)
}

// Exec runs one command after its guard admits it. A rejected guard is not
// an error; the navigator has already told the user where they were sent.
func (a *App) Exec(ctx context.Context, name string, args []string) error {
	c, ok := a.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownCommand, name)
	}
	if c.guard != nil && !c.guard(ctx, c.route) {
		return nil
	}
	if c.route != "" {
		a.nav.Enter(c.route)
	}
	return c.run(ctx, args)
}

// Help lists the commands that make sense in the current session state.
func (a *App) Help(ctx context.Context) string {
	loggedIn := a.isLoggedIn(ctx)

	var rows []string
	for _, c := range a.order {
		switch {
		case c.vis == visSignedIn && !loggedIn, c.vis == visSignedOut && loggedIn:
			continue
		}
		rows = append(rows, fmt.Sprintf("  %-34s %s", strings.TrimSpace(c.name+" "+c.usage), c.summary))
	}
	rows = append(rows, fmt.Sprintf("  %-34s %s", "help", "show this list"))
	rows = append(rows, fmt.Sprintf("  %-34s %s", "exit | quit", "leave the program"))
	return "Available commands:\n" + strings.Join(rows, "\n")
}
