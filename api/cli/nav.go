package cli

import (
	"fmt"
	"io"
	"sync"
)

// consoleNav stands in for screen navigation: a redirect to the login screen
// prints a sign-in notice once per redirect.
type consoleNav struct {
	mu       sync.Mutex
	out      io.Writer
	location string
}

func newConsoleNav(out io.Writer) *consoleNav {
	return &consoleNav{out: out, location: "/"}
}

func (n *consoleNav) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *consoleNav) Redirect(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.location = path
	_, _ = fmt.Fprintln(n.out, warnStyle.Render("Your session has ended. Run `fintrack login` to sign in again."))
}
