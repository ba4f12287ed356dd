package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Terminal shows alerts and navigation on a text stream. It implements
// reports.Navigator and reports.Alerter.
type Terminal struct {
	w io.Writer

	mu         sync.Mutex
	redirected bool
	alerts     int
}

// NewTerminal writes to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// Alert prints a titled message.
func (t *Terminal) Alert(ctx context.Context, title, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.alerts++
	fmt.Fprintf(t.w, "[%s] %s\n", title, message)
}

// RedirectToLogin points the user at the login command.
func (t *Terminal) RedirectToLogin(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.redirected = true
	fmt.Fprintln(t.w, "Run `cashier login --token <token>` to start a new session.")
}

// Redirected reports whether a login redirect happened.
func (t *Terminal) Redirected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.redirected
}
