package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jrsteele09/condo-console/calendar"
	"github.com/jrsteele09/condo-console/tenants"
)

// terminalTheme applies the tenant theme to the terminal: a coloured tenant header and the
// palette the calendar renderer draws with.
type terminalTheme struct {
	out    io.Writer
	colour bool

	mu     sync.Mutex
	tenant string
	theme  tenants.Theme
}

var _ tenants.ThemeApplier = (*terminalTheme)(nil)

func newTerminalTheme(out io.Writer) *terminalTheme {
	_, noColour := os.LookupEnv("NO_COLOR")
	return &terminalTheme{out: out, colour: !noColour, theme: tenants.DefaultTheme()}
}

func (t *terminalTheme) ApplyTheme(tenantName string, theme tenants.Theme) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tenant = tenantName
	t.theme = theme
}

func (t *terminalTheme) ResetTheme() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tenant = ""
	t.theme = tenants.DefaultTheme()
}

func (t *terminalTheme) current() (string, tenants.Theme) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tenant, t.theme
}

// header prints the tenant name in its primary colour
func (t *terminalTheme) header() {
	name, theme := t.current()
	if name == "" {
		return
	}
	if !t.colour {
		fmt.Fprintf(t.out, "== %s ==\n", name)
		return
	}
	fg, err := tenants.ANSIForeground(theme.PrimaryColor)
	if err != nil {
		fmt.Fprintf(t.out, "== %s ==\n", name)
		return
	}
	fmt.Fprintf(t.out, "%s%s== %s ==%s\n", calendar.Bold, fg, name, calendar.ResetColor)
}

func (t *terminalTheme) renderOptions() calendar.RenderOptions {
	name, theme := t.current()
	return calendar.RenderOptions{Title: name, Colour: t.colour, Theme: theme}
}
