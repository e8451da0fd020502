package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// UI prints banners and labelled fields for humans. Machine output (events,
// JSON cases) bypasses it.
type UI struct {
	out     io.Writer
	err     io.Writer
	noColor bool
	quiet   bool
}

// NewUI creates a UI. Quiet suppresses everything except warnings.
func NewUI(out, errOut io.Writer, noColor, quiet bool) *UI {
	return &UI{out: out, err: errOut, noColor: noColor, quiet: quiet}
}

func (u *UI) render(style lipgloss.Style, s string) string {
	if u.noColor {
		return lipgloss.NewStyle().Width(style.GetWidth()).Render(s)
	}
	return style.Render(s)
}

// Printf writes formatted text unless quiet.
func (u *UI) Printf(format string, args ...any) {
	if u.quiet {
		return
	}
	fmt.Fprintf(u.out, format, args...)
}

// Title prints a banner line.
func (u *UI) Title(s string) {
	u.Printf("%s\n", u.render(titleStyle, s))
}

// Field prints one aligned label/value pair.
func (u *UI) Field(label string, value any) {
	u.Printf("%s%s\n", u.render(labelStyle, label+":"), u.render(valueStyle, fmt.Sprint(value)))
}

// Success prints a confirmation line.
func (u *UI) Success(format string, args ...any) {
	u.Printf("%s\n", u.render(okStyle, "✓ "+fmt.Sprintf(format, args...)))
}

// Hint prints a dimmed line.
func (u *UI) Hint(format string, args ...any) {
	u.Printf("%s\n", u.render(hintStyle, fmt.Sprintf(format, args...)))
}

// Warn prints to the error stream, even when quiet.
func (u *UI) Warn(format string, args ...any) {
	fmt.Fprintf(u.err, "%s\n", u.render(warnStyle, "! "+fmt.Sprintf(format, args...)))
}
