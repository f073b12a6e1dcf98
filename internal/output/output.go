// Package output provides styled terminal message helpers using
// lipgloss. Errors and warnings go to stderr so command data on stdout
// stays clean for composition with other tools; styling is disabled
// when the destination is not a terminal.
package output

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	stdoutTTY = term.IsTerminal(int(os.Stdout.Fd()))
	stderrTTY = term.IsTerminal(int(os.Stderr.Fd()))
)

func render(style lipgloss.Style, tty bool, s string) string {
	if !tty {
		return s
	}
	return style.Render(s)
}

// Success prints a success message to stdout.
func Success(format string, args ...any) {
	fmt.Println(render(successStyle, stdoutTTY, fmt.Sprintf(format, args...)))
}

// Info prints a plain informational message to stdout.
func Info(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// Warning prints a warning to stderr.
func Warning(format string, args ...any) {
	fmt.Fprintln(os.Stderr, render(warningStyle, stderrTTY, "Warning: "+fmt.Sprintf(format, args...)))
}

// Error prints a single error line to stderr.
func Error(format string, args ...any) {
	fmt.Fprintln(os.Stderr, render(errorStyle, stderrTTY, "Error: "+fmt.Sprintf(format, args...)))
}
