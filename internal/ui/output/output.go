// Package output creates termenv outputs that honor NO_COLOR.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ColorProfile returns Ascii when NO_COLOR is set and the detected terminal
// profile otherwise.
func ColorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// New creates a termenv.Output writing to w, or to stderr when w is nil.
func New(w io.Writer) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	return termenv.NewOutput(w, termenv.WithProfile(ColorProfile()), termenv.WithTTY(true))
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ResolveProfile picks the color profile for w. mode is one of "auto",
// "always" or "never"; auto colors terminals only, and never outside CI.
func ResolveProfile(w io.Writer, mode string) termenv.Profile {
	switch mode {
	case "never":
		return termenv.Ascii
	case "always":
		if p := termenv.EnvColorProfile(); p != termenv.Ascii {
			return p
		}
		return termenv.ANSI256
	}
	ci := os.Getenv("CI")
	if ci == "true" || ci == "1" || !IsTerminal(w) {
		return termenv.Ascii
	}
	return ColorProfile()
}
