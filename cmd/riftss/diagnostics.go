package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/riftss/riftss/internal/compile"
	"github.com/riftss/riftss/internal/logger"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	pathColor    = color.New(color.FgCyan)
)

// printDiagnostics renders a compilation's non-fatal @warn/@debug messages
// and, on failure, its outermost error — colorized the way a terminal
// compiler front-end does, kept entirely out of internal/logger so that
// package stays pure (no TTY/color concerns) per SPEC_FULL's ambient-stack
// design note.
func printDiagnostics(w io.Writer, res compile.Result) {
	for _, msg := range res.Diagnostics {
		c := warningColor
		if msg.Kind == logger.User {
			c = errorColor
		}
		if loc := msg.Data.Location; loc != nil {
			fmt.Fprintf(w, "%s %s: %s\n", pathColor.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Column), c.Sprint(msg.Kind), msg.Data.Text)
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", c.Sprint(msg.Kind), msg.Data.Text)
	}
	if res.Status == compile.StatusError && res.Error != nil {
		e := res.Error
		if e.File != "" {
			fmt.Fprintf(w, "%s %s: %s\n", pathColor.Sprintf("%s:%d:%d", e.File, e.Line, e.Column), errorColor.Sprint("error"), e.Message)
			return
		}
		fmt.Fprintf(w, "%s: %s\n", errorColor.Sprint("error"), e.Message)
	}
}
