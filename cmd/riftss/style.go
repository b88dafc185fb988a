package main

import "github.com/riftss/riftss/internal/printer"

func styleFlagToStyle(s string) printer.Style {
	switch s {
	case "expanded":
		return printer.Expanded
	case "compact":
		return printer.Compact
	case "compressed":
		return printer.Compressed
	default:
		return printer.Nested
	}
}
