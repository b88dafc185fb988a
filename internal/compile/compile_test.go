package compile_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/riftss/riftss/internal/compile"
	"github.com/riftss/riftss/internal/config"
	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/printer"
)

// memFS is a tiny in-memory FS fake so these tests never touch disk.
type memFS struct {
	files map[string]string
}

func (m memFS) ReadFile(path string) (string, error) {
	if c, ok := m.files[path]; ok {
		return c, nil
	}
	return "", errors.New("not found: " + path)
}

func (m memFS) IsDir(path string) bool { return false }

func TestCompileSimpleRuleset(t *testing.T) {
	in := compile.Input{Path: "a.scss", Contents: `.a { b: 1 + 2 }`, HasContents: true}
	res := compile.Compile(in, config.Options{Style: printer.Expanded, Precision: 5}, memFS{}, nil, nil, nil)
	if res.Status != compile.StatusOK {
		t.Fatalf("unexpected error: %+v", res.Error)
	}
	want := ".a {\n  b: 3;\n}\n"
	if res.CSS != want {
		t.Errorf("got %q, want %q", res.CSS, want)
	}
}

func TestCompileImportAndDedup(t *testing.T) {
	fs := memFS{files: map[string]string{
		"_shared.scss": `.shared { color: red; }`,
	}}
	in := compile.Input{
		Path:        "main.scss",
		Contents:    `@import "shared"; @import "shared"; .a { color: blue }`,
		HasContents: true,
	}
	res := compile.Compile(in, config.Options{Style: printer.Expanded, Precision: 5}, fs, nil, nil, nil)
	if res.Status != compile.StatusOK {
		t.Fatalf("unexpected error: %+v", res.Error)
	}
	if res.ParseCount != 2 {
		t.Errorf("expected the shared partial to be parsed exactly once (2 total files), got %d", res.ParseCount)
	}
	if len(res.IncludedFiles) != 2 {
		t.Errorf("expected 2 included files, got %v", res.IncludedFiles)
	}
}

func TestCompileHostFunction(t *testing.T) {
	double := compile.HostFunction{
		Signature: "double($n)",
		Call: func(args []cssast.Value) (cssast.Value, error) {
			n, ok := args[0].(*cssast.Number)
			if !ok {
				return nil, errors.New("double() expects a number")
			}
			return cssast.NewScalar(cssast.Span{}, n.Value*2), nil
		},
	}
	in := compile.Input{Path: "a.scss", Contents: `.a { b: double(21) }`, HasContents: true}
	res := compile.Compile(in, config.Options{Style: printer.Expanded, Precision: 5}, memFS{}, nil,
		[]compile.HostFunction{double}, nil)
	if res.Status != compile.StatusOK {
		t.Fatalf("unexpected error: %+v", res.Error)
	}
	want := ".a {\n  b: 42;\n}\n"
	if res.CSS != want {
		t.Errorf("got %q, want %q", res.CSS, want)
	}
}

func TestCompileMissingImportIsImportError(t *testing.T) {
	in := compile.Input{Path: "a.scss", Contents: `@import "nope";`, HasContents: true}
	res := compile.Compile(in, config.Options{Style: printer.Expanded, Precision: 5}, memFS{}, nil, nil, nil)
	if res.Status != compile.StatusError {
		t.Fatalf("expected an unresolved import without a .css suffix or URL form to be an Import error, got status %v", res.Status)
	}
}

func TestCompileAggregatesWarnings(t *testing.T) {
	in := compile.Input{Path: "a.scss", Contents: `@warn "first"; @warn "second"; .a { b: 1 }`, HasContents: true}
	res := compile.Compile(in, config.Options{Style: printer.Expanded, Precision: 5}, memFS{}, nil, nil, nil)
	if res.Status != compile.StatusOK {
		t.Fatalf("unexpected error: %+v", res.Error)
	}
	if res.Warnings == nil {
		t.Fatal("expected the two @warn messages to be aggregated onto Result.Warnings")
	}
	msg := res.Warnings.Error()
	if !strings.Contains(msg, "first") || !strings.Contains(msg, "second") {
		t.Errorf("expected both warnings in the aggregate error, got %q", msg)
	}
}

func TestCompileUnmatchedNonOptionalExtendIsAnError(t *testing.T) {
	in := compile.Input{Path: "a.scss", Contents: `.b { @extend .nonexistent; color: red; }`, HasContents: true}
	res := compile.Compile(in, config.Options{Style: printer.Expanded, Precision: 5}, memFS{}, nil, nil, nil)
	if res.Status != compile.StatusError {
		t.Fatalf("expected an error for an @extend target matching nothing, got status %v", res.Status)
	}
}

func TestCompileOptionalExtendUnmatchedIsNotAnError(t *testing.T) {
	in := compile.Input{Path: "a.scss", Contents: `.b { @extend .nonexistent !optional; color: red; }`, HasContents: true}
	res := compile.Compile(in, config.Options{Style: printer.Expanded, Precision: 5}, memFS{}, nil, nil, nil)
	if res.Status != compile.StatusOK {
		t.Fatalf("unexpected error: %+v", res.Error)
	}
}

func TestCompileCancellation(t *testing.T) {
	registry := compile.NewRegistry()
	id, cancel := registry.Begin()
	defer registry.End(id)
	registry.Cancel(id)

	in := compile.Input{Path: "a.scss", Contents: `$i: 0; @while $i < 1000000 { $i: $i + 1; } .a { b: $i }`, HasContents: true}
	res := compile.Compile(in, config.Options{Style: printer.Expanded, Precision: 5}, memFS{}, nil, nil, cancel)
	if res.Status != compile.StatusError {
		t.Fatalf("expected a cancellation error, got status %v", res.Status)
	}
}

func TestCompileCancellationBetweenTopLevelStatements(t *testing.T) {
	// Spec §5: the cancellation flag is checked between top-level
	// statements of the evaluator, not only inside @while loops — a
	// stylesheet with no unbounded construct at all must still honor a
	// cancellation requested before compilation starts.
	registry := compile.NewRegistry()
	id, cancel := registry.Begin()
	defer registry.End(id)
	registry.Cancel(id)

	in := compile.Input{Path: "a.scss", Contents: `.a { b: 1 } .c { d: 2 }`, HasContents: true}
	res := compile.Compile(in, config.Options{Style: printer.Expanded, Precision: 5}, memFS{}, nil, nil, cancel)
	if res.Status != compile.StatusError {
		t.Fatalf("expected a cancellation error, got status %v", res.Status)
	}
}
