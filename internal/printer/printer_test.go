package printer_test

import (
	"testing"

	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/env"
	"github.com/riftss/riftss/internal/eval"
	"github.com/riftss/riftss/internal/logger"
	"github.com/riftss/riftss/internal/parser"
	"github.com/riftss/riftss/internal/printer"
	"github.com/riftss/riftss/internal/selector"
	"github.com/riftss/riftss/internal/source"
)

// compile runs one riftss source string through the real parser, evaluator
// and selector engine, the same pipeline a compilation driver would use,
// so these tests exercise the printer against realistic input rather than
// hand-built trees.
func compile(t *testing.T, src string) (*cssast.Block, *source.Store) {
	t.Helper()
	store := source.New()
	id, _ := store.Add("test.scss", src)
	arena := cssast.NewArena()
	log := logger.NewDeferLog()
	root := parser.Parse(store.Source(id), id, arena, log)

	e := env.New()
	ev := eval.New(e, log, store.Tracker(id))
	ev.SetSelectorResolver(selector.ResolveParent)
	lowered := ev.EvalStylesheet(root)

	var sels []*cssast.SelectorList
	var ctxs []int
	selector.CollectSelectors(lowered, 0, &sels, &ctxs)
	selector.ExpandExtends(ev.Extends, sels, ctxs, nil)

	if log.HasErrors() {
		for _, msg := range log.Done() {
			t.Fatalf("unexpected diagnostic: %s", msg.String())
		}
	}
	return lowered, store
}

func expectPrinted(t *testing.T, style printer.Style, src, expected string) {
	t.Helper()
	t.Run(src, func(t *testing.T) {
		t.Helper()
		lowered, store := compile(t, src)
		css, _ := printer.Print(lowered, store, printer.Options{Style: style})
		if css != expected {
			t.Errorf("\ngot:\n%s\nwant:\n%s", css, expected)
		}
	})
}

func TestPrintNested(t *testing.T) {
	expectPrinted(t, printer.Nested, `.a { color: red; b { width: 1px } }`,
		".a {\n  color: red;\n}\n.a b {\n  width: 1px;\n}\n")
}

func TestPrintExpanded(t *testing.T) {
	expectPrinted(t, printer.Expanded, `.a, .b { color: red; width: 2px; }`,
		".a,\n.b {\n  color: red;\n  width: 2px;\n}\n")
}

func TestPrintCompact(t *testing.T) {
	expectPrinted(t, printer.Compact, `.a { color: red; width: 2px; }`,
		".a { color: red; width: 2px; }\n")
}

func TestPrintCompressed(t *testing.T) {
	expectPrinted(t, printer.Compressed, `.a { color: red; width: 2px; }`,
		".a{color:red;width:2px}")
}

func TestPrintParentReference(t *testing.T) {
	expectPrinted(t, printer.Nested, `.a { &:hover { color: blue } }`,
		".a:hover {\n  color: blue;\n}\n")
}

func TestPrintMediaNesting(t *testing.T) {
	lowered, store := compile(t, `@media screen { .a { color: red } }`)
	css, _ := printer.Print(lowered, store, printer.Options{Style: printer.Nested})
	expected := "@media screen {\n  .a {\n    color: red;\n  }\n}\n"
	if css != expected {
		t.Errorf("\ngot:\n%s\nwant:\n%s", css, expected)
	}
}

func TestPrintExtend(t *testing.T) {
	lowered, store := compile(t, `.msg { color: red } .err { @extend .msg; border: 1px solid }`)
	css, _ := printer.Print(lowered, store, printer.Options{Style: printer.Expanded})
	if css == "" {
		t.Fatalf("expected non-empty output")
	}
	// .err should now be unioned onto .msg's rule by the extend pass.
	if want := ".msg,\n.err {"; !contains(css, want) {
		t.Errorf("expected extend-unioned selector group %q in:\n%s", want, css)
	}
}

func TestPrintSourceMap(t *testing.T) {
	lowered, store := compile(t, `.a { color: red }`)
	_, smJSON := printer.Print(lowered, store, printer.Options{Style: printer.Nested, GenerateSourceMap: true})
	if smJSON == nil {
		t.Fatalf("expected a source map when GenerateSourceMap is set")
	}
	if !contains(string(smJSON), `"version":3`) {
		t.Errorf("expected a version-3 source map, got: %s", smJSON)
	}
}

func TestPrintQuotedStringPreservesQuotes(t *testing.T) {
	expectPrinted(t, printer.Nested, `.a { content: "hi" }`,
		".a {\n  content: \"hi\";\n}\n")
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
