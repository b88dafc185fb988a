package parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/logger"
	"github.com/riftss/riftss/internal/parser"
)

// selectorListComparer lets cmp.Diff walk SelectorList/Complex/Compound
// values using the structural Equal the selector engine itself relies on
// (spec §4.H), rather than tripping over the SimplePart sum type's
// unexported marker method.
var selectorListComparer = cmp.Comparer(func(a, b *cssast.SelectorList) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
})

func parse(t *testing.T, src string) *cssast.Block {
	t.Helper()
	log := logger.NewDeferLog()
	source := &logger.Source{Contents: src, PrettyPath: "test.scss"}
	arena := cssast.NewArena()
	root := parser.Parse(source, 0, arena, log)
	if log.HasErrors() {
		for _, msg := range log.Done() {
			t.Fatalf("unexpected parse error: %s", msg.String())
		}
	}
	return root
}

func parseError(t *testing.T, src string) string {
	t.Helper()
	log := logger.NewDeferLog()
	source := &logger.Source{Contents: src, PrettyPath: "test.scss"}
	arena := cssast.NewArena()
	parser.Parse(source, 0, arena, log)
	if !log.HasErrors() {
		t.Fatalf("expected a parse error for %q, got none", src)
	}
	msgs := log.Done()
	return msgs[0].Data.Text
}

func TestParseRuleset(t *testing.T) {
	root := parse(t, `.a { color: red; }`)
	if len(root.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(root.Statements))
	}
	rule, ok := root.Statements[0].(*cssast.Ruleset)
	if !ok {
		t.Fatalf("expected *cssast.Ruleset, got %T", root.Statements[0])
	}
	if len(rule.Block.Statements) != 1 {
		t.Fatalf("expected 1 declaration inside ruleset, got %d", len(rule.Block.Statements))
	}
	if _, ok := rule.Block.Statements[0].(*cssast.Declaration); !ok {
		t.Fatalf("expected *cssast.Declaration, got %T", rule.Block.Statements[0])
	}
}

func TestParseVariableAssignment(t *testing.T) {
	root := parse(t, `$x: 10px !default;`)
	assign, ok := root.Statements[0].(*cssast.Assignment)
	if !ok {
		t.Fatalf("expected *cssast.Assignment, got %T", root.Statements[0])
	}
	if assign.Name != "x" {
		t.Errorf("expected variable name %q, got %q", "x", assign.Name)
	}
	if !assign.IsDefault {
		t.Errorf("expected !default to set IsDefault")
	}
}

func TestParseIfElse(t *testing.T) {
	root := parse(t, `@if $a == 1 { color: red } @else { color: blue }`)
	stmt, ok := root.Statements[0].(*cssast.If)
	if !ok {
		t.Fatalf("expected *cssast.If, got %T", root.Statements[0])
	}
	if stmt.Alternative == nil {
		t.Fatalf("expected an else branch")
	}
}

func TestParseEach(t *testing.T) {
	root := parse(t, `@each $k, $v in $map { color: $v }`)
	each, ok := root.Statements[0].(*cssast.Each)
	if !ok {
		t.Fatalf("expected *cssast.Each, got %T", root.Statements[0])
	}
	if len(each.Vars) != 2 || each.Vars[0] != "k" || each.Vars[1] != "v" {
		t.Errorf("expected vars [k v], got %v", each.Vars)
	}
}

func TestParseForRange(t *testing.T) {
	root := parse(t, `@for $i from 1 through 3 { width: $i }`)
	forStmt, ok := root.Statements[0].(*cssast.For)
	if !ok {
		t.Fatalf("expected *cssast.For, got %T", root.Statements[0])
	}
	if !forStmt.Inclusive {
		t.Errorf("expected 'through' to be inclusive")
	}
}

func TestParseFunctionDefinition(t *testing.T) {
	root := parse(t, `@function double($n) { @return $n * 2; }`)
	def, ok := root.Statements[0].(*cssast.Definition)
	if !ok {
		t.Fatalf("expected *cssast.Definition, got %T", root.Statements[0])
	}
	if def.Kind != cssast.DefFunction {
		t.Errorf("expected function definition kind, got %v", def.Kind)
	}
}

func TestParseExtend(t *testing.T) {
	root := parse(t, `.a { @extend .b; }`)
	rule := root.Statements[0].(*cssast.Ruleset)
	if _, ok := rule.Block.Statements[0].(*cssast.Extend); !ok {
		t.Fatalf("expected *cssast.Extend, got %T", rule.Block.Statements[0])
	}
}

func TestParseUnterminatedBlockIsError(t *testing.T) {
	msg := parseError(t, `.a { color: red;`)
	if msg == "" {
		t.Fatalf("expected a non-empty error message")
	}
}

func TestParseSelectorRoundTrip(t *testing.T) {
	// Spec §8 property 7: parsing a selector string, serializing it, and
	// reparsing produces an equal AST.
	cases := []string{
		`.a`,
		`a.b > c + d`,
		`.a .b`,
		`#id.klass:hover::before`,
		`a[href^="http"]`,
		`.a, .b, .c`,
		`:not(.a, .b)`,
	}
	for _, src := range cases {
		log := logger.NewDeferLog()
		tracker := logger.MakeLineColumnTracker(&logger.Source{Contents: src, PrettyPath: "test.scss"})
		first := parser.ParseSelectorListString(log, tracker, src)
		if log.HasErrors() {
			t.Fatalf("unexpected error parsing %q", src)
		}
		text := cssast.FormatSelectorList(first)

		log2 := logger.NewDeferLog()
		second := parser.ParseSelectorListString(log2, tracker, text)
		if log2.HasErrors() {
			t.Fatalf("unexpected error reparsing %q", text)
		}

		if diff := cmp.Diff(first, second, selectorListComparer); diff != "" {
			t.Errorf("round trip of %q through %q produced a different selector (-first +second):\n%s", src, text, diff)
		}
	}
}

func TestParseImportURLPassthrough(t *testing.T) {
	root := parse(t, `@import "http://example.com/a.css";`)
	imp, ok := root.Statements[0].(*cssast.Import)
	if !ok {
		t.Fatalf("expected *cssast.Import, got %T", root.Statements[0])
	}
	if len(imp.URLs) != 1 {
		t.Errorf("expected one passthrough URL, got %d", len(imp.URLs))
	}
}
