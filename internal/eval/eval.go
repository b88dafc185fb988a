package eval

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/env"
	"github.com/riftss/riftss/internal/logger"
	"github.com/riftss/riftss/internal/selector"
)

// contentFrame is one entry of the @content stack: the caller-supplied
// block passed to a mixin invocation, paired with the environment snapshot
// it must be evaluated against (spec §4.G: "@content expands to the
// caller-supplied block evaluated in the caller's environment"). A stack
// rather than a single slot lets @content reach through nested mixin calls
// and control-flow bodies inside the mixin that declared it.
type contentFrame struct {
	block    *cssast.Block
	snapshot env.Snapshot
}

// Evaluator walks one compilation's AST, threading an environment and
// accumulating the lowered CSS-only tree plus any @extend rules found
// along the way.
type Evaluator struct {
	Env     *env.Environment
	Log     logger.Log
	Extends []selector.ExtendRule

	// Precision bounds the decimal places FormatNumber keeps (spec §4.I),
	// defaulting to 5 to match the corpus's common Sass-family default.
	Precision int

	// Tracker positions diagnostics against the source currently being
	// evaluated; evalImport swaps it out for the duration of an inlined
	// file and restores it afterward.
	Tracker logger.LineColumnTracker

	// ResolveImport receives, in order, the root blocks of files an @import
	// resolved to file form (spec §4.E); the caller is expected to have
	// already parsed these and hands them in via ResolveImport. done, if
	// non-nil, is called once this file's nested statements have finished
	// evaluating — the driver uses it to pop the directory it pushed for
	// resolving this file's own relative imports.
	ResolveImport func(url string) (block *cssast.Block, tracker logger.LineColumnTracker, isFile bool, done func())

	resolveSelector func(schema *cssast.SelectorList, parent *cssast.SelectorList) *cssast.SelectorList

	mediaStack   []cssast.MediaQuery
	selStack     []*cssast.SelectorList
	contentStack []contentFrame

	// mediaContextCounter/mediaContextStack implement the Open Question
	// decision (SPEC_FULL.md) that @extend only matches within the media
	// context it was declared in: context 0 is the root stylesheet, and
	// every @media block entered during evaluation takes the next integer
	// from one shared counter, so sibling @media blocks get distinct ids.
	mediaContextCounter int
	mediaContextStack   []int

	// Cancelled, when non-nil, is checked before each root-level statement
	// and on every @while iteration (the only unbounded construct in the
	// language) so a driver running several
	// compilations concurrently can abort a runaway one (spec §6/§7 "User
	// (from @error or cancellation)") without killing the process.
	Cancelled *int32
}

func (ev *Evaluator) isCancelled() bool {
	return ev.Cancelled != nil && atomic.LoadInt32(ev.Cancelled) != 0
}

func New(e *env.Environment, log logger.Log, tracker logger.LineColumnTracker) *Evaluator {
	return &Evaluator{Env: e, Log: log, Tracker: tracker, Precision: 5, mediaContextStack: []int{0}}
}

func (ev *Evaluator) currentMediaContext() int {
	return ev.mediaContextStack[len(ev.mediaContextStack)-1]
}

// SetSelectorResolver installs the §4.H parent-reference resolver the
// evaluator calls whenever it descends into a nested ruleset, so that
// the selector engine's parent-weaving logic stays in its own package
// while the evaluator drives the overall walk.
func (ev *Evaluator) SetSelectorResolver(f func(schema *cssast.SelectorList, parent *cssast.SelectorList) *cssast.SelectorList) {
	ev.resolveSelector = f
}

func (ev *Evaluator) errAt(span cssast.Span, kind logger.Kind, format string, args ...interface{}) {
	ev.Log.Add(kind, &ev.Tracker, span.Range, fmt.Sprintf(format, args...))
}

// EvalStylesheet evaluates a root block, returning the lowered CSS-only
// block (spec §4.G contract).
func (ev *Evaluator) EvalStylesheet(root *cssast.Block) *cssast.Block {
	return ev.evalBlockStatements(root, nil)
}

func currentSelector(ev *Evaluator) *cssast.SelectorList {
	if len(ev.selStack) == 0 {
		return nil
	}
	return ev.selStack[len(ev.selStack)-1]
}

// evalBlockStatements evaluates every statement of block in order,
// flattening control-flow/mixin expansions into the returned block's
// statement list (spec §4.G: the lowered tree has no trace of them).
//
// For the root block, the cancellation flag (spec §5: "a compilation
// checks a cancellation flag between top-level statements of the
// evaluator") is polled before each statement so a long-running top-level
// @while/@each/@for isn't the only way to observe a cancelled compilation
// — a file with many slow top-level statements can also be cut short
// between them.
func (ev *Evaluator) evalBlockStatements(block *cssast.Block, parentSelector *cssast.SelectorList) *cssast.Block {
	out := &cssast.Block{IsRoot: block.IsRoot}
	for _, stmt := range block.Statements {
		if block.IsRoot && ev.isCancelled() {
			ev.errAt(stmt.Span(), logger.User, "compilation cancelled")
			break
		}
		out.Statements = append(out.Statements, ev.evalStmt(stmt, parentSelector)...)
	}
	return out
}

func (ev *Evaluator) evalStmt(stmt cssast.Stmt, parentSelector *cssast.SelectorList) []cssast.Stmt {
	switch s := stmt.(type) {
	case *cssast.Assignment:
		ev.evalAssignment(s)
		return nil

	case *cssast.Ruleset:
		return ev.evalRuleset(s, parentSelector)

	case *cssast.Propset:
		return ev.evalPropset(s)

	case *cssast.Declaration:
		return []cssast.Stmt{ev.evalDeclaration(s)}

	case *cssast.MediaBlock:
		return ev.evalMedia(s, parentSelector)

	case *cssast.AtRule:
		return []cssast.Stmt{ev.evalGenericAtRule(s)}

	case *cssast.AtRootBlock:
		return ev.evalAtRoot(s, parentSelector)

	case *cssast.If:
		return ev.evalIf(s, parentSelector)

	case *cssast.For:
		return ev.evalFor(s, parentSelector)

	case *cssast.Each:
		return ev.evalEach(s, parentSelector)

	case *cssast.While:
		return ev.evalWhile(s, parentSelector)

	case *cssast.Definition:
		ev.evalDefinition(s)
		return nil

	case *cssast.MixinCall:
		return ev.evalMixinCall(s, parentSelector)

	case *cssast.Extend:
		ev.evalExtend(s, parentSelector)
		return nil

	case *cssast.Import:
		return ev.evalImport(s)

	case *cssast.Diagnostic:
		ev.evalDiagnostic(s)
		return nil

	case *cssast.Comment:
		if s.IsLoud {
			return []cssast.Stmt{s}
		}
		return nil

	case *cssast.Content:
		return ev.evalContent(parentSelector)

	case *cssast.Return:
		// Only meaningful inside a function body; execFunctionStmts (call.go) searches
		// for it directly rather than reaching this dispatch.
		return nil
	}
	return nil
}

func (ev *Evaluator) evalAssignment(s *cssast.Assignment) {
	v := ev.evalExpr(s.Value)
	switch {
	case s.IsGlobal:
		ev.Env.SetGlobal(s.Name, v)
	case s.IsDefault:
		ev.Env.SetDefault(s.Name, v)
	default:
		ev.Env.Set(s.Name, v)
	}
}

func (ev *Evaluator) evalDeclaration(s *cssast.Declaration) cssast.Stmt {
	prop := ev.evalToStringExpr(s.Property)
	val := ev.evalExpr(s.Value)
	return &cssast.Declaration{Property: prop, Value: val, IsImportant: s.IsImportant}
}

func (ev *Evaluator) evalPropset(s *cssast.Propset) []cssast.Stmt {
	prefix := ev.evalToStringExpr(s.PropertyPrefix)
	prefixText := stringExprText(prefix)
	var out []cssast.Stmt
	for _, inner := range s.Block.Statements {
		decl, ok := inner.(*cssast.Declaration)
		if !ok {
			out = append(out, ev.evalStmt(inner, nil)...)
			continue
		}
		innerProp := ev.evalToStringExpr(decl.Property)
		merged := &cssast.StringConstant{Value: prefixText + "-" + stringExprText(innerProp)}
		out = append(out, &cssast.Declaration{Property: merged, Value: ev.evalExpr(decl.Value), IsImportant: decl.IsImportant})
	}
	return out
}

func stringExprText(e cssast.Expr) string {
	switch v := e.(type) {
	case *cssast.StringConstant:
		return v.Value
	case *cssast.StringQuoted:
		return v.Value
	}
	return ""
}

// evalToStringExpr resolves a (possibly schema) expression down to a
// plain string-bearing node, used for property names and selector
// literal text once interpolation has been substituted.
func (ev *Evaluator) evalToStringExpr(e cssast.Expr) cssast.Expr {
	if schema, ok := e.(*cssast.StringSchema); ok {
		return &cssast.StringConstant{Value: ev.evalSchemaToText(schema)}
	}
	return e
}

func (ev *Evaluator) evalSchemaToText(schema *cssast.StringSchema) string {
	var sb strings.Builder
	for _, part := range schema.Parts {
		if part.Expr == nil {
			sb.WriteString(part.Literal)
			continue
		}
		sb.WriteString(ev.stringify(ev.evalExpr(part.Expr)))
	}
	return sb.String()
}

func (ev *Evaluator) evalGenericAtRule(s *cssast.AtRule) cssast.Stmt {
	var body *cssast.Block
	if s.Block != nil {
		body = ev.evalBlockStatements(s.Block, currentSelector(ev))
	}
	var sel *cssast.SelectorList
	if s.Selector != nil {
		sel = ev.resolveSchemaSelector(s.Selector)
	}
	var val cssast.Expr
	if s.Value != nil {
		val = ev.evalExpr(s.Value)
	}
	return &cssast.AtRule{Keyword: s.Keyword, Selector: sel, Value: val, Block: body}
}

func (ev *Evaluator) evalImport(s *cssast.Import) []cssast.Stmt {
	var out []cssast.Stmt
	for _, u := range s.URLs {
		if ev.ResolveImport == nil {
			out = append(out, &cssast.Import{URLs: []string{u}, MediaQueries: s.MediaQueries})
			continue
		}
		if block, tracker, isFile, done := ev.ResolveImport(u); isFile {
			saved := ev.Tracker
			ev.Tracker = tracker
			lowered := ev.evalBlockStatements(block, currentSelector(ev))
			ev.Tracker = saved
			if done != nil {
				done()
			}
			out = append(out, lowered.Statements...)
		} else {
			out = append(out, &cssast.Import{URLs: []string{u}, MediaQueries: s.MediaQueries})
		}
	}
	return out
}

func (ev *Evaluator) evalDiagnostic(s *cssast.Diagnostic) {
	text := ev.stringify(ev.evalExpr(s.Value))
	switch s.Kind {
	case cssast.DiagWarning:
		ev.Log.Add(logger.Warning, &ev.Tracker, s.Span().Range, text)
	case cssast.DiagDebug:
		ev.Log.Add(logger.Debug, &ev.Tracker, s.Span().Range, text)
	case cssast.DiagError:
		ev.Log.Add(logger.User, &ev.Tracker, s.Span().Range, text)
	}
}
