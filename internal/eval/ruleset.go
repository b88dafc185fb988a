package eval

import (
	"strings"

	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/logger"
	"github.com/riftss/riftss/internal/parser"
	"github.com/riftss/riftss/internal/selector"
)

// resolveSchemaSelector substitutes any "#{...}" interpolation a selector
// schema still carries (spec §4.C: "Selector schemas are re-parsed as
// selectors after their interpolants are evaluated") but does not weave
// parent references — used both by ruleset selectors (which do weave,
// via resolveRulesetSelector below) and by @extend targets (which never
// weave against the enclosing selector).
func (ev *Evaluator) resolveSchemaSelector(sel *cssast.SelectorList) *cssast.SelectorList {
	schema, ok := sel.AsSchemaPlaceholder()
	if !ok {
		return sel
	}
	text := ev.evalSchemaToText(schema)
	return parser.ParseSelectorListString(ev.Log, ev.Tracker, text)
}

func (ev *Evaluator) resolveRulesetSelector(sel, parent *cssast.SelectorList) *cssast.SelectorList {
	resolved := ev.resolveSchemaSelector(sel)
	if parent == nil {
		return resolved
	}
	if ev.resolveSelector != nil {
		return ev.resolveSelector(resolved, parent)
	}
	return selector.ResolveParent(resolved, parent)
}

// evalRuleset implements spec §4.G's ruleset lowering: the selector is
// resolved (schema substitution, then parent weaving), declarations stay
// with this rule, and anything a child statement expands to that is not
// itself a plain declaration/comment (nested rulesets, media blocks,
// passed-through at-rules) is hoisted to sibling position, since the
// lowered tree has no nesting (spec §4.G contract).
func (ev *Evaluator) evalRuleset(s *cssast.Ruleset, parentSelector *cssast.SelectorList) []cssast.Stmt {
	sel := ev.resolveRulesetSelector(s.Selector, parentSelector)

	ev.Env.Push()
	ev.selStack = append(ev.selStack, sel)

	own := &cssast.Block{}
	var siblings []cssast.Stmt
	for _, stmt := range s.Block.Statements {
		for _, r := range ev.evalStmt(stmt, sel) {
			switch r.(type) {
			case *cssast.Declaration, *cssast.Comment:
				own.Statements = append(own.Statements, r)
			default:
				siblings = append(siblings, r)
			}
		}
	}

	ev.selStack = ev.selStack[:len(ev.selStack)-1]
	ev.Env.Pop()

	out := []cssast.Stmt{&cssast.Ruleset{Selector: sel, Block: own}}
	return append(out, siblings...)
}

// evalMedia implements @media nesting (spec §4.G): nested @media combines
// with any enclosing query via combineMediaQueries, and the body is
// walked at the *same* selector nesting depth it was declared at (an
// @media inside a ruleset keeps that ruleset's selector for its own
// nested rulesets).
func (ev *Evaluator) evalMedia(s *cssast.MediaBlock, parentSelector *cssast.SelectorList) []cssast.Stmt {
	savedQueries := ev.mediaStack
	combined := combineMediaQueries(savedQueries, s.Queries)
	ev.mediaStack = combined

	ev.mediaContextCounter++
	ev.mediaContextStack = append(ev.mediaContextStack, ev.mediaContextCounter)

	var out []cssast.Stmt
	for _, stmt := range s.Block.Statements {
		out = append(out, ev.evalStmt(stmt, parentSelector)...)
	}

	ev.mediaContextStack = ev.mediaContextStack[:len(ev.mediaContextStack)-1]
	ev.mediaStack = savedQueries

	return []cssast.Stmt{&cssast.MediaBlock{Queries: combined, Block: &cssast.Block{Statements: out}}}
}

// combineMediaQueries implements the Open Question decision recorded in
// SPEC_FULL.md: nested @media intersects with its ancestors via a
// cross-product AND of every outer query against every inner query. This
// is a simplification of full media-query boolean algebra (it does not
// detect or collapse queries that can never both be true) but it never
// silently drops a combination a full implementation would keep.
func combineMediaQueries(outer, inner []cssast.MediaQuery) []cssast.MediaQuery {
	if len(outer) == 0 {
		return inner
	}
	if len(inner) == 0 {
		return outer
	}
	out := make([]cssast.MediaQuery, 0, len(outer)*len(inner))
	for _, o := range outer {
		for _, in := range inner {
			out = append(out, intersectQuery(o, in))
		}
	}
	return out
}

func intersectQuery(a, b cssast.MediaQuery) cssast.MediaQuery {
	q := cssast.MediaQuery{Features: append(append([]cssast.MediaFeature{}, a.Features...), b.Features...)}
	switch {
	case a.Type == "":
		q.Type = b.Type
	default:
		q.Type = a.Type
		if b.Type != "" {
			q.Type = b.Type
		}
	}
	q.Modifier = a.Modifier
	if b.Modifier != "" {
		q.Modifier = b.Modifier
	}
	return q
}

// evalAtRoot implements @at-root (spec §4.G and the supplemented
// `(with: ...)`/`(without: ...)` filter): by default it strips only the
// selector context, keeping any enclosing @media; an explicit filter
// names which of "rule"/"media"/"all" to keep or drop.
func (ev *Evaluator) evalAtRoot(s *cssast.AtRootBlock, parentSelector *cssast.SelectorList) []cssast.Stmt {
	keepSelector, keepMedia := false, true
	if f := s.FeatureFilter; f != nil {
		switch {
		case hasKeyword(f.With, "all"):
			keepSelector, keepMedia = true, true
		case len(f.With) > 0:
			keepSelector = hasKeyword(f.With, "rule")
			keepMedia = hasKeyword(f.With, "media")
		}
		switch {
		case hasKeyword(f.Without, "all"):
			keepSelector, keepMedia = false, false
		case len(f.Without) > 0:
			if hasKeyword(f.Without, "rule") {
				keepSelector = false
			}
			if hasKeyword(f.Without, "media") {
				keepMedia = false
			}
		}
	}

	effectiveParent := parentSelector
	if !keepSelector {
		effectiveParent = nil
	}
	savedMedia := ev.mediaStack
	if !keepMedia {
		ev.mediaStack = nil
	}

	var out []cssast.Stmt
	for _, stmt := range s.Body.Statements {
		out = append(out, ev.evalStmt(stmt, effectiveParent)...)
	}

	ev.mediaStack = savedMedia
	return out
}

func hasKeyword(list []string, kw string) bool {
	for _, s := range list {
		if strings.EqualFold(s, kw) {
			return true
		}
	}
	return false
}

// evalExtend collects one `@extend` directive (spec §4.G "Collected
// during evaluation"); resolution against the rest of the stylesheet
// happens once in the selector engine (§4.H) after the whole tree has
// been walked, via selector.ExpandExtends.
func (ev *Evaluator) evalExtend(s *cssast.Extend, parentSelector *cssast.SelectorList) {
	if parentSelector == nil {
		ev.errAt(s.Span(), logger.Syntax, "@extend may only appear inside a ruleset")
		return
	}
	target := ev.resolveSchemaSelector(s.Target)
	ev.Extends = append(ev.Extends, selector.ExtendRule{
		ExtenderSelector: parentSelector,
		Target:           target,
		Optional:         s.Target.IsOptional,
		MediaContext:     ev.currentMediaContext(),
		Span:             s.Span(),
	})
}

// evalDefinition implements spec §4.F: mixins and functions bind in the
// current frame and never shadow each other.
func (ev *Evaluator) evalDefinition(s *cssast.Definition) {
	switch s.Kind {
	case cssast.DefMixin:
		ev.Env.DefineMixin(s.Name, s)
	case cssast.DefFunction:
		ev.Env.DefineFunction(s.Name, s)
	}
}

// evalMixinCall implements spec §4.G mixin application: the callee body
// runs in a fresh frame with its parameters bound, and any `@content`
// block is stacked so evalContent can later splice it back in, evaluated
// against the *caller's* environment rather than the mixin body's.
func (ev *Evaluator) evalMixinCall(s *cssast.MixinCall, parentSelector *cssast.SelectorList) []cssast.Stmt {
	def, ok := ev.Env.LookupMixin(s.Name)
	if !ok {
		ev.errAt(s.Span(), logger.Undefined, "undefined mixin \"%s\"", s.Name)
		return nil
	}
	if def.Native != nil {
		eargs := ev.evalArguments(s.Arguments)
		if _, err := def.Native(eargs.Positional); err != nil {
			ev.errAt(s.Span(), logger.User, "%s", err.Error())
		}
		return nil
	}

	callerSnapshot := ev.Env.Snapshot()
	ev.Env.Push()
	ev.bindArguments(def.Parameters, s.Arguments, s.Span())

	if s.ContentBlock != nil {
		ev.contentStack = append(ev.contentStack, contentFrame{block: s.ContentBlock, snapshot: callerSnapshot})
	}

	var out []cssast.Stmt
	for _, stmt := range def.Body.Statements {
		out = append(out, ev.evalStmt(stmt, parentSelector)...)
	}

	if s.ContentBlock != nil {
		ev.contentStack = ev.contentStack[:len(ev.contentStack)-1]
	}
	ev.Env.Pop()
	return out
}

// evalContent implements `@content` (spec §4.G): it splices the nearest
// enclosing mixin call's caller-supplied block back in, evaluated in that
// caller's environment (via env.WithSnapshot) so variables visible at the
// @include site, not inside the mixin body, are what @content sees.
func (ev *Evaluator) evalContent(parentSelector *cssast.SelectorList) []cssast.Stmt {
	if len(ev.contentStack) == 0 {
		return nil
	}
	frame := ev.contentStack[len(ev.contentStack)-1]
	var out []cssast.Stmt
	ev.Env.WithSnapshot(frame.snapshot, func() {
		ev.Env.Push()
		defer ev.Env.Pop()
		for _, stmt := range frame.block.Statements {
			out = append(out, ev.evalStmt(stmt, parentSelector)...)
		}
	})
	return out
}
