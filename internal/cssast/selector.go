package cssast

// Selector nodes form a parallel typed tree (spec §9 "Selector engine as
// its own data model") rather than being threaded through the AST as raw
// strings: parent resolution and @extend (§4.H) are operations over this
// tree, and only the formatter ever turns it back into text.

type Combinator uint8

const (
	ComboNone Combinator = iota // only valid as the first compound of a complex
	ComboDescendant
	ComboChild      // ">"
	ComboAdjacent   // "+"
	ComboGeneral    // "~"
	ComboReference  // "/name/", reference name left uninterpreted
)

// SimplePart is the sum type of one simple selector (spec §3.2). Like Expr,
// it closes over an unexported marker so only this package can add cases.
type SimplePart interface {
	isSimplePart()
	// Equal reports structural equality modulo pseudo-class ordering
	// inside a compound, used by the superselector test (§4.H).
	Equal(other SimplePart) bool
}

type simplePartBase struct{}

func (simplePartBase) isSimplePart() {}

type TypeSelector struct {
	simplePartBase
	Name      string
	Namespace string // "" = no explicit namespace, "*" = any namespace
}

func (t TypeSelector) Equal(o SimplePart) bool {
	ot, ok := o.(TypeSelector)
	return ok && ot.Name == t.Name && ot.Namespace == t.Namespace
}

type IDSelector struct {
	simplePartBase
	Name string
}

func (s IDSelector) Equal(o SimplePart) bool { ot, ok := o.(IDSelector); return ok && ot.Name == s.Name }

type ClassSelector struct {
	simplePartBase
	Name string
}

func (s ClassSelector) Equal(o SimplePart) bool {
	ot, ok := o.(ClassSelector)
	return ok && ot.Name == s.Name
}

type PlaceholderSelector struct {
	simplePartBase
	Name string
}

func (s PlaceholderSelector) Equal(o SimplePart) bool {
	ot, ok := o.(PlaceholderSelector)
	return ok && ot.Name == s.Name
}

type ParentRefSelector struct{ simplePartBase }

func (ParentRefSelector) Equal(o SimplePart) bool { _, ok := o.(ParentRefSelector); return ok }

type PseudoSimple struct {
	simplePartBase
	Name      string
	IsElement bool // true for "::x", false for ":x"
}

func (p PseudoSimple) Equal(o SimplePart) bool {
	op, ok := o.(PseudoSimple)
	return ok && op.Name == p.Name && op.IsElement == p.IsElement
}

// PseudoFunctional's Arg holds either a raw string (most functional
// pseudos, e.g. :nth-child(2n+1)) or a nested SelectorList (e.g. :not(.a)),
// matching spec §3.2.
type PseudoFunctional struct {
	simplePartBase
	Name       string
	ArgText    string
	ArgSchema  *StringSchema
	ArgSelector *SelectorList
}

func (p PseudoFunctional) Equal(o SimplePart) bool {
	op, ok := o.(PseudoFunctional)
	if !ok || op.Name != p.Name || op.ArgText != p.ArgText {
		return false
	}
	if (p.ArgSelector == nil) != (op.ArgSelector == nil) {
		return false
	}
	if p.ArgSelector != nil {
		return p.ArgSelector.Equal(op.ArgSelector)
	}
	return true
}

type WrappedSelector struct {
	simplePartBase
	Name  string // e.g. "not", "has", "matches"
	Inner *SelectorList
}

func (w WrappedSelector) Equal(o SimplePart) bool {
	ow, ok := o.(WrappedSelector)
	return ok && ow.Name == w.Name && w.Inner.Equal(ow.Inner)
}

type AttrMatcher uint8

const (
	AttrExists AttrMatcher = iota
	AttrEquals
	AttrIncludes  // ~=
	AttrDashMatch // |=
	AttrPrefix    // ^=
	AttrSuffix    // $=
	AttrSubstring // *=
)

type AttributeSelector struct {
	simplePartBase
	Name      string
	Matcher   AttrMatcher
	Value     string
	CaseInsensitive bool
}

func (a AttributeSelector) Equal(o SimplePart) bool {
	oa, ok := o.(AttributeSelector)
	return ok && oa.Name == a.Name && oa.Matcher == a.Matcher && oa.Value == a.Value
}

// Compound is a sequence of simple selectors applied to the same element
// (spec GLOSSARY). HasParentRef tracks whether a "&" appeared anywhere in
// Simples, used by parent resolution (§4.H) to decide substitution vs.
// prefixing.
type Compound struct {
	Simples      []SimplePart
	HasParentRef bool
}

func (c Compound) Equal(o Compound) bool {
	if len(c.Simples) != len(o.Simples) {
		return false
	}
	// Order matters except among pseudo-classes (spec §4.H note).
	used := make([]bool, len(o.Simples))
outer:
	for _, s := range c.Simples {
		for i, os := range o.Simples {
			if !used[i] && s.Equal(os) {
				used[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}

// Complex is a sequence of compound selectors joined by combinators (spec
// GLOSSARY), represented as a flat slice with a combinator preceding each
// compound after the first (rather than esbuild-style recursive
// head/tail), which makes weaving and superselector traversal (§4.H) a
// plain index walk instead of recursive unwinding.
type ComplexPart struct {
	Combinator Combinator // ComboNone only for index 0
	Compound   Compound
	RefName    string // set when Combinator == ComboReference
}

type Complex struct {
	Parts []ComplexPart
}

func (c Complex) Equal(o Complex) bool {
	if len(c.Parts) != len(o.Parts) {
		return false
	}
	for i := range c.Parts {
		if c.Parts[i].Combinator != o.Parts[i].Combinator || !c.Parts[i].Compound.Equal(o.Parts[i].Compound) {
			return false
		}
	}
	return true
}

func (c Complex) HasParentRef() bool {
	for _, p := range c.Parts {
		if p.Compound.HasParentRef {
			return true
		}
	}
	return false
}

// SelectorList is flat (spec §3.3 invariant): nesting is only ever
// expressed through WrappedSelector.Inner.
type SelectorList struct {
	Complexes  []Complex
	IsOptional bool // "!optional" on the @extend target (supplemented feature)
}

func (l *SelectorList) Equal(o *SelectorList) bool {
	if l == nil || o == nil {
		return l == o
	}
	if len(l.Complexes) != len(o.Complexes) {
		return false
	}
	for i := range l.Complexes {
		if !l.Complexes[i].Equal(o.Complexes[i]) {
			return false
		}
	}
	return true
}

// SchemaPlaceholderName is the synthetic PseudoFunctional name the parser
// uses to stand in for a selector containing "#{...}" interpolation
// (spec §4.C "Selector schemas are re-parsed as selectors after their
// interpolants are evaluated"): parsing is deferred by wrapping the raw
// StringSchema in a single-compound SelectorList under this marker, and
// the evaluator re-enters the selector parser once the schema's holes
// have concrete string values.
const SchemaPlaceholderName = "#schema"

// AsSchemaPlaceholder reports whether l is exactly one deferred selector
// schema produced by the parser, returning its StringSchema if so.
func (l *SelectorList) AsSchemaPlaceholder() (*StringSchema, bool) {
	if l == nil || len(l.Complexes) != 1 {
		return nil, false
	}
	c := l.Complexes[0]
	if len(c.Parts) != 1 || len(c.Parts[0].Compound.Simples) != 1 {
		return nil, false
	}
	pf, ok := c.Parts[0].Compound.Simples[0].(PseudoFunctional)
	if !ok || pf.Name != SchemaPlaceholderName || pf.ArgSchema == nil {
		return nil, false
	}
	return pf.ArgSchema, true
}
