package cssast

// Expr is the sum type of every expression node in spec §3.2. Like the
// statement sum type, this follows esbuild's `R interface { isRule() }`
// trick: an unexported marker method closes the set of implementers to
// this package, while allowing a visitor (the evaluator, the printer) to
// type-switch over the concrete kind.
type Expr interface {
	isExpr()
	Span() Span
}

type exprBase struct{ S Span }

func (exprBase) isExpr()        {}
func (e exprBase) Span() Span   { return e.S }

// SetSpan lets other packages (the parser) stamp a span onto a node after
// constructing it with a keyed literal, since the embedded exprBase field
// itself is unexported and can't be set directly from outside this package.
func (b *exprBase) SetSpan(s Span) { b.S = s }

type ListSeparator uint8

const (
	SepComma ListSeparator = iota
	SepSpace
)

type List struct {
	exprBase
	Separator ListSeparator
	Items     []Expr
	Bracketed bool // "[...]" list, as accepted by some functions
}

type MapPair struct {
	Key   Expr
	Value Expr
}

type Map struct {
	exprBase
	Pairs []MapPair
}

type BinaryOp uint8

const (
	BinOr BinaryOp = iota
	BinAnd
	BinEq
	BinNeq
	BinGt
	BinGte
	BinLt
	BinLte
	BinAdd
	BinSub
	BinMul
	BinDiv
	BinMod
)

type Binary struct {
	exprBase
	Op       BinaryOp
	Lhs, Rhs Expr
}

type UnaryOp uint8

const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
	UnaryNot
)

type Unary struct {
	exprBase
	Op      UnaryOp
	Operand Expr
}

type Variable struct {
	exprBase
	Name string
}

type FunctionCall struct {
	exprBase
	Name       string     // empty when NameSchema is set
	NameSchema *StringSchema
	Arguments  *Arguments
}

// Number carries numerator/denominator unit multisets so arithmetic (§4.G)
// can cancel and convert units before producing a result, per spec §3.2.
type Number struct {
	exprBase
	Value           float64
	NumeratorUnits  []string
	DenominatorUnits []string
}

func NewScalar(s Span, v float64) *Number { return &Number{exprBase: exprBase{s}, Value: v} }

func NewDimension(s Span, v float64, unit string) *Number {
	return &Number{exprBase: exprBase{s}, Value: v, NumeratorUnits: []string{unit}}
}

// Color channels are always clamped on construction (spec §3.3 invariant).
type Color struct {
	exprBase
	R, G, B     float64 // [0, 255]
	A           float64 // [0, 1]
	DisplayName string  // e.g. "red", preserved when a named color is parsed verbatim
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func NewColor(s Span, r, g, b, a float64, name string) *Color {
	return &Color{exprBase: exprBase{s}, R: clamp(r, 0, 255), G: clamp(g, 0, 255), B: clamp(b, 0, 255), A: clamp(a, 0, 1), DisplayName: name}
}

type Boolean struct {
	exprBase
	Value bool
}

type Null struct{ exprBase }

type QuoteMark uint8

const (
	QuoteDouble QuoteMark = iota
	QuoteSingle
)

type StringQuoted struct {
	exprBase
	Value string
	Quote QuoteMark
}

// StringConstant is an unquoted identifier-like string (spec §3.2).
type StringConstant struct {
	exprBase
	Value string
}

// SchemaPart is one alternating element of a StringSchema/SelectorSchema:
// either a literal run of text or a deferred expression hole (spec §4.C
// "Interpolation as schemas").
type SchemaPart struct {
	Literal string // set when Expr == nil
	Expr    Expr
}

type StringSchema struct {
	exprBase
	Parts  []SchemaPart
	Quoted bool // true if this schema appeared inside a quoted string
	Quote  QuoteMark
}

type ParentReference struct{ exprBase }

type Important struct{ exprBase }
