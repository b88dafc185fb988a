// Package cssast implements the AST and arena of spec §3 / §4.D: a tagged
// node hierarchy (statements, expressions, selectors, parameters/arguments)
// all owned by one arena bound to a single compilation.
//
// Grounded on esbuild's internal/css_ast: the "R interface with an
// unexported marker method" trick that encodes a closed sum type in Go's
// type system is kept verbatim (`isRule()` there, `isStmt()`/`isExpr()`/
// `isSelectorPart()` here) because it is exactly the mechanism spec §9
// ("Visitor-based evaluation... the deep virtual hierarchy collapses into
// a sum type") asks for. What differs is the node set itself: esbuild's
// css_ast models plain CSS (Token trees for values, no variables or
// control flow); spec §3.2 needs a full expression language, so the value
// side grows into Binary/Unary/Variable/FunctionCall/Number/Color/etc.
// nodes instead of esbuild's single untyped Token chain.
//
// Arena. Go's garbage collector already gives every node here "freed when
// nothing references it any more" for free, so there is no manual
// allocator to write. What the arena still buys, and what this type
// provides, is (a) one place that stamps every node with the span it was
// parsed or synthesized from, (b) a shared Source reference so spans never
// outlive their compilation, and (c) the import-record table described in
// spec §4.E, addressed by small integer indices the way esbuild's
// ast.ImportRecord table is.
package cssast

import (
	"github.com/riftss/riftss/internal/ast"
	"github.com/riftss/riftss/internal/logger"
)

// Arena owns every node created for one compilation. All spans handed out
// by an Arena refer to sources registered with the same compilation's
// source store; nothing here is safe to share across compilations.
type Arena struct {
	ImportRecords []ast.ImportRecord
}

func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) AddImportRecord(rec ast.ImportRecord) uint32 {
	idx := uint32(len(a.ImportRecords))
	a.ImportRecords = append(a.ImportRecords, rec)
	return idx
}

// Span is a pair of positions within one source file (spec §3.1).
type Span struct {
	PathIndex uint32
	Range     logger.Range
}
