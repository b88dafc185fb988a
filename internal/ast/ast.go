// Package ast holds the small set of position and reference primitives
// shared by every later stage of the compiler (lexer, parser, evaluator,
// selector engine, printer). Keeping them in one leaf package means no
// other package needs to import the parser just to talk about a source
// position.
package ast

import "github.com/riftss/riftss/internal/logger"

// Index32 stores a 32-bit index where the zero value is an invalid index.
// This is a better alternative to a pointer or a (bool, int) pair: it's the
// same size as a raw index, but the zero value is distinguishable from a
// valid index 0.
type Index32 struct {
	flippedBits uint32
}

func MakeIndex32(index uint32) Index32 {
	return Index32{flippedBits: ^index}
}

func (i Index32) IsValid() bool {
	return i.flippedBits != 0
}

func (i Index32) GetIndex() uint32 {
	return ^i.flippedBits
}

// ImportKind distinguishes the two outcomes of the import resolver (§4.E):
// a file that was loaded and parsed, and a URL that passes straight through
// to the output.
type ImportKind uint8

const (
	ImportFile ImportKind = iota
	ImportURLPassthrough
)

// ImportRecord is created by the parser for every `@import` statement and
// filled in by the resolver. It lives in the AST arena's import table
// rather than inline in the Import node so that the "included files" list
// (§4.E) can be built by scanning one flat slice.
type ImportRecord struct {
	Path        logger.Path
	Range       logger.Range
	Kind        ImportKind
	SourceIndex Index32 // valid only when Kind == ImportFile
}
