// Package parser implements the recursive-descent parser of spec §4.C:
// statement and declaration parsing, selector-vs-declaration lookahead
// disambiguation, and deferred (schema) parsing of anything containing
// interpolation.
//
// Grounded on esbuild's internal/css_parser: the overall shape (a parser
// struct wrapping a lexer, parseListOfDeclarations-style loops, a
// saved-lexer-snapshot "try and backtrack" helper for ambiguous
// constructs) is the teacher's approach to exactly this class of grammar.
// What's new here is everything esbuild's CSS parser never had to do:
// variables, control flow, mixins/functions, arithmetic expressions and
// @extend, since esbuild only ever parses and reprints plain CSS.
package parser

import (
	"strings"

	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/lexer"
	"github.com/riftss/riftss/internal/logger"
)

type Parser struct {
	lex        *lexer.Lexer
	log        logger.Log
	tracker    logger.LineColumnTracker
	arena      *cssast.Arena
	pathIndex  uint32
	source     *logger.Source

	// parenDepth tracks "(...)" nesting so divisionLooksArithmetic can
	// apply spec §4.C's "surrounded by parentheses" division condition:
	// it is read, never by name from outside this package.
	parenDepth int
}

// Parse parses one entire source file into a root block (spec §4.C).
func Parse(source *logger.Source, pathIndex uint32, arena *cssast.Arena, log logger.Log) *cssast.Block {
	tracker := logger.MakeLineColumnTracker(source)
	p := &Parser{
		lex:       lexer.New(log, tracker, source.Contents),
		log:       log,
		tracker:   tracker,
		arena:     arena,
		pathIndex: pathIndex,
		source:    source,
	}
	return p.parseBlock(true)
}

func (p *Parser) span(start int32) cssast.Span {
	return cssast.Span{PathIndex: p.pathIndex, Range: logger.Range{Loc: logger.Loc{Start: start}, Len: p.lex.Tok.Range.Loc.Start - start}}
}

func (p *Parser) here() int32 { return p.lex.Tok.Range.Loc.Start }

func (p *Parser) expect(kind lexer.T, what string) bool {
	if p.lex.Tok.Kind != kind {
		p.log.Add(logger.Syntax, &p.tracker, p.lex.Tok.Range, "Expected "+what)
		return false
	}
	return true
}

func (p *Parser) eatCSS() { p.lex.NextCSS() }

// parseBlock parses statements until a matching "}" (or EOF for the root).
func (p *Parser) parseBlock(isRoot bool) *cssast.Block {
	start := p.here()
	block := &cssast.Block{IsRoot: isRoot}
	for {
		p.skipInsignificant()
		if p.lex.Tok.Kind == lexer.TEndOfFile {
			if !isRoot {
				p.log.Add(logger.Syntax, &p.tracker, p.lex.Tok.Range, "Expected \"}\"")
			}
			break
		}
		if !isRoot && p.lex.Tok.Kind == lexer.TCloseBrace {
			p.eatCSS()
			break
		}
		if p.lex.Tok.Kind == lexer.TSemicolon {
			p.eatCSS()
			continue
		}
		if stmt := p.parseStatement(); stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
	}
	block.S = p.span(start)
	return block
}

// skipInsignificant fast-forwards over plain whitespace tokens the raw
// lexer returns between significant tokens. The lexer drops comments
// without producing a token, so the parser never builds Comment
// statements from source text.
func (p *Parser) skipInsignificant() {
	for p.lex.Tok.Kind == lexer.TWhitespace {
		p.lex.Next()
	}
}

func (p *Parser) parseStatement() cssast.Stmt {
	tok := p.lex.Tok
	switch tok.Kind {
	case lexer.TAtKeyword:
		return p.parseAtRule()
	case lexer.TVariable:
		if snap := p.tryParseAssignment(); snap != nil {
			return snap
		}
	}
	return p.parseSelectorOrDeclaration()
}

// tryParseAssignment parses "$name: expr [!default] [!global] ;" starting
// at a TVariable token, or returns nil (restoring the lexer) if what
// follows isn't an assignment (e.g. `$map: (key: $value)` is, but a bare
// variable reference used as a selector never reaches here since
// selectors don't start with "$").
func (p *Parser) tryParseAssignment() *cssast.Assignment {
	start := p.here()
	name := p.lex.Tok.DecodedText(p.lex.Contents)
	snap := p.lex.Snapshot()
	p.eatCSS()
	if p.lex.Tok.Kind != lexer.TColon {
		p.lex.Restore(snap)
		return nil
	}
	p.eatCSS()
	value := p.parseExpressionList()
	isDefault, isGlobal := false, false
	for p.lex.Tok.Kind == lexer.TDelim && p.lex.Tok.Delim == '!' {
		p.eatCSS()
		if p.lex.Tok.Kind != lexer.TIdent {
			break
		}
		switch strings.ToLower(p.lex.Tok.DecodedText(p.lex.Contents)) {
		case "default":
			isDefault = true
		case "global":
			isGlobal = true
		}
		p.eatCSS()
	}
	a := &cssast.Assignment{Name: name, Value: value, IsDefault: isDefault, IsGlobal: isGlobal}
	a.SetSpan(p.span(start))
	return a
}
