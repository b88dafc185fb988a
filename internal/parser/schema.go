package parser

import (
	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/lexer"
)

// parseSchemaUntil reads raw text, splicing in "#{...}" interpolation
// holes as parsed sub-expressions, stopping as soon as stop() reports
// true at a top-level (unnested) position. This implements spec §4.C's
// "interpolation as schemas" deferral for property names and plain
// string/selector text that may contain "#{$var}".
func (p *Parser) parseSchemaUntil(stop func() bool) *cssast.StringSchema {
	schema := &cssast.StringSchema{}
	var literalStart int32 = -1

	flushLiteral := func(end int32) {
		if literalStart >= 0 && end > literalStart {
			schema.Parts = append(schema.Parts, cssast.SchemaPart{Literal: p.source.Contents[literalStart:end]})
		}
		literalStart = -1
	}

	for {
		if stop() {
			flushLiteral(p.here())
			break
		}
		if p.lex.Tok.Kind == lexer.TEndOfFile {
			flushLiteral(p.here())
			break
		}
		if p.lex.Tok.Kind == lexer.TInterpolationStart {
			flushLiteral(p.here())
			p.eatCSS()
			expr := p.parseExpressionList()
			if p.lex.Tok.Kind == lexer.TCloseBrace {
				p.eatCSS()
			}
			schema.Parts = append(schema.Parts, cssast.SchemaPart{Expr: expr})
			continue
		}
		if literalStart < 0 {
			literalStart = p.here()
		}
		p.lex.Next()
	}
	return schema
}

// parseSelectorSchemaUntil reads a selector's source text up to the given
// stop token, deferring interpolation the same way parseSchemaUntil does,
// then hands the literal runs to the selector sub-parser once all
// interpolants are known (spec §4.C: "Selector schemas are re-parsed as
// selectors after their interpolants are evaluated" — at parse time we
// only capture the schema; full resolution happens during evaluation
// once `#{...}` holes have concrete string values).
func (p *Parser) parseSelectorSchemaUntil(stop lexer.T) *cssast.SelectorList {
	// A "!" also ends the selector, leaving e.g. `@extend .a !optional`'s
	// flag for the caller.
	schema := p.parseSchemaUntil(func() bool {
		return p.lex.Tok.Kind == stop || (p.lex.Tok.Kind == lexer.TDelim && p.lex.Tok.Delim == '!')
	})
	// When the selector has no interpolation at all, it can be parsed
	// directly into a concrete SelectorList right away.
	if len(schema.Parts) <= 1 && (len(schema.Parts) == 0 || schema.Parts[0].Expr == nil) {
		text := ""
		if len(schema.Parts) == 1 {
			text = schema.Parts[0].Literal
		}
		return parseSelectorListFromText(p, text)
	}
	// Otherwise defer: wrap the raw schema in a placeholder selector list
	// that the evaluator replaces once interpolants are substituted.
	return &cssast.SelectorList{Complexes: []cssast.Complex{{Parts: []cssast.ComplexPart{{
		Compound: cssast.Compound{Simples: []cssast.SimplePart{cssast.PseudoFunctional{Name: cssast.SchemaPlaceholderName, ArgSchema: &cssast.StringSchema{Parts: schema.Parts}}}},
	}}}}}
}
