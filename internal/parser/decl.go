package parser

import (
	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/lexer"
	"github.com/riftss/riftss/internal/logger"
)

// parseSelectorOrDeclaration implements spec §4.C's core ambiguity: both a
// ruleset and a declaration start with an arbitrary run of tokens. We scan
// ahead (tracking paren/bracket/interpolation nesting so a declaration
// value's commas and colons inside e.g. `rgba(0,0,0,.5)`, or the "}" that
// closes a `#{...}`, don't confuse the scan) for the first
// un-nested "{", ";", or "}"; a "{" means a selector, anything else means a
// declaration.
func (p *Parser) parseSelectorOrDeclaration() cssast.Stmt {
	start := p.here()
	if looksLikeDeclaration(p) {
		return p.parseDeclaration(start)
	}
	return p.parseRuleset(start)
}

// looksLikeDeclaration peeks ahead using a lexer snapshot (spec §4.C:
// "bounded lookahead... no backtracking beyond a saved cursor") and
// restores the lexer before returning.
func looksLikeDeclaration(p *Parser) bool {
	snap := p.lex.Snapshot()
	defer p.lex.Restore(snap)

	depth := 0
	for {
		switch p.lex.Tok.Kind {
		case lexer.TOpenParen, lexer.TOpenBracket, lexer.TInterpolationStart:
			depth++
		case lexer.TCloseParen, lexer.TCloseBracket:
			depth--
		case lexer.TOpenBrace:
			if depth == 0 {
				return false
			}
			depth++
		case lexer.TCloseBrace:
			if depth == 0 {
				return true
			}
			depth--
		case lexer.TSemicolon:
			if depth == 0 {
				return true
			}
		case lexer.TEndOfFile:
			return true
		}
		p.lex.Next()
	}
}

func (p *Parser) parseDeclaration(start int32) cssast.Stmt {
	prop := p.parsePropertyName()
	if p.lex.Tok.Kind == lexer.TColon {
		p.eatCSS()
	} else {
		p.log.Add(logger.Syntax, &p.tracker, p.lex.Tok.Range, "Expected \":\"")
	}

	// A declaration with a nested block, e.g. `font: { size: 12px }`
	// (spec §3.2 Propset), has no value expression before the "{".
	if p.lex.Tok.Kind == lexer.TOpenBrace {
		p.eatCSS()
		body := p.parseBlock(false)
		node := &cssast.Propset{PropertyPrefix: prop, Block: body}
		node.SetSpan(p.span(start))
		return node
	}

	value := p.parseExpressionList()
	important := false
	if p.lex.Tok.Kind == lexer.TDelim && p.lex.Tok.Delim == '!' {
		p.eatCSS()
		if p.lex.Tok.Kind == lexer.TIdent {
			p.eatCSS()
			important = true
		}
	}
	node := &cssast.Declaration{Property: prop, Value: value, IsImportant: important}
	node.SetSpan(p.span(start))
	return node
}

// parsePropertyName reads a property name, which may itself contain
// interpolation (e.g. `#{$prefix}-color: red`), so it is parsed as a
// schema exactly like a selector (spec §4.C "Interpolation as schemas").
func (p *Parser) parsePropertyName() cssast.Expr {
	start := p.here()
	schema := p.parseSchemaUntil(func() bool {
		return p.lex.Tok.Kind == lexer.TColon || p.lex.Tok.Kind == lexer.TOpenBrace
	})
	if len(schema.Parts) == 1 && schema.Parts[0].Expr == nil {
		sc := &cssast.StringConstant{Value: schema.Parts[0].Literal}
		sc.SetSpan(p.span(start))
		return sc
	}
	schema.SetSpan(p.span(start))
	return schema
}

func (p *Parser) parseRuleset(start int32) cssast.Stmt {
	sel := p.parseSelectorSchemaUntil(lexer.TOpenBrace)
	p.expect(lexer.TOpenBrace, "\"{\"")
	p.eatCSS()
	body := p.parseBlock(false)
	node := &cssast.Ruleset{Selector: sel, Block: body}
	node.SetSpan(p.span(start))
	return node
}
