package parser

import (
	"strings"

	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/lexer"
	"github.com/riftss/riftss/internal/logger"
)

// parseAtRule dispatches on the at-keyword's name (spec §4.C: control flow
// and directives are just at-rules the parser recognizes by name; anything
// else falls through to the generic pass-through AtRule, per §4.G's
// contract that unknown at-rules survive unevaluated).
func (p *Parser) parseAtRule() cssast.Stmt {
	start := p.here()
	keyword := strings.ToLower(p.lex.Tok.DecodedText(p.lex.Contents))
	p.eatCSS()

	switch keyword {
	case "if":
		return p.parseIf(start)
	case "for":
		return p.parseFor(start)
	case "each":
		return p.parseEach(start)
	case "while":
		return p.parseWhile(start)
	case "mixin":
		return p.parseDefinition(start, cssast.DefMixin)
	case "function":
		return p.parseDefinition(start, cssast.DefFunction)
	case "include":
		return p.parseMixinCall(start)
	case "content":
		stmt := &cssast.Content{}
		stmt.SetSpan(p.span(start))
		return stmt
	case "return":
		val := p.parseExpressionList()
		stmt := &cssast.Return{Value: val}
		stmt.SetSpan(p.span(start))
		return stmt
	case "extend":
		target := p.parseSelectorSchemaUntil(lexer.TSemicolon)
		optional := false
		if p.lex.Tok.Kind == lexer.TDelim && p.lex.Tok.Delim == '!' {
			p.eatCSS()
			if p.lex.Tok.Kind == lexer.TIdent && strings.ToLower(p.lex.Tok.DecodedText(p.lex.Contents)) == "optional" {
				optional = true
				p.eatCSS()
			}
		}
		target.IsOptional = optional
		stmt := &cssast.Extend{Target: target}
		stmt.SetSpan(p.span(start))
		return stmt
	case "import":
		return p.parseImport(start)
	case "media":
		return p.parseMedia(start)
	case "warn", "error", "debug":
		val := p.parseExpressionList()
		kind := cssast.DiagWarning
		switch keyword {
		case "error":
			kind = cssast.DiagError
		case "debug":
			kind = cssast.DiagDebug
		}
		stmt := &cssast.Diagnostic{Kind: kind, Value: val}
		stmt.SetSpan(p.span(start))
		return stmt
	case "at-root":
		return p.parseAtRoot(start)
	case "else":
		// a bare "@else" outside of an "@if" chain; treated as a syntax
		// error by the caller that expects it inline (parseIf consumes
		// "@else" itself), so reaching here means it was orphaned.
		p.log.Add(logger.Syntax, &p.tracker, p.span(start).Range, "@else without a matching @if")
		p.skipToSemicolonOrBlock()
		return nil
	default:
		return p.parseGenericAtRule(start, keyword)
	}
}

func (p *Parser) skipToSemicolonOrBlock() {
	depth := 0
	for {
		switch p.lex.Tok.Kind {
		case lexer.TEndOfFile:
			return
		case lexer.TOpenBrace:
			if depth == 0 {
				p.eatCSS()
				p.parseBlock(false)
				return
			}
			depth++
		case lexer.TCloseBrace:
			depth--
		case lexer.TSemicolon:
			if depth == 0 {
				p.eatCSS()
				return
			}
		}
		p.eatCSS()
	}
}

func (p *Parser) parseIf(start int32) cssast.Stmt {
	pred := p.parseExpressionList()
	p.expect(lexer.TOpenBrace, "\"{\"")
	p.eatCSS()
	body := p.parseBlock(false)
	node := &cssast.If{Predicate: pred, Consequent: body}

	snap := p.lex.Snapshot()
	p.skipInsignificant()
	if p.lex.Tok.Kind == lexer.TAtKeyword && strings.ToLower(p.lex.Tok.DecodedText(p.lex.Contents)) == "else" {
		elseStart := p.here()
		p.eatCSS()
		if p.lex.Tok.Kind == lexer.TIdent && strings.ToLower(p.lex.Tok.DecodedText(p.lex.Contents)) == "if" {
			p.eatCSS()
			node.Alternative = p.parseIf(elseStart)
		} else {
			p.expect(lexer.TOpenBrace, "\"{\"")
			p.eatCSS()
			node.Alternative = p.parseBlock(false)
		}
	} else {
		p.lex.Restore(snap)
	}
	node.SetSpan(p.span(start))
	return node
}

func (p *Parser) parseFor(start int32) cssast.Stmt {
	if p.lex.Tok.Kind != lexer.TVariable {
		p.log.Add(logger.Syntax, &p.tracker, p.lex.Tok.Range, "Expected variable name in @for")
	}
	v := p.lex.Tok.DecodedText(p.lex.Contents)
	p.eatCSS()
	p.expectIdent("from")
	lower := p.parseOperatorExpr(0)
	inclusive := false
	if p.lex.Tok.Kind == lexer.TIdent {
		switch strings.ToLower(p.lex.Tok.DecodedText(p.lex.Contents)) {
		case "through":
			inclusive = true
			p.eatCSS()
		case "to":
			p.eatCSS()
		}
	}
	upper := p.parseExpression()
	p.expect(lexer.TOpenBrace, "\"{\"")
	p.eatCSS()
	body := p.parseBlock(false)
	node := &cssast.For{Var: v, Lower: lower, Upper: upper, Inclusive: inclusive, Body: body}
	node.SetSpan(p.span(start))
	return node
}

func (p *Parser) parseEach(start int32) cssast.Stmt {
	var vars []string
	for {
		if p.lex.Tok.Kind != lexer.TVariable {
			break
		}
		vars = append(vars, p.lex.Tok.DecodedText(p.lex.Contents))
		p.eatCSS()
		if p.lex.Tok.Kind == lexer.TComma {
			p.eatCSS()
			continue
		}
		break
	}
	p.expectIdent("in")
	iterable := p.parseExpressionList()
	p.expect(lexer.TOpenBrace, "\"{\"")
	p.eatCSS()
	body := p.parseBlock(false)
	node := &cssast.Each{Vars: vars, Iterable: iterable, Body: body}
	node.SetSpan(p.span(start))
	return node
}

func (p *Parser) parseWhile(start int32) cssast.Stmt {
	pred := p.parseExpressionList()
	p.expect(lexer.TOpenBrace, "\"{\"")
	p.eatCSS()
	body := p.parseBlock(false)
	node := &cssast.While{Predicate: pred, Body: body}
	node.SetSpan(p.span(start))
	return node
}

func (p *Parser) expectIdent(word string) {
	if p.lex.Tok.Kind != lexer.TIdent || strings.ToLower(p.lex.Tok.DecodedText(p.lex.Contents)) != word {
		p.log.Add(logger.Syntax, &p.tracker, p.lex.Tok.Range, "Expected \""+word+"\"")
		return
	}
	p.eatCSS()
}

func (p *Parser) parseDefinition(start int32, kind cssast.DefinitionKind) cssast.Stmt {
	// "name(" lexes as one function token, whose "(" is already consumed.
	isCall := p.lex.Tok.Kind == lexer.TFunction
	name := p.parseIdentifierName()
	params := &cssast.Parameters{}
	if isCall {
		params = p.parseParameters()
	} else if p.lex.Tok.Kind == lexer.TOpenParen {
		p.eatCSS()
		params = p.parseParameters()
	}
	p.expect(lexer.TOpenBrace, "\"{\"")
	p.eatCSS()
	body := p.parseBlock(false)
	node := &cssast.Definition{Kind: kind, Name: name, Parameters: params, Body: body}
	node.SetSpan(p.span(start))
	return node
}

func (p *Parser) parseIdentifierName() string {
	switch p.lex.Tok.Kind {
	case lexer.TIdent, lexer.TFunction:
		name := p.lex.Tok.DecodedText(p.lex.Contents)
		p.eatCSS()
		return name
	}
	p.log.Add(logger.Syntax, &p.tracker, p.lex.Tok.Range, "Expected identifier")
	return ""
}

func (p *Parser) parseParameters() *cssast.Parameters {
	params := &cssast.Parameters{}
	for p.lex.Tok.Kind != lexer.TCloseParen && p.lex.Tok.Kind != lexer.TEndOfFile {
		if p.lex.Tok.Kind != lexer.TVariable {
			p.log.Add(logger.Syntax, &p.tracker, p.lex.Tok.Range, "Expected parameter name")
			break
		}
		name := p.lex.Tok.DecodedText(p.lex.Contents)
		p.eatCSS()
		param := cssast.Parameter{Name: name}
		if p.lex.Tok.Kind == lexer.TDelim && p.lex.Tok.Delim == '.' {
			// "..." rest parameter; consume up to three dots loosely.
			for p.lex.Tok.Kind == lexer.TDelim && p.lex.Tok.Delim == '.' {
				p.eatCSS()
			}
			param.IsRest = true
		} else if p.lex.Tok.Kind == lexer.TColon {
			p.eatCSS()
			param.Default = p.parseExpression()
		}
		params.Items = append(params.Items, param)
		if p.lex.Tok.Kind == lexer.TComma {
			p.eatCSS()
		}
	}
	if p.lex.Tok.Kind == lexer.TCloseParen {
		p.eatCSS()
	}
	return params
}

func (p *Parser) parseMixinCall(start int32) cssast.Stmt {
	isCall := p.lex.Tok.Kind == lexer.TFunction
	name := p.parseIdentifierName()
	var args *cssast.Arguments
	if isCall {
		args = p.parseArguments()
	} else if p.lex.Tok.Kind == lexer.TOpenParen {
		p.eatCSS()
		args = p.parseArguments()
	}
	var content *cssast.Block
	if p.lex.Tok.Kind == lexer.TOpenBrace {
		p.eatCSS()
		content = p.parseBlock(false)
	}
	node := &cssast.MixinCall{Name: name, Arguments: args, ContentBlock: content}
	node.SetSpan(p.span(start))
	return node
}

func (p *Parser) parseArguments() *cssast.Arguments {
	args := &cssast.Arguments{}
	for p.lex.Tok.Kind != lexer.TCloseParen && p.lex.Tok.Kind != lexer.TEndOfFile {
		if p.lex.Tok.Kind == lexer.TVariable {
			snap := p.lex.Snapshot()
			name := p.lex.Tok.DecodedText(p.lex.Contents)
			p.eatCSS()
			if p.lex.Tok.Kind == lexer.TColon {
				p.eatCSS()
				val := p.parseExpression()
				args.Named = append(args.Named, cssast.Argument{Name: name, Value: val})
				if p.lex.Tok.Kind == lexer.TComma {
					p.eatCSS()
				}
				continue
			}
			p.lex.Restore(snap)
		}
		val := p.parseExpression()
		arg := cssast.Argument{Value: val}
		if p.lex.Tok.Kind == lexer.TDelim && p.lex.Tok.Delim == '.' {
			for p.lex.Tok.Kind == lexer.TDelim && p.lex.Tok.Delim == '.' {
				p.eatCSS()
			}
			arg.IsRest = true
		}
		args.Positional = append(args.Positional, arg)
		if p.lex.Tok.Kind == lexer.TComma {
			p.eatCSS()
		}
	}
	if p.lex.Tok.Kind == lexer.TCloseParen {
		p.eatCSS()
	}
	return args
}

func (p *Parser) parseImport(start int32) cssast.Stmt {
	node := &cssast.Import{}
	for {
		switch p.lex.Tok.Kind {
		case lexer.TString:
			node.URLs = append(node.URLs, p.lex.Tok.DecodedText(p.lex.Contents))
			p.eatCSS()
		case lexer.TURL:
			node.URLs = append(node.URLs, p.lex.Tok.DecodedText(p.lex.Contents))
			p.eatCSS()
		default:
			goto done
		}
		if p.lex.Tok.Kind == lexer.TComma {
			p.eatCSS()
			continue
		}
		break
	}
done:
	node.SetSpan(p.span(start))
	return node
}

func (p *Parser) parseMedia(start int32) cssast.Stmt {
	queries := p.parseMediaQueryList()
	p.expect(lexer.TOpenBrace, "\"{\"")
	p.eatCSS()
	body := p.parseBlock(false)
	node := &cssast.MediaBlock{Queries: queries, Block: body}
	node.SetSpan(p.span(start))
	return node
}

func (p *Parser) parseMediaQueryList() []cssast.MediaQuery {
	var queries []cssast.MediaQuery
	for {
		queries = append(queries, p.parseMediaQuery())
		if p.lex.Tok.Kind == lexer.TComma {
			p.eatCSS()
			continue
		}
		break
	}
	return queries
}

func (p *Parser) parseMediaQuery() cssast.MediaQuery {
	q := cssast.MediaQuery{}
	if p.lex.Tok.Kind == lexer.TIdent {
		word := strings.ToLower(p.lex.Tok.DecodedText(p.lex.Contents))
		if word == "not" || word == "only" {
			q.Modifier = word
			p.eatCSS()
		}
	}
	if p.lex.Tok.Kind == lexer.TIdent {
		q.Type = p.lex.Tok.DecodedText(p.lex.Contents)
		p.eatCSS()
		if p.lex.Tok.Kind == lexer.TIdent && strings.ToLower(p.lex.Tok.DecodedText(p.lex.Contents)) == "and" {
			p.eatCSS()
		}
	}
	for p.lex.Tok.Kind == lexer.TOpenParen {
		p.eatCSS()
		q.Features = append(q.Features, p.parseMediaFeature())
		if p.lex.Tok.Kind == lexer.TCloseParen {
			p.eatCSS()
		}
		if p.lex.Tok.Kind == lexer.TIdent && strings.ToLower(p.lex.Tok.DecodedText(p.lex.Contents)) == "and" {
			p.eatCSS()
		}
	}
	return q
}

func (p *Parser) parseMediaFeature() cssast.MediaFeature {
	f := cssast.MediaFeature{}
	if p.lex.Tok.Kind == lexer.TIdent {
		f.Name = p.lex.Tok.DecodedText(p.lex.Contents)
		p.eatCSS()
	}
	switch p.lex.Tok.Kind {
	case lexer.TColon:
		f.Op = cssast.MediaFeatureEq
		p.eatCSS()
		f.Value = p.parseExpression()
	case lexer.TDelim:
		switch p.lex.Tok.Delim {
		case '>':
			f.Op = cssast.MediaFeatureGt
		case '<':
			f.Op = cssast.MediaFeatureLt
		case '=':
			f.Op = cssast.MediaFeatureEq
		}
		p.eatCSS()
		if p.lex.Tok.Kind == lexer.TDelim && p.lex.Tok.Delim == '=' {
			if f.Op == cssast.MediaFeatureGt {
				f.Op = cssast.MediaFeatureGte
			} else if f.Op == cssast.MediaFeatureLt {
				f.Op = cssast.MediaFeatureLte
			}
			p.eatCSS()
		}
		f.Value = p.parseExpression()
	}
	return f
}

func (p *Parser) parseAtRoot(start int32) cssast.Stmt {
	var filter *cssast.AtRootFilter
	if p.lex.Tok.Kind == lexer.TOpenParen {
		p.eatCSS()
		filter = &cssast.AtRootFilter{}
		if p.lex.Tok.Kind == lexer.TIdent {
			kw := strings.ToLower(p.lex.Tok.DecodedText(p.lex.Contents))
			p.eatCSS()
			if p.lex.Tok.Kind == lexer.TColon {
				p.eatCSS()
			}
			var names []string
			for p.lex.Tok.Kind == lexer.TIdent {
				names = append(names, strings.ToLower(p.lex.Tok.DecodedText(p.lex.Contents)))
				p.eatCSS()
			}
			if kw == "without" {
				filter.Without = names
			} else {
				filter.With = names
			}
		}
		if p.lex.Tok.Kind == lexer.TCloseParen {
			p.eatCSS()
		}
	}
	p.expect(lexer.TOpenBrace, "\"{\"")
	p.eatCSS()
	body := p.parseBlock(false)
	node := &cssast.AtRootBlock{FeatureFilter: filter, Body: body}
	node.SetSpan(p.span(start))
	return node
}

// parseGenericAtRule handles any at-rule the compiler doesn't specially
// recognize (@supports, @font-face, @keyframes, @page, @charset, ...): it
// reads an optional prelude up to "{" or ";" and, if a block follows,
// parses it as plain nested statements (spec §4.G pass-through contract).
func (p *Parser) parseGenericAtRule(start int32, keyword string) cssast.Stmt {
	preludeStart := p.here()
	depth := 0
loop:
	for {
		switch p.lex.Tok.Kind {
		case lexer.TOpenParen, lexer.TOpenBracket:
			depth++
		case lexer.TCloseParen, lexer.TCloseBracket:
			depth--
		case lexer.TOpenBrace, lexer.TSemicolon, lexer.TEndOfFile:
			if depth == 0 {
				break loop
			}
		}
		p.eatCSS()
	}
	preludeText := strings.TrimSpace(p.source.Contents[preludeStart:p.here()])
	var value cssast.Expr
	if preludeText != "" {
		value = &cssast.StringConstant{Value: preludeText}
	}
	var body *cssast.Block
	if p.lex.Tok.Kind == lexer.TOpenBrace {
		p.eatCSS()
		body = p.parseBlock(false)
	} else if p.lex.Tok.Kind == lexer.TSemicolon {
		p.eatCSS()
	}
	node := &cssast.AtRule{Keyword: keyword, Value: value, Block: body}
	node.SetSpan(p.span(start))
	return node
}
