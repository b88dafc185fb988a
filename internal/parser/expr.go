package parser

import (
	"strconv"
	"strings"

	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/lexer"
	"github.com/riftss/riftss/internal/logger"
)

// parseExpressionList parses a comma-separated sequence, producing a
// SepComma List only when more than one item is present (spec §3.2: a
// single bracket-free value is never wrapped).
func (p *Parser) parseExpressionList() cssast.Expr {
	start := p.here()
	first := p.parseExpression()
	if p.lex.Tok.Kind != lexer.TComma {
		return first
	}
	items := []cssast.Expr{first}
	for p.lex.Tok.Kind == lexer.TComma {
		p.eatCSS()
		items = append(items, p.parseExpression())
	}
	list := &cssast.List{Separator: cssast.SepComma, Items: items}
	list.SetSpan(p.span(start))
	return list
}

// parseExpression parses a space-separated sequence of operator
// expressions, producing a SepSpace List only when more than one item is
// present.
func (p *Parser) parseExpression() cssast.Expr {
	start := p.here()
	var items []cssast.Expr
	for {
		if !p.startsOperand() {
			break
		}
		items = append(items, p.parseOperatorExpr(0))
	}
	if len(items) == 0 {
		n := &cssast.Null{}
		n.SetSpan(p.span(start))
		return n
	}
	if len(items) == 1 {
		return items[0]
	}
	list := &cssast.List{Separator: cssast.SepSpace, Items: items}
	list.SetSpan(p.span(start))
	return list
}

func (p *Parser) startsOperand() bool {
	switch p.lex.Tok.Kind {
	case lexer.TComma, lexer.TSemicolon, lexer.TCloseParen, lexer.TCloseBracket,
		lexer.TCloseBrace, lexer.TOpenBrace, lexer.TEndOfFile, lexer.TColon:
		return false
	case lexer.TDelim:
		switch p.lex.Tok.Delim {
		case '!':
			return false
		}
	}
	return true
}

var precedence = map[cssast.BinaryOp]int{
	cssast.BinOr: 1, cssast.BinAnd: 2,
	cssast.BinEq: 3, cssast.BinNeq: 3, cssast.BinGt: 3, cssast.BinGte: 3, cssast.BinLt: 3, cssast.BinLte: 3,
	cssast.BinAdd: 4, cssast.BinSub: 4,
	cssast.BinMul: 5, cssast.BinDiv: 5, cssast.BinMod: 5,
}

// parseOperatorExpr implements precedence-climbing binary parsing (spec
// §4.C/§4.G arithmetic), including the bare "/" division heuristic
// resolved in spec §9: whether a "/" divides is decided by
// divisionLooksArithmetic below. A "/" that does not divide (e.g.
// `font: 12px/1.5`) is kept as an unquoted string holding its source
// text, operands included.
func (p *Parser) parseOperatorExpr(minPrec int) cssast.Expr {
	lhs := p.parseUnary()
	for {
		op, ok := p.peekBinaryOp()
		if !ok {
			break
		}
		prec := precedence[op]
		if prec < minPrec {
			break
		}
		if op == cssast.BinDiv && !p.divisionLooksArithmetic(lhs, minPrec) {
			start := lhs.Span().Range.Loc.Start
			p.consumeBinaryOp()
			p.parseUnary()
			slash := &cssast.StringConstant{Value: strings.TrimSpace(p.source.Contents[start:p.here()])}
			slash.SetSpan(p.span(start))
			lhs = slash
			continue
		}
		start := lhs.Span().Range.Loc.Start
		p.consumeBinaryOp()
		rhs := p.parseOperatorExpr(prec + 1)
		bin := &cssast.Binary{Op: op, Lhs: lhs, Rhs: rhs}
		bin.SetSpan(p.span(start))
		lhs = bin
	}
	return lhs
}

// divisionLooksArithmetic applies spec §4.C's division heuristic in full:
// "/" is division when the expression is surrounded by parentheses
// (p.parenDepth > 0), when it is itself the rhs of an enclosing operator
// (minPrec > 0 — parseOperatorExpr is only ever re-entered at a raised
// precedence floor for an operator's rhs, so that's "used inside another
// arithmetic context"), or when either operand is a variable or function
// call; a literal numeric constant on both sides at top level (e.g.
// "12px/1.5") is the CSS-shorthand case and stays a literal slash.
func (p *Parser) divisionLooksArithmetic(lhs cssast.Expr, minPrec int) bool {
	if p.parenDepth > 0 || minPrec > 0 {
		return true
	}
	switch lhs.(type) {
	case *cssast.Number:
		return p.nextOperandLooksArithmetic()
	default:
		return true
	}
}

// nextOperandLooksArithmetic peeks past the "/" delim current under the
// cursor (without consuming it) to see whether the rhs about to be parsed
// starts with a variable or function call, the other half of spec §4.C's
// "either operand" condition that a lhs-only check misses (e.g.
// "12px / $x").
func (p *Parser) nextOperandLooksArithmetic() bool {
	snap := p.lex.Snapshot()
	p.lex.NextCSS()
	isArith := p.lex.Tok.Kind == lexer.TVariable || p.lex.Tok.Kind == lexer.TFunction
	p.lex.Restore(snap)
	return isArith
}

// peekBinaryOp reports the operator at the cursor without consuming
// anything, resolving the two-character comparisons ("==", "!=", ">=",
// "<=") by peeking one token past a snapshot.
func (p *Parser) peekBinaryOp() (cssast.BinaryOp, bool) {
	switch p.lex.Tok.Kind {
	case lexer.TIdent:
		switch strings.ToLower(p.lex.Tok.DecodedText(p.lex.Contents)) {
		case "or":
			return cssast.BinOr, true
		case "and":
			return cssast.BinAnd, true
		}
		return 0, false
	case lexer.TDelim:
		switch p.lex.Tok.Delim {
		case '+':
			return cssast.BinAdd, true
		case '-':
			return cssast.BinSub, true
		case '*':
			return cssast.BinMul, true
		case '/':
			return cssast.BinDiv, true
		case '%':
			return cssast.BinMod, true
		case '>':
			if p.nextDelimIsEquals() {
				return cssast.BinGte, true
			}
			return cssast.BinGt, true
		case '<':
			if p.nextDelimIsEquals() {
				return cssast.BinLte, true
			}
			return cssast.BinLt, true
		case '=':
			if p.nextDelimIsEquals() {
				return cssast.BinEq, true
			}
			return 0, false
		case '!':
			if p.nextDelimIsEquals() {
				return cssast.BinNeq, true
			}
			return 0, false
		}
	}
	return 0, false
}

func (p *Parser) nextDelimIsEquals() bool {
	snap := p.lex.Snapshot()
	p.lex.Next()
	is := p.lex.Tok.Kind == lexer.TDelim && p.lex.Tok.Delim == '='
	p.lex.Restore(snap)
	return is
}

func (p *Parser) consumeBinaryOp() {
	if p.lex.Tok.Kind == lexer.TIdent {
		p.eatCSS()
		return
	}
	delim := p.lex.Tok.Delim
	p.eatCSS()
	switch delim {
	case '>', '<', '=', '!':
		if p.lex.Tok.Kind == lexer.TDelim && p.lex.Tok.Delim == '=' {
			p.eatCSS()
		}
	}
}

func (p *Parser) parseUnary() cssast.Expr {
	start := p.here()
	if p.lex.Tok.Kind == lexer.TDelim {
		switch p.lex.Tok.Delim {
		case '-':
			p.eatCSS()
			operand := p.parseUnary()
			u := &cssast.Unary{Op: cssast.UnaryMinus, Operand: operand}
			u.SetSpan(p.span(start))
			return u
		case '+':
			p.eatCSS()
			return p.parseUnary()
		}
	}
	if p.lex.Tok.Kind == lexer.TIdent && strings.ToLower(p.lex.Tok.DecodedText(p.lex.Contents)) == "not" {
		p.eatCSS()
		operand := p.parseUnary()
		u := &cssast.Unary{Op: cssast.UnaryNot, Operand: operand}
		u.SetSpan(p.span(start))
		return u
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() cssast.Expr {
	start := p.here()
	switch p.lex.Tok.Kind {
	case lexer.TNumber, lexer.TDimension, lexer.TPercentage:
		return p.parseNumber(start)
	case lexer.TString:
		text := p.lex.Tok.DecodedText(p.lex.Contents)
		quote := cssast.QuoteDouble
		if strings.HasPrefix(p.lex.Tok.Text(p.lex.Contents), "'") {
			quote = cssast.QuoteSingle
		}
		p.eatCSS()
		s := &cssast.StringQuoted{Value: text, Quote: quote}
		s.SetSpan(p.span(start))
		return s
	case lexer.THash:
		return p.parseColorHash(start)
	case lexer.TVariable:
		name := p.lex.Tok.DecodedText(p.lex.Contents)
		p.eatCSS()
		v := &cssast.Variable{Name: name}
		v.SetSpan(p.span(start))
		return v
	case lexer.TFunction:
		return p.parseFunctionCall(start)
	case lexer.TOpenParen:
		p.eatCSS()
		return p.parseParenthesized(start)
	case lexer.TOpenBracket:
		p.eatCSS()
		return p.parseBracketedList(start)
	case lexer.TInterpolationStart:
		schema := p.parseSchemaUntil(func() bool {
			switch p.lex.Tok.Kind {
			case lexer.TWhitespace, lexer.TSemicolon, lexer.TComma, lexer.TCloseParen,
				lexer.TCloseBracket, lexer.TCloseBrace, lexer.TOpenBrace:
				return true
			}
			return p.lex.Tok.Kind == lexer.TDelim && p.lex.Tok.Delim == '!'
		})
		p.skipInsignificant()
		s := &cssast.StringSchema{Parts: schema.Parts}
		s.SetSpan(p.span(start))
		return s
	case lexer.TIdent:
		name := p.lex.Tok.DecodedText(p.lex.Contents)
		p.eatCSS()
		switch strings.ToLower(name) {
		case "true":
			b := &cssast.Boolean{Value: true}
			b.SetSpan(p.span(start))
			return b
		case "false":
			b := &cssast.Boolean{Value: false}
			b.SetSpan(p.span(start))
			return b
		case "null":
			n := &cssast.Null{}
			n.SetSpan(p.span(start))
			return n
		}
		sc := &cssast.StringConstant{Value: name}
		sc.SetSpan(p.span(start))
		return sc
	case lexer.TDelim:
		if p.lex.Tok.Delim == '&' {
			p.eatCSS()
			ref := &cssast.ParentReference{}
			ref.SetSpan(p.span(start))
			return ref
		}
	}
	p.log.Add(logger.Syntax, &p.tracker, p.lex.Tok.Range, "Expected expression")
	p.eatCSS()
	n := &cssast.Null{}
	n.SetSpan(p.span(start))
	return n
}

func (p *Parser) parseNumber(start int32) cssast.Expr {
	tok := p.lex.Tok
	var value float64
	var unit string
	switch tok.Kind {
	case lexer.TNumber:
		value, _ = strconv.ParseFloat(tok.Text(p.lex.Contents), 64)
	case lexer.TPercentage:
		raw := tok.Text(p.lex.Contents)
		value, _ = strconv.ParseFloat(raw[:len(raw)-1], 64)
		unit = "%"
	case lexer.TDimension:
		value, _ = strconv.ParseFloat(tok.DimensionValue(p.lex.Contents), 64)
		unit = tok.DimensionUnit(p.lex.Contents)
	}
	p.eatCSS()
	var n *cssast.Number
	if unit == "" {
		n = cssast.NewScalar(p.span(start), value)
	} else {
		n = cssast.NewDimension(p.span(start), value, unit)
	}
	return n
}

// parseColorHash parses a "#rgb"/"#rrggbb"/"#rrggbbaa" literal into a
// Color; anything that isn't valid hex digits of the right length is
// reported as a syntax error and falls back to an opaque black, matching
// spec §4.B's general "tokenize first, validate semantics later" split.
func (p *Parser) parseColorHash(start int32) cssast.Expr {
	raw := p.lex.Tok.DecodedText(p.lex.Contents)
	p.eatCSS()
	r, g, b, a, ok := parseHexColor(raw)
	if !ok {
		p.log.Add(logger.Syntax, &p.tracker, p.span(start).Range, "Invalid hex color")
	}
	return cssast.NewColor(p.span(start), r, g, b, a, "")
}

func parseHexColor(raw string) (r, g, b, a float64, ok bool) {
	expand := func(c byte) float64 {
		v, _ := strconv.ParseInt(string([]byte{c, c}), 16, 32)
		return float64(v)
	}
	pair := func(s string) float64 {
		v, _ := strconv.ParseInt(s, 16, 32)
		return float64(v)
	}
	switch len(raw) {
	case 3:
		return expand(raw[0]), expand(raw[1]), expand(raw[2]), 1, true
	case 4:
		return expand(raw[0]), expand(raw[1]), expand(raw[2]), expand(raw[3]) / 255, true
	case 6:
		return pair(raw[0:2]), pair(raw[2:4]), pair(raw[4:6]), 1, true
	case 8:
		return pair(raw[0:2]), pair(raw[2:4]), pair(raw[4:6]), pair(raw[6:8]) / 255, true
	}
	return 0, 0, 0, 1, false
}

func (p *Parser) parseFunctionCall(start int32) cssast.Expr {
	name := p.lex.Tok.DecodedText(p.lex.Contents)
	p.eatCSS()
	args := p.parseArguments()
	call := &cssast.FunctionCall{Name: name, Arguments: args}
	call.SetSpan(p.span(start))
	return call
}

func (p *Parser) parseParenthesized(start int32) cssast.Expr {
	if p.lex.Tok.Kind == lexer.TCloseParen {
		p.eatCSS()
		m := &cssast.Map{}
		m.SetSpan(p.span(start))
		return m
	}
	// Lookahead to distinguish a map "(key: value, ...)" from a grouped
	// expression "(1 + 2)".
	snap := p.lex.Snapshot()
	isMap := p.looksLikeMapEntry()
	p.lex.Restore(snap)
	if isMap {
		return p.parseMap(start)
	}
	p.parenDepth++
	inner := p.parseExpressionList()
	p.parenDepth--
	if p.lex.Tok.Kind == lexer.TCloseParen {
		p.eatCSS()
	}
	return inner
}

func (p *Parser) looksLikeMapEntry() bool {
	depth := 0
	for {
		switch p.lex.Tok.Kind {
		case lexer.TOpenParen, lexer.TOpenBracket:
			depth++
		case lexer.TCloseParen:
			if depth == 0 {
				return false
			}
			depth--
		case lexer.TCloseBracket:
			depth--
		case lexer.TColon:
			if depth == 0 {
				return true
			}
		case lexer.TComma:
			if depth == 0 {
				return false
			}
		case lexer.TEndOfFile:
			return false
		}
		p.lex.Next()
	}
}

func (p *Parser) parseMap(start int32) cssast.Expr {
	m := &cssast.Map{}
	for p.lex.Tok.Kind != lexer.TCloseParen && p.lex.Tok.Kind != lexer.TEndOfFile {
		key := p.parseExpression()
		if p.lex.Tok.Kind == lexer.TColon {
			p.eatCSS()
		}
		val := p.parseExpression()
		m.Pairs = append(m.Pairs, cssast.MapPair{Key: key, Value: val})
		if p.lex.Tok.Kind == lexer.TComma {
			p.eatCSS()
		}
	}
	if p.lex.Tok.Kind == lexer.TCloseParen {
		p.eatCSS()
	}
	m.SetSpan(p.span(start))
	return m
}

func (p *Parser) parseBracketedList(start int32) cssast.Expr {
	list := &cssast.List{Bracketed: true}
	if p.lex.Tok.Kind == lexer.TCloseBracket {
		p.eatCSS()
		list.SetSpan(p.span(start))
		return list
	}
	first := p.parseExpression()
	list.Items = append(list.Items, first)
	list.Separator = cssast.SepSpace
	for p.lex.Tok.Kind == lexer.TComma {
		list.Separator = cssast.SepComma
		p.eatCSS()
		list.Items = append(list.Items, p.parseExpression())
	}
	if p.lex.Tok.Kind == lexer.TCloseBracket {
		p.eatCSS()
	}
	list.SetSpan(p.span(start))
	return list
}
