package parser

import (
	"strings"

	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/lexer"
	"github.com/riftss/riftss/internal/logger"
)

// selParser is a throwaway sub-parser over just a selector's literal text,
// used once all of a selector schema's interpolants have been substituted
// (or immediately, for selectors with no interpolation at all). Splitting
// this from the statement parser mirrors esbuild's css_parser.go having a
// dedicated parseSelectorList separate from parseListOfDeclarations.
type selParser struct {
	lex     *lexer.Lexer
	log     logger.Log
	tracker logger.LineColumnTracker
}

func parseSelectorListFromText(p *Parser, text string) *cssast.SelectorList {
	tracker := logger.MakeLineColumnTracker(p.source)
	sp := &selParser{lex: lexer.New(p.log, tracker, text), log: p.log, tracker: tracker}
	return sp.parseSelectorList()
}

// ParseSelectorListString is the entry point the evaluator (§4.G) uses to
// re-parse a selector schema's text once its interpolants have been
// substituted (spec §4.C: "Selector schemas are re-parsed as selectors
// after their interpolants are evaluated").
func ParseSelectorListString(log logger.Log, tracker logger.LineColumnTracker, text string) *cssast.SelectorList {
	sp := &selParser{lex: lexer.New(log, tracker, text), log: log, tracker: tracker}
	return sp.parseSelectorList()
}

func (sp *selParser) text(tok lexer.Token) string { return tok.DecodedText(sp.lex.Contents) }

func (sp *selParser) parseSelectorList() *cssast.SelectorList {
	list := &cssast.SelectorList{}
	for {
		sp.skipWS()
		if sp.lex.Tok.Kind == lexer.TEndOfFile {
			break
		}
		list.Complexes = append(list.Complexes, sp.parseComplex())
		sp.skipWS()
		if sp.lex.Tok.Kind == lexer.TComma {
			sp.lex.Next()
			continue
		}
		break
	}
	return list
}

func (sp *selParser) skipWS() {
	for sp.lex.Tok.Kind == lexer.TWhitespace {
		sp.lex.Next()
	}
}

func (sp *selParser) parseComplex() cssast.Complex {
	c := cssast.Complex{}
	combo := cssast.ComboNone
	first := true
	for {
		sawSpace := false
		for sp.lex.Tok.Kind == lexer.TWhitespace {
			sawSpace = true
			sp.lex.Next()
		}
		switch sp.lex.Tok.Kind {
		case lexer.TEndOfFile, lexer.TComma, lexer.TCloseParen, lexer.TOpenBrace:
			return c
		case lexer.TDelim:
			switch sp.lex.Tok.Delim {
			case '>':
				combo = cssast.ComboChild
				sp.lex.Next()
				continue
			case '+':
				combo = cssast.ComboAdjacent
				sp.lex.Next()
				continue
			case '~':
				combo = cssast.ComboGeneral
				sp.lex.Next()
				continue
			}
		}
		if !first && combo == cssast.ComboNone {
			if !sawSpace {
				return c
			}
			combo = cssast.ComboDescendant
		}
		compound := sp.parseCompound()
		if len(compound.Simples) == 0 {
			return c
		}
		c.Parts = append(c.Parts, cssast.ComplexPart{Combinator: combo, Compound: compound})
		combo = cssast.ComboNone
		first = false
	}
}

func (sp *selParser) parseCompound() cssast.Compound {
	compound := cssast.Compound{}
loop:
	for {
		switch sp.lex.Tok.Kind {
		case lexer.TDelim:
			switch sp.lex.Tok.Delim {
			case '&':
				compound.Simples = append(compound.Simples, cssast.ParentRefSelector{})
				compound.HasParentRef = true
				sp.lex.Next()
				continue
			case '*':
				sp.lex.Next()
				compound.Simples = append(compound.Simples, cssast.TypeSelector{Name: "*"})
				continue
			case '.':
				sp.lex.Next()
				if sp.lex.Tok.Kind == lexer.TIdent {
					compound.Simples = append(compound.Simples, cssast.ClassSelector{Name: sp.text(sp.lex.Tok)})
					sp.lex.Next()
					continue
				}
				break loop
			case '|':
				// namespace separator on a bare type selector, e.g. "ns|div"
				sp.lex.Next()
				if sp.lex.Tok.Kind == lexer.TIdent {
					name := sp.text(sp.lex.Tok)
					sp.lex.Next()
					if len(compound.Simples) > 0 {
						if ts, ok := compound.Simples[len(compound.Simples)-1].(cssast.TypeSelector); ok {
							compound.Simples[len(compound.Simples)-1] = cssast.TypeSelector{Name: name, Namespace: ts.Name}
							continue
						}
					}
					compound.Simples = append(compound.Simples, cssast.TypeSelector{Name: name})
					continue
				}
				break loop
			}
			break loop
		case lexer.TIdent:
			compound.Simples = append(compound.Simples, cssast.TypeSelector{Name: sp.text(sp.lex.Tok)})
			sp.lex.Next()
		case lexer.THash:
			compound.Simples = append(compound.Simples, cssast.IDSelector{Name: sp.text(sp.lex.Tok)})
			sp.lex.Next()
		case lexer.TPlaceholder:
			compound.Simples = append(compound.Simples, cssast.PlaceholderSelector{Name: sp.text(sp.lex.Tok)})
			sp.lex.Next()
		case lexer.TColon:
			sp.lex.Next()
			isElement := false
			if sp.lex.Tok.Kind == lexer.TColon {
				isElement = true
				sp.lex.Next()
			}
			compound.Simples = append(compound.Simples, sp.parsePseudo(isElement))
		case lexer.TOpenBracket:
			sp.lex.Next()
			compound.Simples = append(compound.Simples, sp.parseAttribute())
		default:
			break loop
		}
	}
	return compound
}

func (sp *selParser) parsePseudo(isElement bool) cssast.SimplePart {
	if sp.lex.Tok.Kind == lexer.TFunction {
		name := sp.text(sp.lex.Tok)
		sp.lex.Next()
		argText := sp.readBalancedParenText()
		switch strings.ToLower(name) {
		case "not", "has", "matches", "is", "where":
			inner := parseSelectorListFromSubtext(sp, argText)
			return cssast.WrappedSelector{Name: strings.ToLower(name), Inner: inner}
		}
		return cssast.PseudoFunctional{Name: name, ArgText: argText}
	}
	if sp.lex.Tok.Kind == lexer.TIdent {
		name := sp.text(sp.lex.Tok)
		sp.lex.Next()
		return cssast.PseudoSimple{Name: name, IsElement: isElement}
	}
	return cssast.PseudoSimple{}
}

// readBalancedParenText consumes tokens up to and including the matching
// ")" for a functional-pseudo argument list and returns the raw text
// between the parens.
func (sp *selParser) readBalancedParenText() string {
	start := sp.lex.CurrentOffset()
	depth := 1
	end := start
	for depth > 0 && sp.lex.Tok.Kind != lexer.TEndOfFile {
		switch sp.lex.Tok.Kind {
		case lexer.TOpenParen:
			depth++
		case lexer.TCloseParen:
			depth--
			if depth == 0 {
				end = sp.lex.CurrentOffset()
				sp.lex.Next()
				return strings.TrimSpace(sp.lex.Contents[start:end])
			}
		}
		sp.lex.Next()
	}
	return strings.TrimSpace(sp.lex.Contents[start:])
}

func parseSelectorListFromSubtext(sp *selParser, text string) *cssast.SelectorList {
	inner := &selParser{lex: lexer.New(sp.log, sp.tracker, text), log: sp.log, tracker: sp.tracker}
	return inner.parseSelectorList()
}

func (sp *selParser) parseAttribute() cssast.SimplePart {
	attr := cssast.AttributeSelector{}
	if sp.lex.Tok.Kind == lexer.TIdent {
		attr.Name = sp.text(sp.lex.Tok)
		sp.lex.Next()
	}
	if sp.lex.Tok.Kind == lexer.TCloseBracket {
		sp.lex.Next()
		attr.Matcher = cssast.AttrExists
		return attr
	}
	matched := false
	if sp.lex.Tok.Kind == lexer.TDelim {
		switch sp.lex.Tok.Delim {
		case '~':
			attr.Matcher, matched = cssast.AttrIncludes, true
		case '|':
			attr.Matcher, matched = cssast.AttrDashMatch, true
		case '^':
			attr.Matcher, matched = cssast.AttrPrefix, true
		case '$':
			attr.Matcher, matched = cssast.AttrSuffix, true
		case '*':
			attr.Matcher, matched = cssast.AttrSubstring, true
		case '=':
			attr.Matcher, matched = cssast.AttrEquals, true
		}
		sp.lex.Next()
		if matched && attr.Matcher != cssast.AttrEquals {
			if sp.lex.Tok.Kind == lexer.TDelim && sp.lex.Tok.Delim == '=' {
				sp.lex.Next()
			}
		}
	}
	if sp.lex.Tok.Kind == lexer.TString || sp.lex.Tok.Kind == lexer.TIdent {
		attr.Value = sp.text(sp.lex.Tok)
		sp.lex.Next()
	}
	if sp.lex.Tok.Kind == lexer.TIdent {
		if mod := strings.ToLower(sp.text(sp.lex.Tok)); mod == "i" || mod == "s" {
			attr.CaseInsensitive = mod == "i"
			sp.lex.Next()
		}
	}
	if sp.lex.Tok.Kind == lexer.TCloseBracket {
		sp.lex.Next()
	}
	return attr
}
