// Package printer implements the output formatter of spec §4.I: it walks
// the post-evaluation, CSS-only tree and serializes it in one of four
// styles, collecting source-map segments along the way.
//
// Grounded on esbuild's internal/css_printer: the incremental
// string-builder-plus-indent-level shape, and printing rulesets by
// visiting selectors then a declaration block, follow that package
// directly. esbuild only ever has one output mode (pretty vs. minified);
// the four named styles here (nested/expanded/compact/compressed) are
// this package's own addition, written in the same visitor shape.
package printer

import (
	"strconv"
	"strings"

	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/source"
	"github.com/riftss/riftss/internal/sourcemap"
)

type Style uint8

const (
	Nested Style = iota
	Expanded
	Compact
	Compressed
)

// Options configures one Print call (spec §4.I / §6).
type Options struct {
	Style Style

	// Precision bounds decimal places kept when formatting numbers,
	// matching the evaluator's own Precision (spec §4.G/§4.I share one
	// setting so "1in" divided out doesn't print differently depending on
	// which stage happens to round it).
	Precision int

	// SourceComments annotates each ruleset with a "/* line N, path */"
	// comment ahead of it (the supplemented source-comments feature named
	// in SPEC_FULL.md).
	SourceComments bool

	// GenerateSourceMap turns on source-map segment collection; Print's
	// second return value is nil when this is false.
	GenerateSourceMap bool

	// EmbedSourcesContent inlines each source file's text into the
	// generated map's "sourcesContent" field (spec §6 "embed").
	EmbedSourcesContent bool
}

type printer struct {
	opts   Options
	sb     strings.Builder
	store  *source.Store
	mapper *sourcemap.Builder
}

// Print serializes root (the Block returned by eval.Evaluator.EvalStylesheet)
// to CSS text, plus the source map's JSON encoding (spec §4.I) when
// opts.GenerateSourceMap is set; smJSON is nil otherwise.
func Print(root *cssast.Block, store *source.Store, opts Options) (css string, smJSON []byte) {
	if opts.Precision == 0 {
		opts.Precision = 5
	}
	p := &printer{opts: opts, store: store}
	if opts.GenerateSourceMap {
		p.mapper = sourcemap.NewBuilder(opts.EmbedSourcesContent)
	}
	for _, stmt := range root.Statements {
		p.printStmt(stmt, 0)
	}
	css = p.sb.String()
	if !opts.GenerateSourceMap {
		return css, nil
	}
	smJSON, _ = p.mapper.ToJSON(!opts.EmbedSourcesContent)
	return css, smJSON
}

func (p *printer) write(s string) {
	p.sb.WriteString(s)
	if p.mapper != nil {
		p.mapper.AdvanceGenerated(s)
	}
}

func (p *printer) newline() {
	if p.opts.Style == Compressed {
		return
	}
	p.write("\n")
}

func (p *printer) writeIndent(level int) {
	if p.opts.Style == Compressed {
		return
	}
	p.write(strings.Repeat("  ", level))
}

func (p *printer) mark(span cssast.Span) {
	if p.mapper == nil {
		return
	}
	src := p.store.Source(span.PathIndex)
	line, col := src.PositionOf(span.Range.Loc.Start)
	p.mapper.AddMapping(src.PrettyPath, src.Contents, int32(line), int32(col))
}

func (p *printer) printStmt(stmt cssast.Stmt, level int) {
	switch s := stmt.(type) {
	case *cssast.Ruleset:
		p.printRuleset(s, level)
	case *cssast.MediaBlock:
		p.printMedia(s, level)
	case *cssast.AtRule:
		p.printAtRule(s, level)
	case *cssast.Declaration:
		p.printDeclaration(s, level)
	case *cssast.Import:
		p.printImport(s, level)
	case *cssast.Comment:
		p.printComment(s, level)
	}
}

func (p *printer) printComment(c *cssast.Comment, level int) {
	p.writeIndent(level)
	p.mark(c.Span())
	p.write("/*" + c.Text + "*/")
	p.newline()
}

func (p *printer) printSourceComment(span cssast.Span, level int) {
	if !p.opts.SourceComments {
		return
	}
	src := p.store.Source(span.PathIndex)
	line, _ := src.PositionOf(span.Range.Loc.Start)
	p.writeIndent(level)
	p.write("/* line " + strconv.Itoa(line+1) + ", " + src.PrettyPath + " */")
	p.newline()
}

func (p *printer) printRuleset(r *cssast.Ruleset, level int) {
	if len(r.Block.Statements) == 0 {
		return
	}
	p.printSourceComment(r.Span(), level)
	p.writeIndent(level)
	p.mark(r.Span())
	p.printSelectorList(r.Selector)
	p.openBlock()
	p.printDeclBody(r.Block, level+1)
	if p.opts.Style == Compact {
		p.write(" ")
	}
	p.closeBlock(level)
}

// printSelectorList renders comma-separated complex selectors, one per
// line for nested/expanded (spec §4.I "groups selectors at comma
// boundaries"), all on one line for compact/compressed.
func (p *printer) printSelectorList(l *cssast.SelectorList) {
	multiline := p.opts.Style == Nested || p.opts.Style == Expanded
	sep := ", "
	if multiline {
		sep = ",\n"
	}
	if p.opts.Style == Compressed {
		sep = ","
	}
	for i, c := range l.Complexes {
		if i > 0 {
			p.write(sep)
		}
		p.write(cssast.FormatComplex(c))
	}
}

func (p *printer) openBlock() {
	switch p.opts.Style {
	case Compressed:
		p.write("{")
	case Compact:
		p.write(" { ")
	default:
		p.write(" {")
		p.newline()
	}
}

func (p *printer) closeBlock(level int) {
	switch p.opts.Style {
	case Compressed:
		p.write("}")
	case Compact:
		p.write("}")
		p.newline()
	default:
		p.writeIndent(level)
		p.write("}")
		p.newline()
	}
}

// printDeclBody prints a ruleset's own declarations/loud-comments; nested
// sibling rules have already been hoisted out by the evaluator (spec
// §4.G contract), so this block only ever contains Declaration/Comment.
// Nested/expanded put one declaration per line; compact/compressed join
// them onto the selector's own line (spec §4.I "one selector group per
// line" for compact; compressed additionally drops all insignificant
// whitespace).
func (p *printer) printDeclBody(block *cssast.Block, level int) {
	oneLine := p.opts.Style == Compact || p.opts.Style == Compressed
	last := -1
	for i, s := range block.Statements {
		if _, ok := s.(*cssast.Declaration); ok {
			last = i
		}
	}
	first := true
	for i, stmt := range block.Statements {
		switch s := stmt.(type) {
		case *cssast.Declaration:
			omit := p.opts.Style == Compressed && i == last
			if oneLine {
				if !first && p.opts.Style == Compact {
					p.write(" ")
				}
				first = false
				p.printDeclarationOneLine(s, omit)
			} else {
				p.printDeclarationInline(s, level, omit)
			}
		case *cssast.Comment:
			p.printComment(s, level)
		}
	}
}

func (p *printer) printDeclaration(d *cssast.Declaration, level int) {
	p.printDeclarationInline(d, level, false)
}

func (p *printer) printDeclarationInline(d *cssast.Declaration, level int, omitSemicolon bool) {
	p.writeIndent(level)
	p.printDeclarationOneLine(d, omitSemicolon)
	p.newline()
}

func (p *printer) printDeclarationOneLine(d *cssast.Declaration, omitSemicolon bool) {
	p.mark(d.Span())
	p.write(propertyText(d.Property))
	p.write(":")
	if p.opts.Style != Compressed {
		p.write(" ")
	}
	p.write(ValueText(d.Value, p.opts.Precision))
	if d.IsImportant {
		p.write(" !important")
	}
	if !omitSemicolon {
		p.write(";")
	}
}

func propertyText(e cssast.Expr) string {
	switch v := e.(type) {
	case *cssast.StringConstant:
		return v.Value
	case *cssast.StringQuoted:
		return v.Value
	}
	return ""
}

func (p *printer) printMedia(m *cssast.MediaBlock, level int) {
	p.writeIndent(level)
	p.write("@media " + formatMediaQueries(m.Queries))
	p.openNestedBlock()
	for _, stmt := range m.Block.Statements {
		p.printStmt(stmt, level+1)
	}
	p.closeBlock(level)
}

// openNestedBlock opens a block that holds further statements (an @media
// or at-rule body) rather than a flat run of declarations; unlike
// openBlock, compact style still breaks onto a new line here since each
// contained rule gets its own line regardless of style.
func (p *printer) openNestedBlock() {
	if p.opts.Style == Compressed {
		p.write("{")
		return
	}
	p.write(" {")
	p.newline()
}

func formatMediaQueries(qs []cssast.MediaQuery) string {
	parts := make([]string, len(qs))
	for i, q := range qs {
		parts[i] = formatMediaQuery(q)
	}
	return strings.Join(parts, ", ")
}

func formatMediaQuery(q cssast.MediaQuery) string {
	var sb strings.Builder
	if q.Modifier != "" {
		sb.WriteString(q.Modifier + " ")
	}
	if q.Type != "" {
		sb.WriteString(q.Type)
	}
	for i, f := range q.Features {
		if i > 0 || q.Type != "" {
			sb.WriteString(" and ")
		}
		sb.WriteString(formatMediaFeature(f))
	}
	return sb.String()
}

func formatMediaFeature(f cssast.MediaFeature) string {
	if f.Op == cssast.MediaFeatureNone {
		return "(" + f.Name + ")"
	}
	if f.Op == cssast.MediaFeatureEq {
		return "(" + f.Name + ": " + ValueText(f.Value, 5) + ")"
	}
	op := map[cssast.MediaFeatureOp]string{
		cssast.MediaFeatureLt: "<", cssast.MediaFeatureLte: "<=",
		cssast.MediaFeatureGt: ">", cssast.MediaFeatureGte: ">=",
	}[f.Op]
	return "(" + f.Name + " " + op + " " + ValueText(f.Value, 5) + ")"
}

func (p *printer) printAtRule(a *cssast.AtRule, level int) {
	p.writeIndent(level)
	p.write("@" + a.Keyword)
	if a.Selector != nil && len(a.Selector.Complexes) > 0 {
		p.write(" ")
		p.printSelectorList(a.Selector)
	}
	if a.Value != nil {
		p.write(" " + ValueText(a.Value, p.opts.Precision))
	}
	if a.Block == nil {
		p.write(";")
		p.newline()
		return
	}
	p.openNestedBlock()
	for _, stmt := range a.Block.Statements {
		p.printStmt(stmt, level+1)
	}
	p.closeBlock(level)
}

func (p *printer) printImport(im *cssast.Import, level int) {
	for _, u := range im.URLs {
		p.writeIndent(level)
		p.write("@import \"" + u + "\"")
		if len(im.MediaQueries) > 0 {
			p.write(" " + formatMediaQueries(im.MediaQueries))
		}
		p.write(";")
		p.newline()
	}
}
