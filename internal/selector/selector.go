// Package selector implements the selector engine of spec §4.H: parent
// (&) resolution, the superselector test, compound/complex unification,
// and the @extend expansion pass that sits on top of them.
//
// Grounded on evanw-esbuild's internal/css_parser/css_nesting.go, which
// expands CSS nesting's "&" into flat rules — the closest existing
// analogue to parent-reference resolution in the pack, even though
// esbuild's version never needs a superselector test or extend weaving
// (plain CSS nesting has no @extend). The algebra below (superselector,
// unify, extend-as-weave) has no teacher analogue and is written fresh
// from spec §4.H/§9, in the teacher's small-struct-plus-free-function
// idiom rather than as methods on a big "Nester" object.
package selector

import "github.com/riftss/riftss/internal/cssast"

// ExtendRule is one collected `@extend` directive (spec §4.G "Collected
// during evaluation"), handed to ExpandExtends once the whole tree has
// been walked. MediaContext pins the rule to the @media nesting it was
// declared under (root stylesheet level is 0), per the Open Question
// decision in SPEC_FULL.md that @extend only reaches targets declared in
// the same media context.
type ExtendRule struct {
	ExtenderSelector *cssast.SelectorList
	Target           *cssast.SelectorList
	Optional         bool
	MediaContext     int
	Span             cssast.Span
}

// ResolveParent implements spec §4.H "Parent resolution": substitutes "&"
// pointwise in each complex of nested against parent, producing the
// cartesian product of parent and nested complexes; a nested complex with
// no "&" is prefixed by each parent complex under the descendant
// combinator.
func ResolveParent(nested, parent *cssast.SelectorList) *cssast.SelectorList {
	if parent == nil {
		return nested
	}
	out := &cssast.SelectorList{IsOptional: nested.IsOptional}
	for _, nc := range nested.Complexes {
		if !nc.HasParentRef() {
			for _, pc := range parent.Complexes {
				out.Complexes = append(out.Complexes, prefixComplex(pc, nc))
			}
			continue
		}
		for _, pc := range parent.Complexes {
			out.Complexes = append(out.Complexes, weaveParentRef(pc, nc))
		}
	}
	return out
}

// prefixComplex implements the no-"&" branch: nested is appended after
// parent under a descendant combinator (or nested's own explicit leading
// combinator, if it had one — e.g. "> .child" under a parent ruleset).
func prefixComplex(parent, nested cssast.Complex) cssast.Complex {
	parts := append([]cssast.ComplexPart{}, parent.Parts...)
	nestedParts := append([]cssast.ComplexPart{}, nested.Parts...)
	if len(nestedParts) > 0 && nestedParts[0].Combinator == cssast.ComboNone {
		nestedParts[0].Combinator = cssast.ComboDescendant
	}
	parts = append(parts, nestedParts...)
	return cssast.Complex{Parts: parts}
}

// weaveParentRef substitutes "&" with parent wherever it occurs in
// nested's compounds, splicing parent's full complex in at that position
// and merging any simples that rode alongside "&" in the same compound
// (e.g. "&.active" merges ".active" into parent's trailing compound).
func weaveParentRef(parent, nested cssast.Complex) cssast.Complex {
	var result []cssast.ComplexPart
	for _, np := range nested.Parts {
		if !np.Compound.HasParentRef {
			result = append(result, np)
			continue
		}
		other := filterOutParentRef(np.Compound.Simples)
		parentParts := append([]cssast.ComplexPart{}, parent.Parts...)
		// An explicit combinator riding alongside "&" (e.g. "& + &", ".a > &")
		// belongs on the spliced-in parent's first part whenever this isn't
		// the nested complex's own leading position, the same way
		// substituteComplex threads the matched combinator in extend.go.
		if len(parentParts) > 0 && len(result) > 0 {
			parentParts[0].Combinator = np.Combinator
		}
		if len(other) == 0 {
			result = append(result, parentParts...)
			continue
		}
		if len(parentParts) == 0 {
			result = append(result, cssast.ComplexPart{Combinator: np.Combinator, Compound: cssast.Compound{Simples: other}})
			continue
		}
		last := parentParts[len(parentParts)-1]
		merged := cssast.Compound{Simples: append(append([]cssast.SimplePart{}, last.Compound.Simples...), other...)}
		parentParts[len(parentParts)-1] = cssast.ComplexPart{Combinator: last.Combinator, Compound: merged}
		result = append(result, parentParts...)
	}
	return cssast.Complex{Parts: result}
}

func filterOutParentRef(simples []cssast.SimplePart) []cssast.SimplePart {
	var out []cssast.SimplePart
	for _, s := range simples {
		if _, ok := s.(cssast.ParentRefSelector); ok {
			continue
		}
		out = append(out, s)
	}
	return out
}
