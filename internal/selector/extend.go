package selector

import "github.com/riftss/riftss/internal/cssast"

// ExpandExtends implements spec §4.H's @extend pass: every ruleset selector
// that is a superselector-reachable match of some rule's Target is unioned
// with that rule's ExtenderSelector, repeated to a fixpoint since an
// extended selector can itself become the target of another @extend.
// Rules only apply within their own MediaContext (the Open Question
// decision recorded in SPEC_FULL.md).
//
// selectors is mutated in place: sels[i] is grown with any newly unioned
// complexes. mediaContexts[i] must give the media context each selectors[i]
// was declared under, parallel to selectors.
//
// cancelled, if non-nil, is polled between fixpoint iterations (spec §5:
// "a compilation checks a cancellation flag between top-level statements
// of the evaluator and between extension-fixpoint iterations") so a
// pathological extend graph can't make a cancelled compilation spin.
//
// The return value lists every non-optional rule (spec §4.E/SPEC_FULL
// "!optional" supplemented feature) that matched no selector by the time
// the fixpoint (or cancellation) was reached; the caller is expected to
// report each as an error, since an @extend without "!optional" whose
// target never matches anything is a mistake rather than a no-op.
func ExpandExtends(rules []ExtendRule, selectors []*cssast.SelectorList, mediaContexts []int, cancelled func() bool) []ExtendRule {
	matched := make([]bool, len(rules))
	for {
		if cancelled != nil && cancelled() {
			break
		}
		changed := false
		for ri, rule := range rules {
			for i, sel := range selectors {
				if mediaContexts[i] != rule.MediaContext {
					continue
				}
				for _, targetComplex := range rule.Target.Complexes {
					for _, candidate := range sel.Complexes {
						if !complexMatchesAsSuperselectorTarget(targetComplex, candidate) {
							continue
						}
						matched[ri] = true
						for _, extenderComplex := range rule.ExtenderSelector.Complexes {
							woven := substituteComplex(candidate, len(candidate.Parts)-1, targetComplex, extenderComplex)
							if !containsComplex(selectors[i].Complexes, woven) {
								selectors[i].Complexes = append(selectors[i].Complexes, woven)
								changed = true
							}
						}
					}
				}
			}
		}
		if !changed {
			break
		}
	}

	var unmatched []ExtendRule
	for i, rule := range rules {
		if !matched[i] && !rule.Optional {
			unmatched = append(unmatched, rule)
		}
	}
	return unmatched
}

// complexMatchesAsSuperselectorTarget reports whether target's final
// compound appears verbatim (as a subset of simples) within candidate's
// final compound — the common case of `@extend .target` matching a plain
// class/id/placeholder selector. Combinator-bearing targets (e.g.
// `@extend .a > .b`) are matched as a trailing-suffix run of compounds.
func complexMatchesAsSuperselectorTarget(target, candidate cssast.Complex) bool {
	if len(target.Parts) == 0 || len(candidate.Parts) == 0 {
		return false
	}
	tn, cn := len(target.Parts), len(candidate.Parts)
	if tn > cn {
		return false
	}
	for k := 0; k < tn; k++ {
		tp := target.Parts[tn-1-k]
		cp := candidate.Parts[cn-1-k]
		if k > 0 && tp.Combinator != cp.Combinator {
			return false
		}
		if !isSubsetCompound(tp.Compound, cp.Compound) {
			return false
		}
	}
	return true
}

// isSubsetCompound reports whether every simple selector in sub also
// appears in full (the superselector test reduced to a single compound).
func isSubsetCompound(sub, full cssast.Compound) bool {
	for _, s := range sub.Simples {
		found := false
		for _, f := range full.Simples {
			if s.Equal(f) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// substituteComplex implements the unification side of @extend: candidate's
// compound at position matchEnd (the one that satisfied the target match)
// has the target's simples stripped out and replaced by extender's trailing
// compound, with extender's leading compounds (if any) spliced in ahead of
// it the same way weaveParentRef splices a parent complex.
func substituteComplex(candidate cssast.Complex, matchEnd int, target, extender cssast.Complex) cssast.Complex {
	tn := len(target.Parts)
	matchStart := matchEnd - tn + 1
	prefix := append([]cssast.ComplexPart{}, candidate.Parts[:matchStart]...)
	suffix := append([]cssast.ComplexPart{}, candidate.Parts[matchEnd+1:]...)

	matchedCompound := candidate.Parts[matchEnd].Compound
	remaining := subtractSimples(matchedCompound.Simples, target.Parts[tn-1].Compound.Simples)

	extParts := append([]cssast.ComplexPart{}, extender.Parts...)
	if len(extParts) == 0 {
		extParts = []cssast.ComplexPart{{Compound: cssast.Compound{}}}
	}
	last := extParts[len(extParts)-1]
	merged := cssast.Compound{Simples: append(append([]cssast.SimplePart{}, last.Compound.Simples...), remaining...)}
	extParts[len(extParts)-1] = cssast.ComplexPart{Combinator: last.Combinator, Compound: merged}
	if len(extParts) > 0 && matchStart > 0 {
		extParts[0].Combinator = candidate.Parts[matchStart].Combinator
	}

	out := append(prefix, extParts...)
	out = append(out, suffix...)
	return cssast.Complex{Parts: out}
}

func subtractSimples(from, remove []cssast.SimplePart) []cssast.SimplePart {
	var out []cssast.SimplePart
	for _, f := range from {
		skip := false
		for _, r := range remove {
			if f.Equal(r) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, f)
		}
	}
	return out
}

func containsComplex(list []cssast.Complex, c cssast.Complex) bool {
	for _, existing := range list {
		if existing.Equal(c) {
			return true
		}
	}
	return false
}

// CollectSelectors walks block, gathering a pointer to every ruleset's
// resolved selector list alongside the media context it sits under, so the
// caller (the compile driver, spec §6) can run ExpandExtends once per
// compilation after the evaluator has finished the rest of the walk. The
// numbering must line up with eval.Evaluator.currentMediaContext's scheme
// (a single counter incremented on every @media entry, depth-first,
// source order, root = 0) rather than nesting depth, since two sibling
// @media blocks at the same depth are still distinct media contexts.
func CollectSelectors(block *cssast.Block, mediaContext int, out *[]*cssast.SelectorList, contexts *[]int) {
	counter := mediaContext
	collectSelectors(block, mediaContext, &counter, out, contexts)
}

func collectSelectors(block *cssast.Block, mediaContext int, counter *int, out *[]*cssast.SelectorList, contexts *[]int) {
	for _, stmt := range block.Statements {
		switch s := stmt.(type) {
		case *cssast.Ruleset:
			*out = append(*out, s.Selector)
			*contexts = append(*contexts, mediaContext)
			collectSelectors(s.Block, mediaContext, counter, out, contexts)
		case *cssast.MediaBlock:
			*counter++
			collectSelectors(s.Block, *counter, counter, out, contexts)
		case *cssast.AtRule:
			if s.Block != nil {
				collectSelectors(s.Block, mediaContext, counter, out, contexts)
			}
		}
	}
}
