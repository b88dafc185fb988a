package selector_test

import (
	"testing"

	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/selector"
)

func classCompound(names ...string) cssast.Compound {
	simples := make([]cssast.SimplePart, len(names))
	for i, n := range names {
		simples[i] = cssast.ClassSelector{Name: n}
	}
	return cssast.Compound{Simples: simples}
}

func complexOf(compounds ...cssast.Compound) cssast.Complex {
	parts := make([]cssast.ComplexPart, len(compounds))
	for i, c := range compounds {
		combo := cssast.ComboDescendant
		if i == 0 {
			combo = cssast.ComboNone
		}
		parts[i] = cssast.ComplexPart{Combinator: combo, Compound: c}
	}
	return cssast.Complex{Parts: parts}
}

func listOf(complexes ...cssast.Complex) *cssast.SelectorList {
	return &cssast.SelectorList{Complexes: complexes}
}

// parentRefCompound builds a single compound holding "&" alone (plain
// "&" nesting, spec §8 property 5) or "&" plus additional simples (e.g.
// "&.active" merges into the parent's trailing compound, spec §4.H).
func parentRefCompound(extra ...string) cssast.Compound {
	simples := []cssast.SimplePart{cssast.ParentRefSelector{}}
	for _, n := range extra {
		simples = append(simples, cssast.ClassSelector{Name: n})
	}
	return cssast.Compound{Simples: simples, HasParentRef: true}
}

func TestResolveParentNilParentReturnsNestedUnchanged(t *testing.T) {
	nested := listOf(complexOf(classCompound("b")))
	got := selector.ResolveParent(nested, nil)
	if got != nested {
		t.Errorf("expected the same selector list back when parent is nil")
	}
}

func TestResolveParentPrefixesWithDescendantWhenNoParentRef(t *testing.T) {
	parent := listOf(complexOf(classCompound("a")))
	nested := listOf(complexOf(classCompound("b")))
	got := selector.ResolveParent(nested, parent)
	want := listOf(complexOf(classCompound("a"), classCompound("b")))
	if !got.Equal(want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestResolveParentIdentity(t *testing.T) {
	// Spec §8 property 5: a nested ruleset with selector "&" yields
	// exactly the parent selector.
	parent := listOf(complexOf(classCompound("a")))
	nested := listOf(complexOf(parentRefCompound()))
	got := selector.ResolveParent(nested, parent)
	if !got.Equal(parent) {
		t.Errorf("got %#v, want exactly the parent selector %#v", got, parent)
	}
}

func TestResolveParentWeavesSimplesAlongsideParentRef(t *testing.T) {
	// "&.active" under parent ".a" yields ".a.active".
	parent := listOf(complexOf(classCompound("a")))
	nested := listOf(complexOf(parentRefCompound("active")))
	got := selector.ResolveParent(nested, parent)
	want := listOf(complexOf(classCompound("a", "active")))
	if !got.Equal(want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestResolveParentCartesianProductOverParentComplexes(t *testing.T) {
	parent := listOf(complexOf(classCompound("a")), complexOf(classCompound("b")))
	nested := listOf(complexOf(classCompound("c")))
	got := selector.ResolveParent(nested, parent)
	want := listOf(
		complexOf(classCompound("a"), classCompound("c")),
		complexOf(classCompound("b"), classCompound("c")),
	)
	if !got.Equal(want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestExpandExtendsUnionsTargetSelector(t *testing.T) {
	msg := listOf(complexOf(classCompound("msg")))
	err := listOf(complexOf(classCompound("err")))
	rules := []selector.ExtendRule{{ExtenderSelector: err, Target: listOf(complexOf(classCompound("msg"))), MediaContext: 0}}
	selectors := []*cssast.SelectorList{msg}
	contexts := []int{0}
	selector.ExpandExtends(rules, selectors, contexts, nil)

	want := listOf(complexOf(classCompound("msg")), complexOf(classCompound("err")))
	if !selectors[0].Equal(want) {
		t.Errorf("got %#v, want %#v", selectors[0], want)
	}
}

func TestExpandExtendsMonotonicityNeverDropsOriginal(t *testing.T) {
	// Spec §8 property 4: adding @extend never removes a selector from
	// any ruleset's output.
	msg := listOf(complexOf(classCompound("msg")))
	original := complexOf(classCompound("msg"))
	rules := []selector.ExtendRule{{
		ExtenderSelector: listOf(complexOf(classCompound("err"))),
		Target:           listOf(complexOf(classCompound("msg"))),
		MediaContext:     0,
	}}
	selectors := []*cssast.SelectorList{msg}
	selector.ExpandExtends(rules, selectors, []int{0}, nil)

	found := false
	for _, c := range selectors[0].Complexes {
		if c.Equal(original) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the original target selector to survive extension, got %#v", selectors[0])
	}
}

func TestExpandExtendsRespectsMediaContext(t *testing.T) {
	// Open Question decision (SPEC_FULL.md): @extend only reaches targets
	// declared in the same @media nesting as the extender.
	msgInRoot := listOf(complexOf(classCompound("msg")))
	rules := []selector.ExtendRule{{
		ExtenderSelector: listOf(complexOf(classCompound("err"))),
		Target:           listOf(complexOf(classCompound("msg"))),
		MediaContext:     1, // declared inside a @media block
	}}
	selectors := []*cssast.SelectorList{msgInRoot}
	contexts := []int{0} // .msg itself lives at the root context
	selector.ExpandExtends(rules, selectors, contexts, nil)

	if len(selectors[0].Complexes) != 1 {
		t.Errorf("expected no cross-media-context extension, got %#v", selectors[0])
	}
}

func TestExpandExtendsIsTransitive(t *testing.T) {
	// .c extends .b, .b extends .a: a ruleset selector ".a" should pick up
	// both .b and .c once the fixpoint converges.
	a := listOf(complexOf(classCompound("a")))
	rules := []selector.ExtendRule{
		{ExtenderSelector: listOf(complexOf(classCompound("b"))), Target: listOf(complexOf(classCompound("a"))), MediaContext: 0},
		{ExtenderSelector: listOf(complexOf(classCompound("c"))), Target: listOf(complexOf(classCompound("b"))), MediaContext: 0},
	}
	selectors := []*cssast.SelectorList{a}
	selector.ExpandExtends(rules, selectors, []int{0}, nil)

	names := map[string]bool{}
	for _, c := range selectors[0].Complexes {
		for _, p := range c.Parts {
			for _, s := range p.Compound.Simples {
				if cls, ok := s.(cssast.ClassSelector); ok {
					names[cls.Name] = true
				}
			}
		}
	}
	for _, want := range []string{"a", "b", "c"} {
		if !names[want] {
			t.Errorf("expected transitive extension to add .%s, got %#v", want, selectors[0])
		}
	}
}

func TestExpandExtendsReportsUnmatchedNonOptionalRule(t *testing.T) {
	// SPEC_FULL.md supplemented feature: @extend without "!optional" whose
	// target never matches anything is an error, not a silent no-op.
	msg := listOf(complexOf(classCompound("msg")))
	rules := []selector.ExtendRule{{
		ExtenderSelector: listOf(complexOf(classCompound("err"))),
		Target:           listOf(complexOf(classCompound("nonexistent"))),
		MediaContext:     0,
	}}
	selectors := []*cssast.SelectorList{msg}
	unmatched := selector.ExpandExtends(rules, selectors, []int{0}, nil)
	if len(unmatched) != 1 {
		t.Fatalf("expected the unmatched non-optional rule to be reported, got %#v", unmatched)
	}
}

func TestExpandExtendsOptionalRuleIsNotReportedWhenUnmatched(t *testing.T) {
	msg := listOf(complexOf(classCompound("msg")))
	rules := []selector.ExtendRule{{
		ExtenderSelector: listOf(complexOf(classCompound("err"))),
		Target:           listOf(complexOf(classCompound("nonexistent"))),
		Optional:         true,
		MediaContext:     0,
	}}
	selectors := []*cssast.SelectorList{msg}
	unmatched := selector.ExpandExtends(rules, selectors, []int{0}, nil)
	if len(unmatched) != 0 {
		t.Errorf("expected an optional unmatched rule to be silent, got %#v", unmatched)
	}
}

func TestExpandExtendsStopsAtFixpointLoopWhenCancelled(t *testing.T) {
	// Spec §5: "a compilation checks a cancellation flag between top-level
	// statements of the evaluator and between extension-fixpoint
	// iterations". A cancelled run must return promptly rather than run
	// the transitive fixpoint to completion.
	a := listOf(complexOf(classCompound("a")))
	rules := []selector.ExtendRule{
		{ExtenderSelector: listOf(complexOf(classCompound("b"))), Target: listOf(complexOf(classCompound("a"))), MediaContext: 0},
		{ExtenderSelector: listOf(complexOf(classCompound("c"))), Target: listOf(complexOf(classCompound("b"))), MediaContext: 0},
	}
	selectors := []*cssast.SelectorList{a}
	calls := 0
	selector.ExpandExtends(rules, selectors, []int{0}, func() bool {
		calls++
		return true // cancelled from the very first check
	})
	if calls == 0 {
		t.Errorf("expected the cancellation callback to be consulted")
	}
	if len(selectors[0].Complexes) != 1 {
		t.Errorf("expected no extension to apply once cancelled, got %#v", selectors[0])
	}
}

func TestWeaveParentRefThreadsExplicitCombinator(t *testing.T) {
	// "ul { li { & + & { ... } } }": the "+" riding alongside the second
	// "&" must survive onto the spliced-in parent, not fall back to the
	// default descendant combinator.
	parent := listOf(complexOf(classCompound("li")))
	nestedParts := []cssast.ComplexPart{
		{Combinator: cssast.ComboNone, Compound: parentRefCompound()},
		{Combinator: cssast.ComboAdjacent, Compound: parentRefCompound()},
	}
	nested := listOf(cssast.Complex{Parts: nestedParts})

	got := selector.ResolveParent(nested, parent)
	want := listOf(cssast.Complex{Parts: []cssast.ComplexPart{
		{Combinator: cssast.ComboNone, Compound: classCompound("li")},
		{Combinator: cssast.ComboAdjacent, Compound: classCompound("li")},
	}})
	if !got.Equal(want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestCollectSelectorsAssignsDistinctMediaContextsToSiblingMediaBlocks(t *testing.T) {
	block := &cssast.Block{Statements: []cssast.Stmt{
		&cssast.MediaBlock{Queries: []cssast.MediaQuery{{Type: "screen"}}, Block: &cssast.Block{
			Statements: []cssast.Stmt{&cssast.Ruleset{Selector: listOf(complexOf(classCompound("a"))), Block: &cssast.Block{}}},
		}},
		&cssast.MediaBlock{Queries: []cssast.MediaQuery{{Type: "print"}}, Block: &cssast.Block{
			Statements: []cssast.Stmt{&cssast.Ruleset{Selector: listOf(complexOf(classCompound("b"))), Block: &cssast.Block{}}},
		}},
	}}
	var sels []*cssast.SelectorList
	var ctxs []int
	selector.CollectSelectors(block, 0, &sels, &ctxs)
	if len(ctxs) != 2 || ctxs[0] == ctxs[1] {
		t.Errorf("expected two sibling @media blocks to get distinct media contexts, got %v", ctxs)
	}
}
