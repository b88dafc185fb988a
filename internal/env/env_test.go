package env_test

import (
	"testing"

	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/env"
)

func num(v float64) *cssast.Number { return cssast.NewScalar(cssast.Span{}, v) }

func TestSetAndLookup(t *testing.T) {
	e := env.New()
	e.Set("x", num(1))
	v, ok := e.Lookup("x")
	if !ok {
		t.Fatalf("expected x to be found")
	}
	if n, ok := v.(*cssast.Number); !ok || n.Value != 1 {
		t.Errorf("expected Number(1), got %#v", v)
	}
}

func TestSetRebindsInnermostExistingFrame(t *testing.T) {
	e := env.New()
	e.Set("x", num(1))
	e.Push()
	e.Set("x", num(2)) // x already exists in the root frame, so this rebinds it there
	e.Pop()
	v, _ := e.Lookup("x")
	if v.(*cssast.Number).Value != 2 {
		t.Errorf("expected outer x to be rebound to 2, got %v", v.(*cssast.Number).Value)
	}
}

func TestPushCreatesNewBindingScope(t *testing.T) {
	e := env.New()
	e.Push()
	e.Set("y", num(5))
	e.Pop()
	if _, ok := e.Lookup("y"); ok {
		t.Errorf("expected y to go out of scope after Pop")
	}
}

func TestSetDefaultOnlyBindsWhenUnsetOrNull(t *testing.T) {
	e := env.New()
	e.SetDefault("x", num(1))
	e.SetDefault("x", num(2))
	v, _ := e.Lookup("x")
	if v.(*cssast.Number).Value != 1 {
		t.Errorf("expected !default to leave the first binding alone, got %v", v.(*cssast.Number).Value)
	}
}

func TestSetGlobalBindsInRootFrame(t *testing.T) {
	e := env.New()
	e.Push()
	e.Push()
	e.SetGlobal("z", num(3))
	e.Pop()
	e.Pop()
	v, ok := e.Lookup("z")
	if !ok || v.(*cssast.Number).Value != 3 {
		t.Errorf("expected z visible at root after !global set, got %v ok=%v", v, ok)
	}
}

func TestMixinAndFunctionNamespacesDontCollide(t *testing.T) {
	e := env.New()
	mixin := &cssast.Definition{Kind: cssast.DefMixin}
	fn := &cssast.Definition{Kind: cssast.DefFunction}
	e.DefineMixin("thing", mixin)
	e.DefineFunction("thing", fn)

	gotMixin, ok := e.LookupMixin("thing")
	if !ok || gotMixin != mixin {
		t.Errorf("expected to find the mixin named thing")
	}
	gotFn, ok := e.LookupFunction("thing")
	if !ok || gotFn != fn {
		t.Errorf("expected to find the function named thing")
	}
}

func TestSnapshotCapturesCallerFrame(t *testing.T) {
	e := env.New()
	e.Set("caller_var", num(7))
	snap := e.Snapshot()

	e.Push() // enter the mixin body's own frame
	var seen cssast.Value
	e.WithSnapshot(snap, func() {
		seen, _ = e.Lookup("caller_var")
	})
	e.Pop()

	if seen == nil || seen.(*cssast.Number).Value != 7 {
		t.Errorf("expected WithSnapshot to see the caller's frame, got %v", seen)
	}
}

func TestPopRootFramePanics(t *testing.T) {
	e := env.New()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected popping the root frame to panic")
		}
	}()
	e.Pop()
}
