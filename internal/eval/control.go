package eval

import (
	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/logger"
)

func (ev *Evaluator) evalIf(s *cssast.If, parentSelector *cssast.SelectorList) []cssast.Stmt {
	if cssast.IsTruthy(ev.evalExpr(s.Predicate)) {
		return ev.evalBranch(s.Consequent, parentSelector)
	}
	switch alt := s.Alternative.(type) {
	case *cssast.Block:
		return ev.evalBranch(alt, parentSelector)
	case *cssast.If:
		return ev.evalIf(alt, parentSelector)
	}
	return nil
}

func (ev *Evaluator) evalBranch(body *cssast.Block, parentSelector *cssast.SelectorList) []cssast.Stmt {
	ev.Env.Push()
	defer ev.Env.Pop()
	var out []cssast.Stmt
	for _, stmt := range body.Statements {
		out = append(out, ev.evalStmt(stmt, parentSelector)...)
	}
	return out
}

func (ev *Evaluator) evalFor(s *cssast.For, parentSelector *cssast.SelectorList) []cssast.Stmt {
	lower := ev.evalExpr(s.Lower)
	upper := ev.evalExpr(s.Upper)
	lowerN, lok := lower.(*cssast.Number)
	upperN, uok := upper.(*cssast.Number)
	if !lok || !uok {
		ev.errAt(s.Span(), logger.Type, "@for bounds must be numbers")
		return nil
	}
	lo, hi := int(lowerN.Value), int(upperN.Value)
	step := 1
	if lo > hi {
		step = -1
	}
	var out []cssast.Stmt
	i := lo
	for {
		if step > 0 {
			if s.Inclusive && i > hi {
				break
			}
			if !s.Inclusive && i >= hi {
				break
			}
		} else {
			if i < hi {
				break
			}
		}
		ev.Env.Push()
		ev.Env.Set(s.Var, cssast.NewScalar(cssast.Span{}, float64(i)))
		for _, stmt := range s.Body.Statements {
			out = append(out, ev.evalStmt(stmt, parentSelector)...)
		}
		ev.Env.Pop()
		i += step
	}
	return out
}

func (ev *Evaluator) evalEach(s *cssast.Each, parentSelector *cssast.SelectorList) []cssast.Stmt {
	iterable := ev.evalExpr(s.Iterable)
	items := asIterable(iterable)
	var out []cssast.Stmt
	for _, item := range items {
		ev.Env.Push()
		ev.bindEachVars(s.Vars, item)
		for _, stmt := range s.Body.Statements {
			out = append(out, ev.evalStmt(stmt, parentSelector)...)
		}
		ev.Env.Pop()
	}
	return out
}

// bindEachVars implements spec §4.G's Each destructuring: a multi-var
// loop over list-of-lists (or, per the supplemented feature, over a map)
// destructures each element positionally.
func (ev *Evaluator) bindEachVars(vars []string, item cssast.Value) {
	if len(vars) == 1 {
		ev.Env.Set(vars[0], item)
		return
	}
	var parts []cssast.Expr
	if pair, ok := item.(*cssast.List); ok {
		parts = pair.Items
	} else {
		parts = []cssast.Expr{item}
	}
	for i, name := range vars {
		if i < len(parts) {
			ev.Env.Set(name, parts[i])
		} else {
			ev.Env.Set(name, &cssast.Null{})
		}
	}
}

// asIterable normalizes the @each source expression into a flat sequence
// of values. A map's entries become two-item lists so a two-variable
// `@each $k, $v in $map` (the supplemented map-destructuring feature)
// destructures through the same path as a list-of-lists.
func asIterable(v cssast.Value) []cssast.Value {
	switch t := v.(type) {
	case *cssast.List:
		return t.Items
	case *cssast.Map:
		out := make([]cssast.Value, len(t.Pairs))
		for i, pair := range t.Pairs {
			out[i] = &cssast.List{Separator: cssast.SepSpace, Items: []cssast.Expr{pair.Key, pair.Value}}
		}
		return out
	default:
		return []cssast.Value{v}
	}
}

func (ev *Evaluator) evalWhile(s *cssast.While, parentSelector *cssast.SelectorList) []cssast.Stmt {
	var out []cssast.Stmt
	for !ev.isCancelled() && cssast.IsTruthy(ev.evalExpr(s.Predicate)) {
		ev.Env.Push()
		for _, stmt := range s.Body.Statements {
			out = append(out, ev.evalStmt(stmt, parentSelector)...)
		}
		ev.Env.Pop()
	}
	if ev.isCancelled() {
		ev.errAt(s.Span(), logger.User, "compilation cancelled")
	}
	return out
}
