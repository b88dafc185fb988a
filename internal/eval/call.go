package eval

import (
	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/logger"
)

// EvaluatedArgs is the result of evaluating one call site's Arguments
// (spec §3.2 Argument/Arguments), with rest ("$list...") and keyword-splat
// ("$map...") arguments already unpacked into plain positional/named
// slots so binding doesn't need to re-inspect the call syntax.
type EvaluatedArgs struct {
	Positional []cssast.Value
	Named      map[string]cssast.Value
	NamedOrder []string
}

func (ev *Evaluator) evalArguments(args *cssast.Arguments) EvaluatedArgs {
	out := EvaluatedArgs{Named: map[string]cssast.Value{}}
	if args == nil {
		return out
	}
	for _, a := range args.Positional {
		v := ev.evalExpr(a.Value)
		if !a.IsRest {
			out.Positional = append(out.Positional, v)
			continue
		}
		switch t := v.(type) {
		case *cssast.List:
			out.Positional = append(out.Positional, t.Items...)
		case *cssast.Map:
			for _, p := range t.Pairs {
				name := stringifyLoose(p.Key)
				out.Named[name] = p.Value
				out.NamedOrder = append(out.NamedOrder, name)
			}
		default:
			out.Positional = append(out.Positional, v)
		}
	}
	for _, a := range args.Named {
		out.Named[a.Name] = ev.evalExpr(a.Value)
		out.NamedOrder = append(out.NamedOrder, a.Name)
	}
	return out
}

// bindArguments implements spec §4.G parameter binding: positional args
// fill parameters left to right, named args bind by name regardless of
// position, a trailing rest parameter collects whatever positional
// arguments remain as a list or, when only named arguments remain,
// collects them as a map (the keyword-splat counterpart). Must run with
// the callee's frame already pushed.
func (ev *Evaluator) bindArguments(params *cssast.Parameters, call *cssast.Arguments, span cssast.Span) {
	eargs := ev.evalArguments(call)
	used := map[string]bool{}
	pos := 0
	for _, p := range params.Items {
		if p.IsRest {
			var rest []cssast.Expr
			for ; pos < len(eargs.Positional); pos++ {
				rest = append(rest, eargs.Positional[pos])
			}
			if len(rest) > 0 {
				ev.Env.Set(p.Name, &cssast.List{Separator: cssast.SepComma, Items: rest})
				continue
			}
			var pairs []cssast.MapPair
			for _, name := range eargs.NamedOrder {
				if used[name] {
					continue
				}
				used[name] = true
				pairs = append(pairs, cssast.MapPair{Key: &cssast.StringConstant{Value: name}, Value: eargs.Named[name]})
			}
			if pairs != nil {
				ev.Env.Set(p.Name, &cssast.Map{Pairs: pairs})
			} else {
				ev.Env.Set(p.Name, &cssast.List{Separator: cssast.SepComma})
			}
			continue
		}
		if v, ok := eargs.Named[p.Name]; ok {
			used[p.Name] = true
			ev.Env.Set(p.Name, v)
			continue
		}
		if pos < len(eargs.Positional) {
			ev.Env.Set(p.Name, eargs.Positional[pos])
			pos++
			continue
		}
		if p.Default != nil {
			ev.Env.Set(p.Name, ev.evalExpr(p.Default))
			continue
		}
		ev.errAt(span, logger.Arity, "missing argument $%s", p.Name)
		ev.Env.Set(p.Name, &cssast.Null{})
	}
}

// evalFunctionCall implements spec §4.G "Function calls": a user-defined
// function (body or native) is preferred; anything else is treated as a
// literal CSS function (e.g. calc(), var(), an unrecognized vendor
// function) and rebuilt with its arguments evaluated, for the printer to
// serialize generically.
func (ev *Evaluator) evalFunctionCall(f *cssast.FunctionCall) cssast.Value {
	name := f.Name
	if f.NameSchema != nil {
		name = ev.evalSchemaToText(f.NameSchema)
	}
	if def, ok := ev.Env.LookupFunction(name); ok {
		return ev.callFunction(def, f.Arguments, f.Span())
	}

	eargs := ev.evalArguments(f.Arguments)
	posArgs := make([]cssast.Argument, len(eargs.Positional))
	for i, v := range eargs.Positional {
		posArgs[i] = cssast.Argument{Value: v}
	}
	var namedArgs []cssast.Argument
	for _, n := range eargs.NamedOrder {
		namedArgs = append(namedArgs, cssast.Argument{Value: eargs.Named[n], Name: n})
	}
	return &cssast.FunctionCall{Name: name, Arguments: &cssast.Arguments{Positional: posArgs, Named: namedArgs}}
}

func (ev *Evaluator) callFunction(def *cssast.Definition, args *cssast.Arguments, span cssast.Span) cssast.Value {
	if def.Native != nil {
		eargs := ev.evalArguments(args)
		v, err := def.Native(eargs.Positional)
		if err != nil {
			ev.errAt(span, logger.User, "%s", err.Error())
			return &cssast.Null{}
		}
		if hw, ok := v.(*cssast.HostWarning); ok {
			ev.Log.Add(logger.Warning, &ev.Tracker, span.Range, hw.Message)
			return &cssast.Null{}
		}
		return v
	}
	ev.Env.Push()
	defer ev.Env.Pop()
	ev.bindArguments(def.Parameters, args, span)
	v, returned := ev.execFunctionStmts(def.Body.Statements)
	if !returned {
		ev.errAt(span, logger.Syntax, "function \"%s\" finished without @return", def.Name)
		return &cssast.Null{}
	}
	return v
}

// execFunctionStmts runs a function body's statements directly (rather
// than through evalStmt's CSS-flattening dispatch, which has no notion of
// "the value this body evaluates to"), searching control-flow bodies for
// a @return the same way the source language does: the first @return
// reached, at any nesting depth, ends the call.
func (ev *Evaluator) execFunctionStmts(stmts []cssast.Stmt) (cssast.Value, bool) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *cssast.Return:
			return ev.evalExpr(s.Value), true

		case *cssast.Assignment:
			ev.evalAssignment(s)

		case *cssast.Definition:
			ev.evalDefinition(s)

		case *cssast.Diagnostic:
			ev.evalDiagnostic(s)

		case *cssast.If:
			if v, ret, ok := ev.execFunctionBranch(s.Consequent, cssast.IsTruthy(ev.evalExpr(s.Predicate))); ok {
				if ret {
					return v, true
				}
			} else {
				switch alt := s.Alternative.(type) {
				case *cssast.Block:
					if v, ret := ev.execFunctionStmtsScoped(alt.Statements); ret {
						return v, true
					}
				case *cssast.If:
					if v, ret := ev.execFunctionStmts([]cssast.Stmt{alt}); ret {
						return v, true
					}
				}
			}

		case *cssast.For:
			lowerN, lok := ev.evalExpr(s.Lower).(*cssast.Number)
			upperN, uok := ev.evalExpr(s.Upper).(*cssast.Number)
			if !lok || !uok {
				ev.errAt(s.Span(), logger.Type, "@for bounds must be numbers")
				continue
			}
			lo, hi := int(lowerN.Value), int(upperN.Value)
			step := 1
			if lo > hi {
				step = -1
			}
			for i := lo; (step > 0 && ((s.Inclusive && i <= hi) || (!s.Inclusive && i < hi))) || (step < 0 && i >= hi); i += step {
				ev.Env.Push()
				ev.Env.Set(s.Var, cssast.NewScalar(cssast.Span{}, float64(i)))
				v, ret := ev.execFunctionStmts(s.Body.Statements)
				ev.Env.Pop()
				if ret {
					return v, true
				}
			}

		case *cssast.Each:
			for _, item := range asIterable(ev.evalExpr(s.Iterable)) {
				ev.Env.Push()
				ev.bindEachVars(s.Vars, item)
				v, ret := ev.execFunctionStmts(s.Body.Statements)
				ev.Env.Pop()
				if ret {
					return v, true
				}
			}

		case *cssast.While:
			for !ev.isCancelled() && cssast.IsTruthy(ev.evalExpr(s.Predicate)) {
				ev.Env.Push()
				v, ret := ev.execFunctionStmts(s.Body.Statements)
				ev.Env.Pop()
				if ret {
					return v, true
				}
			}
		}
	}
	return nil, false
}

// execFunctionBranch runs body's statements in a fresh frame when cond is
// true, reporting (value, returned, true); it reports (_, _, false) when
// cond is false so the caller falls through to the @else chain.
func (ev *Evaluator) execFunctionBranch(body *cssast.Block, cond bool) (cssast.Value, bool, bool) {
	if !cond {
		return nil, false, false
	}
	v, ret := ev.execFunctionStmtsScoped(body.Statements)
	return v, ret, true
}

func (ev *Evaluator) execFunctionStmtsScoped(stmts []cssast.Stmt) (cssast.Value, bool) {
	ev.Env.Push()
	defer ev.Env.Pop()
	return ev.execFunctionStmts(stmts)
}
