package cssast

// Value is the runtime value produced by evaluation (spec §4.G / §6). It
// is deliberately the same Expr interface used during parsing rather than
// a separate type: every evaluated result is one of Number, Color,
// Boolean, StringQuoted, StringConstant, List, Map or Null, and giving it
// its own type would just require a lossless conversion back and forth at
// every native-function boundary. The two ABI-only variants that have no
// parse-time equivalent (Error/Warning, spec §6 "Value ABI for host
// functions") get their own small node types below.
type Value = Expr

// HostError is returned by a native function to fail the call; it is
// folded into a logger.Kind-User error by the evaluator.
type HostError struct {
	exprBase
	Message string
}

// HostWarning is a value a native function can return to emit a warning
// without failing, per the §6 value ABI.
type HostWarning struct {
	exprBase
	Message string
}

// IsTruthy implements spec §4.G's control-flow truthiness rule: false and
// null are falsy, everything else (including 0 and "") is truthy.
func IsTruthy(v Value) bool {
	switch v := v.(type) {
	case *Boolean:
		return v.Value
	case *Null:
		return false
	case nil:
		return false
	default:
		return true
	}
}
