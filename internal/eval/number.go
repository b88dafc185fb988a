// Package eval implements the evaluator of spec §4.G: it walks the AST
// produced by the parser, threading an env.Environment, and produces the
// CSS-only AST the printer consumes.
//
// Grounded on esbuild's internal/css_parser visitor methods for the
// general walk-and-rewrite shape (a set of `eval*` methods mirroring the
// node types, threading an error log) — esbuild's CSS visitor only ever
// lowers and minifies existing declarations, so the arithmetic, variable
// and control-flow evaluation below has no teacher analogue and is
// written fresh from spec §4.G/§3.3, in the teacher's function-per-node-
// kind style.
package eval

import (
	"math"

	"github.com/riftss/riftss/internal/cssast"
)

// lengthToPx and angleToDeg give each unit's size in px or deg; the ratio
// of two entries of one table converts between them, covering spec §4.G's
// two convertible families: length (in/cm/pc/mm/pt/px) and angle
// (deg/grad/rad/turn). Units outside these families (e.g. "%", "s", "ms")
// are never convertible to anything else.
var lengthToPx = map[string]float64{
	"px": 1, "in": 96, "pc": 16, "pt": 96.0 / 72, "mm": 96.0 / 25.4, "cm": 96.0 / 2.54,
}

var angleToDeg = map[string]float64{
	"deg": 1, "grad": 0.9, "rad": 180 / math.Pi, "turn": 360,
}

func family(unit string) map[string]float64 {
	if _, ok := lengthToPx[unit]; ok {
		return lengthToPx
	}
	if _, ok := angleToDeg[unit]; ok {
		return angleToDeg
	}
	return nil
}

// convertibleTo reports whether from can be converted to to, and the
// factor to multiply a from-value by to get it.
func convertibleTo(from, to string) (factor float64, ok bool) {
	if from == to {
		return 1, true
	}
	fam := family(from)
	if fam == nil {
		return 0, false
	}
	if _, ok := fam[to]; !ok {
		return 0, false
	}
	return fam[from] / fam[to], true
}

// convertValue converts n's value into the given target unit, in place of
// its current single unit. Callers only do this when n has exactly one
// numerator unit and no denominator units, which covers every case the
// evaluator's binary arithmetic needs (spec §4.G "stronger operand's
// units").
func convertValue(value float64, from, to string) (float64, bool) {
	factor, ok := convertibleTo(from, to)
	if !ok {
		return 0, false
	}
	return value * factor, true
}

func soleUnit(units []string) (string, bool) {
	if len(units) == 1 {
		return units[0], true
	}
	return "", len(units) == 0
}

// NumAdd implements spec §4.G Add/Sub: units must be convertible (or one
// side unitless), and the result carries the "stronger" (here: the left
// operand's, matching the original's left-preference) operand's units.
func NumAdd(a, b *cssast.Number, negate bool) (*cssast.Number, error) {
	return numAddSub(a, b, negate)
}

func numAddSub(a, b *cssast.Number, negate bool) (*cssast.Number, error) {
	bv := b.Value
	if negate {
		bv = -bv
	}
	if len(a.NumeratorUnits) == 0 && len(a.DenominatorUnits) == 0 {
		// Unitless left side broadcasts b's units (spec: "unitless operand
		// is treated as pure scalar", applied symmetrically for + and -).
		return &cssast.Number{Value: a.Value + bv, NumeratorUnits: b.NumeratorUnits, DenominatorUnits: b.DenominatorUnits}, nil
	}
	if len(b.NumeratorUnits) == 0 && len(b.DenominatorUnits) == 0 {
		return &cssast.Number{Value: a.Value + bv, NumeratorUnits: a.NumeratorUnits, DenominatorUnits: a.DenominatorUnits}, nil
	}
	aUnit, aOK := soleUnit(a.NumeratorUnits)
	bUnit, bOK := soleUnit(b.NumeratorUnits)
	if !aOK || !bOK || len(a.DenominatorUnits) != 0 || len(b.DenominatorUnits) != 0 {
		return nil, unitErr("incompatible units in addition")
	}
	if aUnit == "" && bUnit == "" {
		return &cssast.Number{Value: a.Value + bv}, nil
	}
	converted, ok := convertValue(bv, bUnit, aUnit)
	if !ok {
		return nil, unitErr("cannot convert \"" + bUnit + "\" to \"" + aUnit + "\"")
	}
	return &cssast.Number{Value: a.Value + converted, NumeratorUnits: a.NumeratorUnits}, nil
}

func unitErr(msg string) error { return &EvalError{Kind: "unit", Message: msg} }

// NumMul implements spec §4.G Mul: multiset union of numerators and
// denominators, then cancellation of convertible pairs.
func NumMul(a, b *cssast.Number) *cssast.Number {
	n := append(append([]string{}, a.NumeratorUnits...), b.NumeratorUnits...)
	d := append(append([]string{}, a.DenominatorUnits...), b.DenominatorUnits...)
	value := a.Value * b.Value
	n, d, value = cancel(n, d, value)
	return &cssast.Number{Value: value, NumeratorUnits: n, DenominatorUnits: d}
}

// NumDiv implements spec §4.G Div: numerator ∪ other's denominator;
// denominator ∪ other's numerator; then cancel.
func NumDiv(a, b *cssast.Number) (*cssast.Number, error) {
	if b.Value == 0 {
		return nil, unitErr("division by zero")
	}
	n := append(append([]string{}, a.NumeratorUnits...), b.DenominatorUnits...)
	d := append(append([]string{}, a.DenominatorUnits...), b.NumeratorUnits...)
	value := a.Value / b.Value
	n, d, value = cancel(n, d, value)
	return &cssast.Number{Value: value, NumeratorUnits: n, DenominatorUnits: d}, nil
}

// NumMod implements spec §4.G Mod: "units as Add; value is a - b*floor(a/b)".
func NumMod(a, b *cssast.Number) (*cssast.Number, error) {
	sum, err := numAddSub(a, b, false) // only used to validate/convert units
	if err != nil {
		return nil, err
	}
	bUnit, _ := soleUnit(b.NumeratorUnits)
	aUnit, _ := soleUnit(a.NumeratorUnits)
	bv := b.Value
	if aUnit != bUnit && aUnit != "" && bUnit != "" {
		converted, ok := convertValue(bv, bUnit, aUnit)
		if !ok {
			return nil, unitErr("cannot convert \"" + bUnit + "\" to \"" + aUnit + "\" for modulo")
		}
		bv = converted
	}
	if bv == 0 {
		return nil, unitErr("modulo by zero")
	}
	value := a.Value - bv*math.Floor(a.Value/bv)
	return &cssast.Number{Value: value, NumeratorUnits: sum.NumeratorUnits, DenominatorUnits: sum.DenominatorUnits}, nil
}

// cancel removes matching (or convertible) numerator/denominator unit
// pairs, folding the conversion factor into value, per spec §4.G's
// "cancel pairs of convertible units" rule for Mul/Div.
func cancel(n, d []string, value float64) ([]string, []string, float64) {
	for i := 0; i < len(n); i++ {
		for j := 0; j < len(d); j++ {
			if factor, ok := convertibleTo(n[i], d[j]); ok {
				value *= factor
				n = append(n[:i], n[i+1:]...)
				d = append(d[:j], d[j+1:]...)
				i--
				break
			}
		}
	}
	if len(n) == 0 {
		n = nil
	}
	if len(d) == 0 {
		d = nil
	}
	return n, d, value
}

// CompareNumbers implements spec §4.G's comparison rule: numbers compare
// after converting to a common unit; incommensurable units compare as
// "not equal" for Eq/Neq and as an ordering error for relational
// comparisons.
func CompareNumbers(a, b *cssast.Number) (cmp int, comparable bool) {
	aUnit, aOK := soleUnit(a.NumeratorUnits)
	bUnit, bOK := soleUnit(b.NumeratorUnits)
	if !aOK || !bOK || len(a.DenominatorUnits) != 0 || len(b.DenominatorUnits) != 0 {
		return 0, false
	}
	bv := b.Value
	if aUnit != bUnit && aUnit != "" && bUnit != "" {
		converted, ok := convertValue(bv, bUnit, aUnit)
		if !ok {
			return 0, false
		}
		bv = converted
	}
	switch {
	case a.Value < bv:
		return -1, true
	case a.Value > bv:
		return 1, true
	default:
		return 0, true
	}
}

// EvalError is the evaluator's internal error carrier before it is folded
// into a logger.Msg with a span by the caller (spec §4.G "Evaluator
// errors carry the AST span").
type EvalError struct {
	Kind    string
	Message string
}

func (e *EvalError) Error() string { return e.Message }
