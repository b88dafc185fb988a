package eval

import "github.com/riftss/riftss/internal/cssast"

// colorBinary implements spec §4.G's channel-wise color arithmetic:
// "Arithmetic on two colors operates channel-wise"; channels are
// reclamped by cssast.NewColor on construction.
func colorBinary(op cssast.BinaryOp, a, b *cssast.Color) *cssast.Color {
	f := arithFunc(op)
	return cssast.NewColor(cssast.Span{}, f(a.R, b.R), f(a.G, b.G), f(a.B, b.B), f(a.A, b.A), "")
}

// colorNumberBinary implements "between color and number, the number
// broadcasts": the scalar is applied to every RGB channel, alpha is left
// untouched (broadcasting alpha too would make every arithmetic op fade
// colors to transparent, which libsass-family implementations avoid).
func colorNumberBinary(op cssast.BinaryOp, c *cssast.Color, n *cssast.Number) *cssast.Color {
	f := arithFunc(op)
	return cssast.NewColor(cssast.Span{}, f(c.R, n.Value), f(c.G, n.Value), f(c.B, n.Value), c.A, "")
}

func arithFunc(op cssast.BinaryOp) func(a, b float64) float64 {
	switch op {
	case cssast.BinAdd:
		return func(a, b float64) float64 { return a + b }
	case cssast.BinSub:
		return func(a, b float64) float64 { return a - b }
	case cssast.BinMul:
		return func(a, b float64) float64 { return a * b }
	case cssast.BinDiv:
		return func(a, b float64) float64 {
			if b == 0 {
				return 0
			}
			return a / b
		}
	case cssast.BinMod:
		return func(a, b float64) float64 {
			if b == 0 {
				return 0
			}
			r := a - b*float64(int(a/b))
			return r
		}
	}
	return func(a, b float64) float64 { return a }
}
