package front

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/value"

	"github.com/optiklab/pinky-interpreter/compiler/ast"
	"github.com/optiklab/pinky-interpreter/compiler/tp"
)

type (
	binKey struct {
		Op    ast.Op
		Left  tp.Type
		Right tp.Type
	}

	binRule struct {
		Res  tp.Type
		Emit func(b *ir.Block, l, r value.Value) value.Value
	}

	unKey struct {
		Op ast.Op
		X  tp.Type
	}

	unRule struct {
		Res  tp.Type
		Emit func(b *ir.Block, x value.Value) value.Value
	}
)

// binOps is the only place where operator and operand types meet.
// A missing key is an unsupported combination.
var binOps = map[binKey]binRule{
	{ast.Add, tp.Number, tp.Number}: {tp.Number, func(b *ir.Block, l, r value.Value) value.Value { return b.NewFAdd(l, r) }},
	{ast.Sub, tp.Number, tp.Number}: {tp.Number, func(b *ir.Block, l, r value.Value) value.Value { return b.NewFSub(l, r) }},
	{ast.Mul, tp.Number, tp.Number}: {tp.Number, func(b *ir.Block, l, r value.Value) value.Value { return b.NewFMul(l, r) }},
	{ast.Div, tp.Number, tp.Number}: {tp.Number, func(b *ir.Block, l, r value.Value) value.Value { return b.NewFDiv(l, r) }},
	{ast.Mod, tp.Number, tp.Number}: {tp.Number, func(b *ir.Block, l, r value.Value) value.Value { return b.NewFRem(l, r) }},

	{ast.Gt, tp.Number, tp.Number}: {tp.Bool, fcmp(enum.FPredOGT)},
	{ast.Ge, tp.Number, tp.Number}: {tp.Bool, fcmp(enum.FPredOGE)},
	{ast.Lt, tp.Number, tp.Number}: {tp.Bool, fcmp(enum.FPredOLT)},
	{ast.Le, tp.Number, tp.Number}: {tp.Bool, fcmp(enum.FPredOLE)},
	{ast.Eq, tp.Number, tp.Number}: {tp.Bool, fcmp(enum.FPredOEQ)},
	{ast.Ne, tp.Number, tp.Number}: {tp.Bool, fcmp(enum.FPredONE)},

	{ast.Eq, tp.Bool, tp.Bool}: {tp.Bool, icmp(enum.IPredEQ)},
	{ast.Ne, tp.Bool, tp.Bool}: {tp.Bool, icmp(enum.IPredNE)},

	// both operands are always evaluated
	{ast.And, tp.Bool, tp.Bool}: {tp.Bool, func(b *ir.Block, l, r value.Value) value.Value { return b.NewAnd(l, r) }},
	{ast.Or, tp.Bool, tp.Bool}:  {tp.Bool, func(b *ir.Block, l, r value.Value) value.Value { return b.NewOr(l, r) }},
}

var unOps = map[unKey]unRule{
	{ast.Sub, tp.Number}: {tp.Number, func(b *ir.Block, x value.Value) value.Value { return b.NewFNeg(x) }},
	{ast.Add, tp.Number}: {tp.Number, func(b *ir.Block, x value.Value) value.Value { return x }},
	{ast.Not, tp.Bool}:   {tp.Bool, func(b *ir.Block, x value.Value) value.Value { return b.NewXor(x, constant.NewBool(true)) }},
}

func fcmp(pred enum.FPred) func(b *ir.Block, l, r value.Value) value.Value {
	return func(b *ir.Block, l, r value.Value) value.Value {
		return b.NewFCmp(pred, l, r)
	}
}

func icmp(pred enum.IPred) func(b *ir.Block, l, r value.Value) value.Value {
	return func(b *ir.Block, l, r value.Value) value.Value {
		return b.NewICmp(pred, l, r)
	}
}
