package front

import (
	"context"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/optiklab/pinky-interpreter/compiler/ast"
)

// expr lowers e at the cursor. It never moves the cursor.
func (g *gen) expr(ctx context.Context, e ast.Node) (v Value, err error) {
	if tlog.If("lower") {
		defer func() {
			tlog.Printw("lower expr", "line", e.At(), "typ", tlog.NextAsType, e, "val", v, "err", err)
		}()
	}

	switch e := e.(type) {
	case *ast.Integer:
		return Number{X: constant.NewFloat(types.Double, float64(e.Value))}, nil
	case *ast.Float:
		return Number{X: constant.NewFloat(types.Double, e.Value)}, nil
	case *ast.Bool:
		return Bool{X: constant.NewBool(e.Value)}, nil
	case *ast.String:
		return nil, newError(ErrStringsUnsupported, e.Line, "strings are not supported")
	case *ast.Grouping:
		return g.expr(ctx, e.X)
	case *ast.Identifier:
		return g.Get(e.Name, e.Line)
	case *ast.BinOp:
		return g.binOp(ctx, e.Op, e.Left, e.Right)
	case *ast.LogicalOp:
		return g.binOp(ctx, e.Op, e.Left, e.Right)
	case *ast.UnOp:
		return g.unOp(ctx, e)
	case *ast.FuncCall:
		return nil, newError(ErrNotImplemented, e.Line, "function call %q is not implemented", e.Name)
	default:
		return nil, newError(ErrNotImplemented, e.At(), "%T is not an expression", e)
	}
}

func (g *gen) binOp(ctx context.Context, op ast.Token, le, re ast.Node) (Value, error) {
	if op.Op == ast.Pow {
		return nil, newError(ErrNotImplemented, op.Line, "operator %q is not implemented", op.Op)
	}

	l, err := g.expr(ctx, le)
	if err != nil {
		return nil, errors.Wrap(err, "%v left", op.Op)
	}

	r, err := g.expr(ctx, re)
	if err != nil {
		return nil, errors.Wrap(err, "%v right", op.Op)
	}

	if op.Op == ast.Div && isZero(r.LL()) {
		return nil, newError(ErrDivisionByZero, op.Line, "division by zero")
	}

	rule, ok := binOps[binKey{Op: op.Op, Left: l.Type(), Right: r.Type()}]
	if !ok {
		err := newError(ErrUnsupportedOperator, op.Line, "unsupported operator %q between %v and %v", op.Op, l.Type(), r.Type())
		err.also = ErrTypeMismatch

		return nil, err
	}

	x := rule.Emit(g.Block, l.LL(), r.LL())

	return typed(rule.Res, x), nil
}

func (g *gen) unOp(ctx context.Context, e *ast.UnOp) (Value, error) {
	x, err := g.expr(ctx, e.X)
	if err != nil {
		return nil, errors.Wrap(err, "unary %v", e.Op.Op)
	}

	rule, ok := unOps[unKey{Op: e.Op.Op, X: x.Type()}]
	if !ok {
		err := newError(ErrUnsupportedOperator, e.Op.Line, "unsupported operator %q with %v", e.Op.Op, x.Type())
		err.also = ErrTypeMismatch

		return nil, err
	}

	y := rule.Emit(g.Block, x.LL())

	return typed(rule.Res, y), nil
}

// isZero reports a floating-point constant zero divisor.
// A divisor computed at run time is never caught here.
func isZero(x value.Value) bool {
	c, ok := x.(*constant.Float)
	if !ok || c.X == nil {
		return false
	}

	return c.X.Sign() == 0
}
