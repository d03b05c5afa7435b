package interp

import (
	"context"
	"io"
	"math"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/value"
	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// Machine executes the entry function of a module.
	// Number values are float64, booleans are bool and i32 values are int64.
	Machine struct {
		Stdout io.Writer

		// Limit bounds the number of executed instructions. Zero means DefaultLimit.
		Limit int

		vals map[value.Value]any
		mem  map[*ir.InstAlloca]any

		steps int
		buf   []byte
	}
)

const DefaultLimit = 1 << 20

var (
	ErrNoEntry     = errors.New("no entry function")
	ErrStepLimit   = errors.New("step limit exceeded")
	ErrUninitLoad  = errors.New("load from uninitialized slot")
	ErrUnsupported = errors.New("unsupported instruction")
)

func New(w io.Writer) *Machine {
	return &Machine{Stdout: w}
}

// Run executes the function named entry and returns its exit status.
func Run(ctx context.Context, mod *ir.Module, entry string, w io.Writer) (int32, error) {
	return New(w).Run(ctx, mod, entry)
}

func (m *Machine) Run(ctx context.Context, mod *ir.Module, entry string) (status int32, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "interp: run", "entry", entry)
	defer tr.Finish("status", &status, "steps", &m.steps, "err", &err)

	var f *ir.Func

	for _, x := range mod.Funcs {
		if x.Name() == entry {
			f = x
			break
		}
	}

	if f == nil || len(f.Blocks) == 0 {
		return 0, errors.Wrap(ErrNoEntry, "%v", entry)
	}

	m.vals = make(map[value.Value]any)
	m.mem = make(map[*ir.InstAlloca]any)
	m.steps = 0

	limit := m.Limit
	if limit == 0 {
		limit = DefaultLimit
	}

	b := f.Blocks[0]

	for {
		if tr.If("exec") {
			tr.Printw("block", "block", b.Ident())
		}

		for _, inst := range b.Insts {
			m.steps++
			if m.steps > limit {
				return 0, ErrStepLimit
			}

			err = m.inst(ctx, inst)
			if err != nil {
				return 0, errors.Wrap(err, "block %v", b.Ident())
			}
		}

		next, ret, err := m.term(ctx, b.Term)
		if err != nil {
			return 0, errors.Wrap(err, "block %v", b.Ident())
		}

		if next == nil {
			return int32(ret), nil
		}

		b = next
	}
}

func (m *Machine) inst(ctx context.Context, inst ir.Instruction) (err error) {
	var res any

	switch x := inst.(type) {
	case *ir.InstAlloca:
		m.mem[x] = nil

		return nil
	case *ir.InstStore:
		dst, ok := x.Dst.(*ir.InstAlloca)
		if !ok {
			return errors.Wrap(ErrUnsupported, "store to %v", x.Dst.Ident())
		}

		v, err := m.eval(x.Src)
		if err != nil {
			return err
		}

		m.mem[dst] = v

		return nil
	case *ir.InstLoad:
		src, ok := x.Src.(*ir.InstAlloca)
		if !ok {
			return errors.Wrap(ErrUnsupported, "load from %v", x.Src.Ident())
		}

		res = m.mem[src]
		if res == nil {
			return errors.Wrap(ErrUninitLoad, "%v", src.Ident())
		}
	case *ir.InstFAdd:
		res, err = m.float2(x.X, x.Y, func(a, b float64) any { return a + b })
	case *ir.InstFSub:
		res, err = m.float2(x.X, x.Y, func(a, b float64) any { return a - b })
	case *ir.InstFMul:
		res, err = m.float2(x.X, x.Y, func(a, b float64) any { return a * b })
	case *ir.InstFDiv:
		res, err = m.float2(x.X, x.Y, func(a, b float64) any { return a / b })
	case *ir.InstFRem:
		res, err = m.float2(x.X, x.Y, func(a, b float64) any { return math.Mod(a, b) })
	case *ir.InstFNeg:
		res, err = m.float2(x.X, x.X, func(a, _ float64) any { return -a })
	case *ir.InstFCmp:
		res, err = m.float2(x.X, x.Y, func(a, b float64) any { return fcmp(x.Pred, a, b) })
	case *ir.InstICmp:
		res, err = m.icmp(x.Pred, x.X, x.Y)
	case *ir.InstAnd:
		res, err = m.bool2(x.X, x.Y, func(a, b bool) bool { return a && b })
	case *ir.InstOr:
		res, err = m.bool2(x.X, x.Y, func(a, b bool) bool { return a || b })
	case *ir.InstXor:
		res, err = m.bool2(x.X, x.Y, func(a, b bool) bool { return a != b })
	case *ir.InstCall:
		return m.call(ctx, x)
	default:
		return errors.Wrap(ErrUnsupported, "%T", inst)
	}

	if err != nil {
		return err
	}

	v := inst.(value.Value)

	if tlog.If("exec") {
		tlog.Printw("exec", "inst", v.Ident(), "res", res)
	}

	m.vals[v] = res

	return nil
}

func (m *Machine) term(ctx context.Context, t ir.Terminator) (next *ir.Block, ret int64, err error) {
	switch t := t.(type) {
	case *ir.TermBr:
		return target(t.Target)
	case *ir.TermCondBr:
		c, err := m.eval(t.Cond)
		if err != nil {
			return nil, 0, err
		}

		cond, ok := c.(bool)
		if !ok {
			return nil, 0, errors.New("condition is %T", c)
		}

		if cond {
			return target(t.TargetTrue)
		}

		return target(t.TargetFalse)
	case *ir.TermRet:
		if t.X == nil {
			return nil, 0, nil
		}

		v, err := m.eval(t.X)
		if err != nil {
			return nil, 0, err
		}

		r, ok := v.(int64)
		if !ok {
			return nil, 0, errors.New("return value is %T", v)
		}

		return nil, r, nil
	case nil:
		return nil, 0, errors.New("missing terminator")
	default:
		return nil, 0, errors.Wrap(ErrUnsupported, "%T", t)
	}
}

func target(x any) (*ir.Block, int64, error) {
	b, ok := x.(*ir.Block)
	if !ok {
		return nil, 0, errors.New("branch target is %T", x)
	}

	return b, 0, nil
}

func (m *Machine) call(ctx context.Context, c *ir.InstCall) (err error) {
	f, ok := any(c.Callee).(*ir.Func)
	if !ok {
		return errors.Wrap(ErrUnsupported, "indirect call")
	}

	args := make([]any, len(c.Args))

	for i, a := range c.Args {
		args[i], err = m.eval(a)
		if err != nil {
			return errors.Wrap(err, "call %v: arg %d", f.Name(), i)
		}
	}

	if tlog.If("exec") {
		tlog.Printw("call", "func", f.Name(), "args", args)
	}

	if len(args) != 1 {
		return errors.New("call %v: want 1 argument, got %d", f.Name(), len(args))
	}

	b := m.buf[:0]

	switch x := args[0].(type) {
	case float64:
		if f.Name() != "print_f64" {
			break
		}

		b = appendFloat(b, x)
	case bool:
		if f.Name() != "print_i1" {
			break
		}

		b = hfmt.Appendf(b, "%v\n", x)
	case int64:
		if f.Name() != "print_i32" {
			break
		}

		b = hfmt.Appendf(b, "%d\n", x)
	}

	if len(b) == 0 {
		return errors.Wrap(ErrUnsupported, "call %v(%T)", f.Name(), args[0])
	}

	m.buf = b

	_, err = m.Stdout.Write(b)
	if err != nil {
		return errors.Wrap(err, "write")
	}

	return nil
}

// appendFloat formats like printf("%f\n") of the C runtime.
func appendFloat(b []byte, x float64) []byte {
	switch {
	case math.IsNaN(x):
		return append(b, "nan\n"...)
	case math.IsInf(x, 1):
		return append(b, "inf\n"...)
	case math.IsInf(x, -1):
		return append(b, "-inf\n"...)
	}

	return hfmt.Appendf(b, "%f\n", x)
}

func (m *Machine) eval(v value.Value) (any, error) {
	switch c := v.(type) {
	case *constant.Float:
		f, _ := c.X.Float64()
		return f, nil
	case *constant.Int:
		if c.Typ.BitSize == 1 {
			return c.X.Sign() != 0, nil
		}

		return c.X.Int64(), nil
	}

	x, ok := m.vals[v]
	if !ok {
		return nil, errors.New("undefined value %v", v.Ident())
	}

	return x, nil
}

func (m *Machine) float2(xv, yv value.Value, f func(a, b float64) any) (any, error) {
	x, err := m.eval(xv)
	if err != nil {
		return nil, err
	}

	y, err := m.eval(yv)
	if err != nil {
		return nil, err
	}

	a, ok1 := x.(float64)
	b, ok2 := y.(float64)

	if !ok1 || !ok2 {
		return nil, errors.New("float operands: %T and %T", x, y)
	}

	return f(a, b), nil
}

func (m *Machine) bool2(xv, yv value.Value, f func(a, b bool) bool) (any, error) {
	x, err := m.eval(xv)
	if err != nil {
		return nil, err
	}

	y, err := m.eval(yv)
	if err != nil {
		return nil, err
	}

	a, ok1 := x.(bool)
	b, ok2 := y.(bool)

	if !ok1 || !ok2 {
		return nil, errors.New("bool operands: %T and %T", x, y)
	}

	return f(a, b), nil
}

func (m *Machine) icmp(pred enum.IPred, xv, yv value.Value) (any, error) {
	x, err := m.eval(xv)
	if err != nil {
		return nil, err
	}

	y, err := m.eval(yv)
	if err != nil {
		return nil, err
	}

	switch pred {
	case enum.IPredEQ:
		return x == y, nil
	case enum.IPredNE:
		return x != y, nil
	}

	return nil, errors.Wrap(ErrUnsupported, "icmp %v", pred)
}

// fcmp implements ordered predicates: any NaN operand compares false.
func fcmp(pred enum.FPred, a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}

	switch pred {
	case enum.FPredOEQ:
		return a == b
	case enum.FPredONE:
		return a != b
	case enum.FPredOGT:
		return a > b
	case enum.FPredOGE:
		return a >= b
	case enum.FPredOLT:
		return a < b
	case enum.FPredOLE:
		return a <= b
	}

	panic(pred)
}
