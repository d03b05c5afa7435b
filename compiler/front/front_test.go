package front

import (
	"context"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optiklab/pinky-interpreter/compiler/ast"
	"github.com/optiklab/pinky-interpreter/compiler/parse"
	"github.com/optiklab/pinky-interpreter/compiler/tp"
)

func generate(t *testing.T, src string) (*Module, error) {
	t.Helper()

	ctx := context.Background()

	prog, err := parse.Parse(ctx, []byte(src))
	require.NoError(t, err)

	return Generate(ctx, "test.pinky", prog)
}

func mustGenerate(t *testing.T, src string) *Module {
	t.Helper()

	m, err := generate(t, src)
	require.NoError(t, err)

	return m
}

func collect[T any](m *Module) (res []T) {
	for _, b := range m.Main.Blocks {
		for _, inst := range b.Insts {
			if x, ok := inst.(T); ok {
				res = append(res, x)
			}
		}
	}

	return res
}

func callsTo(m *Module, f *ir.Func) (res []*ir.InstCall) {
	for _, c := range collect[*ir.InstCall](m) {
		if c.Callee == f {
			res = append(res, c)
		}
	}

	return res
}

func TestModuleShape(t *testing.T) {
	m := mustGenerate(t, "")

	text := m.String()

	assert.Contains(t, text, "define i32 @main()")
	assert.Contains(t, text, "declare void @print_i32(i32")
	assert.Contains(t, text, "declare void @print_f64(double")
	assert.Contains(t, text, "declare void @print_i1(i1")
	assert.Contains(t, text, "ret i32 0")

	require.Len(t, m.Main.Blocks, 1)

	ret, ok := m.Main.Blocks[0].Term.(*ir.TermRet)
	require.True(t, ok, "entry terminator: %T", m.Main.Blocks[0].Term)

	c, ok := ret.X.(*constant.Int)
	require.True(t, ok)
	assert.EqualValues(t, ExitSuccess, c.X.Int64())
}

func TestPrintNumber(t *testing.T) {
	m := mustGenerate(t, "print 5")

	calls := callsTo(m, m.PrintF64)
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Args, 1)

	c, ok := calls[0].Args[0].(*constant.Float)
	require.True(t, ok, "arg: %T", calls[0].Args[0])

	f, _ := c.X.Float64()
	assert.Equal(t, 5.0, f)

	assert.Empty(t, callsTo(m, m.PrintI1))
	assert.Empty(t, callsTo(m, m.PrintI32))
}

func TestPrintBool(t *testing.T) {
	m := mustGenerate(t, "print true")

	calls := callsTo(m, m.PrintI1)
	require.Len(t, calls, 1)

	c, ok := calls[0].Args[0].(*constant.Int)
	require.True(t, ok, "arg: %T", calls[0].Args[0])
	assert.EqualValues(t, 1, c.X.Int64())

	assert.Empty(t, callsTo(m, m.PrintF64))
}

func TestPrintDispatchByType(t *testing.T) {
	m := mustGenerate(t, `
x := 1 + 2
b := x > 2
print x
println b
print ~b
`)

	assert.Len(t, callsTo(m, m.PrintF64), 1)
	assert.Len(t, callsTo(m, m.PrintI1), 2)
}

func TestSingleAllocationPerName(t *testing.T) {
	m := mustGenerate(t, `
x := 1
x := x + 1
if x > 1 then
  x := 3
  y := true
else
  y := false
end
x := 4
local x := 5
`)

	allocs := collect[*ir.InstAlloca](m)
	require.Len(t, allocs, 2)

	// allocations form the entry prologue
	for i, a := range allocs {
		assert.Same(t, a, m.Entry.Insts[i])
	}

	assert.Equal(t, []string{"x", "y"}, m.Vars())
	assert.Len(t, collect[*ir.InstStore](m), 7)
}

func TestIfBlocks(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
	}{
		{"no_else", "if true then print 1 end"},
		{"else", "if 1 < 2 then print 1 else print 2 end"},
		{"empty", "if false then end"},
	} {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			m := mustGenerate(t, tc.src)

			require.Len(t, m.Main.Blocks, 4)

			entry, then, els, exit := m.Main.Blocks[0], m.Main.Blocks[1], m.Main.Blocks[2], m.Main.Blocks[3]

			cbr, ok := entry.Term.(*ir.TermCondBr)
			require.True(t, ok, "entry terminator: %T", entry.Term)
			assert.Equal(t, then.Ident(), cbr.TargetTrue.Ident())
			assert.Equal(t, els.Ident(), cbr.TargetFalse.Ident())

			for _, b := range []*ir.Block{then, els} {
				br, ok := b.Term.(*ir.TermBr)
				require.True(t, ok, "%v terminator: %T", b.Ident(), b.Term)
				assert.Equal(t, exit.Ident(), br.Target.Ident())
			}

			_, ok = exit.Term.(*ir.TermRet)
			assert.True(t, ok, "exit terminator: %T", exit.Term)
		})
	}
}

func TestIfEmptyElse(t *testing.T) {
	m := mustGenerate(t, "if true then print 1 end")

	els := m.Main.Blocks[2]

	assert.Empty(t, els.Insts)
	assert.NotNil(t, els.Term)
}

func TestNestedIf(t *testing.T) {
	m := mustGenerate(t, `
x := 3
if x > 1 then
  if x > 2 then
    print x
  elif x > 1 then
    print 2
  end
else
  print 0
end
print x
`)

	// entry + 3 per if
	assert.Len(t, m.Main.Blocks, 1+3*3)
	require.NoError(t, m.Verify())

	// statements after the outer if land in its exit block
	last := m.Main.Blocks[3]
	assert.Equal(t, "%if.exit.0", last.Ident())
	assert.Same(t, last, m.Block)
	assert.Len(t, callsTo(m, m.PrintF64), 4)
}

func TestLogicalNoShortCircuit(t *testing.T) {
	m := mustGenerate(t, `
x := 1
a := false and x > 0
b := true or x < 0
`)

	assert.Len(t, collect[*ir.InstFCmp](m), 2)
	assert.Len(t, collect[*ir.InstAnd](m), 1)
	assert.Len(t, collect[*ir.InstOr](m), 1)

	// no extra blocks: both operands are evaluated in place
	assert.Len(t, m.Main.Blocks, 1)
}

func TestArithmeticInstructions(t *testing.T) {
	m := mustGenerate(t, "print (1 + 2) * 3 - 4 / 5 % 6\nprint -1\nprint +2")

	assert.Len(t, collect[*ir.InstFAdd](m), 1)
	assert.Len(t, collect[*ir.InstFSub](m), 1)
	assert.Len(t, collect[*ir.InstFMul](m), 1)
	assert.Len(t, collect[*ir.InstFDiv](m), 1)
	assert.Len(t, collect[*ir.InstFRem](m), 1)
	assert.Len(t, collect[*ir.InstFNeg](m), 1)
}

func TestEqualityByType(t *testing.T) {
	m := mustGenerate(t, "print 1 == 2\nprint true ~= false")

	assert.Len(t, collect[*ir.InstFCmp](m), 1)
	assert.Len(t, collect[*ir.InstICmp](m), 1)
}

func TestErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		kind error
		line int
	}{
		{"func_decl", "func f()\n  print 1\nend", ErrNotImplemented, 1},
		{"func_call", "x := 1\nf(x)", ErrNotImplemented, 2},
		{"call_expr", "print f(1)", ErrNotImplemented, 1},
		{"while", "while true do print 1 end", ErrNotImplemented, 1},
		{"for", "for i := 1, 10 do print i end", ErrNotImplemented, 1},
		{"ret", "ret 1", ErrNotImplemented, 1},
		{"pow", "print 2 ^ 3", ErrNotImplemented, 1},
		{"div_zero", "x := 1\n\nprint x / 0", ErrDivisionByZero, 3},
		{"div_zero_float", "print 1 / 0.0", ErrDivisionByZero, 1},
		{"div_zero_grouping", "print 1 / (0)", ErrDivisionByZero, 1},
		{"undeclared", "print y", ErrUndeclaredIdentifier, 1},
		{"string", "print 'hello'", ErrStringsUnsupported, 1},
		{"condition", "if 1 then print 1 end", ErrConditionNotBoolean, 1},
		{"mixed_add", "print 1 + true", ErrUnsupportedOperator, 1},
		{"mixed_eq", "print 1 == true", ErrUnsupportedOperator, 1},
		{"bool_lt", "print true < false", ErrUnsupportedOperator, 1},
		{"and_numbers", "print 1 and 2", ErrUnsupportedOperator, 1},
		{"neg_bool", "print -true", ErrUnsupportedOperator, 1},
		{"not_number", "print ~1", ErrUnsupportedOperator, 1},
		{"reassign_type", "x := 1\nx := true", ErrTypeMismatch, 2},
		{"nested", "if true then\n  print z\nend", ErrUndeclaredIdentifier, 2},
	} {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			m, err := generate(t, tc.src)
			require.Error(t, err)
			assert.Nil(t, m)

			assert.ErrorIs(t, err, tc.kind)

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tc.line, e.Line)
		})
	}
}

func TestOperatorErrorIsTypeMismatch(t *testing.T) {
	_, err := generate(t, "print 1 + true")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrUnsupportedOperator)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Contains(t, err.Error(), `"+"`)
	assert.Contains(t, err.Error(), "Number and Bool")
	assert.NotErrorIs(t, err, ErrDivisionByZero)
}

func TestFirstErrorAborts(t *testing.T) {
	_, err := generate(t, "print a\nprint 1 / 0")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrUndeclaredIdentifier)
	assert.NotErrorIs(t, err, ErrDivisionByZero)
}

func TestUninitializedSlot(t *testing.T) {
	m := NewModule("test")
	m.vars["x"] = &Slot{Type: tp.Number}

	_, err := m.Get("x", 7)
	require.ErrorIs(t, err, ErrUninitializedIdentifier)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 7, e.Line)
}

func TestSetReusesSlot(t *testing.T) {
	m := NewModule("test")

	m.Set("x", Number{X: constant.NewFloat(types.Double, 1)})
	s1, ok := m.Lookup("x")
	require.True(t, ok)

	m.Set("x", Number{X: constant.NewFloat(types.Double, 2)})
	s2, _ := m.Lookup("x")

	assert.Same(t, s1, s2)
	assert.Equal(t, tp.Number, s2.Type)
	assert.Len(t, collect[*ir.InstAlloca](m), 1)
	assert.Len(t, collect[*ir.InstStore](m), 2)

	assert.Panics(t, func() { m.Set("x", Bool{X: constant.NewBool(true)}) })
	assert.Len(t, collect[*ir.InstStore](m), 2)
}

func TestCursorDiscipline(t *testing.T) {
	m := NewModule("test")

	then, _, _ := m.NewBlocks()

	assert.Panics(t, func() { m.Position(then) })

	m.Finish()
	assert.Panics(t, func() { m.Finish() })

	m.Position(then)
	assert.Error(t, m.Verify())

	m.Finish()
}

func TestVerifyUnreachable(t *testing.T) {
	m := NewModule("test")

	then, els, exit := m.NewBlocks()

	m.Finish()

	for _, b := range []*ir.Block{then, els} {
		m.Position(b)
		m.Br(exit)
	}

	m.Position(exit)
	m.Finish()

	err := m.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "if.then.0")
	assert.Contains(t, err.Error(), "unreachable")
}

func TestNotAnExpression(t *testing.T) {
	g := &gen{Module: NewModule("test")}

	_, err := g.expr(context.Background(), &ast.Stmts{Base: ast.Base{Line: 4}})
	assert.ErrorIs(t, err, ErrNotImplemented)
}
