package interp

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optiklab/pinky-interpreter/compiler/front"
	"github.com/optiklab/pinky-interpreter/compiler/parse"
)

func run(t *testing.T, src string) string {
	t.Helper()

	ctx := context.Background()

	prog, err := parse.Parse(ctx, []byte(src))
	require.NoError(t, err)

	m, err := front.Generate(ctx, "test.pinky", prog)
	require.NoError(t, err)

	var out bytes.Buffer

	status, err := Run(ctx, m.Module, front.EntryName, &out)
	require.NoError(t, err)
	assert.EqualValues(t, front.ExitSuccess, status)

	return out.String()
}

func TestArithmeticMatchesDirectEvaluation(t *testing.T) {
	for _, tc := range []struct {
		src  string
		want float64
	}{
		{"1 + 2 * 3", 1 + 2*3},
		{"(1 + 2) * 3", (1 + 2) * 3},
		{"10 / 4", 10.0 / 4},
		{"1 / 3", 1.0 / 3},
		{"-2 - -3", -2 - -3},
		{"2.5 * 4 - 1", 2.5*4 - 1},
		{"7 % 3", 1},
		{"-7 % 3", -1},
		{"+5 - 10 / 2 * 3", 5 - 10.0/2*3},
		{"0.1 + 0.2", 0.1 + 0.2},
	} {
		got := run(t, "print "+tc.src)
		assert.Equal(t, fmt.Sprintf("%f\n", tc.want), got, "%s", tc.src)
	}
}

func TestBooleans(t *testing.T) {
	got := run(t, `
x := 3
print x > 2
print x < 2
print x >= 3 and x <= 3
print x == 3 ~= true
print ~(x ~= 3)
print false or x > 1
print true == false
`)

	assert.Equal(t, "true\nfalse\ntrue\nfalse\ntrue\ntrue\nfalse\n", got)
}

func TestIfElse(t *testing.T) {
	src := `
x := %v
if x > 3 then
  print 1
elif x > 1 then
  print 2
else
  print 3
end
print x
`

	assert.Equal(t, "1.000000\n5.000000\n", run(t, fmt.Sprintf(src, 5)))
	assert.Equal(t, "2.000000\n2.000000\n", run(t, fmt.Sprintf(src, 2)))
	assert.Equal(t, "3.000000\n0.000000\n", run(t, fmt.Sprintf(src, 0)))
}

func TestAssignInBranch(t *testing.T) {
	got := run(t, `
x := 1
if false then
  x := 2
else
  y := x + 10
end
if x == 1 then
  x := x + 1
end
print x
`)

	assert.Equal(t, "2.000000\n", got)
}

func TestRuntimeDivisionByZero(t *testing.T) {
	got := run(t, "z := 0\nprint 1 / z\nprint -1 / z\nprint z / z")

	assert.Equal(t, "inf\n-inf\nnan\n", got)
}

func TestNaNComparesFalse(t *testing.T) {
	got := run(t, "z := 0\nn := z / z\nprint n == n\nprint n ~= n\nprint n < 1")

	assert.Equal(t, "false\nfalse\nfalse\n", got)
}

func TestStepLimit(t *testing.T) {
	m := ir.NewModule()
	f := m.NewFunc("main", types.I32)
	b := f.NewBlock("loop")
	b.NewFAdd(constant.NewFloat(types.Double, 1), constant.NewFloat(types.Double, 2))
	b.NewBr(b)

	mach := New(&bytes.Buffer{})
	mach.Limit = 100

	_, err := mach.Run(context.Background(), m, "main")
	assert.ErrorIs(t, err, ErrStepLimit)
}

func TestErrors(t *testing.T) {
	ctx := context.Background()

	m := ir.NewModule()

	_, err := Run(ctx, m, "main", &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNoEntry)

	foo := m.NewFunc("foo", types.Void, ir.NewParam("x", types.Double))
	f := m.NewFunc("main", types.I32)
	b := f.NewBlock("entry")
	b.NewCall(foo, constant.NewFloat(types.Double, 1))
	b.NewRet(constant.NewInt(types.I32, 0))

	_, err = Run(ctx, m, "main", &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestExitStatus(t *testing.T) {
	m := ir.NewModule()
	p := m.NewFunc("print_i32", types.Void, ir.NewParam("x", types.I32))
	f := m.NewFunc("main", types.I32)
	b := f.NewBlock("entry")
	b.NewCall(p, constant.NewInt(types.I32, 42))
	b.NewRet(constant.NewInt(types.I32, 3))

	var out bytes.Buffer

	status, err := Run(context.Background(), m, "main", &out)
	require.NoError(t, err)
	assert.EqualValues(t, 3, status)
	assert.Equal(t, "42\n", out.String())
}
