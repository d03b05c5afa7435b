package front

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/optiklab/pinky-interpreter/compiler/set"
	"github.com/optiklab/pinky-interpreter/compiler/tp"
)

type (
	// Module is the output module under construction.
	// It owns the entry function, the insertion cursor and the variable table.
	Module struct {
		*ir.Module

		Main  *ir.Func
		Entry *ir.Block

		// Block is the insertion cursor.
		Block *ir.Block

		PrintI32 *ir.Func
		PrintF64 *ir.Func
		PrintI1  *ir.Func

		vars  map[string]*Slot
		order []string

		prologue int
		nextif   int
	}

	// Slot is a variable storage location. It is allocated once per name.
	Slot struct {
		Type tp.Type
		Ptr  *ir.InstAlloca
	}
)

const (
	EntryName = "main"

	ExitSuccess = 0
)

func NewModule(name string) *Module {
	m := &Module{
		Module: ir.NewModule(),
		vars:   make(map[string]*Slot),
	}

	m.SourceFilename = name

	m.Main = m.NewFunc(EntryName, types.I32)
	m.Entry = m.Main.NewBlock("entry")
	m.Block = m.Entry

	m.PrintI32 = m.NewFunc("print_i32", types.Void, ir.NewParam("x", types.I32))
	m.PrintF64 = m.NewFunc("print_f64", types.Void, ir.NewParam("x", types.Double))
	m.PrintI1 = m.NewFunc("print_i1", types.Void, ir.NewParam("x", types.I1))

	return m
}

// Get loads the current value of the variable.
func (m *Module) Get(name string, line int) (Value, error) {
	s, ok := m.vars[name]
	if !ok {
		return nil, newError(ErrUndeclaredIdentifier, line, "undeclared identifier %q", name)
	}

	if s.Ptr == nil {
		return nil, newError(ErrUninitializedIdentifier, line, "uninitialized identifier %q", name)
	}

	x := m.Block.NewLoad(s.Type.LL(), s.Ptr)

	return typed(s.Type, x), nil
}

// Set stores v into the variable, allocating its slot on first use.
// It panics if v's type differs from the slot type: callers check it first.
func (m *Module) Set(name string, v Value) {
	s, ok := m.vars[name]
	if ok && s.Type != v.Type() {
		panic(fmt.Sprintf("set %q: %v value into %v slot", name, v.Type(), s.Type))
	}

	if !ok {
		s = &Slot{
			Type: v.Type(),
			Ptr:  m.alloca(name, v.Type()),
		}

		m.vars[name] = s
		m.order = append(m.order, name)

		tlog.V("vars").Printw("define var", "name", name, "type", s.Type, "from", loc.Callers(1, 3))
	}

	m.Block.NewStore(v.LL(), s.Ptr)
}

// Lookup returns the slot bound to name.
func (m *Module) Lookup(name string) (*Slot, bool) {
	s, ok := m.vars[name]
	return s, ok
}

// Vars returns bound names in binding order.
func (m *Module) Vars() []string {
	return m.order
}

// alloca puts the slot into the entry block prologue so it dominates every use.
func (m *Module) alloca(name string, t tp.Type) *ir.InstAlloca {
	a := ir.NewAlloca(t.LL())
	a.SetName(name + ".addr")

	insts := append(m.Entry.Insts, nil)
	copy(insts[m.prologue+1:], insts[m.prologue:])
	insts[m.prologue] = a

	m.Entry.Insts = insts
	m.prologue++

	return a
}

// NewBlocks appends the then, else and exit blocks of one conditional.
func (m *Module) NewBlocks() (then, els, exit *ir.Block) {
	n := m.nextif
	m.nextif++

	then = m.Main.NewBlock(fmt.Sprintf("if.then.%d", n))
	els = m.Main.NewBlock(fmt.Sprintf("if.else.%d", n))
	exit = m.Main.NewBlock(fmt.Sprintf("if.exit.%d", n))

	return
}

// Position moves the cursor to b. The block left behind must be terminated.
func (m *Module) Position(b *ir.Block) {
	if m.Block.Term == nil {
		panic(fmt.Sprintf("leaving unterminated block %v", m.Block.Ident()))
	}

	tlog.V("branch").Printw("position", "from_block", m.Block.Ident(), "to_block", b.Ident(), "from", loc.Callers(1, 3))

	m.Block = b
}

func (m *Module) Br(to *ir.Block) {
	m.terminating()

	m.Block.NewBr(to)

	tlog.V("branch").Printw("branch to", "src", m.Block.Ident(), "dst", to.Ident(), "from", loc.Callers(1, 3))
}

func (m *Module) CondBr(cond Value, then, els *ir.Block) {
	m.terminating()

	m.Block.NewCondBr(cond.LL(), then, els)

	tlog.V("branch").Printw("branch cond", "src", m.Block.Ident(), "then", then.Ident(), "else", els.Ident(), "from", loc.Callers(1, 3))
}

// Finish terminates the current block with the success status.
func (m *Module) Finish() {
	m.terminating()

	m.Block.NewRet(constant.NewInt(types.I32, ExitSuccess))
}

// Verify checks that every block of the entry function ends in a terminator
// and is reachable from the entry block.
func (m *Module) Verify() error {
	idx := make(map[*ir.Block]int, len(m.Main.Blocks))

	for i, b := range m.Main.Blocks {
		if b.Term == nil {
			return errors.New("block %v: missing terminator", b.Ident())
		}

		idx[b] = i
	}

	var seen set.Bitmap

	seen.Set(idx[m.Entry])
	q := []*ir.Block{m.Entry}

	for len(q) != 0 {
		b := q[len(q)-1]
		q = q[:len(q)-1]

		for _, s := range succs(b.Term) {
			i, ok := idx[s]
			if !ok {
				return errors.New("block %v: branch to foreign block %v", b.Ident(), s.Ident())
			}

			if seen.IsSet(i) {
				continue
			}

			seen.Set(i)
			q = append(q, s)
		}
	}

	tlog.V("verify").Printw("reachable blocks", "blocks", seen, "total", len(m.Main.Blocks))

	if seen.Size() == len(m.Main.Blocks) {
		return nil
	}

	for i, b := range m.Main.Blocks {
		if !seen.IsSet(i) {
			return errors.New("block %v: unreachable", b.Ident())
		}
	}

	return nil
}

func succs(t ir.Terminator) []*ir.Block {
	var r []*ir.Block

	add := func(x any) {
		if b, ok := x.(*ir.Block); ok {
			r = append(r, b)
		}
	}

	switch t := t.(type) {
	case *ir.TermBr:
		add(t.Target)
	case *ir.TermCondBr:
		add(t.TargetTrue)
		add(t.TargetFalse)
	}

	return r
}

func (m *Module) terminating() {
	if m.Block.Term != nil {
		panic(fmt.Sprintf("block %v already terminated", m.Block.Ident()))
	}
}
