package front

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/optiklab/pinky-interpreter/compiler/ast"
	"github.com/optiklab/pinky-interpreter/compiler/tp"
)

func (g *gen) stmts(ctx context.Context, x *ast.Stmts) (err error) {
	for _, st := range x.List {
		err = g.stmt(ctx, st)
		if err != nil {
			return err
		}
	}

	return nil
}

func (g *gen) stmt(ctx context.Context, x ast.Node) (err error) {
	switch x := x.(type) {
	case *ast.Stmts:
		return g.stmts(ctx, x)
	case *ast.Assignment:
		return g.assign(ctx, x.Left, x.Right)
	case *ast.LocalAssignment:
		// no scopes: locals share the module-wide table
		return g.assign(ctx, x.Left, x.Right)
	case *ast.PrintStmt:
		return g.print(ctx, x)
	case *ast.IfStmt:
		err = g.ifStmt(ctx, x)
		if err != nil {
			return errors.Wrap(err, "if")
		}

		return nil
	case *ast.WhileStmt:
		return newError(ErrNotImplemented, x.Line, "while loops are not implemented")
	case *ast.ForStmt:
		return newError(ErrNotImplemented, x.Line, "for loops are not implemented")
	case *ast.FuncDecl:
		return newError(ErrNotImplemented, x.Line, "function declaration %q is not implemented", x.Name)
	case *ast.FuncCallStmt:
		return newError(ErrNotImplemented, x.Line, "function call %q is not implemented", x.Call.Name)
	case *ast.RetStmt:
		return newError(ErrNotImplemented, x.Line, "return statements are not implemented")
	default:
		_, err = g.expr(ctx, x)
		return err
	}
}

func (g *gen) assign(ctx context.Context, id *ast.Identifier, e ast.Node) error {
	v, err := g.expr(ctx, e)
	if err != nil {
		return errors.Wrap(err, "assignment to %v", id.Name)
	}

	if s, ok := g.Lookup(id.Name); ok && s.Type != v.Type() {
		return newError(ErrTypeMismatch, id.Line, "cannot assign %v to %q of type %v", v.Type(), id.Name, s.Type)
	}

	g.Set(id.Name, v)

	return nil
}

func (g *gen) print(ctx context.Context, x *ast.PrintStmt) error {
	v, err := g.expr(ctx, x.X)
	if err != nil {
		return errors.Wrap(err, "print")
	}

	switch v.Type() {
	case tp.Number:
		g.Block.NewCall(g.PrintF64, v.LL())
	case tp.Bool:
		g.Block.NewCall(g.PrintI1, v.LL())
	default:
		return newError(ErrNotImplemented, x.Line, "print of %v is not implemented", v.Type())
	}

	return nil
}

// ifStmt always allocates three blocks. Both arms end in a branch to exit,
// and the cursor is left at exit.
func (g *gen) ifStmt(ctx context.Context, x *ast.IfStmt) error {
	tr := tlog.SpanFromContext(ctx)

	test, err := g.expr(ctx, x.Test)
	if err != nil {
		return errors.Wrap(err, "test")
	}

	if test.Type() != tp.Bool {
		return newError(ErrConditionNotBoolean, x.Line, "condition test is not a boolean expression")
	}

	then, els, exit := g.NewBlocks()

	g.CondBr(test, then, els)

	g.Position(then)

	err = g.stmts(ctx, x.Then)
	if err != nil {
		return errors.Wrap(err, "then")
	}

	g.Br(exit)

	g.Position(els)

	if x.Else != nil {
		err = g.stmts(ctx, x.Else)
		if err != nil {
			return errors.Wrap(err, "else")
		}
	}

	g.Br(exit)

	g.Position(exit)

	tr.Printw("if", "line", x.Line, "then", then.Ident(), "else", els.Ident(), "exit", exit.Ident())

	return nil
}
