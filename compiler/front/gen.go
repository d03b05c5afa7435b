package front

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/optiklab/pinky-interpreter/compiler/ast"
)

type (
	gen struct {
		*Module
	}
)

// Generate lowers the program into a fresh module whose entry function
// returns ExitSuccess. The first error aborts the whole run.
func Generate(ctx context.Context, name string, prog *ast.Stmts) (_ *Module, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "front: generate", "name", name)
	defer tr.Finish("err", &err)

	g := &gen{
		Module: NewModule(name),
	}

	err = g.stmts(ctx, prog)
	if err != nil {
		return nil, err
	}

	g.Finish()

	err = g.Verify()
	if err != nil {
		return nil, errors.Wrap(err, "verify")
	}

	tr.Printw("generated", "blocks", len(g.Main.Blocks), "vars", g.Vars())

	return g.Module, nil
}
