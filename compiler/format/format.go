package format

import (
	"bytes"
	"context"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/optiklab/pinky-interpreter/compiler/ast"
)

// Format appends the program text of x to b.
// Binary and logical operations are fully parenthesized.
func Format(ctx context.Context, b []byte, x ast.Node) ([]byte, error) {
	switch x := x.(type) {
	case *ast.Stmts:
		return formatStmts(ctx, b, x, 0)
	default:
		return formatExpr(ctx, b, x)
	}
}

func formatStmts(ctx context.Context, b []byte, x *ast.Stmts, d int) (_ []byte, err error) {
	for _, s := range x.List {
		b, err = formatStmt(ctx, b, s, d)
		if err != nil {
			return nil, errors.Wrap(err, "line %d", s.At())
		}
	}

	return b, nil
}

func formatStmt(ctx context.Context, b []byte, s ast.Node, d int) (_ []byte, err error) {
	switch s := s.(type) {
	case *ast.Stmts:
		return formatStmts(ctx, b, s, d)
	case *ast.Assignment:
		b = app(b, d, "%s := ", s.Left.Name)

		b, err = formatExpr(ctx, b, s.Right)
		if err != nil {
			return nil, errors.Wrap(err, "rhs")
		}

		b = append(b, '\n')
	case *ast.LocalAssignment:
		b = app(b, d, "local %s := ", s.Left.Name)

		b, err = formatExpr(ctx, b, s.Right)
		if err != nil {
			return nil, errors.Wrap(err, "rhs")
		}

		b = append(b, '\n')
	case *ast.PrintStmt:
		if s.Newline {
			b = app(b, d, "println ")
		} else {
			b = app(b, d, "print ")
		}

		b, err = formatExpr(ctx, b, s.X)
		if err != nil {
			return nil, errors.Wrap(err, "print")
		}

		b = append(b, '\n')
	case *ast.IfStmt:
		b = app(b, d, "if ")

		b, err = formatExpr(ctx, b, s.Test)
		if err != nil {
			return nil, errors.Wrap(err, "test")
		}

		b = append(b, " then\n"...)

		b, err = formatStmts(ctx, b, s.Then, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "then")
		}

		if s.Else != nil {
			b = app(b, d, "else\n")

			b, err = formatStmts(ctx, b, s.Else, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "else")
			}
		}

		b = app(b, d, "end\n")
	case *ast.WhileStmt:
		b = app(b, d, "while ")

		b, err = formatExpr(ctx, b, s.Test)
		if err != nil {
			return nil, errors.Wrap(err, "test")
		}

		b = append(b, " do\n"...)

		b, err = formatStmts(ctx, b, s.Body, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "body")
		}

		b = app(b, d, "end\n")
	case *ast.ForStmt:
		b = app(b, d, "for %s := ", s.Var.Name)

		for i, e := range []ast.Node{s.Start, s.Stop, s.Step} {
			if e == nil {
				continue
			}

			if i != 0 {
				b = append(b, ", "...)
			}

			b, err = formatExpr(ctx, b, e)
			if err != nil {
				return nil, errors.Wrap(err, "range")
			}
		}

		b = append(b, " do\n"...)

		b, err = formatStmts(ctx, b, s.Body, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "body")
		}

		b = app(b, d, "end\n")
	case *ast.FuncDecl:
		b = app(b, d, "func %s(", s.Name)

		for i, p := range s.Params {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = append(b, p.Name...)
		}

		b = append(b, ")\n"...)

		b, err = formatStmts(ctx, b, s.Body, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", s.Name)
		}

		b = app(b, d, "end\n")
	case *ast.FuncCallStmt:
		b = app(b, d, "")

		b, err = formatExpr(ctx, b, s.Call)
		if err != nil {
			return nil, err
		}

		b = append(b, '\n')
	case *ast.RetStmt:
		b = app(b, d, "ret ")

		b, err = formatExpr(ctx, b, s.X)
		if err != nil {
			return nil, errors.Wrap(err, "ret")
		}

		b = append(b, '\n')
	default:
		b = app(b, d, "")

		b, err = formatExpr(ctx, b, s)
		if err != nil {
			return nil, err
		}

		b = append(b, '\n')
	}

	return b, nil
}

func formatExpr(ctx context.Context, b []byte, x ast.Node) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.Integer:
		b = hfmt.Appendf(b, "%d", x.Value)
	case *ast.Float:
		b = appendFloat(b, x.Value)
	case *ast.Bool:
		b = hfmt.Appendf(b, "%v", x.Value)
	case *ast.String:
		b = hfmt.Appendf(b, "%q", x.Value)
	case *ast.Identifier:
		b = append(b, x.Name...)
	case *ast.Grouping:
		switch x.X.(type) {
		case *ast.BinOp, *ast.LogicalOp:
			// already parenthesized
			return formatExpr(ctx, b, x.X)
		}

		b = append(b, '(')

		b, err = formatExpr(ctx, b, x.X)
		if err != nil {
			return nil, errors.Wrap(err, "grouping")
		}

		b = append(b, ')')
	case *ast.BinOp:
		return formatBinary(ctx, b, x.Op.Op, x.Left, x.Right)
	case *ast.LogicalOp:
		return formatBinary(ctx, b, x.Op.Op, x.Left, x.Right)
	case *ast.UnOp:
		b = append(b, string(x.Op.Op)...)

		// "--" starts a comment
		if _, ok := x.X.(*ast.UnOp); ok {
			b = append(b, ' ')
		}

		b, err = formatExpr(ctx, b, x.X)
		if err != nil {
			return nil, errors.Wrap(err, "unary %v", x.Op.Op)
		}
	case *ast.FuncCall:
		b = hfmt.Appendf(b, "%s(", x.Name)

		for i, a := range x.Args {
			if i != 0 {
				b = append(b, ", "...)
			}

			b, err = formatExpr(ctx, b, a)
			if err != nil {
				return nil, errors.Wrap(err, "arg %d", i)
			}
		}

		b = append(b, ')')
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}

	return b, nil
}

func formatBinary(ctx context.Context, b []byte, op ast.Op, l, r ast.Node) (_ []byte, err error) {
	b = append(b, '(')

	b, err = formatExpr(ctx, b, l)
	if err != nil {
		return nil, errors.Wrap(err, "left")
	}

	b = hfmt.Appendf(b, " %s ", string(op))

	b, err = formatExpr(ctx, b, r)
	if err != nil {
		return nil, errors.Wrap(err, "right")
	}

	b = append(b, ')')

	return b, nil
}

// appendFloat keeps the decimal point so the literal reads back as a float.
func appendFloat(b []byte, f float64) []byte {
	st := len(b)
	b = strconv.AppendFloat(b, f, 'f', -1, 64)

	if bytes.IndexByte(b[st:], '.') < 0 {
		b = append(b, ".0"...)
	}

	return b
}

func app(b []byte, d int, f string, args ...any) []byte {
	for i := 0; i < d; i++ {
		b = append(b, '\t')
	}

	b = hfmt.Appendf(b, f, args...)
	return b
}
