package parse

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/optiklab/pinky-interpreter/compiler/ast"
)

type (
	State struct {
		toks []Tok
		cur  int
	}

	SyntaxError struct {
		Line  int
		Found string
		Want  string
	}
)

func ParseFile(ctx context.Context, name string) (*ast.Stmts, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return Parse(ctx, text)
}

func Parse(ctx context.Context, text []byte) (x *ast.Stmts, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "parse", "size", len(text))
	defer tr.Finish("err", &err)

	toks, err := Tokenize(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "tokenize")
	}

	s := &State{toks: toks}

	x, err = s.stmts()
	if err != nil {
		return nil, err
	}

	if t := s.peek(); t.Kind != EOF {
		return nil, s.unexpected("statement")
	}

	tr.Printw("parsed", "stmts", len(x.List), "tokens", len(toks))

	return x, nil
}

// stmts parses statements until EOF or one of the stop keywords.
// The stop keyword is not consumed.
func (s *State) stmts(stop ...string) (x *ast.Stmts, err error) {
	x = &ast.Stmts{Base: ast.Base{Line: s.peek().Line}}

	for {
		t := s.peek()

		if t.Kind == EOF {
			return x, nil
		}

		if t.Kind == Keyword && oneOf(t.Lexeme, stop...) {
			return x, nil
		}

		st, err := s.stmt()
		if err != nil {
			return nil, err
		}

		x.List = append(x.List, st)
	}
}

func (s *State) stmt() (x ast.Node, err error) {
	t := s.peek()
	base := ast.Base{Line: t.Line}

	if t.Kind == Keyword {
		switch t.Lexeme {
		case "print", "println":
			s.next()

			e, err := s.expr()
			if err != nil {
				return nil, errors.Wrap(err, "%s", t.Lexeme)
			}

			return &ast.PrintStmt{Base: base, X: e, Newline: t.Lexeme == "println"}, nil
		case "if":
			s.next()

			return s.ifStmt(base)
		case "while":
			s.next()

			return s.whileStmt(base)
		case "for":
			s.next()

			return s.forStmt(base)
		case "func":
			s.next()

			return s.funcDecl(base)
		case "ret":
			s.next()

			e, err := s.expr()
			if err != nil {
				return nil, errors.Wrap(err, "ret")
			}

			return &ast.RetStmt{Base: base, X: e}, nil
		case "local":
			s.next()

			id, e, err := s.assignment()
			if err != nil {
				return nil, errors.Wrap(err, "local")
			}

			return &ast.LocalAssignment{Base: base, Left: id, Right: e}, nil
		}
	}

	if t.Kind == Ident && s.peekAt(1).Lexeme == ":=" {
		id, e, err := s.assignment()
		if err != nil {
			return nil, err
		}

		return &ast.Assignment{Base: base, Left: id, Right: e}, nil
	}

	e, err := s.expr()
	if err != nil {
		return nil, err
	}

	call, ok := e.(*ast.FuncCall)
	if !ok {
		return nil, &SyntaxError{Line: t.Line, Found: t.Lexeme, Want: "statement"}
	}

	return &ast.FuncCallStmt{Base: base, Call: call}, nil
}

func (s *State) assignment() (id *ast.Identifier, e ast.Node, err error) {
	t, err := s.expect(Ident, "")
	if err != nil {
		return
	}

	_, err = s.expect(Punct, ":=")
	if err != nil {
		return
	}

	e, err = s.expr()
	if err != nil {
		return nil, nil, errors.Wrap(err, "assignment to %v", t.Lexeme)
	}

	id = &ast.Identifier{Base: ast.Base{Line: t.Line}, Name: t.Lexeme}

	return id, e, nil
}

// ifStmt is called with "if" or "elif" already consumed.
func (s *State) ifStmt(base ast.Base) (x *ast.IfStmt, err error) {
	x = &ast.IfStmt{Base: base}

	x.Test, err = s.expr()
	if err != nil {
		return nil, errors.Wrap(err, "if test")
	}

	_, err = s.expect(Keyword, "then")
	if err != nil {
		return nil, err
	}

	x.Then, err = s.stmts("elif", "else", "end")
	if err != nil {
		return nil, errors.Wrap(err, "then")
	}

	t := s.next()

	switch t.Lexeme {
	case "elif":
		sub, err := s.ifStmt(ast.Base{Line: t.Line})
		if err != nil {
			return nil, err
		}

		x.Else = &ast.Stmts{Base: sub.Base, List: []ast.Node{sub}}

		return x, nil
	case "else":
		x.Else, err = s.stmts("end")
		if err != nil {
			return nil, errors.Wrap(err, "else")
		}

		_, err = s.expect(Keyword, "end")
		if err != nil {
			return nil, err
		}

		return x, nil
	case "end":
		return x, nil
	}

	return nil, &SyntaxError{Line: t.Line, Found: t.Lexeme, Want: "'end'"}
}

func (s *State) whileStmt(base ast.Base) (x *ast.WhileStmt, err error) {
	x = &ast.WhileStmt{Base: base}

	x.Test, err = s.expr()
	if err != nil {
		return nil, errors.Wrap(err, "while test")
	}

	x.Body, err = s.block("do")
	if err != nil {
		return nil, errors.Wrap(err, "while")
	}

	return x, nil
}

func (s *State) forStmt(base ast.Base) (x *ast.ForStmt, err error) {
	x = &ast.ForStmt{Base: base}

	x.Var, x.Start, err = s.assignment()
	if err != nil {
		return nil, errors.Wrap(err, "for")
	}

	_, err = s.expect(Punct, ",")
	if err != nil {
		return nil, err
	}

	x.Stop, err = s.expr()
	if err != nil {
		return nil, errors.Wrap(err, "for stop")
	}

	if s.peek().Lexeme == "," {
		s.next()

		x.Step, err = s.expr()
		if err != nil {
			return nil, errors.Wrap(err, "for step")
		}
	}

	x.Body, err = s.block("do")
	if err != nil {
		return nil, errors.Wrap(err, "for")
	}

	return x, nil
}

func (s *State) funcDecl(base ast.Base) (x *ast.FuncDecl, err error) {
	name, err := s.expect(Ident, "")
	if err != nil {
		return nil, err
	}

	x = &ast.FuncDecl{Base: base, Name: name.Lexeme}

	_, err = s.expect(Punct, "(")
	if err != nil {
		return nil, err
	}

	for s.peek().Lexeme != ")" {
		if len(x.Params) != 0 {
			_, err = s.expect(Punct, ",")
			if err != nil {
				return nil, err
			}
		}

		p, err := s.expect(Ident, "")
		if err != nil {
			return nil, errors.Wrap(err, "param")
		}

		x.Params = append(x.Params, &ast.Identifier{Base: ast.Base{Line: p.Line}, Name: p.Lexeme})
	}

	s.next()

	x.Body, err = s.block("")
	if err != nil {
		return nil, errors.Wrap(err, "func %v", x.Name)
	}

	return x, nil
}

// block parses [open] stmts "end".
func (s *State) block(open string) (x *ast.Stmts, err error) {
	if open != "" {
		_, err = s.expect(Keyword, open)
		if err != nil {
			return nil, err
		}
	}

	x, err = s.stmts("end")
	if err != nil {
		return nil, err
	}

	_, err = s.expect(Keyword, "end")
	if err != nil {
		return nil, err
	}

	return x, nil
}

func (s *State) expr() (ast.Node, error) {
	return s.or()
}

func (s *State) or() (x ast.Node, err error) {
	return s.logical(s.and, ast.Or)
}

func (s *State) and() (x ast.Node, err error) {
	return s.logical(s.equality, ast.And)
}

func (s *State) logical(arg func() (ast.Node, error), op ast.Op) (x ast.Node, err error) {
	x, err = arg()
	if err != nil {
		return nil, err
	}

	for t := s.peek(); t.Kind == Keyword && t.Lexeme == string(op); t = s.peek() {
		s.next()

		r, err := arg()
		if err != nil {
			return nil, errors.Wrap(err, "%v", op)
		}

		x = &ast.LogicalOp{
			Base:  ast.Base{Line: t.Line},
			Op:    ast.Token{Op: op, Line: t.Line},
			Left:  x,
			Right: r,
		}
	}

	return x, nil
}

func (s *State) equality() (ast.Node, error) {
	return s.binary(s.comparison, ast.Eq, ast.Ne)
}

func (s *State) comparison() (ast.Node, error) {
	return s.binary(s.addition, ast.Gt, ast.Ge, ast.Lt, ast.Le)
}

func (s *State) addition() (ast.Node, error) {
	return s.binary(s.multiplication, ast.Add, ast.Sub)
}

func (s *State) multiplication() (ast.Node, error) {
	return s.binary(s.unary, ast.Mul, ast.Div, ast.Mod)
}

func (s *State) binary(arg func() (ast.Node, error), ops ...ast.Op) (x ast.Node, err error) {
	x, err = arg()
	if err != nil {
		return nil, err
	}

	for t := s.peek(); t.Kind == Punct && oneOf(t.Lexeme, opStrings(ops)...); t = s.peek() {
		s.next()

		r, err := arg()
		if err != nil {
			return nil, errors.Wrap(err, "%v", t.Lexeme)
		}

		x = &ast.BinOp{
			Base:  ast.Base{Line: t.Line},
			Op:    ast.Token{Op: ast.Op(t.Lexeme), Line: t.Line},
			Left:  x,
			Right: r,
		}
	}

	return x, nil
}

func (s *State) unary() (x ast.Node, err error) {
	t := s.peek()

	if t.Kind == Punct && oneOf(t.Lexeme, "~", "-", "+") {
		s.next()

		x, err = s.unary()
		if err != nil {
			return nil, errors.Wrap(err, "unary %v", t.Lexeme)
		}

		return &ast.UnOp{
			Base: ast.Base{Line: t.Line},
			Op:   ast.Token{Op: ast.Op(t.Lexeme), Line: t.Line},
			X:    x,
		}, nil
	}

	return s.exponent()
}

func (s *State) exponent() (x ast.Node, err error) {
	x, err = s.primary()
	if err != nil {
		return nil, err
	}

	t := s.peek()
	if t.Kind != Punct || t.Lexeme != "^" {
		return x, nil
	}

	s.next()

	r, err := s.unary()
	if err != nil {
		return nil, errors.Wrap(err, "^")
	}

	return &ast.BinOp{
		Base:  ast.Base{Line: t.Line},
		Op:    ast.Token{Op: ast.Pow, Line: t.Line},
		Left:  x,
		Right: r,
	}, nil
}

func (s *State) primary() (x ast.Node, err error) {
	t := s.next()
	base := ast.Base{Line: t.Line}

	switch t.Kind {
	case Num:
		if strings.Contains(t.Lexeme, ".") {
			v, err := strconv.ParseFloat(t.Lexeme, 64)
			if err != nil {
				return nil, errors.Wrap(err, "parse float")
			}

			return &ast.Float{Base: base, Value: v}, nil
		}

		v, err := strconv.ParseInt(t.Lexeme, 10, 64)
		if errors.Is(err, strconv.ErrRange) {
			f, err := strconv.ParseFloat(t.Lexeme, 64)
			if err != nil {
				return nil, errors.Wrap(err, "parse integer")
			}

			return &ast.Float{Base: base, Value: f}, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "parse integer")
		}

		return &ast.Integer{Base: base, Value: v}, nil
	case Str:
		return &ast.String{Base: base, Value: t.Lexeme}, nil
	case Keyword:
		switch t.Lexeme {
		case "true", "false":
			return &ast.Bool{Base: base, Value: t.Lexeme == "true"}, nil
		}
	case Ident:
		if s.peek().Lexeme != "(" {
			return &ast.Identifier{Base: base, Name: t.Lexeme}, nil
		}

		s.next()

		call := &ast.FuncCall{Base: base, Name: t.Lexeme}

		for s.peek().Lexeme != ")" {
			if len(call.Args) != 0 {
				_, err = s.expect(Punct, ",")
				if err != nil {
					return nil, err
				}
			}

			a, err := s.expr()
			if err != nil {
				return nil, errors.Wrap(err, "call %v arg", t.Lexeme)
			}

			call.Args = append(call.Args, a)
		}

		s.next()

		return call, nil
	case Punct:
		if t.Lexeme != "(" {
			break
		}

		x, err = s.expr()
		if err != nil {
			return nil, errors.Wrap(err, "grouping")
		}

		_, err = s.expect(Punct, ")")
		if err != nil {
			return nil, err
		}

		return &ast.Grouping{Base: base, X: x}, nil
	}

	return nil, &SyntaxError{Line: t.Line, Found: t.Lexeme, Want: "expression"}
}

func (s *State) peek() Tok {
	return s.peekAt(0)
}

func (s *State) peekAt(d int) Tok {
	if s.cur+d >= len(s.toks) {
		return s.toks[len(s.toks)-1]
	}

	return s.toks[s.cur+d]
}

func (s *State) next() Tok {
	t := s.peek()

	if s.cur < len(s.toks)-1 {
		s.cur++
	}

	return t
}

// expect consumes a token of kind k. Empty lexeme matches any.
func (s *State) expect(k Kind, lexeme string) (t Tok, err error) {
	t = s.peek()

	if t.Kind != k || lexeme != "" && t.Lexeme != lexeme {
		want := k.String()
		if lexeme != "" {
			want = fmt.Sprintf("%q", lexeme)
		}

		return t, s.unexpected(want)
	}

	s.next()

	return t, nil
}

func (s *State) unexpected(want string) error {
	t := s.peek()

	found := t.Lexeme
	if t.Kind == EOF {
		found = EOF.String()
	}

	return &SyntaxError{Line: t.Line, Found: found, Want: want}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: expected %s, found %q", e.Line, e.Want, e.Found)
}

func oneOf(x string, l ...string) bool {
	for _, y := range l {
		if x == y {
			return true
		}
	}

	return false
}

func opStrings(ops []ast.Op) []string {
	l := make([]string, len(ops))

	for i, op := range ops {
		l[i] = string(op)
	}

	return l
}
