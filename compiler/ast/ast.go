package ast

type (
	Node interface {
		At() int
	}

	Base struct {
		Line int
	}

	Op string

	Token struct {
		Op   Op
		Line int
	}

	Integer struct {
		Base `tlog:",embed"`

		Value int64
	}

	Float struct {
		Base `tlog:",embed"`

		Value float64
	}

	Bool struct {
		Base `tlog:",embed"`

		Value bool
	}

	String struct {
		Base `tlog:",embed"`

		Value string
	}

	Grouping struct {
		Base `tlog:",embed"`

		X Node
	}

	Identifier struct {
		Base `tlog:",embed"`

		Name string
	}

	Assignment struct {
		Base `tlog:",embed"`

		Left  *Identifier
		Right Node
	}

	LocalAssignment struct {
		Base `tlog:",embed"`

		Left  *Identifier
		Right Node
	}

	BinOp struct {
		Base `tlog:",embed"`

		Op    Token
		Left  Node
		Right Node
	}

	UnOp struct {
		Base `tlog:",embed"`

		Op Token
		X  Node
	}

	LogicalOp struct {
		Base `tlog:",embed"`

		Op    Token
		Left  Node
		Right Node
	}

	Stmts struct {
		Base `tlog:",embed"`

		List []Node
	}

	PrintStmt struct {
		Base `tlog:",embed"`

		X       Node
		Newline bool
	}

	IfStmt struct {
		Base `tlog:",embed"`

		Test Node
		Then *Stmts
		Else *Stmts // nil if absent
	}

	WhileStmt struct {
		Base `tlog:",embed"`

		Test Node
		Body *Stmts
	}

	ForStmt struct {
		Base `tlog:",embed"`

		Var   *Identifier
		Start Node
		Stop  Node
		Step  Node // nil if absent
		Body  *Stmts
	}

	FuncDecl struct {
		Base `tlog:",embed"`

		Name   string
		Params []*Identifier
		Body   *Stmts
	}

	FuncCall struct {
		Base `tlog:",embed"`

		Name string
		Args []Node
	}

	FuncCallStmt struct {
		Base `tlog:",embed"`

		Call *FuncCall
	}

	RetStmt struct {
		Base `tlog:",embed"`

		X Node
	}
)

const (
	Add Op = "+"
	Sub Op = "-"
	Mul Op = "*"
	Div Op = "/"
	Mod Op = "%"
	Pow Op = "^"

	Gt Op = ">"
	Ge Op = ">="
	Lt Op = "<"
	Le Op = "<="
	Eq Op = "=="
	Ne Op = "~="

	Not Op = "~"
	And Op = "and"
	Or  Op = "or"
)

func (b *Base) At() int { return b.Line }
