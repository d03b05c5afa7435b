package parse

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	Kind int

	Tok struct {
		Kind   Kind
		Lexeme string
		Line   int
	}

	lexer struct {
		b    []byte
		line int
	}
)

const (
	EOF Kind = iota
	Num
	Str
	Ident
	Keyword
	Punct
)

var keywords = map[string]struct{}{
	"if":      {},
	"then":    {},
	"elif":    {},
	"else":    {},
	"end":     {},
	"true":    {},
	"false":   {},
	"and":     {},
	"or":      {},
	"while":   {},
	"do":      {},
	"for":     {},
	"func":    {},
	"ret":     {},
	"local":   {},
	"print":   {},
	"println": {},
}

// two-byte operators go first so they win over their one-byte prefixes
var puncts = []string{
	":=", "==", "~=", ">=", "<=",
	">", "<", "+", "-", "*", "/", "%", "^", "~", "(", ")", ",",
}

func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of file"
	case Num:
		return "number"
	case Str:
		return "string"
	case Ident:
		return "identifier"
	case Keyword:
		return "keyword"
	case Punct:
		return "punctuation"
	default:
		return "unknown"
	}
}

// Tokenize splits text into tokens. The last token is always EOF.
func Tokenize(ctx context.Context, text []byte) (toks []Tok, err error) {
	l := &lexer{b: text, line: 1}

	for i := 0; ; {
		var t Tok

		t, i, err = l.token(i)
		if err != nil {
			return nil, errors.Wrap(err, "line %d", l.line)
		}

		toks = append(toks, t)

		if t.Kind == EOF {
			break
		}
	}

	if tlog.If("tokens") {
		for _, t := range toks {
			tlog.Printw("token", "kind", t.Kind, "lexeme", t.Lexeme, "line", t.Line)
		}
	}

	return toks, nil
}

func (l *lexer) token(st int) (t Tok, i int, err error) {
	i = l.skipSpaces(st)
	st = i

	if i == len(l.b) {
		return Tok{Kind: EOF, Line: l.line}, i, nil
	}

	c := l.b[i]

	switch {
	case isDigit(c):
		i = l.skipDigits(i)

		if i+1 < len(l.b) && l.b[i] == '.' && isDigit(l.b[i+1]) {
			i = l.skipDigits(i + 1)
		}

		return l.tok(Num, st, i), i, nil
	case c == '"' || c == '\'':
		i++

		for i < len(l.b) && l.b[i] != c {
			if l.b[i] == '\n' {
				l.line++
			}

			i++
		}

		if i == len(l.b) {
			return t, st, errors.New("unterminated string")
		}

		t = Tok{Kind: Str, Lexeme: string(l.b[st+1 : i]), Line: l.line}

		return t, i + 1, nil
	case isIdentStart(c):
		for i < len(l.b) && (isIdentStart(l.b[i]) || isDigit(l.b[i])) {
			i++
		}

		k := Ident
		if _, ok := keywords[string(l.b[st:i])]; ok {
			k = Keyword
		}

		return l.tok(k, st, i), i, nil
	}

	for _, p := range puncts {
		if i+len(p) <= len(l.b) && string(l.b[i:i+len(p)]) == p {
			return l.tok(Punct, st, i+len(p)), i + len(p), nil
		}
	}

	return t, st, errors.New("unexpected character: %q", c)
}

func (l *lexer) tok(k Kind, st, end int) Tok {
	return Tok{
		Kind:   k,
		Lexeme: string(l.b[st:end]),
		Line:   l.line,
	}
}

func (l *lexer) skipSpaces(i int) int {
	for i < len(l.b) {
		switch l.b[i] {
		case '\n':
			l.line++
			fallthrough
		case ' ', '\t', '\r':
			i++
			continue
		case '-':
			if i+1 < len(l.b) && l.b[i+1] == '-' {
				i = l.skipLine(i)
				continue
			}
		}

		break
	}

	return i
}

func (l *lexer) skipLine(i int) int {
	for i < len(l.b) && l.b[i] != '\n' {
		i++
	}

	return i
}

func (l *lexer) skipDigits(i int) int {
	for i < len(l.b) && isDigit(l.b[i]) {
		i++
	}

	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_'
}
