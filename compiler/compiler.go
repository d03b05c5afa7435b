package compiler

import (
	"context"
	"fmt"
	"io"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/optiklab/pinky-interpreter/compiler/front"
	"github.com/optiklab/pinky-interpreter/compiler/parse"
)

const DefaultOutput = "main.ll"

func CompileFile(ctx context.Context, name string) (m *front.Module, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text)
}

func Compile(ctx context.Context, name string, text []byte) (m *front.Module, err error) {
	prog, err := parse.Parse(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse text")
	}

	m, err = front.Generate(ctx, name, prog)
	if err != nil {
		return nil, errors.Wrap(err, "generate")
	}

	return m, nil
}

// WriteModule writes the module text to path and echoes it to stdout
// followed by a confirmation line. A nil stdout skips the echo.
func WriteModule(ctx context.Context, m *front.Module, path string, stdout io.Writer) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "write module", "path", path)
	defer tr.Finish("err", &err)

	text := m.String()

	err = os.WriteFile(path, []byte(text), 0o644)
	if err != nil {
		return errors.Wrap(err, "write %v", path)
	}

	tr.Printw("module written", "size", len(text))

	if stdout == nil {
		return nil
	}

	_, err = fmt.Fprintf(stdout, "%s\n*** LLVM IR generated into %s ***\n", text, path)
	if err != nil {
		return errors.Wrap(err, "echo")
	}

	return nil
}
