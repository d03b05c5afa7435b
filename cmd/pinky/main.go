package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/optiklab/pinky-interpreter/compiler"
	"github.com/optiklab/pinky-interpreter/compiler/format"
	"github.com/optiklab/pinky-interpreter/compiler/front"
	"github.com/optiklab/pinky-interpreter/compiler/interp"
	"github.com/optiklab/pinky-interpreter/compiler/parse"
	"github.com/optiklab/pinky-interpreter/runtime"
)

var errUsage = errors.New("usage: pinky <file>")

func main() {
	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "print the parsed program",
		Action:      parseAct,
		Args:        cli.Args{},
	}

	runCmd := &cli.Command{
		Name:        "run",
		Description: "generate and execute the program",
		Action:      runAct,
		Args:        cli.Args{},
	}

	runtimeCmd := &cli.Command{
		Name:        "runtime",
		Description: "write helpers.c to link generated modules with",
		Action:      runtimeAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "pinky",
		Description: "pinky generates LLVM IR from pinky source code",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("output,o", compiler.DefaultOutput, "output file"),
			cli.NewFlag("quiet,q", false, "do not echo the module to stdout"),
			cli.NewFlag("verbosity,v", "", "tlog verbosity topics"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			parseCmd,
			runCmd,
			runtimeCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func setup(c *cli.Command) context.Context {
	tlog.SetVerbosity(c.String("verbosity"))

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	return ctx
}

func fileArg(c *cli.Command) (string, error) {
	if len(c.Args) != 1 {
		return "", errUsage
	}

	return c.Args[0], nil
}

func compileAct(c *cli.Command) (err error) {
	name, err := fileArg(c)
	if err != nil {
		return err
	}

	ctx := setup(c)

	m, err := compiler.CompileFile(ctx, name)
	if err != nil {
		return errors.Wrap(err, "compile %v", name)
	}

	var stdout io.Writer = os.Stdout
	if c.Bool("quiet") {
		stdout = nil
	}

	return compiler.WriteModule(ctx, m, c.String("output"), stdout)
}

func parseAct(c *cli.Command) (err error) {
	name, err := fileArg(c)
	if err != nil {
		return err
	}

	ctx := setup(c)

	x, err := parse.ParseFile(ctx, name)
	if err != nil {
		return errors.Wrap(err, "parse %v", name)
	}

	b, err := format.Format(ctx, nil, x)
	if err != nil {
		return errors.Wrap(err, "format")
	}

	_, err = os.Stdout.Write(b)

	return err
}

func runAct(c *cli.Command) (err error) {
	name, err := fileArg(c)
	if err != nil {
		return err
	}

	ctx := setup(c)

	m, err := compiler.CompileFile(ctx, name)
	if err != nil {
		return errors.Wrap(err, "compile %v", name)
	}

	status, err := interp.Run(ctx, m.Module, front.EntryName, os.Stdout)
	if err != nil {
		return errors.Wrap(err, "run %v", name)
	}

	if status != front.ExitSuccess {
		os.Exit(int(status))
	}

	return nil
}

func runtimeAct(c *cli.Command) (err error) {
	dir := "."

	switch len(c.Args) {
	case 0:
	case 1:
		dir = c.Args[0]
	default:
		return errors.New("usage: pinky runtime [dir]")
	}

	p, err := runtime.Write(dir)
	if err != nil {
		return err
	}

	fmt.Printf("runtime written into %s\n", p)

	return nil
}
