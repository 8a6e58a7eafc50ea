package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mna/mainer"

	"github.com/horst-lang/horst/lang/compiler"
	"github.com/horst-lang/horst/lang/machine"
	"github.com/horst-lang/horst/lang/module"
)

// Run reads file, compiles it, and executes it to completion, mapping
// failures to the interpreter's exit code contract.
func Run(ctx context.Context, stdio mainer.Stdio, file string) mainer.ExitCode {
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", binName, err)
		return ExitIOError
	}

	prog, err := compiler.Compile(file, src)
	if err != nil {
		var errs compiler.ErrorList
		if errors.As(err, &errs) {
			for _, ce := range errs {
				fmt.Fprintln(stdio.Stderr, ce.Error())
			}
		} else {
			fmt.Fprintln(stdio.Stderr, err)
		}
		return ExitCompileError
	}

	loader := &module.Loader{Root: filepath.Dir(file)}
	th := machine.NewThread(loader, stdio.Stdout, stdio.Stderr, stdio.Stdin)

	if err := th.RunProgram(ctx, prog); err != nil {
		var evalErr *machine.EvalError
		if errors.As(err, &evalErr) {
			fmt.Fprint(stdio.Stderr, evalErr.Report())
		} else {
			fmt.Fprintln(stdio.Stderr, err)
		}
		return ExitRuntimeError
	}
	return ExitSuccess
}
