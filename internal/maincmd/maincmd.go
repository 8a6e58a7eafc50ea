// Package maincmd implements the horst command-line driver: argument
// parsing and the exit-code contract (0 success; 64 wrong usage;
// 65 compilation error; 66 I/O error reading the source; 1 runtime
// error), built on mainer's Cmd/Main/Validate shape.
package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
)

const binName = "horst"

var (
	shortUsage = fmt.Sprintf("usage: %s [<option>...] <file>\nRun '%[1]s --help' for details.\n", binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <file>
       %[1]s -h|--help
       %[1]s -v|--version

Compiles and runs a Horst source file.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --dump-tokens             Print the scanned token stream instead of
                                 running the file.
`, binName)
)

// Exit codes for the CLI. mainer.ExitCode is a bare integer type, so
// these are defined locally rather than assumed from the library.
const (
	ExitSuccess      mainer.ExitCode = 0
	ExitUsage        mainer.ExitCode = 64
	ExitCompileError mainer.ExitCode = 65
	ExitIOError      mainer.ExitCode = 66
	ExitRuntimeError mainer.ExitCode = 1
)

// Cmd is the horst CLI, parsed and run via mainer.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	DumpTokens bool `flag:"dump-tokens"`

	args []string
}

func (c *Cmd) SetArgs(args []string)       { c.args = args }
func (c *Cmd) SetFlags(_ map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) != 1 {
		return fmt.Errorf("exactly one source file must be provided")
	}
	return nil
}

// Main is the CLI entry point: os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return ExitUsage
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return ExitSuccess
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return ExitSuccess
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	file := c.args[0]

	if c.DumpTokens {
		if err := TokenizeFile(stdio, file); err != nil {
			fmt.Fprintf(stdio.Stderr, "%s\n", err)
			return ExitIOError
		}
		return ExitSuccess
	}

	return Run(ctx, stdio, file)
}
