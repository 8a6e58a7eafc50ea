package maincmd

import (
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/horst-lang/horst/lang/scanner"
	"github.com/horst-lang/horst/lang/token"
)

// TokenizeFile prints the scanned token stream of file to stdio.Stdout,
// one token per line, for the --dump-tokens debug flag.
func TokenizeFile(stdio mainer.Stdio, file string) error {
	src, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	sc := scanner.New(file, src)
	for {
		tok := sc.Scan()
		line, col := tok.Pos.LineCol()
		fmt.Fprintf(stdio.Stdout, "%s:%d:%d: %s", file, line, col, tok.Kind)
		if tok.Lexeme != "" {
			fmt.Fprintf(stdio.Stdout, " %q", tok.Lexeme)
		}
		fmt.Fprintln(stdio.Stdout)
		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}
