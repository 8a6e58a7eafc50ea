package maincmd_test

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"

	"github.com/horst-lang/horst/internal/filetest"
	"github.com/horst-lang/horst/internal/maincmd"
)

var testUpdateRunTests = flag.Bool("test.update-run-tests", false, "If set, replace expected run test results with actual results.")

// TestRun exercises the six end-to-end scenarios, compiling and running
// each testdata program and diffing its stdout against a golden file.
func TestRun(t *testing.T) {
	for _, fi := range filetest.SourceFiles(t, "testdata", ".horst") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			stdio := mainer.Stdio{Stdout: &stdout, Stderr: &stderr}

			code := maincmd.Run(context.Background(), stdio, filepath.Join("testdata", fi.Name()))
			require.Equal(t, maincmd.ExitSuccess, code, "stderr: %s", stderr.String())
			filetest.DiffOutput(t, fi, stdout.String(), "testdata", testUpdateRunTests)
		})
	}
}
