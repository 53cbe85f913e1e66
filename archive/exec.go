// Package archive provides uniform create/extract adapters over external
// archiving tools, a registry for selecting them by format name, and a
// client for the bindle CLI's entry-level operations.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// ExecError reports a nonzero exit (or failure to launch) from an
// external archiving tool. Success is signaled by exit status alone;
// stdout is never parsed for it. Stderr holds the captured diagnostics.
type ExecError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s %s exited with code %d",
		e.Tool, strings.Join(e.Args, " "), e.ExitCode)

	if diag := strings.TrimSpace(e.Stderr); diag != "" {
		msg += ": " + diag
	}

	return msg
}

// run executes one external operation synchronously and measures
// wall-clock time around the process only. An empty dir runs the tool in
// the current directory. A context deadline surfaces as an ExecError so
// a hung tool fails its format instead of stalling the whole suite.
func run(ctx context.Context, dir, tool string, args ...string) (time.Duration, []byte, error) {
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		code := -1
		diag := stderr.String()

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			// The tool never started (missing binary, bad permissions).
			diag = err.Error()
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			diag = strings.TrimSpace(diag + "\n" + ctxErr.Error())
		}

		return elapsed, stdout.Bytes(), &ExecError{
			Tool:     tool,
			Args:     args,
			ExitCode: code,
			Stderr:   diag,
		}
	}

	return elapsed, stdout.Bytes(), nil
}
