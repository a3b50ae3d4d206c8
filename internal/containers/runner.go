package containers

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes container runtime commands. The indirection exists so
// the manager can be tested without docker or podman installed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, exitCode int, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		exitCode = -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
			// A non-zero exit is a result, not a transport failure.
			err = nil
		}
	}
	return outBuf.String(), errBuf.String(), exitCode, err
}
