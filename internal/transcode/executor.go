package transcode

import (
	"bytes"
	"context"
	"os/exec"
)

// Output captures a finished tool invocation.
type Output struct {
	Stdout []byte
	Stderr []byte
}

// Executor runs external tools.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (Output, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (Output, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, err
}
