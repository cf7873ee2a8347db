package executor

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/ports"
)

// LocalRunner spawns child processes on the host.
type LocalRunner struct{}

// NewLocalRunner builds a new runner.
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

// Start implements ports.CommandRunner.
func (r *LocalRunner) Start(ctx context.Context, dir string, name string, args ...string) (ports.Process, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSpawnFailed, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSpawnFailed, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSpawnFailed, err)
	}

	return &localProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type localProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr io.Reader
}

func (p *localProcess) Stdout() io.Reader { return p.stdout }
func (p *localProcess) Stderr() io.Reader { return p.stderr }

// Wait reaps the process. A non-zero exit (including one forced by Kill)
// is reported through the code, not the error.
func (p *localProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

func (p *localProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

var _ ports.CommandRunner = (*LocalRunner)(nil)
