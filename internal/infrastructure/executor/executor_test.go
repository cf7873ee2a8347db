package executor

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/pkg/logger"
	"github.com/voidws/xcpilot/internal/ports"
)

func TestRunCapturesOutputAndExitCode(t *testing.T) {
	runner := &stubRunner{proc: newStubProcess("line one\nline two\n", "warning\n", 0)}
	exec := New(runner, "/bin/sh", logger.NewStd(false))

	result, err := exec.Run(context.Background(), "xcodebuild build", Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Stdout != "line one\nline two\n" {
		t.Fatalf("unexpected stdout %q", result.Stdout)
	}
	if result.Stderr != "warning\n" {
		t.Fatalf("unexpected stderr %q", result.Stderr)
	}
	if result.ExitCode != 0 || result.TimedOut || result.FatalMatch != "" {
		t.Fatalf("unexpected result %+v", result)
	}
	if !result.Completed() {
		t.Fatal("expected a completed result")
	}
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	runner := &stubRunner{proc: newStubProcess("error: kaboom\n", "", 65)}
	exec := New(runner, "/bin/sh", logger.NewStd(false))

	result, err := exec.Run(context.Background(), "xcodebuild build", Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ExitCode != 65 {
		t.Fatalf("expected exit 65, got %d", result.ExitCode)
	}
}

func TestRunSpawnFailure(t *testing.T) {
	runner := &stubRunner{err: domain.ErrSpawnFailed}
	exec := New(runner, "/bin/sh", logger.NewStd(false))

	if _, err := exec.Run(context.Background(), "nope", Options{}); !errors.Is(err, domain.ErrSpawnFailed) {
		t.Fatalf("expected spawn failure, got %v", err)
	}
}

func TestRunTimeoutFlagsResultWithoutError(t *testing.T) {
	proc := newHangingProcess()
	runner := &stubRunner{proc: proc}
	exec := New(runner, "/bin/sh", logger.NewStd(false))

	result, err := exec.Run(context.Background(), "sleep forever", Options{Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("timeout must not be an error, got %v", err)
	}
	if !result.TimedOut {
		t.Fatal("expected TimedOut")
	}
	if !proc.killed() {
		t.Fatal("expected the process to be killed on timeout")
	}
}

func TestRunFatalPatternTerminatesEarly(t *testing.T) {
	proc := newStubProcess("building\nSegmentation fault: 11\nnever seen\n", "", 139)
	runner := &stubRunner{proc: proc}
	exec := New(runner, "/bin/sh", logger.NewStd(false))

	var notified string
	result, err := exec.Run(context.Background(), "xcodebuild build", Options{
		FatalPatterns: MustPatterns(`Segmentation fault`),
		OnFatal:       func(match string) { notified = match },
	})
	if err != nil {
		t.Fatalf("fatal match must not be an error, got %v", err)
	}
	if result.FatalMatch == "" {
		t.Fatal("expected FatalMatch to be set")
	}
	if notified != result.FatalMatch {
		t.Fatalf("OnFatal got %q, result has %q", notified, result.FatalMatch)
	}
	if !proc.killed() {
		t.Fatal("expected the process to be killed on fatal output")
	}
}

func TestFirstMatchingPatternWins(t *testing.T) {
	proc := newStubProcess("both first and second\n", "", 1)
	runner := &stubRunner{proc: proc}
	exec := New(runner, "/bin/sh", logger.NewStd(false))

	result, err := exec.Run(context.Background(), "xcodebuild build", Options{
		FatalPatterns: compileTestRules(t, []FatalRule{
			{Pattern: "first", Message: "saw first"},
			{Pattern: "second", Message: "saw second"},
		}),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.FatalMatch != "saw first" {
		t.Fatalf("expected first rule to win, got %q", result.FatalMatch)
	}
}

func TestRunBufferExceededIsHardError(t *testing.T) {
	proc := newStubProcess(strings.Repeat("x", 64)+"\n"+strings.Repeat("y", 64)+"\n", "", 0)
	runner := &stubRunner{proc: proc}
	exec := New(runner, "/bin/sh", logger.NewStd(false))

	_, err := exec.Run(context.Background(), "xcodebuild build", Options{MaxOutputBytes: 80})
	if !errors.Is(err, domain.ErrBufferExceeded) {
		t.Fatalf("expected buffer-exceeded error, got %v", err)
	}
	if !proc.killed() {
		t.Fatal("expected the process to be killed on overrun")
	}
}

func TestRunOversizedLineIsBufferExceeded(t *testing.T) {
	// A single line too long to tokenize must still count against the
	// output cap instead of vanishing with a clean result.
	proc := newStubProcess(strings.Repeat("a", 2*1024*1024), "", 0)
	runner := &stubRunner{proc: proc}
	exec := New(runner, "/bin/sh", logger.NewStd(false))

	_, err := exec.Run(context.Background(), "xcodebuild build", Options{MaxOutputBytes: 512 * 1024})
	if !errors.Is(err, domain.ErrBufferExceeded) {
		t.Fatalf("expected buffer-exceeded error, got %v", err)
	}
	if !proc.killed() {
		t.Fatal("expected the process to be killed on an oversized line")
	}
}

func TestRunOversizedStderrLineIsBufferExceeded(t *testing.T) {
	proc := newStubProcess("", strings.Repeat("b", 2*1024*1024), 0)
	runner := &stubRunner{proc: proc}
	exec := New(runner, "/bin/sh", logger.NewStd(false))

	if _, err := exec.Run(context.Background(), "xcodebuild build", Options{}); !errors.Is(err, domain.ErrBufferExceeded) {
		t.Fatalf("expected buffer-exceeded error, got %v", err)
	}
}

func TestFatalOutranksTimeout(t *testing.T) {
	var state termState
	if !state.trySet(reasonTimeout, "") {
		t.Fatal("timeout should set on clean state")
	}
	if !state.trySet(reasonFatal, "boom") {
		t.Fatal("fatal must replace timeout")
	}
	if state.trySet(reasonTimeout, "") {
		t.Fatal("timeout must not replace fatal")
	}
	if state.trySet(reasonBuffer, "") {
		t.Fatal("nothing replaces fatal")
	}
	reason, match := state.get()
	if reason != reasonFatal || match != "boom" {
		t.Fatalf("unexpected final state %d %q", reason, match)
	}
}

// compileTestRules compiles rules, failing the test on bad regexes.
func compileTestRules(t *testing.T, rules []FatalRule) []Pattern {
	t.Helper()
	compiled, err := CompilePatterns(rules)
	if err != nil {
		t.Fatalf("CompilePatterns error: %v", err)
	}
	return compiled
}

type stubRunner struct {
	proc ports.Process
	err  error
}

func (s *stubRunner) Start(context.Context, string, string, ...string) (ports.Process, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.proc, nil
}

// stubProcess replays fixed output and exit code.
type stubProcess struct {
	stdout io.Reader
	stderr io.Reader
	exit   int

	mu       sync.Mutex
	isKilled bool
}

func newStubProcess(stdout, stderr string, exit int) *stubProcess {
	return &stubProcess{
		stdout: strings.NewReader(stdout),
		stderr: strings.NewReader(stderr),
		exit:   exit,
	}
}

func (p *stubProcess) Stdout() io.Reader { return p.stdout }
func (p *stubProcess) Stderr() io.Reader { return p.stderr }

func (p *stubProcess) Wait() (int, error) {
	return p.exit, nil
}

func (p *stubProcess) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isKilled = true
	return nil
}

func (p *stubProcess) killed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isKilled
}

// hangingProcess emits nothing until killed, simulating a wedged child.
type hangingProcess struct {
	stdout *blockingReader
	stderr *blockingReader

	mu       sync.Mutex
	isKilled bool
}

func newHangingProcess() *hangingProcess {
	release := make(chan struct{})
	return &hangingProcess{
		stdout: &blockingReader{release: release},
		stderr: &blockingReader{release: release},
	}
}

func (p *hangingProcess) Stdout() io.Reader { return p.stdout }
func (p *hangingProcess) Stderr() io.Reader { return p.stderr }

func (p *hangingProcess) Wait() (int, error) {
	return -1, nil
}

func (p *hangingProcess) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isKilled {
		p.isKilled = true
		close(p.stdout.release)
	}
	return nil
}

func (p *hangingProcess) killed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isKilled
}

// blockingReader blocks Read until released, then reports EOF.
type blockingReader struct {
	release chan struct{}
}

func (r *blockingReader) Read([]byte) (int, error) {
	<-r.release
	return 0, io.EOF
}
