package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/ports"
)

const scanBufferSize = 1024 * 1024

// Options bound a single execution.
type Options struct {
	Dir            string
	Timeout        time.Duration
	MaxOutputBytes int
	FatalPatterns  []Pattern
	// OnFatal is invoked synchronously, once, when a fatal pattern matches.
	OnFatal func(match string)
}

// Executor runs external commands through the configured shell, streaming
// output while enforcing a timeout, a stdout buffer cap, and early
// termination on fatal output patterns.
type Executor struct {
	runner ports.CommandRunner
	shell  string
	log    ports.Logger
}

// New builds an executor, shell defaults to /bin/sh.
func New(runner ports.CommandRunner, shell string, log ports.Logger) *Executor {
	if shell == "" {
		shell = "/bin/sh"
	}
	return &Executor{runner: runner, shell: shell, log: log}
}

// Termination reasons, in replacement order: a fatal match may replace a
// timeout recorded at the same instant, nothing replaces a fatal match or
// a buffer overrun.
const (
	reasonNone = iota
	reasonTimeout
	reasonFatal
	reasonBuffer
)

type termState struct {
	mu     sync.Mutex
	reason int
	match  string
}

func (s *termState) trySet(reason int, match string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.reason == reasonNone:
	case reason == reasonFatal && s.reason == reasonTimeout:
	default:
		return false
	}
	s.reason = reason
	s.match = match
	return true
}

func (s *termState) get() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason, s.match
}

// Run executes a shell command string and returns its result. Timeouts and
// fatal matches are reported through the result, not as errors; only spawn
// failures and stdout overruns are raised.
func (e *Executor) Run(ctx context.Context, command string, opts Options) (domain.ExecutionResult, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = domain.DefaultCommandTimeout
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = domain.DefaultMaxOutputBytes
	}

	e.log.Debug("executing command", map[string]interface{}{
		"command": command,
		"dir":     opts.Dir,
		"timeout": opts.Timeout.String(),
	})

	start := time.Now()
	proc, err := e.runner.Start(ctx, opts.Dir, e.shell, "-c", command)
	if err != nil {
		return domain.ExecutionResult{}, err
	}

	var (
		state  termState
		stdout strings.Builder
		stderr strings.Builder
		outMu  sync.Mutex
		errMu  sync.Mutex
		wg     sync.WaitGroup
	)

	timer := time.AfterFunc(opts.Timeout, func() {
		if state.trySet(reasonTimeout, "") {
			_ = proc.Kill()
		}
	})
	defer timer.Stop()

	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = proc.Kill()
		case <-watchDone:
		}
	}()

	checkFatal := func(line string) {
		reason, _ := state.get()
		if reason == reasonFatal || reason == reasonBuffer {
			return
		}
		for _, pattern := range opts.FatalPatterns {
			if !pattern.Match(line) {
				continue
			}
			if state.trySet(reasonFatal, pattern.Message) {
				if opts.OnFatal != nil {
					opts.OnFatal(pattern.Message)
				}
				_ = proc.Kill()
			}
			return
		}
	}

	overrun := func(scanErr error) {
		if !errors.Is(scanErr, bufio.ErrTooLong) {
			return
		}
		if state.trySet(reasonBuffer, "") {
			_ = proc.Kill()
		}
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		overrun(scanLines(proc.Stdout(), func(line string) {
			outMu.Lock()
			stdout.WriteString(line)
			stdout.WriteByte('\n')
			over := stdout.Len() > opts.MaxOutputBytes
			outMu.Unlock()

			if over {
				if state.trySet(reasonBuffer, "") {
					_ = proc.Kill()
				}
				return
			}
			checkFatal(line)
		}))
	}()
	go func() {
		defer wg.Done()
		overrun(scanLines(proc.Stderr(), func(line string) {
			errMu.Lock()
			stderr.WriteString(line)
			stderr.WriteByte('\n')
			errMu.Unlock()

			checkFatal(line)
		}))
	}()

	wg.Wait()
	exitCode, waitErr := proc.Wait()
	close(watchDone)
	timer.Stop()

	result := domain.ExecutionResult{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		ExitCode:   exitCode,
		DurationMS: time.Since(start).Milliseconds(),
	}

	reason, match := state.get()
	switch reason {
	case reasonBuffer:
		return result, fmt.Errorf("stdout exceeded %d bytes: %w", opts.MaxOutputBytes, domain.ErrBufferExceeded)
	case reasonFatal:
		result.FatalMatch = match
		return result, nil
	case reasonTimeout:
		result.TimedOut = true
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	if waitErr != nil {
		return result, fmt.Errorf("wait for process: %w", waitErr)
	}
	return result, nil
}

// scanLines tokenizes r line by line. A line longer than scanBufferSize
// aborts the scan; the error is returned so the caller can treat the
// unbufferable line as an output overrun instead of dropping it.
func scanLines(r io.Reader, handle func(line string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), scanBufferSize)
	for scanner.Scan() {
		handle(scanner.Text())
	}
	return scanner.Err()
}
