package assemble

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/signcast/signcast/internal/logging"
)

// State tracks one run through the encoder lifecycle.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// LineHandler receives one line of encoder output. Stream is "stdout" or
// "stderr".
type LineHandler func(stream, line string)

// Runner spawns the encoder and drains both output streams concurrently.
// A full OS pipe buffer stalls the child, so the streams are never read
// sequentially.
type Runner struct {
	mu     sync.Mutex
	state  State
	logger *slog.Logger
}

// NewRunner returns an idle runner.
func NewRunner() *Runner {
	return &Runner{logger: logging.GetLogger("assemble")}
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Execute runs the encoder to completion. A direct spawn is attempted
// first; if the OS refuses to launch the binary, one shell-wrapped retry is
// made before giving up. Execute blocks until the process exits. The exit
// code is reported but not interpreted here; the orchestrator judges
// success by the output artifact.
func (r *Runner) Execute(binaryPath string, args []string, workingDir string, onLine LineHandler) error {
	r.setState(StateStarting)

	err := r.runOnce(exec.Command(binaryPath, args...), workingDir, onLine)
	if err == nil {
		r.setState(StateCompleted)
		return nil
	}

	var startErr *startError
	if !errors.As(err, &startErr) {
		// Process ran and exited nonzero; not a spawn failure
		r.setState(StateCompleted)
		r.logger.Debug("Encoder exited nonzero", "error", err)
		return nil
	}

	r.logger.Warn("Direct spawn failed, retrying through shell", "binary", binaryPath, "error", err)

	shell, shellArgs := shellCommand(binaryPath, args)
	err = r.runOnce(exec.Command(shell, shellArgs...), workingDir, onLine)
	if err == nil {
		r.setState(StateCompleted)
		return nil
	}

	// Shell exit 126/127 means the wrapped command itself could not be
	// launched, which is still a spawn failure.
	var exitErr *exec.ExitError
	if !errors.As(err, &startErr) &&
		!(errors.As(err, &exitErr) && (exitErr.ExitCode() == 126 || exitErr.ExitCode() == 127)) {
		r.setState(StateCompleted)
		return nil
	}

	r.setState(StateFailed)
	return fmt.Errorf("%w: %v", ErrProcessStart, err)
}

// runOnce starts one command and drains stdout/stderr in parallel until
// exit. Failure to start is wrapped in startError so Execute can tell it
// apart from a nonzero exit.
func (r *Runner) runOnce(cmd *exec.Cmd, workingDir string, onLine LineHandler) error {
	if workingDir != "" {
		cmd.Dir = workingDir
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &startError{err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &startError{err}
	}

	if err := cmd.Start(); err != nil {
		return &startError{err}
	}
	r.setState(StateRunning)

	var wg sync.WaitGroup
	wg.Add(2)
	go r.drain("stdout", stdout, onLine, &wg)
	go r.drain("stderr", stderr, onLine, &wg)
	wg.Wait()

	return cmd.Wait()
}

func (r *Runner) drain(stream string, pipe interface{ Read([]byte) (int, error) }, onLine LineHandler, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(pipe)
	// Encoder status lines can exceed the default token size
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if onLine != nil {
			onLine(stream, line)
		}
	}
}

// startError marks a failure to launch, as opposed to a nonzero exit.
type startError struct {
	err error
}

func (e *startError) Error() string { return e.err.Error() }
func (e *startError) Unwrap() error { return e.err }

// shellCommand wraps the invocation for the platform shell.
func shellCommand(binaryPath string, args []string) (string, []string) {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, quoteArg(binaryPath))
	for _, a := range args {
		quoted = append(quoted, quoteArg(a))
	}
	line := strings.Join(quoted, " ")

	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", line}
	}
	return "/bin/sh", []string{"-c", line}
}

func quoteArg(a string) string {
	if a == "" || strings.ContainsAny(a, " \t\"'()[];&|<>") {
		return "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return a
}
