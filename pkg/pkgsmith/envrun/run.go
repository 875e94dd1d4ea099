package envrun

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

// RunOptions configures child command execution.
type RunOptions struct {
	// Dir is the working directory for the child.
	Dir string

	// Env is the complete environment for the child.
	Env []string

	// Stdin, Stdout, and Stderr default to the current process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes argv with the given environment and returns the child's
// exit code. SIGINT and SIGTERM received while the child runs are
// forwarded to it so interactive tools shut down cleanly.
func Run(ctx context.Context, argv []string, opts RunOptions) (int, error) {
	if len(argv) == 0 {
		return 0, errors.New("no command given")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env
	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-signals:
				_ = cmd.Process.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	err := cmd.Wait()
	close(done)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, err
	}

	return 0, nil
}
