package process

import (
	"context"
	"os/exec"

	"github.com/kbukum/wavechat/logger"
)

// Runner executes commands. Exec is the real implementation; tests swap in
// a RunnerFunc.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, cmd Command) (*Result, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, cmd Command) (*Result, error) {
	return f(ctx, cmd)
}

// Exec runs commands as real subprocesses and logs each run at debug.
type Exec struct {
	log *logger.Logger
}

// NewExec creates an Exec runner.
func NewExec() *Exec {
	return &Exec{log: logger.WithComponent("process")}
}

// Run executes cmd via Run.
func (e *Exec) Run(ctx context.Context, cmd Command) (*Result, error) {
	res, err := Run(ctx, cmd)
	fields := logger.Fields("command", cmd.String())
	if res != nil {
		fields["exit_code"] = res.ExitCode
		fields[logger.FieldDuration] = res.Duration.Milliseconds()
	}
	if err != nil {
		fields[logger.FieldError] = err.Error()
		if tail := res.StderrTail(); tail != "" {
			fields["stderr"] = tail
		}
	}
	e.log.Debug("process finished", fields)
	return res, err
}

// Available reports whether binary resolves on PATH (or as a path).
func Available(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}
