// Package openssl implements the capability providers by shelling out to the
// openssl binary. Captured stderr becomes the failure message; stdout is
// discarded.
package openssl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

const defaultBinary = "openssl"

// Runner executes openssl subcommands.
type Runner struct {
	binary string
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithBinary overrides the openssl executable path.
func WithBinary(path string) Option {
	return func(r *Runner) {
		r.binary = path
	}
}

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner using the openssl found on PATH by default.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{binary: defaultBinary, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Available reports whether the configured binary can be found.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.binary)
	return err == nil
}

// Run executes openssl with args. The command is killed when ctx is done.
func (r *Runner) Run(ctx context.Context, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("openssl %s: %w", args[0], ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && msg != "" {
			return fmt.Errorf("openssl %s: %s: %w", args[0], msg, err)
		}
		return fmt.Errorf("openssl %s: %w", args[0], err)
	}
	r.logger.DebugContext(ctx, "openssl command completed", "subcommand", args[0])
	return nil
}
