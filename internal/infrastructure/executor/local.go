package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/pkg/cmdline"
	"github.com/doeshing/macdiet-go/internal/pkg/filesystem"
	"github.com/doeshing/macdiet-go/internal/ports"
)

// waitDelay bounds how long Run waits for output pipes after the process is
// killed, in case it left children holding them open.
const waitDelay = 5 * time.Second

// LocalRunner runs an argument vector directly, without a shell, with stdin
// closed and stdout/stderr captured.
type LocalRunner struct {
	invokingUser func() (filesystem.InvokingUser, bool)
}

// NewLocalRunner builds a runner for the current host.
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{invokingUser: filesystem.LookupInvokingUser}
}

// Run implements ports.CommandRunner. A non-zero exit is reported through
// CommandOutput; only failing to start or missing the deadline is an error.
func (r *LocalRunner) Run(ctx context.Context, req domain.CommandRequest) (domain.CommandOutput, error) {
	line := cmdline.Format(req.Cmd, req.Args)
	if strings.TrimSpace(req.Cmd) == "" {
		return domain.CommandOutput{}, &domain.LaunchError{Cmdline: line, Err: errors.New("empty command")}
	}

	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(runCtx, req.Cmd, req.Args...)
	c.Stdin = nil
	c.WaitDelay = waitDelay
	c.Env = os.Environ()
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if req.AsInvokingUser && r.invokingUser != nil {
		if u, ok := r.invokingUser(); ok && applyCredential(c, u) {
			c.Env = invokingUserEnv(c.Env, u)
		}
	}

	err := c.Run()
	out := domain.CommandOutput{ExitCode: -1, Stdout: stdout.String(), Stderr: stderr.String()}
	return runResult(line, req.Timeout, out, err, runCtx.Err())
}

// runResult maps the outcome of Run. The context error only counts when the
// process itself failed, so a command that exits cleanly as the deadline
// fires is still a success.
func runResult(line string, timeout time.Duration, out domain.CommandOutput, runErr, ctxErr error) (domain.CommandOutput, error) {
	if runErr == nil {
		out.ExitCode = 0
		return out, nil
	}
	if ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			ctxErr = fmt.Errorf("timed out after %s: %w", timeout, ctxErr)
		}
		return out, &domain.LaunchError{Cmdline: line, Err: ctxErr}
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	return out, &domain.LaunchError{Cmdline: line, Err: runErr}
}

// invokingUserEnv points HOME, USER and LOGNAME at the sudo caller.
func invokingUserEnv(env []string, u filesystem.InvokingUser) []string {
	overrides := map[string]string{}
	if u.HomeDir != "" {
		overrides["HOME"] = u.HomeDir
	}
	if u.Username != "" {
		overrides["USER"] = u.Username
		overrides["LOGNAME"] = u.Username
	}
	out := make([]string, 0, len(env)+len(overrides))
	for _, kv := range env {
		key, _, _ := strings.Cut(kv, "=")
		if _, replaced := overrides[key]; replaced {
			continue
		}
		out = append(out, kv)
	}
	for _, key := range []string{"HOME", "USER", "LOGNAME"} {
		if v, ok := overrides[key]; ok {
			out = append(out, key+"="+v)
		}
	}
	return out
}

var _ ports.CommandRunner = (*LocalRunner)(nil)
