package launch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/Wannabeded/leech-bot/internal/model"
)

// Command builds the exec.Cmd for a launch spec without starting it.
// The argv is: interpreter, entry point, extra args. The working directory
// is the project directory, so the bot sees the same layout it would have
// seen under the original launcher no matter where botrun was invoked from.
//
// Standard streams are not attached here; Run wires them to the launcher's
// own streams, while tests capture output instead.
func Command(ctx context.Context, spec *model.LaunchSpec) *exec.Cmd {
	args := make([]string, 0, len(spec.Args)+1)
	args = append(args, spec.Entrypoint)
	args = append(args, spec.Args...)

	cmd := exec.CommandContext(ctx, spec.Interpreter, args...)
	cmd.Dir = spec.ProjectDir
	cmd.Env = spec.Env
	return cmd
}

// Run starts the child process in the foreground and blocks until it
// exits. It returns the child's exit code; err is non-nil only for
// launcher-side failures (invalid spec, exec failure before the child ran).
//
// While the child runs, SIGINT and SIGTERM are intercepted and forwarded
// to it. The launcher then keeps waiting: shutdown is the child's decision,
// and the exit code it chooses is what gets propagated.
func Run(ctx context.Context, spec *model.LaunchSpec) (int, error) {
	if err := spec.Validate(); err != nil {
		return int(model.ExitLaunchFailed), model.WrapCLIError(model.ExitLaunchFailed, "invalid launch spec", err)
	}

	cmd := Command(ctx, spec)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return int(model.ExitLaunchFailed), model.WrapCLIError(model.ExitLaunchFailed,
			fmt.Sprintf("failed to start %s", spec.Interpreter), err)
	}

	// Forward termination signals to the child for as long as it runs.
	// Note the terminal already delivers SIGINT to the whole foreground
	// process group; forwarding covers the non-terminal cases (kill,
	// systemd stop) and is harmless in the terminal case.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigCh:
				_ = cmd.Process.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	waitErr := cmd.Wait()
	close(done)
	signal.Stop(sigCh)

	if waitErr == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitCodeFromState(exitErr), nil
	}

	// Wait failed for a reason other than the child exiting nonzero
	// (e.g. an I/O error on the launcher side).
	return int(model.ExitLaunchFailed), model.WrapCLIError(model.ExitLaunchFailed,
		"failed waiting for bot process", waitErr)
}

// exitCodeFromState maps a child's exit state to a launcher exit code.
// A child killed by a signal maps to 128+signal, the shell convention,
// so that e.g. a SIGKILLed bot reports 137.
func exitCodeFromState(exitErr *exec.ExitError) int {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return exitErr.ExitCode()
}
