// Package cli — run_test.go exercises runLaunch end to end against
// fixture projects, including the actual foreground launch with a stub
// interpreter.
package cli

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wannabeded/leech-bot/internal/model"
)

// newRunCmd builds a run command with a background context so runLaunch
// can be called directly, outside of Execute.
func newRunCmd(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := NewRunCommand()
	cmd.SetContext(context.Background())
	return cmd
}

// writeInterpreter replaces the fixture venv's python with a shell script
// standing in for the real interpreter.
func writeInterpreter(t *testing.T, dir, script string) {
	t.Helper()
	path := filepath.Join(dir, ".venv", "bin", "python")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
}

// TestRunLaunch_MissingVenvBeforeEnvFiles verifies the launch order
// contract: a missing virtual environment aborts with exit 1 before any
// env file is read. The fixture .env is deliberately unparseable, so if
// the order were wrong the error would be the parse failure instead.
func TestRunLaunch_MissingVenvBeforeEnvFiles(t *testing.T) {
	dir := makeProject(t)
	require.NoError(t, os.RemoveAll(filepath.Join(dir, ".venv")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("this is not a dotenv file\n"), 0o644))

	err := runLaunch(newRunCmd(t), dir, nil, &runOptions{})

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitVenvNotFound, cliErr.Code)
	assert.Contains(t, cliErr.Message, "virtual environment not found")
}

// TestRunLaunch_InvalidEnvFile verifies the counterpart of the ordering
// test: with the venv in place, the same unparseable .env is reached and
// rejected with its own exit code.
func TestRunLaunch_InvalidEnvFile(t *testing.T) {
	dir := makeProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("this is not a dotenv file\n"), 0o644))

	err := runLaunch(newRunCmd(t), dir, nil, &runOptions{})

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitEnvFileInvalid, cliErr.Code)
}

// TestRunLaunch_PropagatesChildExitCode verifies a nonzero bot exit
// surfaces as a message-less CLIError carrying the bot's code, so
// Execute exits with it without printing an error of its own.
func TestRunLaunch_PropagatesChildExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fixture interpreter is a shell script")
	}

	dir := makeProject(t)
	writeInterpreter(t, dir, "#!/bin/sh\nexit 7\n")

	err := runLaunch(newRunCmd(t), dir, nil, &runOptions{})

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitCode(7), cliErr.Code)
	assert.Empty(t, cliErr.Message)
	assert.Nil(t, cliErr.Err)
}

// TestRunLaunch_ExportsEnvInProjectDir verifies the bot runs with the
// project directory as working directory and sees the .env variables:
// the stub interpreter writes $BOT_TOKEN to a relative path, which must
// land in the project directory with the fixture's value.
func TestRunLaunch_ExportsEnvInProjectDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fixture interpreter is a shell script")
	}

	dir := makeProject(t)
	writeInterpreter(t, dir, "#!/bin/sh\nprintf '%s' \"$BOT_TOKEN\" > token.txt\n")

	require.NoError(t, runLaunch(newRunCmd(t), dir, nil, &runOptions{}))

	data, err := os.ReadFile(filepath.Join(dir, "token.txt"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", string(data))
}
