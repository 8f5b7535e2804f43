// Package model defines the domain types for the botrun CLI.
//
// All entities in this package are transient: they are assembled at startup
// from the project directory contents (manifest, virtual environment, env
// files) and discarded when the launcher exits. There is no persistent state.
package model

import (
	"fmt"
	"path/filepath"
)

// ExitCode defines the CLI exit codes. These codes allow wrapper scripts
// and systemd units to programmatically determine why a launch failed.
//
// Note that `botrun run` propagates the bot's own exit code verbatim once
// the child has started, so any value can be observed by callers; the codes
// below only describe launcher-side failures that occur before exec.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitVenvNotFound indicates the virtual environment directory is
	// missing or unusable. It deliberately shares code 1 with
	// ExitGeneralError: the shell launcher this tool replaces exited 1
	// in that case, and deployment scripts depend on that contract.
	ExitVenvNotFound ExitCode = 1

	// ExitEntrypointNotFound indicates the bot entry point script does
	// not exist in the project directory.
	ExitEntrypointNotFound ExitCode = 2

	// ExitManifestInvalid indicates botrun.jsonc exists but could not
	// be parsed.
	ExitManifestInvalid ExitCode = 3

	// ExitEnvFileInvalid indicates an env file exists but could not
	// be parsed as KEY=VALUE pairs.
	ExitEnvFileInvalid ExitCode = 4

	// ExitLaunchFailed indicates the child process could not be started
	// at all (exec failure, e.g. a non-executable interpreter).
	ExitLaunchFailed ExitCode = 5
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// LaunchSpec is the fully resolved plan for launching the bot process.
// It is built in three layers, later layers overriding earlier ones:
//
//	defaults → botrun.jsonc manifest → command-line flags
//
// By the time a LaunchSpec reaches the launch package, every path is
// absolute except Entrypoint, which stays relative so the child sees the
// same argv it would have seen under the original shell launcher.
type LaunchSpec struct {
	// ProjectDir is the absolute path to the bot project directory.
	// It becomes the working directory of the child process, regardless
	// of where the launcher itself was invoked from.
	ProjectDir string `json:"projectDir"`

	// VenvDir is the absolute path to the virtual environment directory.
	VenvDir string `json:"venvDir"`

	// Interpreter is the absolute path to the interpreter used to run
	// the entry point. Normally resolved from the virtual environment;
	// the --python flag can override it.
	Interpreter string `json:"interpreter"`

	// Entrypoint is the script passed to the interpreter, relative to
	// ProjectDir (e.g. "main.py").
	Entrypoint string `json:"entrypoint"`

	// Args are extra arguments appended after the entry point.
	Args []string `json:"args,omitempty"`

	// EnvFiles are the dotenv files to load, in order. Later files
	// override earlier ones. All paths are absolute.
	EnvFiles []string `json:"envFiles,omitempty"`

	// RequiredEnv lists environment variable names that should be set
	// in the child environment (e.g. BOT_TOKEN). Missing keys are
	// reported but are not fatal at launch time — the bot performs its
	// own validation on startup.
	RequiredEnv []string `json:"requiredEnv,omitempty"`

	// Env is the complete environment for the child process, in
	// KEY=VALUE form. It is the inherited environment plus the virtual
	// environment activation plus the env file contents.
	Env []string `json:"-"`
}

// Validate checks the invariants that must hold before the child process
// can be started. It does not touch the filesystem — existence checks are
// performed earlier, by the venv and project packages, so that each failure
// maps to its dedicated exit code.
func (s *LaunchSpec) Validate() error {
	if s.ProjectDir == "" {
		return fmt.Errorf("launch spec: project directory must not be empty")
	}
	if !filepath.IsAbs(s.ProjectDir) {
		return fmt.Errorf("launch spec: project directory %q must be absolute", s.ProjectDir)
	}
	if s.Interpreter == "" {
		return fmt.Errorf("launch spec: interpreter must not be empty")
	}
	if s.Entrypoint == "" {
		return fmt.Errorf("launch spec: entry point must not be empty")
	}
	return nil
}

// Severity classifies a Finding produced by the check command.
type Severity string

const (
	// SeverityFatal marks a condition that would prevent `botrun run`
	// from launching the bot (e.g. missing virtual environment).
	SeverityFatal Severity = "fatal"

	// SeverityWarning marks a condition `botrun run` would tolerate
	// but report (e.g. missing .env file).
	SeverityWarning Severity = "warning"

	// SeverityInfo marks purely informational output.
	SeverityInfo Severity = "info"
)

// Finding is a single result from the check command. A launch is considered
// viable when no finding has SeverityFatal.
type Finding struct {
	// Severity is the classification of this finding.
	Severity Severity `json:"severity"`

	// Subject names what was checked (e.g. "venv", "env-file", "entrypoint").
	Subject string `json:"subject"`

	// Message describes the outcome in human-readable form.
	Message string `json:"message"`

	// Code is the exit code `botrun run` would fail with for a fatal
	// finding. Zero for warnings and info.
	Code ExitCode `json:"code,omitempty"`
}

// HasFatal reports whether any finding in the slice is fatal.
func HasFatal(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// FirstFatal returns the first fatal finding, or nil if none exist.
// The check command uses it to pick the exit code it reports.
func FirstFatal(findings []Finding) *Finding {
	for i := range findings {
		if findings[i].Severity == SeverityFatal {
			return &findings[i]
		}
	}
	return nil
}

// EnvFileStatus describes the outcome of loading one dotenv file.
// The check and env commands surface these to the user; run only logs them.
type EnvFileStatus struct {
	// Path is the absolute path of the env file.
	Path string `json:"path"`

	// Present indicates whether the file existed. A missing env file is
	// a warning, not an error (the launcher proceeds with the inherited
	// environment).
	Present bool `json:"present"`

	// Keys are the variable names loaded from this file, sorted.
	Keys []string `json:"keys,omitempty"`
}
