// Package launch runs the bot entry point as a foreground child process.
//
// The child inherits the launcher's stdin/stdout/stderr, runs with the
// project directory as its working directory, and receives the environment
// assembled by the venv and envfile packages. SIGINT and SIGTERM received
// by the launcher are forwarded so the bot can shut down gracefully, and
// the child's exit code is propagated to the caller.
package launch
