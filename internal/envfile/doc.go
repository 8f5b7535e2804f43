// Package envfile loads dotenv files into the child process environment.
//
// Parsing is delegated to github.com/joho/godotenv, which handles the
// KEY=VALUE format including quoting, comment lines, and blank lines.
// This package layers the launcher's semantics on top: missing files are
// warnings rather than errors, later files override earlier ones, and
// loaded values override the inherited environment (the shell original
// used `export`, which overrides).
package envfile
