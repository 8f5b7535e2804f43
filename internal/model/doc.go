// Package model defines the domain types and value objects for the
// botrun CLI.
//
// This package contains pure data structures with no external dependencies.
// The central type is LaunchSpec, the fully resolved plan for launching the
// bot process, assembled from defaults, the optional project manifest, and
// command-line flags.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
