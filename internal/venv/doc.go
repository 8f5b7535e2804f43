// Package venv detects Python virtual environments and computes the
// environment mutations that "activating" one implies.
//
// Activation here is not the shell-script dance from bin/activate — it is
// the three mutations that script actually performs on the environment:
// set VIRTUAL_ENV, prepend the venv bin directory to PATH, and unset
// PYTHONHOME. Applying those to the child process environment is exactly
// equivalent to sourcing the activate script before launching.
package venv
