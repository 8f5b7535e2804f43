// Package project resolves a bot project directory into a launch plan.
//
// A project is any directory holding the bot source, a virtual environment,
// and optionally a .env file — the same layout the shell launcher assumed.
// An optional botrun.jsonc manifest can pin the entry point, interpreter,
// env files, and required environment keys; command-line flags override the
// manifest, and built-in defaults (.venv, .env, main.py) fill the rest.
//
// The manifest format is JSONC (JSON with Comments), parsed with
// github.com/tidwall/jsonc before handing off to encoding/json.
package project
