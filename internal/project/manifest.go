package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/Wannabeded/leech-bot/internal/model"
)

// Built-in defaults matching the layout the shell launcher assumed.
const (
	// DefaultVenvDir is the virtual environment directory name.
	DefaultVenvDir = ".venv"

	// DefaultEnvFile is the dotenv file name.
	DefaultEnvFile = ".env"

	// DefaultEntrypoint is the bot entry point script.
	DefaultEntrypoint = "main.py"
)

// Manifest is the parsed botrun.jsonc file. Every field is optional;
// zero values fall back to the defaults above. Fields not listed here
// are silently ignored during parsing.
type Manifest struct {
	// Name is a display name for the project, used only in output.
	Name string `json:"name,omitempty"`

	// Entrypoint is the script passed to the interpreter, relative to
	// the project directory.
	Entrypoint string `json:"entrypoint,omitempty"`

	// Args are extra arguments appended after the entry point.
	Args []string `json:"args,omitempty"`

	// Python overrides the interpreter path. When set, the venv
	// interpreter is not used (the venv is still activated).
	Python string `json:"python,omitempty"`

	// Venv is the virtual environment directory, relative to the
	// project directory unless absolute.
	Venv string `json:"venv,omitempty"`

	// EnvFiles lists dotenv files to load in order, relative to the
	// project directory unless absolute. Later files override earlier ones.
	EnvFiles []string `json:"envFiles,omitempty"`

	// RequiredEnv lists environment variable names the bot needs
	// (e.g. BOT_TOKEN). check fails when one is missing; run warns.
	RequiredEnv []string `json:"requiredEnv,omitempty"`
}

// FindManifest searches for a manifest in the standard locations within
// a project directory, in priority order:
//
//  1. <projectDir>/botrun.jsonc
//  2. <projectDir>/.botrun.jsonc
//
// Returns the path of the first file found, or "" if the project has no
// manifest. A missing manifest is not an error — defaults apply.
func FindManifest(projectDir string) string {
	candidates := []string{
		filepath.Join(projectDir, "botrun.jsonc"),
		filepath.Join(projectDir, ".botrun.jsonc"),
	}

	for _, path := range candidates {
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path
		}
	}
	return ""
}

// LoadManifest reads a manifest file, strips JSONC comments, and parses
// it. Returns a CLIError with ExitManifestInvalid on parse failure.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitManifestInvalid,
			fmt.Sprintf("failed to read manifest %s", path), err)
	}

	// Strip // and /* */ comments and trailing commas before parsing.
	// The manifest is meant to be hand-edited, so comments are expected.
	cleanJSON := jsonc.ToJSON(data)

	var m Manifest
	if err := json.Unmarshal(cleanJSON, &m); err != nil {
		return nil, model.WrapCLIError(model.ExitManifestInvalid,
			fmt.Sprintf("failed to parse manifest %s", path), err)
	}

	return &m, nil
}

// ValidationError represents a specific validation failure in a manifest.
type ValidationError struct {
	// Field is the JSON field that failed validation (e.g. "venv").
	Field string

	// Message describes what's wrong with the field value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("manifest validation error: %s: %s", e.Field, e.Message)
}

// ValidateManifest performs sanity checks on a parsed manifest and returns
// a list of validation errors (empty list = valid). These are advisory:
// run proceeds regardless, check reports them as warnings.
func ValidateManifest(m *Manifest) []ValidationError {
	var errs []ValidationError

	// The entry point must stay inside the project: an absolute path
	// would silently decouple the launch from the directory the rest of
	// the manifest describes.
	if m.Entrypoint != "" && filepath.IsAbs(m.Entrypoint) {
		errs = append(errs, ValidationError{
			Field:   "entrypoint",
			Message: "entry point should be relative to the project directory",
		})
	}

	seen := make(map[string]bool, len(m.EnvFiles))
	for _, f := range m.EnvFiles {
		if f == "" {
			errs = append(errs, ValidationError{
				Field:   "envFiles",
				Message: "env file entries must not be empty",
			})
			continue
		}
		if seen[f] {
			errs = append(errs, ValidationError{
				Field:   "envFiles",
				Message: fmt.Sprintf("duplicate env file %q", f),
			})
		}
		seen[f] = true
	}

	for _, key := range m.RequiredEnv {
		if key == "" {
			errs = append(errs, ValidationError{
				Field:   "requiredEnv",
				Message: "required env entries must not be empty",
			})
		}
	}

	return errs
}

// Options carries the command-line flag overrides for Resolve. Zero
// values mean "not set" and defer to the manifest or the defaults.
type Options struct {
	// VenvDir overrides the virtual environment directory.
	VenvDir string

	// Entrypoint overrides the entry point script.
	Entrypoint string

	// Python overrides the interpreter path.
	Python string

	// EnvFiles overrides the env file list entirely when non-empty.
	EnvFiles []string

	// NoEnvFiles disables env file loading altogether.
	NoEnvFiles bool

	// Args are extra arguments for the entry point. Appended after
	// any manifest args rather than replacing them.
	Args []string
}

// Resolved is the outcome of Resolve: the launch spec skeleton plus the
// manifest it came from (nil when the project has none).
type Resolved struct {
	// Spec has ProjectDir, VenvDir, Entrypoint, Args, EnvFiles and
	// RequiredEnv populated. Interpreter and Env are filled in later,
	// after venv detection and env file loading.
	Spec model.LaunchSpec

	// Manifest is the parsed manifest, or nil if none was found.
	Manifest *Manifest

	// ManifestPath is the path the manifest was loaded from, or "".
	ManifestPath string

	// Python is the interpreter override from flags or manifest, or "".
	Python string
}

// Resolve merges defaults, the optional manifest, and flag overrides for
// the given project directory. dir may be relative to the caller's cwd;
// everything inside the returned spec is absolute (except Entrypoint).
func Resolve(dir string, opts Options) (*Resolved, error) {
	projectDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("cannot resolve project directory %q", dir), err)
	}

	fi, err := os.Stat(projectDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("project directory not found: %s", projectDir))
		}
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("cannot access project directory %s", projectDir), err)
	}
	if !fi.IsDir() {
		return nil, model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("project path is not a directory: %s", projectDir))
	}

	res := &Resolved{
		Spec: model.LaunchSpec{
			ProjectDir: projectDir,
			VenvDir:    DefaultVenvDir,
			Entrypoint: DefaultEntrypoint,
		},
	}
	envFiles := []string{DefaultEnvFile}

	// Layer 2: manifest.
	if path := FindManifest(projectDir); path != "" {
		m, err := LoadManifest(path)
		if err != nil {
			return nil, err
		}
		res.Manifest = m
		res.ManifestPath = path

		if m.Venv != "" {
			res.Spec.VenvDir = m.Venv
		}
		if m.Entrypoint != "" {
			res.Spec.Entrypoint = m.Entrypoint
		}
		if len(m.EnvFiles) > 0 {
			envFiles = m.EnvFiles
		}
		res.Spec.Args = append(res.Spec.Args, m.Args...)
		res.Spec.RequiredEnv = append(res.Spec.RequiredEnv, m.RequiredEnv...)
		res.Python = m.Python
	}

	// Layer 3: flags.
	if opts.VenvDir != "" {
		res.Spec.VenvDir = opts.VenvDir
	}
	if opts.Entrypoint != "" {
		res.Spec.Entrypoint = opts.Entrypoint
	}
	if opts.Python != "" {
		res.Python = opts.Python
	}
	if len(opts.EnvFiles) > 0 {
		envFiles = opts.EnvFiles
	}
	if opts.NoEnvFiles {
		envFiles = nil
	}
	res.Spec.Args = append(res.Spec.Args, opts.Args...)

	// Absolutize the venv dir and env file paths against the project dir
	// so later stages never depend on the launcher's own cwd.
	if !filepath.IsAbs(res.Spec.VenvDir) {
		res.Spec.VenvDir = filepath.Join(projectDir, res.Spec.VenvDir)
	}
	for _, f := range envFiles {
		if !filepath.IsAbs(f) {
			f = filepath.Join(projectDir, f)
		}
		res.Spec.EnvFiles = append(res.Spec.EnvFiles, f)
	}

	return res, nil
}

// EntrypointPath returns the absolute path of the entry point script for
// existence checks. The spec keeps Entrypoint relative for the child's argv.
func EntrypointPath(spec *model.LaunchSpec) string {
	if filepath.IsAbs(spec.Entrypoint) {
		return spec.Entrypoint
	}
	return filepath.Join(spec.ProjectDir, spec.Entrypoint)
}
