package venv

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Wannabeded/leech-bot/internal/model"
)

// ConfigFileName is the metadata file every PEP 405 virtual environment
// carries at its root. Its absence is a strong signal that a directory
// is not actually a virtual environment.
const ConfigFileName = "pyvenv.cfg"

// Info describes a detected virtual environment.
type Info struct {
	// Root is the absolute path to the virtual environment directory.
	Root string `json:"root"`

	// BinDir is the directory holding the interpreter and console scripts:
	// <root>/bin on Unix, <root>/Scripts on Windows.
	BinDir string `json:"binDir"`

	// Interpreter is the absolute path to the venv's python executable.
	// Empty if no interpreter was found (see HasInterpreter).
	Interpreter string `json:"interpreter"`

	// Config holds the parsed pyvenv.cfg contents. Zero value if the
	// file was missing or unreadable (see HasConfig).
	Config Config `json:"config"`

	// HasConfig indicates whether pyvenv.cfg was found and parsed.
	HasConfig bool `json:"hasConfig"`
}

// HasInterpreter reports whether a python executable was found in BinDir.
func (i *Info) HasInterpreter() bool {
	return i.Interpreter != ""
}

// Config holds the fields of pyvenv.cfg that the launcher cares about.
// The file is a flat list of "key = value" lines written by the venv
// module; unknown keys are preserved in Raw.
type Config struct {
	// Home is the directory of the base interpreter the venv was
	// created from.
	Home string `json:"home,omitempty"`

	// Version is the Python version recorded at creation time.
	// Older Pythons write "version", 3.11+ writes "version_info".
	Version string `json:"version,omitempty"`

	// IncludeSystemSitePackages mirrors the include-system-site-packages key.
	IncludeSystemSitePackages bool `json:"includeSystemSitePackages"`

	// Prompt is the custom prompt name, if one was set with --prompt.
	Prompt string `json:"prompt,omitempty"`

	// Raw holds every key/value pair found in the file.
	Raw map[string]string `json:"-"`
}

// Detect locates the virtual environment for a project and resolves its
// interpreter. venvDir may be absolute or relative to projectDir.
//
// A missing or non-directory venv path returns a CLIError with
// ExitVenvNotFound — exit code 1, the contract inherited from the shell
// launcher. A directory that exists but has no interpreter yields an Info
// with HasInterpreter() == false so callers can decide how hard to fail
// (run treats it as fatal, check reports it as a finding).
func Detect(projectDir, venvDir string) (*Info, error) {
	root := venvDir
	if !filepath.IsAbs(root) {
		root = filepath.Join(projectDir, venvDir)
	}

	fi, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.NewCLIError(model.ExitVenvNotFound,
				fmt.Sprintf("virtual environment not found at %s (create it with \"python -m venv %s\")", root, venvDir))
		}
		return nil, model.WrapCLIError(model.ExitVenvNotFound,
			fmt.Sprintf("cannot access virtual environment at %s", root), err)
	}
	if !fi.IsDir() {
		return nil, model.NewCLIError(model.ExitVenvNotFound,
			fmt.Sprintf("virtual environment path %s is not a directory", root))
	}

	info := &Info{
		Root:   root,
		BinDir: filepath.Join(root, binDirName()),
	}

	info.Interpreter = findInterpreter(info.BinDir)

	// pyvenv.cfg is optional for detection purposes: its absence does not
	// block a launch, but check surfaces it because a bin/ directory
	// without pyvenv.cfg is usually not a venv at all.
	cfgPath := filepath.Join(root, ConfigFileName)
	if cfg, err := parseConfigFile(cfgPath); err == nil {
		info.Config = cfg
		info.HasConfig = true
	}

	return info, nil
}

// binDirName returns the platform-specific scripts directory name.
// The venv module uses "Scripts" on Windows and "bin" everywhere else.
func binDirName() string {
	if runtime.GOOS == "windows" {
		return "Scripts"
	}
	return "bin"
}

// findInterpreter returns the first python executable present in binDir,
// or "" if none exists. python3 is checked after python because venvs
// normally create both, with "python" as the canonical name.
func findInterpreter(binDir string) string {
	names := []string{"python", "python3"}
	if runtime.GOOS == "windows" {
		names = []string{"python.exe", "python3.exe"}
	}

	for _, name := range names {
		candidate := filepath.Join(binDir, name)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate
		}
	}
	return ""
}

// parseConfigFile reads and parses a pyvenv.cfg file.
func parseConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()

	cfg := Config{Raw: make(map[string]string)}

	// pyvenv.cfg is a flat "key = value" file. The venv module always
	// writes " = " separators, but we tolerate any spacing and skip
	// blank and comment lines for robustness against hand edits.
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}
		cfg.Raw[key] = value

		switch key {
		case "home":
			cfg.Home = value
		case "version", "version_info":
			cfg.Version = value
		case "prompt":
			cfg.Prompt = value
		case "include-system-site-packages":
			cfg.IncludeSystemSitePackages = strings.EqualFold(value, "true")
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return cfg, nil
}

// Activate returns a copy of environ with the virtual environment applied:
// VIRTUAL_ENV set to the venv root, BinDir prepended to PATH, and
// PYTHONHOME removed. The input slice is not modified.
//
// This is a pure function over a KEY=VALUE slice so that activation
// semantics can be tested without touching the process environment.
func (i *Info) Activate(environ []string) []string {
	result := make([]string, 0, len(environ)+2)

	var sawPath, sawVirtualEnv bool
	for _, kv := range environ {
		key, _, ok := strings.Cut(kv, "=")
		if !ok {
			// Malformed entries are passed through untouched.
			result = append(result, kv)
			continue
		}

		switch {
		case envKeyEqual(key, "PYTHONHOME"):
			// Dropped: a set PYTHONHOME would make the venv interpreter
			// resolve its standard library against the wrong prefix.
			continue
		case envKeyEqual(key, "VIRTUAL_ENV"):
			sawVirtualEnv = true
			result = append(result, "VIRTUAL_ENV="+i.Root)
		case envKeyEqual(key, "PATH"):
			sawPath = true
			_, value, _ := strings.Cut(kv, "=")
			result = append(result, "PATH="+i.BinDir+string(os.PathListSeparator)+value)
		default:
			result = append(result, kv)
		}
	}

	if !sawVirtualEnv {
		result = append(result, "VIRTUAL_ENV="+i.Root)
	}
	if !sawPath {
		result = append(result, "PATH="+i.BinDir)
	}

	return result
}

// envKeyEqual compares environment variable names. Windows treats them
// case-insensitively; everywhere else they are case-sensitive.
func envKeyEqual(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
