// Package cli — env.go implements the "botrun env" command.
//
// env prints the environment the bot would receive from run: the inherited
// environment with the virtual environment activation applied and the env
// file contents merged on top. Values of secret-looking keys are masked
// unless --show-secrets is given, so the output is safe to paste into a
// bug report.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Wannabeded/leech-bot/internal/envfile"
	"github.com/Wannabeded/leech-bot/internal/model"
	"github.com/Wannabeded/leech-bot/internal/project"
	"github.com/Wannabeded/leech-bot/internal/venv"
)

// envOptions holds the flag values for the env command.
type envOptions struct {
	runOptions
	output      string
	showSecrets bool
}

// NewEnvCommand creates the "env" cobra command.
func NewEnvCommand() *cobra.Command {
	opts := &envOptions{}

	cmd := &cobra.Command{
		Use:   "env [dir]",
		Short: "Print the environment the bot would be launched with",
		Long: `Print the fully resolved child environment: inherited variables,
virtual environment activation (VIRTUAL_ENV, PATH, no PYTHONHOME), and
the env file contents merged on top.

Secret-looking values (keys containing TOKEN, SECRET, PASSWORD, ...) are
masked unless --show-secrets is given.

Examples:
  botrun env
  botrun env --output json /srv/leech-bot
  botrun env --show-secrets --output yaml`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runEnv(dir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.venvDir, "venv", "", "Virtual environment directory (default \".venv\")")
	cmd.Flags().StringVar(&opts.python, "python", "", "Interpreter override (skips the venv interpreter)")
	cmd.Flags().StringArrayVar(&opts.envFiles, "env-file", nil, "Env file(s) to load, later ones override (default \".env\")")
	cmd.Flags().BoolVar(&opts.noEnvFiles, "no-env-file", false, "Do not load any env file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "dotenv", "Output format: dotenv, json, or yaml")
	cmd.Flags().BoolVar(&opts.showSecrets, "show-secrets", false, "Print secret values instead of masking them")

	return cmd
}

// runEnv is the main logic function for the env command.
func runEnv(dir string, opts *envOptions) error {
	if opts.output != "dotenv" && opts.output != "json" && opts.output != "yaml" {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid output format %q (valid: dotenv, json, yaml)", opts.output))
	}

	res, err := project.Resolve(dir, project.Options{
		VenvDir:    opts.venvDir,
		Python:     opts.python,
		EnvFiles:   opts.envFiles,
		NoEnvFiles: opts.noEnvFiles,
	})
	if err != nil {
		return err
	}
	spec := &res.Spec

	// Same assembly as run: venv activation first, then env files on top.
	info, err := venv.Detect(spec.ProjectDir, spec.VenvDir)
	if err != nil {
		return err
	}
	env := info.Activate(os.Environ())

	if len(spec.EnvFiles) > 0 {
		vars, statuses, err := envfile.Read(spec.EnvFiles...)
		if err != nil {
			return err
		}
		for _, st := range statuses {
			if !st.Present {
				slog.Warn("env file not found", "path", st.Path)
			}
		}
		env = envfile.Apply(env, vars)
	}

	resolved := environToMap(env)
	if !opts.showSecrets {
		resolved = maskSecrets(resolved)
	}

	switch opts.output {
	case "json":
		data, err := json.MarshalIndent(resolved, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode environment as JSON: %w", err)
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(resolved)
		if err != nil {
			return fmt.Errorf("failed to encode environment as YAML: %w", err)
		}
		fmt.Print(string(data))
	default:
		fmt.Print(formatDotenv(resolved))
	}

	return nil
}

// environToMap converts a KEY=VALUE slice to a map. Malformed entries
// (no "=") are dropped; duplicate keys keep the last value, matching how
// child processes resolve their environment.
func environToMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if key, value, ok := strings.Cut(kv, "="); ok && key != "" {
			m[key] = value
		}
	}
	return m
}

// secretKeyRe matches variable names that conventionally hold credentials.
var secretKeyRe = regexp.MustCompile(`(?i)(TOKEN|SECRET|PASSW(OR)?D|API_?KEY|PRIVATE|CREDENTIAL)`)

// isSecretKey reports whether a variable name looks like a credential.
func isSecretKey(key string) bool {
	return secretKeyRe.MatchString(key)
}

// maskValue is the placeholder printed instead of secret values.
const maskValue = "********"

// maskSecrets returns a copy of vars with secret-looking values replaced
// by the mask. Empty values stay empty so "set but blank" remains visible.
func maskSecrets(vars map[string]string) map[string]string {
	masked := make(map[string]string, len(vars))
	for key, value := range vars {
		if value != "" && isSecretKey(key) {
			masked[key] = maskValue
		} else {
			masked[key] = value
		}
	}
	return masked
}

// formatDotenv renders a variable map as sorted KEY=VALUE lines.
func formatDotenv(vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(vars[key])
		b.WriteByte('\n')
	}
	return b.String()
}
