// Package cli — check.go implements the "botrun check" command.
//
// check performs every validation that run would perform, plus a few
// stricter ones, without launching anything. It is meant for deploy
// pipelines: exit 0 means `botrun run` would reach the exec, and a
// fatal finding carries the exit code run would have failed with.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Wannabeded/leech-bot/internal/envfile"
	"github.com/Wannabeded/leech-bot/internal/model"
	"github.com/Wannabeded/leech-bot/internal/project"
	"github.com/Wannabeded/leech-bot/internal/venv"
)

// NewCheckCommand creates the "check" cobra command.
func NewCheckCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Validate the project without launching the bot",
		Long: `Check that the bot project is launchable: the virtual environment
exists and has an interpreter, the manifest (if any) is sane, env files
parse, required environment variables are set, and the entry point exists.

Unlike run, a missing required variable is fatal here — check exists to
catch exactly that before a deploy.

Examples:
  botrun check
  botrun check --json /srv/leech-bot`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runCheck(dir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.venvDir, "venv", "", "Virtual environment directory (default \".venv\")")
	cmd.Flags().StringVar(&opts.entrypoint, "entrypoint", "", "Entry point script (default \"main.py\")")
	cmd.Flags().StringVar(&opts.python, "python", "", "Interpreter override (skips the venv interpreter)")
	cmd.Flags().StringArrayVar(&opts.envFiles, "env-file", nil, "Env file(s) to load, later ones override (default \".env\")")
	cmd.Flags().BoolVar(&opts.noEnvFiles, "no-env-file", false, "Do not load any env file")

	return cmd
}

// runCheck is the main logic function for the check command.
func runCheck(dir string, opts *runOptions) error {
	res, err := project.Resolve(dir, project.Options{
		VenvDir:    opts.venvDir,
		Entrypoint: opts.entrypoint,
		Python:     opts.python,
		EnvFiles:   opts.envFiles,
		NoEnvFiles: opts.noEnvFiles,
	})
	if err != nil {
		return err
	}

	findings := collectFindings(res)
	printCheckResult(res.Spec.ProjectDir, findings)

	if fatal := model.FirstFatal(findings); fatal != nil {
		return model.NewCLIError(fatal.Code, fmt.Sprintf("check failed: %s", fatal.Message))
	}
	return nil
}

// collectFindings runs every check against a resolved project and returns
// the findings in check order: manifest, venv, env files, required keys,
// entry point. Checks continue past failures so a single run reports
// everything that is wrong.
func collectFindings(res *project.Resolved) []model.Finding {
	var findings []model.Finding
	spec := &res.Spec

	// Manifest checks. The manifest is optional; validation errors in an
	// existing one are advisory, matching run's behavior.
	if res.ManifestPath == "" {
		findings = append(findings, model.Finding{
			Severity: model.SeverityInfo, Subject: "manifest",
			Message: "no manifest found, using defaults",
		})
	} else {
		findings = append(findings, model.Finding{
			Severity: model.SeverityInfo, Subject: "manifest",
			Message: fmt.Sprintf("loaded %s", res.ManifestPath),
		})
		for _, verr := range project.ValidateManifest(res.Manifest) {
			findings = append(findings, model.Finding{
				Severity: model.SeverityWarning, Subject: "manifest",
				Message: fmt.Sprintf("%s: %s", verr.Field, verr.Message),
			})
		}
	}

	// Virtual environment checks. The child environment starts from the
	// launcher's and picks up activation only when the venv is usable,
	// mirroring what run would pass to the bot.
	env := os.Environ()
	info, err := venv.Detect(spec.ProjectDir, spec.VenvDir)
	if err != nil {
		findings = append(findings, fatalFromError("venv", err))
	} else {
		env = info.Activate(env)

		if info.HasInterpreter() {
			findings = append(findings, model.Finding{
				Severity: model.SeverityInfo, Subject: "venv",
				Message: fmt.Sprintf("interpreter %s (python %s)", info.Interpreter, info.Config.Version),
			})
		} else if res.Python == "" {
			findings = append(findings, model.Finding{
				Severity: model.SeverityFatal,
				Subject:  "venv",
				Message:  fmt.Sprintf("no python interpreter in %s", info.Root),
				Code:     model.ExitVenvNotFound,
			})
		}

		if !info.HasConfig {
			findings = append(findings, model.Finding{
				Severity: model.SeverityWarning, Subject: "venv",
				Message: fmt.Sprintf("%s missing — is %s really a virtual environment?", venv.ConfigFileName, info.Root),
			})
		}
	}

	if res.Python != "" {
		if _, err := os.Stat(res.Python); err != nil {
			findings = append(findings, model.Finding{
				Severity: model.SeverityFatal,
				Subject:  "python",
				Message:  fmt.Sprintf("interpreter override not found: %s", res.Python),
				Code:     model.ExitLaunchFailed,
			})
		} else {
			findings = append(findings, model.Finding{
				Severity: model.SeverityInfo, Subject: "python",
				Message: fmt.Sprintf("interpreter override %s", res.Python),
			})
		}
	}

	// Env file checks. Each file is read individually so one unparseable
	// file doesn't hide the status of the others.
	for _, path := range spec.EnvFiles {
		vars, statuses, err := envfile.Read(path)
		if err != nil {
			findings = append(findings, fatalFromError("env-file", err))
			continue
		}
		if !statuses[0].Present {
			findings = append(findings, model.Finding{
				Severity: model.SeverityWarning, Subject: "env-file",
				Message: fmt.Sprintf("%s not found (run would continue with the inherited environment)", path),
			})
			continue
		}
		findings = append(findings, model.Finding{
			Severity: model.SeverityInfo, Subject: "env-file",
			Message: fmt.Sprintf("%s: %d variable(s)", path, len(statuses[0].Keys)),
		})
		env = envfile.Apply(env, vars)
	}

	// Required keys are fatal here, unlike in run: catching a missing
	// BOT_TOKEN before a deploy is the point of this command.
	for _, key := range envfile.MissingRequired(env, spec.RequiredEnv) {
		findings = append(findings, model.Finding{
			Severity: model.SeverityFatal,
			Subject:  "required-env",
			Message:  fmt.Sprintf("%s is not set", key),
			Code:     model.ExitGeneralError,
		})
	}

	// Entry point check.
	entrypoint := project.EntrypointPath(spec)
	if _, err := os.Stat(entrypoint); err != nil {
		findings = append(findings, model.Finding{
			Severity: model.SeverityFatal,
			Subject:  "entrypoint",
			Message:  fmt.Sprintf("entry point not found: %s", entrypoint),
			Code:     model.ExitEntrypointNotFound,
		})
	} else {
		findings = append(findings, model.Finding{
			Severity: model.SeverityInfo, Subject: "entrypoint",
			Message: entrypoint,
		})
	}

	return findings
}

// fatalFromError converts an error into a fatal finding, preserving the
// exit code when the error is a CLIError.
func fatalFromError(subject string, err error) model.Finding {
	code := model.ExitGeneralError
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		code = cliErr.Code
	}
	return model.Finding{
		Severity: model.SeverityFatal,
		Subject:  subject,
		Message:  err.Error(),
		Code:     code,
	}
}

// printCheckResult outputs the findings in text or JSON format.
func printCheckResult(projectDir string, findings []model.Finding) {
	if IsJSONOutput() {
		result := struct {
			ProjectDir string          `json:"projectDir"`
			OK         bool            `json:"ok"`
			Findings   []model.Finding `json:"findings"`
		}{
			ProjectDir: projectDir,
			OK:         !model.HasFatal(findings),
			Findings:   findings,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Checking %s\n", projectDir)
	for _, f := range findings {
		fmt.Printf("  %-5s %-12s %s\n", severityTag(f.Severity), f.Subject, f.Message)
	}
	if model.HasFatal(findings) {
		fmt.Println("\nnot launchable")
	} else {
		fmt.Println("\nlaunchable")
	}
}

// severityTag maps a severity to its fixed-width text column.
func severityTag(s model.Severity) string {
	switch s {
	case model.SeverityFatal:
		return "fail"
	case model.SeverityWarning:
		return "warn"
	default:
		return "ok"
	}
}
