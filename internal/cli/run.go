// Package cli — run.go implements the "botrun run" command.
//
// run performs the four launch steps in order: resolve the project
// directory, require and activate the virtual environment, load the env
// file(s) into the child environment, and start the entry point in the
// foreground. The order matters: a missing virtual environment aborts with
// exit 1 before any env file is touched.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Wannabeded/leech-bot/internal/envfile"
	"github.com/Wannabeded/leech-bot/internal/launch"
	"github.com/Wannabeded/leech-bot/internal/model"
	"github.com/Wannabeded/leech-bot/internal/project"
	"github.com/Wannabeded/leech-bot/internal/venv"
)

// runOptions holds the flag values for the run command.
type runOptions struct {
	venvDir    string
	entrypoint string
	python     string
	envFiles   []string
	noEnvFiles bool
}

// NewRunCommand creates the "run" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [dir] [-- bot-args...]",
		Short: "Launch the bot in the foreground",
		Long: `Launch the bot entry point as a foreground process.

The project directory defaults to the current directory. The virtual
environment (.venv) is required; without it the command exits 1 and
nothing else happens. A missing .env file is only a warning — the bot
is launched with the inherited environment.

Arguments after "--" are passed to the bot unchanged.

Examples:
  botrun run
  botrun run /srv/leech-bot
  botrun run --entrypoint bot.py -- --poll-interval 5`,

		Args: cobra.ArbitraryArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			dir, passArgs, err := splitRunArgs(cmd, args)
			if err != nil {
				return err
			}
			return runLaunch(cmd, dir, passArgs, opts)
		},
	}

	cmd.Flags().StringVar(&opts.venvDir, "venv", "", "Virtual environment directory (default \".venv\")")
	cmd.Flags().StringVar(&opts.entrypoint, "entrypoint", "", "Entry point script (default \"main.py\")")
	cmd.Flags().StringVar(&opts.python, "python", "", "Interpreter override (skips the venv interpreter)")
	cmd.Flags().StringArrayVar(&opts.envFiles, "env-file", nil, "Env file(s) to load, later ones override (default \".env\")")
	cmd.Flags().BoolVar(&opts.noEnvFiles, "no-env-file", false, "Do not load any env file")

	return cmd
}

// splitRunArgs separates the optional project directory from the
// passthrough bot arguments. Everything after "--" belongs to the bot;
// before it, at most one positional argument (the directory) is allowed.
func splitRunArgs(cmd *cobra.Command, args []string) (string, []string, error) {
	pre := args
	var post []string
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		pre = args[:at]
		post = args[at:]
	}

	switch len(pre) {
	case 0:
		return ".", post, nil
	case 1:
		return pre[0], post, nil
	default:
		return "", nil, fmt.Errorf("expected at most one project directory, got %d arguments (use \"--\" before bot arguments)", len(pre))
	}
}

// runLaunch is the main logic function for the run command.
func runLaunch(cmd *cobra.Command, dir string, passArgs []string, opts *runOptions) error {
	// Step 1: Resolve the project directory, manifest, and flag overrides
	// into a launch plan.
	res, err := project.Resolve(dir, project.Options{
		VenvDir:    opts.venvDir,
		Entrypoint: opts.entrypoint,
		Python:     opts.python,
		EnvFiles:   opts.envFiles,
		NoEnvFiles: opts.noEnvFiles,
		Args:       passArgs,
	})
	if err != nil {
		return err
	}
	spec := &res.Spec

	if res.ManifestPath != "" {
		slog.Debug("loaded manifest", "path", res.ManifestPath)
	}

	// Step 2: Require and activate the virtual environment. This must
	// fail before any env file is read: the historical contract is that
	// a missing venv exits 1 with nothing else attempted.
	info, err := venv.Detect(spec.ProjectDir, spec.VenvDir)
	if err != nil {
		return err
	}

	spec.Interpreter = res.Python
	if spec.Interpreter == "" {
		if !info.HasInterpreter() {
			return model.NewCLIError(model.ExitVenvNotFound,
				fmt.Sprintf("virtual environment at %s has no python interpreter", info.Root))
		}
		spec.Interpreter = info.Interpreter
	}

	env := info.Activate(os.Environ())
	slog.Debug("virtual environment activated",
		"root", info.Root, "interpreter", spec.Interpreter, "pythonVersion", info.Config.Version)

	// Step 3: Load env files into the child environment. Missing files
	// warn and continue; unparseable files abort.
	if len(spec.EnvFiles) > 0 {
		vars, statuses, err := envfile.Read(spec.EnvFiles...)
		if err != nil {
			return err
		}
		for _, st := range statuses {
			if !st.Present {
				slog.Warn("env file not found, continuing with inherited environment", "path", st.Path)
				continue
			}
			slog.Debug("env file loaded", "path", st.Path, "keys", len(st.Keys))
		}
		env = envfile.Apply(env, vars)
	}
	spec.Env = env

	// Required keys are a warning at launch time: the bot validates its
	// own configuration on startup and produces the authoritative error.
	for _, key := range envfile.MissingRequired(env, spec.RequiredEnv) {
		slog.Warn("required environment variable is not set", "key", key)
	}

	// Step 4: Launch. The entry point must exist — a typo'd script name
	// should fail here with a clear message, not as a Python traceback.
	if _, err := os.Stat(project.EntrypointPath(spec)); err != nil {
		if os.IsNotExist(err) {
			return model.NewCLIError(model.ExitEntrypointNotFound,
				fmt.Sprintf("entry point not found: %s", project.EntrypointPath(spec)))
		}
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("cannot access entry point %s", project.EntrypointPath(spec)), err)
	}

	slog.Info("starting bot",
		"interpreter", spec.Interpreter, "entrypoint", spec.Entrypoint, "dir", spec.ProjectDir)

	code, err := launch.Run(cmd.Context(), spec)
	if err != nil {
		return err
	}
	if code != 0 {
		// Propagate the bot's exit code. The bot has already reported
		// its own failure, so the error carries the code and no message;
		// Execute exits silently with it instead of printing a second
		// error line.
		slog.Debug("bot exited", "code", code)
		return model.NewCLIError(model.ExitCode(code), "")
	}

	slog.Debug("bot exited cleanly")
	return nil
}
