package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jvs-project/fcp/pkg/color"
	"github.com/jvs-project/fcp/pkg/config"
	"github.com/jvs-project/fcp/pkg/logging"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	jsonOutput bool
	logLevel   string
	configPath string
	noColor    bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "fcp",
		Short: "fcp - controllable file copy",
		Long: `fcp copies a single file in chunks with live progress, pause/resume
and cancellation. A canceled copy removes its partial output; an existing
destination is never clobbered without a decision.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/fcp/config.yaml)")

	root.AddCommand(newCopyCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newCompletionCmd())
	return root
}

// setup loads configuration and installs the global logger.
func (o *globalOptions) setup(cmd *cobra.Command) error {
	color.Init(o.noColor, isTerminal(cmd.OutOrStdout()))

	if o.configPath == "" {
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		o.configPath = path
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.cfg = cfg

	levelName := cfg.Logging.Level
	if o.logLevel != "" {
		levelName = o.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(level)
	logger.SetFormat(logging.Format(cfg.Logging.Format))
	logger.SetOutput(cmd.ErrOrStderr())
	logging.SetGlobal(logger)
	return nil
}

// Execute runs the root command and exits with its status.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	color.Init(false, isTerminal(stderr))

	err := root.Execute()
	if err == nil {
		return 0
	}

	var exit *exitError
	if errors.As(err, &exit) {
		if exit.err != nil {
			fmtErr(stderr, "%v", exit.err)
		}
		return exit.code
	}
	fmtErr(stderr, "%v", err)
	return 1
}

// outputJSON prints v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
