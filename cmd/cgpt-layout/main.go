package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/osbuild/cgpt-layout/internal/common"
	"github.com/osbuild/cgpt-layout/internal/disk"
	"github.com/osbuild/cgpt-layout/internal/gpt"
)

const journalIdentifier = "cgpt-layout"

type options struct {
	adjustments string
	configPath  string
	backend     string
	verbose     bool

	config *ToolConfigFile
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line in args and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "cgpt-layout",
		Short:         "Compute and write ChromeOS style GPT partition layouts",
		Version:       common.VersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.adjustments, "adjust_part", "", "space separated partition size adjustments, e.g. \"ROOT-A:+1G STATE:=4G\"")
	flags.StringVar(&opts.configPath, "config", DefaultConfigPath, "tool configuration file")
	flags.StringVar(&opts.backend, "backend", "", "GPT backend to use: native or cgpt")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug messages")

	rootCmd.AddCommand(
		newWriteGPTCmd(opts),
		newWriteMbrCmd(opts),
		newReadBlockSizeCmd(),
		newReadFSBlockSizeCmd(),
		newReadPartSizeCmd(opts),
		newReadFSSizeCmd(opts),
		newReadLabelCmd(opts),
		newReadNumCmd(opts),
		newReadUUIDCmd(opts),
		newDebugCmd(opts),
		newParseOnlyCmd(opts),
		newShowCmd(),
		newDumpConfigCmd(opts),
	)
	return rootCmd
}

// setup loads the tool configuration and configures logging. A missing
// configuration file is only an error when it was asked for explicitly.
func (opts *options) setup(cmd *cobra.Command) error {
	config, err := LoadConfig(opts.configPath)
	if err != nil {
		if cmd.Flags().Changed("config") || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cannot load configuration %s: %w", opts.configPath, err)
		}
		config = GetDefaultConfig()
	}
	loadConfigFromEnv(config)

	if opts.backend != "" {
		config.GPT.Backend = opts.backend
	}
	opts.config = config

	if err := setupLogging(&config.Log, opts.verbose, cmd.ErrOrStderr()); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"command": cmd.Name(),
		"backend": config.GPT.Backend,
	}).Debug("starting")
	return nil
}

func setupLogging(config *LogConfig, verbose bool, out io.Writer) error {
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if verbose {
		level = logrus.DebugLevel
	}

	var formatter logrus.Formatter
	switch config.Format {
	case "", "text":
		formatter = &logrus.TextFormatter{}
	case "json":
		formatter = &logrus.JSONFormatter{}
	default:
		return fmt.Errorf("invalid log format %q, must be text or json", config.Format)
	}

	hooks := make(logrus.LevelHooks)
	hooks.Add(&common.BuildHook{})
	if config.Journal {
		if common.JournalEnabled() {
			hooks.Add(&common.JournalHook{Identifier: journalIdentifier})
		} else {
			defer logrus.Warn("systemd journal is not available, not logging to it")
		}
	}

	logrus.SetLevel(level)
	logrus.SetFormatter(formatter)
	logrus.SetOutput(out)
	logrus.StandardLogger().ReplaceHooks(hooks)
	return nil
}

// loadTable resolves imageType from the partition config and applies the
// --adjust_part adjustments.
func (opts *options) loadTable(imageType, configFile string) (*disk.Table, error) {
	config, err := disk.Load(configFile)
	if err != nil {
		return nil, err
	}
	table, err := config.Resolve(imageType)
	if err != nil {
		return nil, err
	}
	if err := table.ApplyAdjustments(opts.adjustments); err != nil {
		return nil, err
	}
	return table, nil
}

func (opts *options) writer() (gpt.Writer, error) {
	return gpt.New(opts.config.GPT.Backend, opts.config.GPT.CgptBinary)
}
