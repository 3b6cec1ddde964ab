package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jayvdb/pep257-rs/internal/config"
)

const version = "0.1.0"

// errViolations makes the process exit with status 1 without printing.
var errViolations = errors.New("violations found")

var (
	rootCmd = &cobra.Command{
		Use:           "pep257",
		Short:         "Check Rust documentation comments against PEP 257 conventions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runRoot,
	}

	configPath   string
	filePath     string
	warnings     bool
	format       string
	noFail       bool
	verbosity    int
	cachePath    string
	jobs         int
	ignoreRules  []string
	selectRules  []string
	colorMode    string
	fileModules  bool
	excludeGlobs []string
	sinceRef     string
	changedLines bool
	recursive    bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errViolations) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultPath, "Path to the YAML config file")
	pf.BoolVarP(&warnings, "warnings", "w", false, "Show warnings in addition to errors")
	pf.StringVar(&format, "format", "text", "Output format: text or json")
	pf.BoolVar(&noFail, "no-fail", false, "Exit with code 0 even if violations are found")
	pf.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	pf.StringVar(&cachePath, "cache", "", "Path to a SQLite results cache")
	pf.IntVarP(&jobs, "jobs", "j", 0, "Files checked in parallel (0 = number of CPUs)")
	pf.StringSliceVar(&ignoreRules, "ignore", nil, "Rule ids or prefixes to skip")
	pf.StringSliceVar(&selectRules, "select", nil, "Rule ids or prefixes to run exclusively")
	pf.StringVar(&colorMode, "color", "auto", "Colorize text output: auto, always or never")
	pf.BoolVar(&fileModules, "file-modules", false, "Require an inner docstring in every module file")
	pf.StringSliceVar(&excludeGlobs, "exclude", nil, "Glob patterns of paths to skip")
	pf.StringVar(&sinceRef, "since", "", "Only check files changed relative to this git revision")
	pf.BoolVar(&changedLines, "changed-lines", false, "With --since, only report items touching changed lines")

	rootCmd.Flags().StringVarP(&filePath, "file", "f", "", "Input file to check")

	checkDirCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Check files recursively")
	watchCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch subdirectories too")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(checkDirCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRoot(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	switch {
	case filePath != "":
		return a.check(cmd.Context(), filePath, false)
	case sinceRef != "":
		return a.check(cmd.Context(), ".", true)
	}
	return errors.New("no file or command specified. Use --help for usage information")
}

var checkCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Check a single file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return a.check(cmd.Context(), args[0], false)
	},
}

var checkDirCmd = &cobra.Command{
	Use:   "check-dir DIR",
	Short: "Check all Rust files in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return a.check(cmd.Context(), args[0], a.cfg.Recursive)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Re-check Rust files in a directory whenever they change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return a.watch(cmd.Context(), args[0], a.cfg.Recursive)
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rule catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return a.listRules(cmd.OutOrStdout())
	},
}
