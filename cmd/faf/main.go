// Package main provides the faf command line tool. It compiles
// human-authored .faf project descriptions into binary .fafb containers
// and loads them back whole, by section, or under a token budget.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Wolfe-Jam/faf-go/pkg/config"
	"github.com/Wolfe-Jam/faf-go/pkg/faf"
	"github.com/Wolfe-Jam/faf-go/pkg/logging"
)

const version = "0.1.0"

var (
	debugMode bool
	cliLogger *logging.Logger
)

func main() {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	if cliLogger != nil {
		_ = cliLogger.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faf",
		Short: "faf compiles project context for AI tools",
		Long: `faf turns a human-authored .faf project description into a compact
binary .fafb container that AI tools can load in one read, a few
sections at a time, or under a token budget.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debugMode {
				logging.SetDebug(true)
				logger, err := logging.NewLogger("cli")
				if err != nil {
					fmt.Fprintln(os.Stderr, "Warning: file logging unavailable:", err)
				}
				logger.Install()
				cliLogger = logger
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Write debug logs to the session log file")

	cmd.AddCommand(newCompileCmd())
	cmd.AddCommand(newLoadCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newTokensCmd())
	cmd.AddCommand(newEmbedCmd())
	cmd.AddCommand(newFindCmd())

	return cmd
}

// loadConfig reads the user configuration from the default location. A
// missing file or unresolvable home directory falls back to defaults.
func loadConfig() (*config.Config, error) {
	path, err := config.DefaultPath()
	if err != nil {
		return config.Default(), nil
	}
	return config.Load(path)
}

// discoverSource resolves the .faf file for a command argument. An
// explicit file path is used as-is; a directory, or no argument, starts
// an upward search from there.
func discoverSource(args []string) (string, error) {
	start := "."
	if len(args) > 0 {
		start = args[0]
	}
	info, err := os.Stat(start)
	if err == nil && info.Mode().IsRegular() {
		return start, nil
	}
	return faf.Discover(start)
}
