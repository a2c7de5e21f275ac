package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chazu/meshup/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	verbose bool
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "meshup",
		Short: "Script-driven solid modelling",
		Long: `meshup evaluates Lisp model scripts into named parts and exports them
as STL, AMF, GLTF, 3MF, SVG or DXF.

Examples:
  meshup eval bracket.zy                 Export every mesh part as STL
  meshup eval -f 3mf -o out bracket.zy   Write all parts into one 3MF file
  meshup check bracket.zy                Evaluate and validate only
  meshup config init                     Write the default config file`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/meshup/config.toml)")

	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "meshup", getVersionString())
	},
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the --config file or the user config.
func loadConfig() (*config.Config, error) {
	cfg, _, err := config.Load(cfgFile)
	return cfg, err
}

// newLogger builds the CLI logger. --verbose forces debug output.
func newLogger(w io.Writer, cfg *config.Config) *log.Logger {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "meshup",
		Level:  level,
	})
}
