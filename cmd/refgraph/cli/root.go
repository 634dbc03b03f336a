// Package cli implements the refgraph command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hanpama/refgraph/internal/config"
	"github.com/hanpama/refgraph/internal/logging"
)

// app carries the state shared by the commands of one invocation.
type app struct {
	cfgFile string
	verbose bool
	v       *viper.Viper
	cfg     *config.Config
}

// NewRootCommand builds the refgraph command tree.
//
// Returns:
//   - *cobra.Command: the root command with exec and schema attached
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "refgraph",
		Short: "Execute GraphQL requests against the refgraph catalog",
		Long: `refgraph executes GraphQL request documents against an in-memory
catalog of products, reviews and people. References between entities are
stored as bare identifiers and resolved while the response is built.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./refgraph.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(a.execCommand(), a.schemaCommand())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// setup reads the configuration and configures logging before any command
// runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.Init(a.v, a.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	return logging.Setup(cmd.ErrOrStderr(), level, cfg.Log.Pretty)
}
