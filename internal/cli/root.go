package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/config"
)

// setup runs before every command. It loads the config file named by
// --config (or the default location) and attaches the logger to the
// command context, so helpers deep in a command can reach it through
// loggerFromContext.
//
// A missing default config is fine; a missing --config file is an error.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.Config = cfg
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}

	c.in = cmd.InOrStdin()
	c.out = cmd.OutOrStdout()
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}
