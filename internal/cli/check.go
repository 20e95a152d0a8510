package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check configuration",
		Long: `Check loads the configuration the same way send does and validates it.

This validates:
  - YAML syntax and includes
  - Sender settings
  - Credentials of the selected providers`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config validation failed: %w", err)
			}

			source := root.configPath
			if source == "" {
				source = "environment"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration from %s is valid\n", source)
			return nil
		},
	}
}
