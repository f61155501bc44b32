// Package validate implements the validate command.
package validate

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/masterlink/internal/appcontext"
	"github.com/agentstation/masterlink/internal/cmd/output"
	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/registry"
)

// NewCommand creates the validate command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:     "validate",
		GroupID: "management",
		Short:   "Validate a source registry file",
		Long: `Validate loads a source registry and checks that every source maps
every tracked field, has a primary key, and appears exactly once in the
priority order. Sources are printed in priority order.`,
		Example: `  masterlink validate --registry registry.yaml
  masterlink validate -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = app.RegistryPath()
			}
			if path == "" {
				return errors.NewConfigError("registry", "no registry file given; use --registry or MASTERLINK_REGISTRY", nil)
			}

			reg, err := registry.Load(path)
			if err != nil {
				return err
			}

			app.Logger().Info().
				Str("registry", path).
				Strs("priority", reg.Priority).
				Msg("registry is valid")

			format := output.DetectFormat(app.OutputFormat())
			formatter := output.NewFormatter(format)
			if output.IsTable(format) {
				return formatter.Format(cmd.OutOrStdout(), output.RegistryData(reg))
			}
			return formatter.Format(cmd.OutOrStdout(), reg)
		},
	}

	cmd.Flags().StringVar(&path, "registry", "", "source registry file (overrides config)")

	return cmd
}
