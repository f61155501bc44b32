// Package match implements the match command.
package match

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/agentstation/masterlink"
	"github.com/agentstation/masterlink/internal/appcontext"
	"github.com/agentstation/masterlink/internal/batchfile"
	"github.com/agentstation/masterlink/internal/cmd/output"
	"github.com/agentstation/masterlink/pkg/constants"
	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/linkage"
	"github.com/agentstation/masterlink/pkg/logging"
	"github.com/agentstation/masterlink/pkg/provenance"
)

// Flags holds the match command flags.
type Flags struct {
	Batch      string
	Registry   string
	Driver     string
	DSN        string
	LockFile   string
	Provenance string
}

// NewCommand creates the match command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "match",
		GroupID: "core",
		Short:   "Link a batch of new source records to master identities",
		Long: `Match reads a batch of new source records, links them against the
master identity table and prints the records that are new identities.

The batch is a JSON or YAML document keyed by source name:

  new_rows:
    salesforcecontacts:
      - contact_id: c9
        email: jane@example.com
        first_name: Jane
        last_name: Doe
  updated_rows: {}

Use "-" to read the batch from stdin.`,
		Example: `  masterlink match --batch batch.yaml
  masterlink match --batch batch.json --dsn ./identity.db -o json
  cat batch.json | masterlink match --batch - --driver postgres --dsn "$DATABASE_URL"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Batch, "batch", "b", "", "batch file (JSON or YAML, - for stdin)")
	cmd.Flags().StringVar(&flags.Registry, "registry", "", "source registry file (overrides config)")
	cmd.Flags().StringVar(&flags.Driver, "driver", "", "store driver: sqlite, postgres, mysql")
	cmd.Flags().StringVar(&flags.DSN, "dsn", "", "store data source name (overrides config)")
	cmd.Flags().StringVar(&flags.LockFile, "lock-file", "", "run lock file (overrides config)")
	cmd.Flags().StringVar(&flags.Provenance, "provenance", "", "write field provenance to this file")
	_ = cmd.MarkFlagRequired("batch")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags) error {
	logger := app.Logger()
	ctx := logging.WithFields(logging.WithLogger(cmd.Context(), logger), map[string]any{
		"command": cmd.Name(),
		"batch":   flags.Batch,
	})
	ctx, cancel := context.WithTimeout(ctx, constants.RunTimeout)
	defer cancel()

	batch, err := batchfile.Load(flags.Batch)
	if err != nil {
		return err
	}

	client, release, err := newClient(app, flags)
	if err != nil {
		return err
	}
	defer release()

	result, err := client.Match(ctx, batch)
	if err != nil {
		return err
	}

	if flags.Provenance != "" {
		file := &provenance.File{RunID: result.RunID, Provenance: result.Provenance}
		if err := provenance.Save(flags.Provenance, file); err != nil {
			return err
		}
		logger.Debug().Str("path", flags.Provenance).Msg("wrote provenance")
	}

	return render(cmd, app.OutputFormat(), result)
}

// newClient returns the shared client, or a dedicated one when flags
// override the configured registry, store or lock.
func newClient(app appcontext.Interface, flags *Flags) (masterlink.Client, func(), error) {
	var opts []masterlink.Option
	if flags.Registry != "" {
		opts = append(opts, masterlink.WithRegistryFile(flags.Registry))
	}
	if flags.Driver != "" || flags.DSN != "" {
		driver, dsn, err := storeTarget(app, flags)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, masterlink.WithStore(driver, dsn))
	}
	if flags.LockFile != "" {
		opts = append(opts, masterlink.WithLockFile(flags.LockFile))
	}
	if flags.Provenance != "" {
		opts = append(opts, masterlink.WithLinkerOptions(linkage.WithProvenance(true)))
	}

	if len(opts) == 0 {
		c, err := app.Client()
		return c, func() {}, err
	}

	c, err := app.ClientWithOptions(opts...)
	if err != nil {
		return nil, nil, err
	}
	return c, func() {
		if err := c.Close(); err != nil {
			app.Logger().Warn().Err(err).Msg("failed to close client")
		}
	}, nil
}

// storeTarget overlays the --driver and --dsn flags on the configured store.
func storeTarget(app appcontext.Interface, flags *Flags) (string, string, error) {
	driver, dsn := app.Store()
	if flags.Driver != "" {
		driver = flags.Driver
	}
	if flags.DSN != "" {
		dsn = flags.DSN
	}
	if dsn == "" {
		return "", "", errors.NewConfigError("store", "--driver needs a DSN from --dsn or store.dsn", nil)
	}
	return driver, dsn, nil
}

func render(cmd *cobra.Command, format string, result *linkage.Result) error {
	f := output.DetectFormat(format)
	w := cmd.OutOrStdout()
	formatter := output.NewFormatter(f)

	if !output.IsTable(f) {
		return formatter.Format(w, result.Output())
	}

	if err := formatter.Format(w, output.MatchesData(result)); err != nil {
		return err
	}
	if f == output.FormatWide {
		return formatter.Format(w, output.StatsData(result))
	}
	return nil
}
