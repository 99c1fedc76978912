package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapdrill/snapdrill/pkg/inventory"
	"github.com/snapdrill/snapdrill/pkg/workflows"
)

func newValidateCommand() *cobra.Command {
	var (
		database string
		host     string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an Oracle database backup",
		Long: `Restore the newest snapshot of an Oracle database onto a target host
and let the platform verify the backup is recoverable. The restored copy
is discarded by the platform after validation.

Without --database or --host the command lists the candidates and asks.`,
		Example: `  # Fully scripted, for cron
  snapdrill validate --database orcl-prod --host rac-validate-01

  # Interactive selection
  snapdrill validate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			dbs, err := inventory.ListOracleDatabases(ctx, a.client)
			if err != nil {
				return fmt.Errorf("failed to list databases: %w", err)
			}
			if len(dbs) == 0 {
				return fmt.Errorf("no protected Oracle databases found")
			}

			db, err := pickDatabase(cmd, dbs, database)
			if err != nil {
				return err
			}

			hosts, err := inventory.ListOracleHosts(ctx, a.client, db.Cluster.ID)
			if err != nil {
				return fmt.Errorf("failed to list hosts: %w", err)
			}
			if len(hosts) == 0 {
				return fmt.Errorf("no Oracle hosts available on cluster %s", db.Cluster.Name)
			}

			target, err := pickHost(cmd, hosts, host)
			if err != nil {
				return err
			}

			snap, err := inventory.NewestSnapshot(ctx, a.client, db.ID)
			if err != nil {
				return fmt.Errorf("no usable snapshot: %w", err)
			}

			zl := a.tel.Logger.Z()
			zl.Info().
				Str("database", db.Name).
				Str("host", target.Name).
				Str("snapshot_id", snap.ID).
				Time("snapshot_date", snap.Date).
				Msg("validating backup")

			return a.runWorkflow(ctx, workflows.NewValidateBackup(a.client, db, snap, target.ID))
		},
	}

	cmd.Flags().StringVarP(&database, "database", "d", "", "database id or name")
	cmd.Flags().StringVarP(&host, "host", "H", "", "target host or RAC id or name")

	return cmd
}

func pickDatabase(cmd *cobra.Command, dbs []inventory.OracleDatabase, flag string) (inventory.OracleDatabase, error) {
	if flag != "" {
		for _, db := range dbs {
			if db.ID == flag || db.Name == flag {
				return db, nil
			}
		}
		return inventory.OracleDatabase{}, fmt.Errorf("database %q not found", flag)
	}

	options := make([]string, len(dbs))
	for i, db := range dbs {
		options[i] = fmt.Sprintf("%s (cluster %s, SLA %s)", db.Name, db.Cluster.Name, db.SLADomain.Name)
	}
	idx, err := promptChoice(cmd.InOrStdin(), cmd.OutOrStdout(), "Select a database to validate:", options)
	if err != nil {
		return inventory.OracleDatabase{}, err
	}
	return dbs[idx], nil
}

func pickHost(cmd *cobra.Command, hosts []inventory.OracleHost, flag string) (inventory.OracleHost, error) {
	if flag != "" {
		for _, h := range hosts {
			if h.ID == flag || h.Name == flag {
				return h, nil
			}
		}
		return inventory.OracleHost{}, fmt.Errorf("host %q not found", flag)
	}

	options := make([]string, len(hosts))
	for i, h := range hosts {
		options[i] = fmt.Sprintf("%s (%s)", h.Name, h.ObjectType)
	}
	idx, err := promptChoice(cmd.InOrStdin(), cmd.OutOrStdout(), "Select a validation target host:", options)
	if err != nil {
		return inventory.OracleHost{}, err
	}
	return hosts[idx], nil
}
