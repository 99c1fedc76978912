// Package commands implements the snapdrill CLI. Every workflow command
// reduces its run to a process exit code: 0 only when the remote operation
// succeeded and any cleanup it required was accepted.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// errExit is returned by workflow commands whose run completed with a
// nonzero exit code. The failure has already been logged; Execute just
// propagates the code.
var errExit = errors.New("workflow did not fully succeed")

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, version, commit, buildDate string) int {
	rootCmd := newRootCommand(version, commit, buildDate)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errExit) {
			log.Error().Err(err).Msg("Command execution failed")
		}
		return 1
	}
	return 0
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "snapdrill",
		Short: "Snapdrill - backup recovery drill orchestrator",
		Long: `Snapdrill exercises a backup platform's recovery paths on a schedule:
it validates database backups, live-mounts VM snapshots and tears them
down again, and takes on-demand snapshots, reducing each drill to a
single pass/fail exit code fit for cron and CI.

Workflows:
  - validate: restore-validate an Oracle database backup
  - mount:    live-mount a VM snapshot, confirm it, unmount it
  - snapshot: take an on-demand snapshot of a VM
  - vms:      inventory the protected VMs across hypervisors
  - runs:     inspect recorded drill runs`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newMountCommand())
	rootCmd.AddCommand(newUnmountCommand())
	rootCmd.AddCommand(newSnapshotCommand())
	rootCmd.AddCommand(newVMsCommand())
	rootCmd.AddCommand(newRunsCommand())

	return rootCmd
}
