package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapdrill/snapdrill/pkg/inventory"
	"github.com/snapdrill/snapdrill/pkg/workflows"
)

func newMountCommand() *cobra.Command {
	var (
		vmFlag string
		hostID string
		snapID string
		name   string
	)

	cmd := &cobra.Command{
		Use:   "mount",
		Short: "Live-mount a VM snapshot and tear it down again",
		Long: `Mount a snapshot of a vSphere VM as a live VM, confirm the mount
actually materialized, and unmount it. The mounted copy is powered off
and detached from the network for the duration of the drill.

The drill fails if the mount never appears after a successful mount
operation, or if the unmount request is not accepted; both leave remote
state an operator has to clean up by hand.`,
		Example: `  # Mount the newest snapshot of a VM onto a specific ESXi host
  snapdrill mount --vm app-server-01 --esxi-host 12ab-34cd

  # Mount a specific snapshot under a chosen name
  snapdrill mount --vm app-server-01 --esxi-host 12ab-34cd --snapshot 9f8e... --name drill-2026-08`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			vm, found, err := inventory.FindVirtualMachine(ctx, a.client, vmFlag)
			if err != nil {
				return fmt.Errorf("failed to resolve vm: %w", err)
			}
			if !found {
				return fmt.Errorf("vm %q not found", vmFlag)
			}
			if vm.Hypervisor != inventory.HypervisorVSphere {
				return fmt.Errorf("live mount supports vSphere VMs only, %s is %s", vm.Name, vm.Hypervisor.DisplayName())
			}

			if snapID == "" {
				snap, err := inventory.NewestVMSnapshot(ctx, a.client, vm.ID)
				if err != nil {
					return fmt.Errorf("no usable snapshot: %w", err)
				}
				snapID = snap.ID
			}

			if name == "" {
				name = workflows.MountName(a.cfg.Mount.NamePrefix)
			}

			zl := a.tel.Logger.Z()
			zl.Info().
				Str("vm", vm.Name).
				Str("snapshot_id", snapID).
				Str("mount_name", name).
				Msg("starting live mount drill")

			return a.runWorkflow(ctx, workflows.NewLiveMount(a.client, vm, snapID, hostID, name))
		},
	}

	cmd.Flags().StringVar(&vmFlag, "vm", "", "source VM id or name (required)")
	cmd.Flags().StringVar(&hostID, "esxi-host", "", "target ESXi host id (required)")
	cmd.Flags().StringVar(&snapID, "snapshot", "", "snapshot id (defaults to the newest)")
	cmd.Flags().StringVar(&name, "name", "", "mount name (defaults to a generated one)")
	_ = cmd.MarkFlagRequired("vm")
	_ = cmd.MarkFlagRequired("esxi-host")

	return cmd
}
