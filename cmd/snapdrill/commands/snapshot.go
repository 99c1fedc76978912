package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapdrill/snapdrill/pkg/inventory"
	"github.com/snapdrill/snapdrill/pkg/workflows"
)

func newSnapshotCommand() *cobra.Command {
	var (
		vmFlag string
		slaID  string
		wait   bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Take an on-demand snapshot of a VM",
		Long: `Submit an on-demand snapshot of a protected VM on any supported
hypervisor. By default the command exits once the platform accepts the
request; with --wait it polls the snapshot operation to completion.`,
		Example: `  # Fire and forget
  snapdrill snapshot --vm app-server-01

  # Wait for the snapshot to finish, exit nonzero if it fails
  snapdrill snapshot --vm app-server-01 --wait`,
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

			if slaID == "" {
				slaID = vm.SLADomain.ID
			}
			if slaID == "" {
				return fmt.Errorf("vm %s has no effective SLA domain, pass --sla", vm.Name)
			}

			wf := workflows.NewOnDemandSnapshot(a.client, vm, slaID)
			if wait {
				return a.runWorkflow(ctx, wf)
			}

			handle, err := wf.Submitter.Submit(ctx)
			if err != nil {
				return fmt.Errorf("snapshot submission failed: %w", err)
			}
			fmt.Printf("snapshot of %s accepted, operation %s\n", vm.Name, handle.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&vmFlag, "vm", "", "VM id or name (required)")
	cmd.Flags().StringVar(&slaID, "sla", "", "SLA domain id (defaults to the VM's effective SLA)")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll the snapshot operation to completion")
	_ = cmd.MarkFlagRequired("vm")

	return cmd
}
