package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/snapdrill/snapdrill/pkg/inventory"
)

func newVMsCommand() *cobra.Command {
	var (
		hypervisor string
		csvPath    string
	)

	cmd := &cobra.Command{
		Use:   "vms",
		Short: "List the protected VMs across hypervisors",
		Long: `Inventory the protected virtual machines on vSphere, Nutanix AHV, and
Hyper-V, excluding relics and replicas. Output goes to the terminal as a
table, to --csv as a file, or to stdout as JSON with --json.`,
		Example: `  # Table on the terminal
  snapdrill vms

  # One hypervisor only
  snapdrill vms --hypervisor vsphere

  # CSV export for reporting
  snapdrill vms --csv inventory.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			var vms []inventory.VirtualMachine
			if hypervisor == "" {
				vms, err = inventory.ListAllVirtualMachines(ctx, a.client)
			} else {
				vms, err = inventory.ListVirtualMachines(ctx, a.client, inventory.Hypervisor(hypervisor))
			}
			if err != nil {
				return fmt.Errorf("failed to list vms: %w", err)
			}

			if csvPath != "" {
				if err := inventory.WriteCSVFile(csvPath, vms); err != nil {
					return err
				}
				fmt.Printf("wrote %d VMs to %s\n", len(vms), csvPath)
				return nil
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(vms)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tOS\tAGENT\tCLUSTER\tSLA")
			for _, vm := range vms {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					vm.Name, vm.Hypervisor.DisplayName(), vm.GuestOS,
					vm.AgentStatus, vm.Cluster.Name, vm.SLADomain.Name)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&hypervisor, "hypervisor", "", "limit to one hypervisor (vsphere, nutanix, hyperv)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the inventory to a CSV file")

	return cmd
}
