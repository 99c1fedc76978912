package inventory

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// csvHeader matches the columns operators have come to expect from the
// inventory exports.
var csvHeader = []string{
	"VM Name", "VM ID", "OS", "RBS Agent Status", "Cluster", "SLA Domain", "Type",
}

// WriteCSV renders the VM inventory as CSV.
func WriteCSV(w io.Writer, vms []VirtualMachine) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, vm := range vms {
		cluster := vm.Cluster.Name
		if cluster == "" {
			cluster = "Unknown"
		}
		sla := vm.SLADomain.Name
		if sla == "" {
			sla = "Unknown"
		}
		row := []string{
			vm.Name, vm.ID, vm.GuestOS, vm.AgentStatus, cluster, sla,
			vm.Hypervisor.DisplayName(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the VM inventory to the given path.
func WriteCSVFile(path string, vms []VirtualMachine) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteCSV(f, vms); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Sync()
}
