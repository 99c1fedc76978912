package inventory

import (
	"context"
	"fmt"

	"github.com/snapdrill/snapdrill/pkg/platform"
)

// The VM connections share a filter that excludes relics and replicas, the
// same objects the platform UI hides from protection views.
const vsphereVMQuery = `
query vspherePagedQuery($endCursor: String) {
    vSphereVmNewConnection(
        filter: [
            {field: IS_RELIC texts: "false"},
            {field: IS_REPLICATED texts: "false"}
        ],
        after: $endCursor
    ) {
        nodes {
            id
            name
            guestOsName
            agentStatus { agentStatus }
            cluster { id name }
            effectiveSlaDomain { id name }
        }
        pageInfo { endCursor hasNextPage }
    }
}`

const nutanixVMQuery = `
query ahvPagedQuery($endCursor: String) {
    nutanixVms(
        filter: [
            {field: IS_RELIC texts: "false"},
            {field: IS_REPLICATED texts: "false"}
        ],
        after: $endCursor
    ) {
        nodes {
            id
            name
            osType
            agentStatus { connectionStatus }
            cluster { id name }
            effectiveSlaDomain { id name }
        }
        pageInfo { endCursor hasNextPage }
    }
}`

const hypervVMQuery = `
query hyperVPagedQuery($endCursor: String) {
    hypervVirtualMachines(
        filter: [
            {field: IS_RELIC texts: "false"},
            {field: IS_REPLICATED texts: "false"}
        ],
        after: $endCursor
    ) {
        nodes {
            id
            name
            osType
            agentStatus { connectionStatus }
            cluster { id name }
            effectiveSlaDomain { id name }
        }
        pageInfo { endCursor hasNextPage }
    }
}`

// vmNode covers the VM node shape of all three hypervisor connections; the
// agent status field name differs between them.
type vmNode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	GuestOSName string `json:"guestOsName"`
	OSType      string `json:"osType"`
	AgentStatus struct {
		AgentStatus      string `json:"agentStatus"`
		ConnectionStatus string `json:"connectionStatus"`
	} `json:"agentStatus"`
	Cluster   NamedObject `json:"cluster"`
	SLADomain NamedObject `json:"effectiveSlaDomain"`
}

// Key implements keyed.
func (n vmNode) Key() string { return n.ID }

func (n vmNode) toVM(h Hypervisor) VirtualMachine {
	vm := VirtualMachine{
		ID:         n.ID,
		Name:       n.Name,
		Hypervisor: h,
		Cluster:    n.Cluster,
		SLADomain:  n.SLADomain,
	}
	if h == HypervisorVSphere {
		vm.GuestOS = n.GuestOSName
		vm.AgentStatus = n.AgentStatus.AgentStatus
	} else {
		vm.GuestOS = n.OSType
		vm.AgentStatus = n.AgentStatus.ConnectionStatus
	}
	if vm.GuestOS == "" {
		vm.GuestOS = "Unknown"
	}
	if vm.AgentStatus == "" {
		vm.AgentStatus = "Unknown"
	}
	return vm
}

// ListVirtualMachines returns the connected VMs of one hypervisor.
func ListVirtualMachines(ctx context.Context, c *platform.Client, h Hypervisor) ([]VirtualMachine, error) {
	var (
		query string
		root  string
	)
	switch h {
	case HypervisorVSphere:
		query, root = vsphereVMQuery, "vSphereVmNewConnection"
	case HypervisorNutanix:
		query, root = nutanixVMQuery, "nutanixVms"
	case HypervisorHyperV:
		query, root = hypervVMQuery, "hypervVirtualMachines"
	default:
		return nil, fmt.Errorf("unsupported hypervisor: %s", h)
	}

	nodes, err := collectPages[vmNode](ctx, c, query, root)
	if err != nil {
		return nil, err
	}

	vms := make([]VirtualMachine, 0, len(nodes))
	for _, n := range nodes {
		vms = append(vms, n.toVM(h))
	}
	return vms, nil
}

// ListAllVirtualMachines returns the connected VMs across every supported
// hypervisor, in vSphere, AHV, Hyper-V order.
func ListAllVirtualMachines(ctx context.Context, c *platform.Client) ([]VirtualMachine, error) {
	var all []VirtualMachine
	for _, h := range []Hypervisor{HypervisorVSphere, HypervisorNutanix, HypervisorHyperV} {
		vms, err := ListVirtualMachines(ctx, c, h)
		if err != nil {
			return nil, err
		}
		all = append(all, vms...)
	}
	return all, nil
}

// FindVirtualMachine returns the VM with the given id or exact name, looked
// up across all hypervisors.
func FindVirtualMachine(ctx context.Context, c *platform.Client, idOrName string) (VirtualMachine, bool, error) {
	all, err := ListAllVirtualMachines(ctx, c)
	if err != nil {
		return VirtualMachine{}, false, err
	}
	for _, vm := range all {
		if vm.ID == idOrName || vm.Name == idOrName {
			return vm, true, nil
		}
	}
	return VirtualMachine{}, false, nil
}
