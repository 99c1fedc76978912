package workflows

import (
	"context"
	"fmt"

	"github.com/snapdrill/snapdrill/pkg/inventory"
	"github.com/snapdrill/snapdrill/pkg/orchestrator"
	"github.com/snapdrill/snapdrill/pkg/platform"
)

const vsphereSnapshotMutation = `
mutation snapshotVsphereVm($input: VsphereBulkOnDemandSnapshotInput!) {
    vsphereBulkOnDemandSnapshot(input: $input) {
        responses {
            id
        }
    }
}`

const nutanixSnapshotMutation = `
mutation snapshotNutanixVm($input: CreateOnDemandNutanixBackupInput!) {
    createOnDemandNutanixBackup(input: $input) {
        id
        status
    }
}`

const hypervSnapshotMutation = `
mutation snapshotHypervVm($input: HypervOnDemandSnapshotInput!) {
    hypervOnDemandSnapshot(input: $input) {
        id
        status
    }
}`

// NewOnDemandSnapshot builds the workflow that takes an on-demand snapshot
// of the VM under the given SLA domain. Snapshots accumulate on the VM's
// protection timeline rather than being a separate resource, so the workflow
// carries no resource step.
func NewOnDemandSnapshot(c *platform.Client, vm inventory.VirtualMachine, slaID string) orchestrator.Workflow {
	vocab := orchestrator.DefaultVocabulary()

	return orchestrator.Workflow{
		Kind:      "on-demand-snapshot",
		Target:    vm.Name,
		Submitter: snapshotSubmitter(c, vm, slaID),
		Status:    newStatusSource(c, vm.Cluster.ID, vocab),
	}
}

// snapshotSubmitter dispatches to the hypervisor-specific mutation. The
// three mutations accept differently shaped inputs and reply with
// differently shaped acceptances, which is the whole reason this indirection
// exists.
func snapshotSubmitter(c *platform.Client, vm inventory.VirtualMachine, slaID string) orchestrator.Submitter {
	return orchestrator.SubmitterFunc(func(ctx context.Context) (orchestrator.OperationHandle, error) {
		switch vm.Hypervisor {
		case inventory.HypervisorVSphere:
			return submitVsphereSnapshot(ctx, c, vm, slaID)
		case inventory.HypervisorNutanix:
			return submitNutanixSnapshot(ctx, c, vm, slaID)
		case inventory.HypervisorHyperV:
			return submitHypervSnapshot(ctx, c, vm, slaID)
		default:
			return orchestrator.OperationHandle{}, fmt.Errorf("unsupported hypervisor: %s", vm.Hypervisor)
		}
	})
}

func submitVsphereSnapshot(ctx context.Context, c *platform.Client, vm inventory.VirtualMachine, slaID string) (orchestrator.OperationHandle, error) {
	var payload struct {
		VsphereBulkOnDemandSnapshot struct {
			Responses []struct {
				ID string `json:"id"`
			} `json:"responses"`
		} `json:"vsphereBulkOnDemandSnapshot"`
	}
	input := map[string]any{
		"config": map[string]any{
			"vms":   []string{vm.ID},
			"slaId": slaID,
		},
	}
	err := c.Query(ctx, vsphereSnapshotMutation, map[string]any{"input": input}, &payload)
	if err != nil {
		return orchestrator.OperationHandle{}, err
	}
	if len(payload.VsphereBulkOnDemandSnapshot.Responses) == 0 {
		return orchestrator.OperationHandle{}, fmt.Errorf("snapshot of %s was not accepted", vm.Name)
	}
	return orchestrator.OperationHandle{ID: payload.VsphereBulkOnDemandSnapshot.Responses[0].ID}, nil
}

func submitNutanixSnapshot(ctx context.Context, c *platform.Client, vm inventory.VirtualMachine, slaID string) (orchestrator.OperationHandle, error) {
	var payload struct {
		CreateOnDemandNutanixBackup struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"createOnDemandNutanixBackup"`
	}
	input := map[string]any{
		"id": vm.ID,
		"config": map[string]any{
			"slaId": slaID,
		},
	}
	err := c.Query(ctx, nutanixSnapshotMutation, map[string]any{"input": input}, &payload)
	if err != nil {
		return orchestrator.OperationHandle{}, err
	}
	if payload.CreateOnDemandNutanixBackup.ID == "" {
		return orchestrator.OperationHandle{}, fmt.Errorf("snapshot of %s was not accepted", vm.Name)
	}
	return orchestrator.OperationHandle{
		ID:            payload.CreateOnDemandNutanixBackup.ID,
		InitialStatus: payload.CreateOnDemandNutanixBackup.Status,
	}, nil
}

func submitHypervSnapshot(ctx context.Context, c *platform.Client, vm inventory.VirtualMachine, slaID string) (orchestrator.OperationHandle, error) {
	var payload struct {
		HypervOnDemandSnapshot struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"hypervOnDemandSnapshot"`
	}
	input := map[string]any{
		"id": vm.ID,
		"config": map[string]any{
			"slaId": slaID,
		},
	}
	err := c.Query(ctx, hypervSnapshotMutation, map[string]any{"input": input}, &payload)
	if err != nil {
		return orchestrator.OperationHandle{}, err
	}
	if payload.HypervOnDemandSnapshot.ID == "" {
		return orchestrator.OperationHandle{}, fmt.Errorf("snapshot of %s was not accepted", vm.Name)
	}
	return orchestrator.OperationHandle{
		ID:            payload.HypervOnDemandSnapshot.ID,
		InitialStatus: payload.HypervOnDemandSnapshot.Status,
	}, nil
}
