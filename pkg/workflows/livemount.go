package workflows

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/snapdrill/snapdrill/pkg/inventory"
	"github.com/snapdrill/snapdrill/pkg/orchestrator"
	"github.com/snapdrill/snapdrill/pkg/platform"
)

const liveMountMutation = `
mutation mountVm($input: VsphereVmInitiateLiveMountV2Input!) {
    vsphereVmInitiateLiveMountV2(input: $input) {
        id
        status
    }
}`

const liveMountsQuery = `
query liveMounts($filter: [VsphereLiveMountFilterInput!]) {
    vSphereLiveMounts(filter: $filter) {
        nodes {
            id
            vmStatus
            mountedVm { name }
            sourceVm { id name }
        }
    }
}`

const unmountMutation = `
mutation unmountVm($livemountId: UUID!) {
    vsphereVmDeleteLiveMount(livemountId: $livemountId) {
        id
        status
    }
}`

// LiveMount is one mounted copy as reported by the platform.
type LiveMount struct {
	ID       string
	Name     string
	Status   string
	SourceVM inventory.NamedObject
}

// MountName returns a fresh mount name. The random fragment keeps repeated
// drills against the same VM from colliding.
func MountName(prefix string) string {
	return prefix + uuid.NewString()[:8]
}

// ListLiveMounts returns the live mounts currently held by the platform.
func ListLiveMounts(ctx context.Context, c *platform.Client) ([]LiveMount, error) {
	return queryLiveMounts(ctx, c, nil)
}

func queryLiveMounts(ctx context.Context, c *platform.Client, filter []map[string]any) ([]LiveMount, error) {
	var payload struct {
		VSphereLiveMounts struct {
			Nodes []struct {
				ID        string `json:"id"`
				VMStatus  string `json:"vmStatus"`
				MountedVM struct {
					Name string `json:"name"`
				} `json:"mountedVm"`
				SourceVM inventory.NamedObject `json:"sourceVm"`
			} `json:"nodes"`
		} `json:"vSphereLiveMounts"`
	}
	variables := map[string]any{}
	if filter != nil {
		variables["filter"] = filter
	}
	if err := c.Query(ctx, liveMountsQuery, variables, &payload); err != nil {
		return nil, err
	}

	mounts := make([]LiveMount, 0, len(payload.VSphereLiveMounts.Nodes))
	for _, n := range payload.VSphereLiveMounts.Nodes {
		mounts = append(mounts, LiveMount{
			ID:       n.ID,
			Name:     n.MountedVM.Name,
			Status:   n.VMStatus,
			SourceVM: n.SourceVM,
		})
	}
	return mounts, nil
}

// MountFinder returns the finder that resolves a mount name to the mount
// records the platform holds under that name.
func MountFinder(c *platform.Client) orchestrator.ResourceFinder {
	return orchestrator.ResourceFinderFunc(func(ctx context.Context, name string) ([]orchestrator.ResourceRef, error) {
		mounts, err := ListLiveMounts(ctx, c)
		if err != nil {
			return nil, err
		}
		refs := make([]orchestrator.ResourceRef, 0, len(mounts))
		for _, m := range mounts {
			refs = append(refs, orchestrator.ResourceRef{
				ID:             m.ID,
				DiscoveredName: m.Name,
			})
		}
		return refs, nil
	})
}

// MountDeleter returns the deleter that asks the platform to unmount and
// discard a live mount. The returned task id is the platform's acceptance of
// the request, not its completion.
func MountDeleter(c *platform.Client) orchestrator.ResourceDeleter {
	return orchestrator.ResourceDeleterFunc(func(ctx context.Context, ref orchestrator.ResourceRef) (string, error) {
		var payload struct {
			VsphereVmDeleteLiveMount struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"vsphereVmDeleteLiveMount"`
		}
		err := c.Query(ctx, unmountMutation, map[string]any{"livemountId": ref.ID}, &payload)
		if err != nil {
			return "", err
		}
		return payload.VsphereVmDeleteLiveMount.ID, nil
	})
}

// NewLiveMount builds the workflow that mounts the given snapshot of a
// vSphere VM under mountName, confirms the mount materialized, and tears it
// down again. A run that leaves the mount behind is the failure mode this
// workflow exists to catch.
func NewLiveMount(c *platform.Client, vm inventory.VirtualMachine, snapshotID, hostID, mountName string) orchestrator.Workflow {
	vocab := orchestrator.DefaultVocabulary()

	submit := orchestrator.SubmitterFunc(func(ctx context.Context) (orchestrator.OperationHandle, error) {
		var payload struct {
			VsphereVmInitiateLiveMountV2 struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"vsphereVmInitiateLiveMountV2"`
		}
		input := map[string]any{
			"id": vm.ID,
			"config": map[string]any{
				"hostId":               hostID,
				"vmName":               mountName,
				"snapshotFid":          snapshotID,
				"powerOn":              false,
				"disableNetwork":       true,
				"removeNetworkDevices": false,
			},
		}
		err := c.Query(ctx, liveMountMutation, map[string]any{"input": input}, &payload)
		if err != nil {
			return orchestrator.OperationHandle{}, err
		}
		if payload.VsphereVmInitiateLiveMountV2.ID == "" {
			return orchestrator.OperationHandle{}, fmt.Errorf("live mount of %s was not accepted", vm.Name)
		}
		return orchestrator.OperationHandle{
			ID:            payload.VsphereVmInitiateLiveMountV2.ID,
			InitialStatus: payload.VsphereVmInitiateLiveMountV2.Status,
		}, nil
	})

	return orchestrator.Workflow{
		Kind:      "live-mount",
		Target:    vm.Name,
		Submitter: submit,
		Status:    newStatusSource(c, vm.Cluster.ID, vocab),
		Resource: &orchestrator.ResourceStep{
			Name:    mountName,
			Finder:  MountFinder(c),
			Deleter: MountDeleter(c),
		},
	}
}
