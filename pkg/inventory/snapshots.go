package inventory

import (
	"context"
	"fmt"

	"github.com/snapdrill/snapdrill/pkg/platform"
)

const newestVMSnapshotQuery = `
query newestVmSnapshot($fid: UUID!) {
    vSphereVmNew(fid: $fid) {
        newestSnapshot { id date isExpired isQuarantined }
    }
}`

// NewestVMSnapshot returns the newest usable recovery point of a vSphere VM,
// with the same expiry and quarantine checks applied to database snapshots.
func NewestVMSnapshot(ctx context.Context, c *platform.Client, vmID string) (Snapshot, error) {
	var payload struct {
		VSphereVmNew struct {
			NewestSnapshot *Snapshot `json:"newestSnapshot"`
		} `json:"vSphereVmNew"`
	}
	if err := c.Query(ctx, newestVMSnapshotQuery, map[string]any{"fid": vmID}, &payload); err != nil {
		return Snapshot{}, err
	}

	snap := payload.VSphereVmNew.NewestSnapshot
	if snap == nil {
		return Snapshot{}, fmt.Errorf("vm %s has no snapshots", vmID)
	}
	if snap.IsExpired || snap.IsQuarantined {
		return Snapshot{}, fmt.Errorf("newest snapshot of %s is expired or quarantined", vmID)
	}
	return *snap, nil
}
