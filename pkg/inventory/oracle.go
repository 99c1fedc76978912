package inventory

import (
	"context"
	"fmt"

	"github.com/snapdrill/snapdrill/pkg/platform"
)

const oracleDatabasesQuery = `
query oracleDbPagedQuery($endCursor: String) {
    oracleDatabases(
        filter: [
            {field: IS_RELIC texts: "false"},
            {field: IS_REPLICATED texts: "false"}
        ],
        after: $endCursor
    ) {
        nodes {
            id
            name
            effectiveSlaDomain { id name }
            cluster { id name }
        }
        pageInfo { endCursor hasNextPage }
    }
}`

const oracleHostsQuery = `
query oracleHostPagedQuery($endCursor: String) {
    oracleTopLevelDescendants(
        filter: [
            {field: IS_RELIC texts: "false"},
            {field: IS_REPLICATED texts: "false"}
        ],
        after: $endCursor
    ) {
        nodes {
            id
            name
            objectType
            cluster { id name }
        }
        pageInfo { endCursor hasNextPage }
    }
}`

const newestSnapshotQuery = `
query newestSnapshot($fid: UUID!) {
    oracleDatabase(fid: $fid) {
        newestSnapshot { id date isExpired isQuarantined }
    }
}`

type oracleDBNode OracleDatabase

// Key implements keyed.
func (n oracleDBNode) Key() string { return n.ID }

type oracleHostNode OracleHost

// Key implements keyed.
func (n oracleHostNode) Key() string { return n.ID }

// ListOracleDatabases returns the protected Oracle databases. Databases
// without an effective SLA domain are not backed up and are dropped from
// the candidate list.
func ListOracleDatabases(ctx context.Context, c *platform.Client) ([]OracleDatabase, error) {
	nodes, err := collectPages[oracleDBNode](ctx, c, oracleDatabasesQuery, "oracleDatabases")
	if err != nil {
		return nil, err
	}
	dbs := make([]OracleDatabase, 0, len(nodes))
	for _, n := range nodes {
		if n.SLADomain.ID == "" {
			continue
		}
		dbs = append(dbs, OracleDatabase(n))
	}
	return dbs, nil
}

// ListOracleHosts returns the Oracle hosts and RACs protected by the given
// cluster. A validation target must sit on the same cluster as the database
// whose backup it validates.
func ListOracleHosts(ctx context.Context, c *platform.Client, clusterID string) ([]OracleHost, error) {
	nodes, err := collectPages[oracleHostNode](ctx, c, oracleHostsQuery, "oracleTopLevelDescendants")
	if err != nil {
		return nil, err
	}
	hosts := make([]OracleHost, 0, len(nodes))
	for _, n := range nodes {
		if n.Cluster.ID != clusterID {
			continue
		}
		hosts = append(hosts, OracleHost(n))
	}
	return hosts, nil
}

// NewestSnapshot returns the newest usable recovery point of the database.
// Expired and quarantined snapshots cannot be validated and are rejected.
func NewestSnapshot(ctx context.Context, c *platform.Client, databaseID string) (Snapshot, error) {
	var payload struct {
		OracleDatabase struct {
			NewestSnapshot *Snapshot `json:"newestSnapshot"`
		} `json:"oracleDatabase"`
	}
	if err := c.Query(ctx, newestSnapshotQuery, map[string]any{"fid": databaseID}, &payload); err != nil {
		return Snapshot{}, err
	}

	snap := payload.OracleDatabase.NewestSnapshot
	if snap == nil {
		return Snapshot{}, fmt.Errorf("database %s has no snapshots", databaseID)
	}
	if snap.IsExpired || snap.IsQuarantined {
		return Snapshot{}, fmt.Errorf("newest snapshot of %s is expired or quarantined", databaseID)
	}
	return *snap, nil
}
