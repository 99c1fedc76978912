package workflows

import (
	"context"
	"fmt"

	"github.com/snapdrill/snapdrill/pkg/inventory"
	"github.com/snapdrill/snapdrill/pkg/orchestrator"
	"github.com/snapdrill/snapdrill/pkg/platform"
)

const validateBackupMutation = `
mutation validateOracleBackup($input: ValidateOracleDatabaseBackupsInput!) {
    validateOracleDatabaseBackups(input: $input) {
        id
        status
    }
}`

// NewValidateBackup builds the workflow that restores the database's newest
// snapshot onto the target host and lets the platform verify it is
// recoverable. The restored copy is torn down by the platform itself once
// validation finishes, so the workflow carries no resource step.
func NewValidateBackup(c *platform.Client, db inventory.OracleDatabase, snap inventory.Snapshot, targetHostID string) orchestrator.Workflow {
	vocab := orchestrator.DefaultVocabulary()

	submit := orchestrator.SubmitterFunc(func(ctx context.Context) (orchestrator.OperationHandle, error) {
		var payload struct {
			ValidateOracleDatabaseBackups struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"validateOracleDatabaseBackups"`
		}
		input := map[string]any{
			"id": db.ID,
			"config": map[string]any{
				"targetOracleHostOrRacId": targetHostID,
				"recoveryPoint": map[string]any{
					"snapshotId": snap.ID,
				},
				"shouldAllowRenameToSource": true,
			},
		}
		err := c.Query(ctx, validateBackupMutation, map[string]any{"input": input}, &payload)
		if err != nil {
			return orchestrator.OperationHandle{}, err
		}
		if payload.ValidateOracleDatabaseBackups.ID == "" {
			return orchestrator.OperationHandle{}, fmt.Errorf("validation of %s was not accepted", db.Name)
		}
		return orchestrator.OperationHandle{
			ID:            payload.ValidateOracleDatabaseBackups.ID,
			InitialStatus: payload.ValidateOracleDatabaseBackups.Status,
		}, nil
	})

	return orchestrator.Workflow{
		Kind:      "validate-backup",
		Target:    db.Name,
		Submitter: submit,
		Status:    newStatusSource(c, db.Cluster.ID, vocab),
	}
}
