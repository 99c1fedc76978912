// Package workflows binds concrete platform operations (Oracle backup
// validation, VM live mount, on-demand snapshots) to the generic
// orchestration pipeline. Each constructor returns an orchestrator.Workflow
// carrying the operation's submitter, its status source, and, where the
// operation creates a remote resource, the locate/teardown step.
package workflows

import (
	"context"

	"github.com/snapdrill/snapdrill/pkg/orchestrator"
	"github.com/snapdrill/snapdrill/pkg/platform"
)

// asyncStatusQuery samples one async request. Every long-running platform
// operation, regardless of kind, is observable through this query.
const asyncStatusQuery = `
query asyncStatus($id: String!, $clusterUuid: UUID!) {
    asyncRequestStatus(id: $id, clusterUuid: $clusterUuid) {
        status
        progress
        error { message }
    }
}`

// newStatusSource returns a status source polling the async request API of
// the given cluster, classifying raw statuses through vocab.
func newStatusSource(c *platform.Client, clusterID string, vocab orchestrator.StatusVocabulary) orchestrator.StatusSource {
	return orchestrator.StatusSourceFunc(func(ctx context.Context, handle orchestrator.OperationHandle) (orchestrator.PollResult, error) {
		var payload struct {
			AsyncRequestStatus struct {
				Status   string  `json:"status"`
				Progress float64 `json:"progress"`
				Error    *struct {
					Message string `json:"message"`
				} `json:"error"`
			} `json:"asyncRequestStatus"`
		}
		err := c.Query(ctx, asyncStatusQuery, map[string]any{
			"id":          handle.ID,
			"clusterUuid": clusterID,
		}, &payload)
		if err != nil {
			return orchestrator.PollResult{}, err
		}

		res := orchestrator.PollResult{
			Class:    vocab.Classify(payload.AsyncRequestStatus.Status),
			Progress: payload.AsyncRequestStatus.Progress,
		}
		if payload.AsyncRequestStatus.Error != nil {
			res.Message = payload.AsyncRequestStatus.Error.Message
		}
		return res, nil
	})
}
