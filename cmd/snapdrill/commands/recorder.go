package commands

import (
	"context"
	"encoding/json"
	"time"

	"github.com/snapdrill/snapdrill/pkg/orchestrator"
	"github.com/snapdrill/snapdrill/pkg/stores"
	"github.com/snapdrill/snapdrill/pkg/telemetry"
)

// newStoreRecorder adapts the run store to the orchestrator's Recorder. A
// nil store yields a nil recorder, which the coordinator treats as a no-op.
func newStoreRecorder(store stores.Store, runID string, log *telemetry.Logger) orchestrator.Recorder {
	if store == nil {
		return nil
	}
	return orchestrator.RecorderFunc(func(ctx context.Context, level, message string, details map[string]any) {
		// The operation id arrives as an event detail; pin it onto the run
		// row so runs can be correlated with the remote system later.
		if opID, ok := details["operation_id"].(string); ok && opID != "" {
			if err := store.SetRunOperation(ctx, runID, opID); err != nil {
				log.WithError(err).Warn("failed to record operation id")
			}
		}

		event := &stores.Event{
			RunID:     runID,
			Level:     stores.EventLevel(level),
			Message:   message,
			Timestamp: time.Now(),
		}
		if len(details) > 0 {
			if data, err := json.Marshal(details); err == nil {
				s := string(data)
				event.Details = &s
			}
		}
		if err := store.AppendEvent(ctx, event); err != nil {
			log.WithError(err).Warn("failed to record run event")
		}
	})
}
