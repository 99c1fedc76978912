package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/snapdrill/snapdrill/pkg/config"
	"github.com/snapdrill/snapdrill/pkg/orchestrator"
	"github.com/snapdrill/snapdrill/pkg/platform"
	"github.com/snapdrill/snapdrill/pkg/stores"
	"github.com/snapdrill/snapdrill/pkg/telemetry"
)

// app bundles the collaborators every workflow command needs: configuration,
// telemetry, an authenticated platform client, and the run-history store.
type app struct {
	cfg    *config.Config
	tel    *telemetry.Telemetry
	client *platform.Client
	store  stores.Store
}

// newApp loads configuration, connects to the platform, and opens the run
// store. A store that fails to open degrades to in-memory-only operation;
// drills must keep running even when the history file is unavailable.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	telCfg := telemetry.DefaultConfig()
	if verbose {
		telCfg.Logging.Level = "debug"
	}
	tel, err := telemetry.NewTelemetry(telCfg)
	if err != nil {
		return nil, err
	}

	client, err := platform.Connect(ctx, platform.Settings{
		BaseURL:      cfg.Platform.BaseURL,
		ClientID:     cfg.Platform.ClientID,
		ClientSecret: cfg.Platform.ClientSecret,
		Timeout:      cfg.Platform.Timeout.Std(),
		Debug:        verbose,
		Logger:       tel.Logger.NewComponentLogger("platform").Z(),
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, tel: tel, client: client}
	a.openStore(ctx)
	return a, nil
}

func (a *app) openStore(ctx context.Context) {
	store, err := stores.NewSQLiteStore(stores.Config{Path: a.cfg.Store.Path})
	if err != nil {
		a.tel.Logger.WithError(err).Warn("run store unavailable, history disabled")
		return
	}
	if err := store.Init(ctx); err != nil {
		a.tel.Logger.WithError(err).Warn("run store unavailable, history disabled")
		return
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		a.tel.Logger.WithError(err).Warn("run store migration failed, history disabled")
		return
	}
	a.store = store
}

func (a *app) Close(ctx context.Context) {
	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.tel.Shutdown(ctx)
}

func (a *app) tuning() orchestrator.Tuning {
	return orchestrator.Tuning{
		PollInterval:      a.cfg.Poll.Interval.Std(),
		PollMaxAttempts:   a.cfg.Poll.MaxAttempts,
		GracePeriod:       a.cfg.Mount.GracePeriod.Std(),
		CleanupRetries:    a.cfg.Mount.TeardownRetries,
		CleanupRetryDelay: a.cfg.Mount.TeardownDelay.Std(),
	}
}

// runWorkflow records and executes one workflow run end to end. The run's
// outcome determines the command's exit code.
func (a *app) runWorkflow(ctx context.Context, wf orchestrator.Workflow) error {
	runID := uuid.NewString()
	log := a.tel.Logger.WithRunID(runID).WithWorkflow(wf.Kind)

	a.createRun(ctx, runID, wf)

	coord := orchestrator.NewCoordinator(orchestrator.CoordinatorConfig{
		Tuning:   a.tuning(),
		Logger:   log.Z(),
		Metrics:  a.tel.Metrics,
		Tracer:   a.tel.Tracer,
		Recorder: newStoreRecorder(a.store, runID, log),
	})
	outcome := coord.Run(ctx, wf)

	a.completeRun(ctx, runID, outcome)
	a.report(runID, wf, outcome)

	if outcome.ExitCode != 0 {
		return errExit
	}
	return nil
}

func (a *app) createRun(ctx context.Context, runID string, wf orchestrator.Workflow) {
	if a.store == nil {
		return
	}
	now := time.Now()
	err := a.store.CreateRun(ctx, &stores.Run{
		ID:        runID,
		Workflow:  wf.Kind,
		Target:    wf.Target,
		Status:    stores.RunStatusRunning,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		a.tel.Logger.WithError(err).Warn("failed to record run start")
	}
}

func (a *app) completeRun(ctx context.Context, runID string, outcome orchestrator.Outcome) {
	if a.store == nil {
		return
	}
	status := stores.RunStatusSucceeded
	var errMsg *string
	if outcome.ExitCode != 0 {
		status = stores.RunStatusFailed
		if outcome.Failure != nil {
			msg := outcome.Failure.Error()
			errMsg = &msg
		}
	}
	if err := a.store.CompleteRun(ctx, runID, status, outcome.ExitCode, errMsg); err != nil {
		a.tel.Logger.WithError(err).Warn("failed to record run completion")
	}
}

// report prints the run summary. Failures that leave remote state behind
// get an explicit manual-intervention callout; exit codes alone do not say
// what an operator has to go clean up.
func (a *app) report(runID string, wf orchestrator.Workflow, outcome orchestrator.Outcome) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"run_id":   runID,
			"workflow": wf.Kind,
			"target":   wf.Target,
			"outcome":  outcome,
		})
		return
	}

	if outcome.ExitCode == 0 {
		fmt.Printf("%s of %s succeeded (run %s)\n", wf.Kind, wf.Target, runID)
		return
	}

	if outcome.Failure != nil {
		fmt.Printf("%s of %s failed: %s (run %s)\n", wf.Kind, wf.Target, outcome.Failure.Error(), runID)
		if orchestrator.RequiresManualIntervention(outcome.Failure) {
			fmt.Println("MANUAL INTERVENTION REQUIRED: remote state may be left behind; inspect the platform before re-running")
		}
	} else {
		fmt.Printf("%s of %s failed (run %s)\n", wf.Kind, wf.Target, runID)
	}
}
