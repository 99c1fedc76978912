package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Inspect recorded drill runs",
		Long: `List the recorded workflow runs, newest first, or show one run with its
event log. Runs are recorded in the local SQLite store named by the
configuration.`,
		Example: `  # Recent runs
  snapdrill runs

  # One run with its events
  snapdrill runs 4f07c6f2-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if a.store == nil {
				return fmt.Errorf("run store is unavailable")
			}

			if len(args) == 1 {
				return showRun(cmd, a, args[0])
			}

			runs, err := a.store.ListRuns(ctx, limit, 0)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tWORKFLOW\tTARGET\tSTATUS\tEXIT\tSTARTED")
			for _, r := range runs {
				exit := "-"
				if r.ExitCode != nil {
					exit = fmt.Sprintf("%d", *r.ExitCode)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Workflow, r.Target, r.Status, exit,
					r.StartedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")

	return cmd
}

func showRun(cmd *cobra.Command, a *app, runID string) error {
	ctx := cmd.Context()

	run, err := a.store.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	events, err := a.store.ListEvents(ctx, runID, 1000, 0)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"run": run, "events": events})
	}

	fmt.Printf("Run      %s\n", run.ID)
	fmt.Printf("Workflow %s\n", run.Workflow)
	fmt.Printf("Target   %s\n", run.Target)
	fmt.Printf("Status   %s\n", run.Status)
	if run.OperationID != nil {
		fmt.Printf("Op       %s\n", *run.OperationID)
	}
	if run.ExitCode != nil {
		fmt.Printf("Exit     %d\n", *run.ExitCode)
	}
	if run.Error != nil {
		fmt.Printf("Error    %s\n", *run.Error)
	}

	fmt.Println("\nEvents:")
	for _, e := range events {
		detail := ""
		if e.Details != nil {
			detail = " " + *e.Details
		}
		fmt.Printf("  %s [%s] %s%s\n", e.Timestamp.Format(time.RFC3339), e.Level, e.Message, detail)
	}
	return nil
}
