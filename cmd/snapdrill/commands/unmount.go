package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapdrill/snapdrill/pkg/orchestrator"
	"github.com/snapdrill/snapdrill/pkg/workflows"
)

func newUnmountCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "unmount [mount]",
		Short: "Tear down live mounts left behind by earlier drills",
		Long: `Request teardown of a live mount by id or name, or of every live mount
the platform currently holds. Teardown is judged by acceptance: a
returned task id means the platform owns the deletion from there.`,
		Example: `  # Tear down one mount by name
  snapdrill unmount vm-mount-1a2b3c4d

  # Tear down everything
  snapdrill unmount --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("name a mount or pass --all")
			}

			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			mounts, err := workflows.ListLiveMounts(ctx, a.client)
			if err != nil {
				return fmt.Errorf("failed to list live mounts: %w", err)
			}

			var targets []workflows.LiveMount
			if all {
				targets = mounts
			} else {
				for _, m := range mounts {
					if m.ID == args[0] || m.Name == args[0] {
						targets = append(targets, m)
					}
				}
				if len(targets) == 0 {
					return fmt.Errorf("mount %q not found", args[0])
				}
			}

			log := a.tel.Logger.NewComponentLogger("unmount")
			cleanup := orchestrator.NewCleanupManager(
				workflows.MountDeleter(a.client),
				a.cfg.Mount.TeardownRetries,
				a.cfg.Mount.TeardownDelay.Std(),
				orchestrator.SleepWaiter(),
				log.Z(),
			)

			failed := 0
			for _, m := range targets {
				ref := orchestrator.ResourceRef{ID: m.ID, DiscoveredName: m.Name, DeclaredName: m.Name}
				if cleanup.Teardown(ctx, ref) {
					fmt.Printf("unmount of %s (%s) accepted\n", m.Name, m.ID)
				} else {
					fmt.Printf("unmount of %s (%s) NOT accepted, manual intervention required\n", m.Name, m.ID)
					failed++
				}
			}

			if failed > 0 {
				return errExit
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "tear down every live mount")

	return cmd
}
