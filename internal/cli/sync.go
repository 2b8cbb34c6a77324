package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/syllabus-pulse/internal/app"
	"github.com/comitanigiacomo/syllabus-pulse/internal/ui"
)

func newSyncCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push, pull or inspect the remote copy",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show sync state",
		Args:  cobra.NoArgs,
	}
	status.RunE = withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
		st := a.Sync.Status(ctx)
		fmt.Fprintln(out, ui.Heading(ui.IconCloud, "Sync"))
		fmt.Fprintln(out, ui.LabelValue("Backend", a.Config.Remote.Backend))
		fmt.Fprintln(out, ui.LabelValue("Status", ui.SyncText(st)))
		if st.LastSync != "" {
			fmt.Fprintln(out, ui.LabelValue("Last sync", st.LastSync))
		}
		return nil
	})

	push := &cobra.Command{
		Use:   "push",
		Short: "Replace the remote document with local state",
		Args:  cobra.NoArgs,
	}
	push.RunE = withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
		if err := a.Sync.Push(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" pushed"))
		return nil
	})

	var force bool
	pull := &cobra.Command{
		Use:   "pull",
		Short: "Fetch the remote document and adopt it when newer",
		Args:  cobra.NoArgs,
	}
	pull.Flags().BoolVar(&force, "force", false, "adopt the remote copy even when older")
	pull.RunE = withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
		adopted, err := a.Sync.Pull(ctx, force)
		if err != nil {
			return err
		}
		if adopted {
			fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" remote copy adopted"))
		} else {
			fmt.Fprintln(out, ui.Muted.Render("local copy is newer, nothing adopted"))
		}
		return nil
	})

	create := &cobra.Command{
		Use:   "create",
		Short: "Pull the configured document or create one when none is set",
		Args:  cobra.NoArgs,
	}
	create.RunE = withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
		created, err := a.Sync.PullOrCreate(ctx)
		if err != nil {
			return err
		}
		if created {
			creds, err := a.Store.Credentials(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" created document "+creds.DocID))
			return nil
		}
		fmt.Fprintln(out, ui.Muted.Render("document already configured, pulled"))
		return nil
	})

	cmd.AddCommand(status, push, pull, create)
	return cmd
}
