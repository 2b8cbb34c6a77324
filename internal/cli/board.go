package cli

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/syllabus-pulse/internal/app"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/workers"
	"github.com/comitanigiacomo/syllabus-pulse/internal/tui"
)

func newBoardCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Interactive dashboard for today",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
		// Worker logs would tear the screen.
		prev := log.Writer()
		log.SetOutput(io.Discard)
		defer log.SetOutput(prev)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		a.SyncWorker.Start(ctx)
		workers.NewClockWorker(a.Tracker, a.Events, time.Minute).Start(ctx)

		return tui.RunBoard(ctx, a.Tracker, a.Sync, a.Events, out)
	})
	return cmd
}
