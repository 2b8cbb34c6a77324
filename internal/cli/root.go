// Package cli implements the pulse command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/syllabus-pulse/internal/app"
	"github.com/comitanigiacomo/syllabus-pulse/internal/config"
	"github.com/comitanigiacomo/syllabus-pulse/internal/ui"
)

const Version = "0.1.0"

// now is replaced in tests.
var now = time.Now

type options struct {
	configDir string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "pulse",
		Short:         "Syllabus Pulse: study schedule, syllabus progress and cloud sync",
		Long:          "Syllabus Pulse tracks a weekly study rotation, syllabus chapters and daily tasks, and syncs them to a GitHub Gist or CouchDB.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	cmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", "", "directory holding pulse.yaml")

	cmd.AddCommand(
		newServeCmd(opts),
		newTodayCmd(opts),
		newNowCmd(opts),
		newProgressCmd(opts),
		newHistoryCmd(opts),
		newBoardCmd(opts),
		newExportCmd(opts),
		newChapterCmd(opts),
		newTaskCmd(opts),
		newSyncCmd(opts),
		newSetupCmd(opts),
		newSettingsCmd(opts),
		newResetCmd(opts),
	)
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}

func openApp(ctx context.Context, opts *options) (*app.App, func(), error) {
	cfg, err := config.Load(opts.configDir)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return a, a.Close, nil
}

// withApp opens the app for the duration of one command.
func withApp(opts *options, fn func(ctx context.Context, a *app.App, out io.Writer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, cleanup, err := openApp(ctx, opts)
		if err != nil {
			return err
		}
		defer cleanup()
		return fn(ctx, a, cmd.OutOrStdout())
	}
}

// afterChange pushes right away when auto-sync is on. The CLI process does
// not live long enough for the debounced worker.
func afterChange(ctx context.Context, a *app.App, out io.Writer) {
	prefs, err := a.Store.Preferences(ctx)
	if err != nil || !prefs.AutoSync {
		return
	}
	creds, err := a.Store.Credentials(ctx)
	if err != nil || !creds.Ready() {
		return
	}
	if err := a.Sync.Push(ctx); err != nil {
		fmt.Fprintln(out, ui.Warn.Render(ui.IconWarn+" auto-sync failed: "+err.Error()))
		return
	}
	fmt.Fprintln(out, ui.Muted.Render(ui.IconCloud+" synced"))
}
