package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/syllabus-pulse/internal/app"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/services"
	"github.com/comitanigiacomo/syllabus-pulse/internal/ui"
)

func printWarnings(out io.Writer, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintln(out, ui.Warn.Render(ui.IconWarn+" "+w))
	}
}

func newSetupCmd(opts *options) *cobra.Command {
	var in services.SetupInput
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "First-run setup: PIN and optional remote credentials",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&in.Pin, "pin", "", "4-digit PIN (required)")
	cmd.Flags().StringVar(&in.Token, "token", "", "GitHub token or CouchDB password")
	cmd.Flags().StringVar(&in.DocID, "doc", "", "gist id or CouchDB document id")
	cmd.Flags().BoolVar(&in.RememberDevice, "remember", false, "issue long-lived sessions on this device")
	_ = cmd.MarkFlagRequired("pin")

	cmd.RunE = withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
		if _, err := a.Auth.CompleteSetup(ctx, in); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" setup complete"))
		printWarnings(out, domain.CredentialWarnings(in.Token, in.DocID))

		creds, err := a.Store.Credentials(ctx)
		if err != nil || creds.Token == "" {
			return err
		}
		created, err := a.Sync.PullOrCreate(ctx)
		if err != nil {
			fmt.Fprintln(out, ui.Warn.Render(ui.IconWarn+" initial sync failed: "+err.Error()))
			return nil
		}
		if created {
			fmt.Fprintln(out, ui.Muted.Render(ui.IconCloud+" created a new remote document"))
		}
		return nil
	})
	return cmd
}

func newSettingsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show current settings (token masked)",
		Args:  cobra.NoArgs,
	}
	show.RunE = withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
		s, err := a.Settings.Get(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Heading("", "Settings"))
		fmt.Fprintln(out, ui.LabelValue("Setup completed", s.SetupCompleted))
		fmt.Fprintln(out, ui.LabelValue("Token", orNone(s.TokenMasked)))
		fmt.Fprintln(out, ui.LabelValue("Document", orNone(s.DocID)))
		fmt.Fprintln(out, ui.LabelValue("Last sync", orNone(s.LastSync)))
		fmt.Fprintln(out, ui.LabelValue("Date range", s.DateRange.Start.Format(domain.DateLayout)+" → "+s.DateRange.End.Format(domain.DateLayout)))
		fmt.Fprintln(out, ui.LabelValue("Syllabus", s.SelectedConfig))
		fmt.Fprintln(out, ui.LabelValue("Show tasks", s.ShowTasks))
		fmt.Fprintln(out, ui.LabelValue("Auto sync", s.AutoSync))
		fmt.Fprintln(out, ui.LabelValue("Remember device", s.RememberDevice))
		fmt.Fprintln(out, ui.LabelValue("Device", s.DeviceID))
		return nil
	})

	var token, docID string
	creds := &cobra.Command{
		Use:   "credentials",
		Short: "Save the remote token and document id",
		Args:  cobra.NoArgs,
	}
	creds.Flags().StringVar(&token, "token", "", "GitHub token or CouchDB password")
	creds.Flags().StringVar(&docID, "doc", "", "gist id or CouchDB document id")
	creds.RunE = withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
		warnings, err := a.Settings.SaveCredentials(ctx, token, docID)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" credentials saved"))
		printWarnings(out, warnings)
		return nil
	})

	dateRange := &cobra.Command{
		Use:   "date-range <start> <end>",
		Short: "Set the study period (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(2),
	}
	dateRange.RunE = func(c *cobra.Command, args []string) error {
		return withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
			rng, err := domain.QRDateRange{Start: args[0], End: args[1]}.DateRange(a.Tracker.Location())
			if err != nil {
				return err
			}
			if err := a.Settings.SaveDateRange(ctx, rng); err != nil {
				return err
			}
			tp := domain.CalcTimeProgress(now(), rng)
			fmt.Fprintf(out, "%s %s %d%%\n", ui.Good.Render(ui.IconDone+" date range saved"), ui.Bar(tp.Percentage, 20), tp.Percentage)
			return nil
		})(c, args)
	}

	var currentPin, newPin string
	pin := &cobra.Command{
		Use:   "pin",
		Short: "Change the PIN",
		Args:  cobra.NoArgs,
	}
	pin.Flags().StringVar(&currentPin, "current", "", "current PIN")
	pin.Flags().StringVar(&newPin, "new", "", "new PIN")
	_ = pin.MarkFlagRequired("current")
	_ = pin.MarkFlagRequired("new")
	pin.RunE = withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
		if err := a.Auth.ChangePin(ctx, currentPin, newPin); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" PIN changed"))
		return nil
	})

	var showTasks, autoSync, remember bool
	var selected string
	prefs := &cobra.Command{
		Use:   "prefs",
		Short: "Change preferences; only the flags given are updated",
		Args:  cobra.NoArgs,
	}
	prefs.Flags().BoolVar(&showTasks, "show-tasks", true, "show daily tasks on the dashboard")
	prefs.Flags().BoolVar(&autoSync, "auto-sync", false, "push after every local change")
	prefs.Flags().BoolVar(&remember, "remember", false, "issue long-lived sessions")
	prefs.Flags().StringVar(&selected, "syllabus", "", "bundled syllabus to use as default")
	prefs.RunE = func(c *cobra.Command, args []string) error {
		var in services.PreferencesInput
		if c.Flags().Changed("show-tasks") {
			in.ShowTasks = &showTasks
		}
		if c.Flags().Changed("auto-sync") {
			in.AutoSync = &autoSync
		}
		if c.Flags().Changed("remember") {
			in.RememberDevice = &remember
		}
		if c.Flags().Changed("syllabus") {
			in.SelectedConfig = &selected
		}
		return withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
			p, err := a.Settings.SavePreferences(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" preferences saved"))
			fmt.Fprintln(out, ui.LabelValue("Show tasks", p.ShowTasks))
			fmt.Fprintln(out, ui.LabelValue("Auto sync", p.AutoSync))
			fmt.Fprintln(out, ui.LabelValue("Remember device", p.RememberDevice))
			fmt.Fprintln(out, ui.LabelValue("Syllabus", p.SelectedConfig))
			return nil
		})(c, args)
	}

	var exportPin, pngPath string
	qrExport := &cobra.Command{
		Use:   "qr-export",
		Short: "Print the settings transfer payload or write it as a QR PNG",
		Args:  cobra.NoArgs,
	}
	qrExport.Flags().StringVar(&exportPin, "pin", "", "current PIN")
	qrExport.Flags().StringVar(&pngPath, "png", "", "write a QR code PNG to this path")
	_ = qrExport.MarkFlagRequired("pin")
	qrExport.RunE = withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
		payload, err := a.Settings.ExportPayload(ctx, exportPin)
		if err != nil {
			return err
		}
		if pngPath == "" {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		}
		png, err := a.Settings.EncodeQR(payload)
		if err != nil {
			return err
		}
		if err := os.WriteFile(pngPath, png, 0o600); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" QR code written to "+pngPath))
		return nil
	})

	qrImport := &cobra.Command{
		Use:   "qr-import <file|->",
		Short: "Import a scanned settings payload (JSON) from a file or stdin",
		Args:  cobra.ExactArgs(1),
	}
	qrImport.RunE = func(c *cobra.Command, args []string) error {
		var raw []byte
		var err error
		if args[0] == "-" {
			raw, err = io.ReadAll(io.LimitReader(c.InOrStdin(), 64<<10))
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}
		return withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
			res, err := a.Settings.ImportPayload(ctx, raw)
			if err != nil {
				return err
			}
			for _, item := range res.Imported {
				fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" imported "+item))
			}
			printWarnings(out, res.Warnings)
			return nil
		})(c, args)
	}

	cmd.AddCommand(show, creds, dateRange, pin, prefs, qrExport, qrImport, newClearCmd(opts))
	return cmd
}

func newClearCmd(opts *options) *cobra.Command {
	var pin string
	cmd := &cobra.Command{
		Use:       "clear <remote|syllabus|progress|local>",
		Short:     "PIN-confirmed destructive reset",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.ClearRemote), string(domain.ClearSyllabus), string(domain.ClearProgress), string(domain.ClearLocal)},
	}
	cmd.Flags().StringVar(&pin, "pin", "", "current PIN")
	_ = cmd.MarkFlagRequired("pin")
	cmd.RunE = func(c *cobra.Command, args []string) error {
		target, err := domain.ParseClearTarget(args[0])
		if err != nil {
			return err
		}
		return withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
			if err := a.Settings.Clear(ctx, target, pin); err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" cleared "+string(target)))
			return nil
		})(c, args)
	}
	return cmd
}

// newResetCmd is a shortcut for "settings clear progress".
func newResetCmd(opts *options) *cobra.Command {
	var pin string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset all chapter and daily task progress",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&pin, "pin", "", "current PIN")
	_ = cmd.MarkFlagRequired("pin")
	cmd.RunE = withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
		if err := a.Settings.Clear(ctx, domain.ClearProgress, pin); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" progress reset"))
		afterChange(ctx, a, out)
		return nil
	})
	return cmd
}

func orNone(s string) string {
	if s == "" {
		return ui.Muted.Render("(none)")
	}
	return s
}
