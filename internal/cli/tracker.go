package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/syllabus-pulse/internal/app"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/services"
	"github.com/comitanigiacomo/syllabus-pulse/internal/ui"
)

func newTodayCmd(opts *options) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show the schedule for today or --date",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&date, "date", "", "day to show (YYYY-MM-DD)")
	cmd.RunE = withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
		day := now()
		if date != "" {
			parsed, err := domain.ParseDate(date, a.Tracker.Location())
			if err != nil {
				return err
			}
			day = parsed
		}

		view, err := a.Tracker.Schedule(ctx, day)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, ui.Heading(ui.IconBook, view.Date+" · rotation: "+view.RotationSubject))
		printTasks(out, "Morning", view.Morning)
		printTasks(out, "Self study", view.SelfStudy)
		return nil
	})
	return cmd
}

func printTasks(out io.Writer, title string, tasks []services.TaskView) {
	fmt.Fprintln(out, ui.H2.Render(title))
	if len(tasks) == 0 {
		fmt.Fprintln(out, ui.Muted.Render("  (nothing scheduled)"))
		return
	}
	for _, t := range tasks {
		fmt.Fprintf(out, "  %s %-12s %s %s\n", ui.Check(t.Done), t.Time, t.Name, ui.Muted.Render("["+t.ID+"]"))
	}
}

func newNowCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "now",
		Short: "Show the previous, current and next task",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
		h, err := a.Tracker.Hero(ctx, now())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Heading(ui.IconClock, "Right now"))
		if h.Previous != nil {
			fmt.Fprintln(out, ui.LabelValue("Previous", fmt.Sprintf("%s %s (%s)", ui.Check(h.Previous.Done), h.Previous.Name, h.Previous.Time)))
		}
		current := h.Current.Name
		if !h.FreeTime {
			current = fmt.Sprintf("%s %s (%s)", ui.Check(h.Current.Done), h.Current.Name, h.Current.Time)
		}
		fmt.Fprintln(out, ui.LabelValue("Current", current))
		if h.Next != nil {
			fmt.Fprintln(out, ui.LabelValue("Next", fmt.Sprintf("%s (%s)", h.Next.Name, h.Next.Time)))
		}
		return nil
	})
	return cmd
}

func newProgressCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show time and syllabus progress",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
		d, err := a.Tracker.Dashboard(ctx, now())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Heading(ui.IconChart, "Progress"))
		fmt.Fprintf(out, "%s %s %3d%% %s\n", ui.Key.Render("Time    "), ui.Bar(d.TimeProgress.Percentage, 30), d.TimeProgress.Percentage,
			ui.Muted.Render(fmt.Sprintf("(%d of %d days)", d.TimeProgress.DaysPassed, d.TimeProgress.TotalDays)))
		fmt.Fprintf(out, "%s %s %3d%% %s\n", ui.Key.Render("Syllabus"), ui.Bar(d.SyllabusProgress.Percentage, 30), d.SyllabusProgress.Percentage,
			ui.Muted.Render(fmt.Sprintf("(%d of %d chapters)", d.SyllabusProgress.Completed, d.SyllabusProgress.Total)))
		fmt.Fprintln(out, ui.LabelValue("Sync", ui.SyncText(d.Sync)))
		return nil
	})
	return cmd
}

func newHistoryCmd(opts *options) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show completion of today's tasks over the last days",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().IntVar(&days, "days", services.DefaultHistoryDays, "number of days")
	cmd.RunE = withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
		h, err := a.Tracker.History(ctx, now(), days)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Heading("", "History"))
		for i, col := range h.Columns {
			fmt.Fprintf(out, "  %s %s\n", ui.Key.Render(fmt.Sprintf("%2d", i+1)), col)
		}
		for _, row := range h.Rows {
			cells := make([]string, len(row.Cells))
			for i, done := range row.Cells {
				cells[i] = ui.Check(done)
			}
			fmt.Fprintf(out, "%-12s %s\n", row.Label, strings.Join(cells, " "))
		}
		return nil
	})
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	var format, path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export progress as JSON or CSV",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&format, "format", services.FormatJSON, "json or csv")
	cmd.Flags().StringVarP(&path, "output", "o", "", "file to write (default: stdout)")
	cmd.RunE = withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
		if path == "" {
			return a.Export.Write(ctx, out, format, now())
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := a.Export.Write(ctx, f, format, now()); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" exported to "+path))
		return nil
	})
	return cmd
}

func newChapterCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapter",
		Short: "List, toggle and annotate syllabus chapters",
	}

	list := &cobra.Command{
		Use:   "list [subject]",
		Short: "List chapters, optionally for one subject",
		Args:  cobra.MaximumNArgs(1),
	}
	list.RunE = func(c *cobra.Command, args []string) error {
		return withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
			tree, err := a.Tracker.Syllabus(ctx)
			if err != nil {
				return err
			}
			for _, subject := range tree.Subjects() {
				if len(args) == 1 && !strings.EqualFold(args[0], subject) {
					continue
				}
				fmt.Fprintln(out, ui.H2.Render(subject))
				for _, paper := range tree.Papers(subject) {
					fmt.Fprintln(out, "  "+ui.Key.Render(paper))
					for _, ch := range tree[subject][paper] {
						line := fmt.Sprintf("    %s %s %s", ui.Check(ch.Done), ch.Title, ui.Muted.Render("["+ch.ID+"]"))
						if ch.Note != "" {
							line += " " + ui.Muted.Render("· "+ch.Note)
						}
						fmt.Fprintln(out, line)
					}
				}
			}
			return nil
		})(c, args)
	}

	toggle := &cobra.Command{
		Use:   "toggle <subject> <paper> <id>",
		Short: "Flip a chapter between done and not done",
		Args:  cobra.ExactArgs(3),
	}
	toggle.RunE = func(c *cobra.Command, args []string) error {
		return withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
			ref := domain.ChapterRef{Subject: args[0], Paper: args[1], ID: args[2]}
			done, err := a.Tracker.ToggleChapter(ctx, ref)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s\n", ui.Check(done), ref.ID)
			afterChange(ctx, a, out)
			return nil
		})(c, args)
	}

	note := &cobra.Command{
		Use:   "note <subject> <paper> <id> [note...]",
		Short: "Set or clear a chapter note",
		Args:  cobra.MinimumNArgs(3),
	}
	note.RunE = func(c *cobra.Command, args []string) error {
		return withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
			ref := domain.ChapterRef{Subject: args[0], Paper: args[1], ID: args[2]}
			text := strings.Join(args[3:], " ")
			if err := a.Tracker.UpdateNote(ctx, ref, text); err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Good.Render("note saved for "+ref.ID))
			afterChange(ctx, a, out)
			return nil
		})(c, args)
	}

	cmd.AddCommand(list, toggle, note)
	return cmd
}

func newTaskCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Daily task commands",
	}

	var date string
	toggle := &cobra.Command{
		Use:   "toggle <task-id>",
		Short: "Flip a daily task for today or --date",
		Args:  cobra.ExactArgs(1),
	}
	toggle.Flags().StringVar(&date, "date", "", "day (YYYY-MM-DD)")
	toggle.RunE = func(c *cobra.Command, args []string) error {
		return withApp(opts, func(ctx context.Context, a *app.App, out io.Writer) error {
			day := date
			if day == "" {
				day = now().In(a.Tracker.Location()).Format(domain.DateLayout)
			}
			done, err := a.Tracker.ToggleDailyTask(ctx, day, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s on %s\n", ui.Check(done), args[0], day)
			afterChange(ctx, a, out)
			return nil
		})(c, args)
	}

	cmd.AddCommand(toggle)
	return cmd
}
