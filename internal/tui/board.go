package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/services"
)

// RunBoard blocks until the user quits. Events other than the board's own
// edits trigger a reload.
func RunBoard(ctx context.Context, tracker Tracker, syncer Syncer, events *services.Events, out io.Writer) error {
	m := newBoardModel(ctx, tracker, syncer)
	p := tea.NewProgram(m, tea.WithOutput(out), tea.WithContext(ctx))
	if events != nil {
		events.Subscribe(func(evt services.Event) {
			// Local edits come from the board itself and already reload.
			if evt.Type == services.EventStateChanged && evt.Origin == services.OriginLocal {
				return
			}
			go p.Send(refreshMsg{})
		})
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
