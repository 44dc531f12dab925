// Package tui is a terminal viewer for a session: a time label, a
// seekable progress bar and a play/pause indicator.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/seekbox/internal/app/seek"
	"github.com/osa030/seekbox/internal/app/session"
	"github.com/osa030/seekbox/internal/app/transport"
)

// controlTimeout bounds one input action.
const controlTimeout = 2 * time.Second

// actionQueue is the number of input actions waiting for the session.
const actionQueue = 32

const helpText = "[::d]space[::-] play/pause  [::d]←/→[::-] scroll  [::d],/.[::-] frame  [::d]q[::-] quit"

// Session is what the viewer needs from a session.
type Session interface {
	Control(ctx context.Context, fn func(c *transport.Controls) error) error
	Status(ctx context.Context) (session.Status, error)
	Subscribe(fn func(session.Event)) (cancel func())
}

// Ui holds the viewer widgets.
type Ui struct {
	app     *tview.Application
	session Session

	title    *tview.TextView
	status   *tview.TextView
	progress *tview.Box
	message  *tview.TextView

	// Only touched on the tview goroutine
	dragging bool

	actions chan func(c *transport.Controls) error

	mu     sync.Mutex
	latest session.Status
	notify chan struct{}
	done   chan struct{}
}

// New builds the viewer for s.
func New(s Session) *Ui {
	ui := &Ui{
		app:     tview.NewApplication(),
		session: s,
		actions: make(chan func(c *transport.Controls) error, actionQueue),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	ui.title = tview.NewTextView().
		SetTextAlign(tview.AlignLeft).
		SetDynamicColors(true).
		SetScrollable(false)
	ui.status = tview.NewTextView().
		SetTextAlign(tview.AlignRight).
		SetDynamicColors(true).
		SetScrollable(false)
	ui.message = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false).
		SetText(helpText)

	ui.progress = tview.NewBox().SetBorder(true)
	ui.progress.SetDrawFunc(ui.drawProgress)
	ui.progress.SetMouseCapture(ui.handleProgressMouse)

	topBar := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(ui.title, 0, 1, false).
		AddItem(ui.status, 40, 0, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(topBar, 1, 0, false).
		AddItem(ui.progress, 3, 0, false).
		AddItem(tview.NewBox(), 0, 1, false).
		AddItem(ui.message, 1, 0, false)
	root.SetInputCapture(ui.handleInput)

	ui.app.SetRoot(root, true).
		SetFocus(root).
		EnableMouse(true)
	return ui
}

// Run shows the viewer until the user quits.
func (ui *Ui) Run() error {
	if st, err := ui.session.Status(context.Background()); err == nil {
		ui.setLatest(st)
		ui.render(st)
	}

	unsubscribe := ui.session.Subscribe(func(ev session.Event) {
		ui.setLatest(ev.Status)
		if ev.Kind == seek.UpdateSeekRejected && ev.Err != nil {
			ui.app.QueueUpdateDraw(func() { ui.showError(ev.Err) })
		}
	})
	defer unsubscribe()

	go ui.redrawLoop()
	go ui.actionLoop()
	defer close(ui.done)

	return ui.app.Run()
}

// Stop ends Run.
func (ui *Ui) Stop() {
	ui.app.Stop()
}

// setLatest records st and wakes the redraw loop without blocking.
func (ui *Ui) setLatest(st session.Status) {
	ui.mu.Lock()
	ui.latest = st
	ui.mu.Unlock()

	select {
	case ui.notify <- struct{}{}:
	default:
	}
}

func (ui *Ui) current() session.Status {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return ui.latest
}

func (ui *Ui) redrawLoop() {
	for {
		select {
		case <-ui.done:
			return
		case <-ui.notify:
			st := ui.current()
			ui.app.QueueUpdateDraw(func() { ui.render(st) })
		}
	}
}

func (ui *Ui) render(st session.Status) {
	ui.title.SetText(titleText(st))
	ui.status.SetText(statusText(st))
}

func (ui *Ui) showError(err error) {
	ui.message.SetText("[red]" + tview.Escape(err.Error()) + "[-]")
}

// control queues fn for the action loop. Actions run in input order.
func (ui *Ui) control(fn func(c *transport.Controls) error) {
	select {
	case ui.actions <- fn:
	default:
		zlog.Warn().Msg("tui: input dropped, session busy")
	}
}

func (ui *Ui) actionLoop() {
	for {
		select {
		case <-ui.done:
			return
		case fn := <-ui.actions:
			ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
			err := ui.session.Control(ctx, fn)
			cancel()
			if err != nil {
				zlog.Warn().Err(err).Msg("tui: control failed")
				ui.app.QueueUpdateDraw(func() { ui.showError(err) })
			}
		}
	}
}

func (ui *Ui) handleInput(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyRune && event.Rune() == 'q' {
		ui.app.Stop()
		return nil
	}
	fn := actionFor(event)
	if fn == nil {
		return event
	}
	ui.message.SetText(helpText)
	ui.control(fn)
	return nil
}

// actionFor maps a key to a transport action, or nil.
func actionFor(event *tcell.EventKey) func(c *transport.Controls) error {
	switch event.Key() {
	case tcell.KeyLeft:
		return func(c *transport.Controls) error { return c.Scroll(transport.Backward) }
	case tcell.KeyRight:
		return func(c *transport.Controls) error { return c.Scroll(transport.Forward) }
	case tcell.KeyRune:
		switch event.Rune() {
		case ' ':
			return (*transport.Controls).PlayPause
		case ',':
			return func(c *transport.Controls) error { return c.StepFrame(-1) }
		case '.':
			return func(c *transport.Controls) error { return c.StepFrame(1) }
		}
	}
	return nil
}

func (ui *Ui) handleProgressMouse(action tview.MouseAction, event *tcell.EventMouse) (tview.MouseAction, *tcell.EventMouse) {
	x, y := event.Position()
	bx, _, bw, _ := ui.progress.GetInnerRect()
	st := ui.current()

	switch action {
	case tview.MouseLeftDown:
		if !ui.progress.InRect(x, y) || !st.View.Sensitive {
			return action, event
		}
		ui.dragging = true
		value := sliderValueAt(x-bx, bw, st.View.SliderMax)
		ui.control(func(c *transport.Controls) error {
			if err := c.SliderPress(); err != nil {
				return err
			}
			return c.SliderMove(value)
		})
		return action, nil
	case tview.MouseMove:
		if !ui.dragging {
			return action, event
		}
		value := sliderValueAt(x-bx, bw, st.View.SliderMax)
		ui.control(func(c *transport.Controls) error { return c.SliderMove(value) })
		return action, nil
	case tview.MouseLeftUp:
		if !ui.dragging {
			return action, event
		}
		ui.dragging = false
		ui.control((*transport.Controls).SliderRelease)
		return action, nil
	}
	return action, event
}

func (ui *Ui) drawProgress(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	// inner area excludes the border
	ix, iy, iw := x+1, y+1, width-2
	if iw <= 0 || height < 3 {
		return x, y, width, height
	}
	tview.Print(screen, progressBar(ui.current().View, iw), ix, iy, iw, tview.AlignLeft, tcell.ColorDefault)
	return ix, iy, iw, height - 2
}

// sliderValueAt converts a column inside a bar of width cells to a time.
func sliderValueAt(col, width int, maximum time.Duration) time.Duration {
	if width <= 1 || maximum <= 0 {
		return 0
	}
	col = min(max(col, 0), width-1)
	return time.Duration(int64(maximum) * int64(col) / int64(width-1))
}

// progressBar renders v as a bar of width cells.
func progressBar(v transport.View, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if v.SliderMax > 0 {
		filled = int(int64(width) * int64(min(max(v.Slider, 0), v.SliderMax)) / int64(v.SliderMax))
	}
	color := "[green]"
	if !v.Sensitive {
		color = "[gray]"
	}
	return color + strings.Repeat("█", filled) + "[-][gray]" + strings.Repeat("░", width-filled) + "[-]"
}

func titleText(st session.Status) string {
	if !st.Snapshot.Attached {
		return "[::b]seekbox[::-]  no media"
	}
	return fmt.Sprintf("[::b]seekbox[::-]  %s", tview.Escape(st.Media.Name))
}

func statusText(st session.Status) string {
	v := st.View
	icon := "⏸"
	if v.Button == transport.ButtonPause {
		icon = "▶"
	}
	text := fmt.Sprintf("%s  %s", v.TimeLabel, icon)
	if v.Frame != seek.NoFrame {
		text = fmt.Sprintf("#%d  %s", v.Frame, text)
	}
	if st.Snapshot.SeekInFlight {
		text = "[yellow]" + text + "[-]"
	}
	return text
}
