// Package app is the client's single control flow: one goroutine owns the
// drawing surface and applies every pointer event, key press, push-driven
// refresh and overlay message from a typed-message inbox. Network calls run
// on their own goroutines and post their effects back here as messages.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/swapgraph/tileswap/internal/editor"
	"github.com/swapgraph/tileswap/internal/history"
	"github.com/swapgraph/tileswap/internal/input"
	"github.com/swapgraph/tileswap/internal/multiplayer"
	"github.com/swapgraph/tileswap/internal/render"
	"github.com/swapgraph/tileswap/internal/session"
	"github.com/swapgraph/tileswap/internal/sound"
	"github.com/swapgraph/tileswap/internal/state"
)

type Msg interface{ isAppMsg() }

// Pointer is a decoded mouse event from the terminal pump.
type Pointer struct{ Ev render.PointerEvent }

// Key is a decoded key press from the terminal pump.
type Key struct{ Ev render.KeyEvent }

// Redraw requests a repaint, typically after a state or room replacement.
type Redraw struct{}

// Notice opens the dismissible message overlay.
type Notice struct{ Title, Text string }

// Quit stops the loop.
type Quit struct{}

func (Pointer) isAppMsg() {}
func (Key) isAppMsg()     {}
func (Redraw) isAppMsg()  {}
func (Notice) isAppMsg()  {}
func (Quit) isAppMsg()    {}

type screen int

const (
	screenGame screen = iota
	screenEditor
)

// Options is the static wiring main resolves from flags and env.
type Options struct {
	NumNodes int
	SaveDir  string
	LoadPath string
	Theme    render.Theme
}

type App struct {
	inbox   chan Msg
	surface *render.TermSurface
	engine  *render.Engine
	game    *session.GameSession
	ctrl    *input.Controller
	mp      *multiplayer.Session
	hist    *history.Store
	sounds  *sound.Player
	log     *zap.Logger
	opts    Options

	screen  screen
	edit    *editor.Graph
	overlay *Notice

	// editor drag bookkeeping: distinguishes a click-release (add node)
	// from a drag-release (add edge).
	editorDragging bool
}

func New(surface *render.TermSurface, engine *render.Engine, game *session.GameSession, ctrl *input.Controller, sounds *sound.Player, opts Options, log *zap.Logger) *App {
	return &App{
		inbox:   make(chan Msg, 64),
		surface: surface,
		engine:  engine,
		game:    game,
		ctrl:    ctrl,
		sounds:  sounds,
		log:     log,
		opts:    opts,
		edit:    editor.NewGraph(),
	}
}

func (a *App) Inbox() chan<- Msg { return a.inbox }

// SetMultiplayer attaches the room session once the channel is up.
func (a *App) SetMultiplayer(mp *multiplayer.Session) { a.mp = mp }

// SetHistory attaches the optional local archive. The nil store works too;
// the overlay just shows an empty record.
func (a *App) SetHistory(st *history.Store) { a.hist = st }

// Show implements the MessageSink used by the game and room sessions. Safe
// from any goroutine; the overlay opens on the loop goroutine.
func (a *App) Show(title, text string) {
	select {
	case a.inbox <- Notice{Title: title, Text: text}:
	default:
	}
}

// RequestRedraw posts a repaint without blocking the caller.
func (a *App) RequestRedraw() {
	select {
	case a.inbox <- Redraw{}:
	default:
	}
}

// Run owns the surface until ctx ends or a Quit arrives.
func (a *App) Run(ctx context.Context) error {
	a.draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-a.inbox:
			switch msg := m.(type) {
			case Quit:
				return nil
			case Redraw:
				a.draw()
			case Notice:
				a.overlay = &msg
				a.draw()
			case Pointer:
				a.handlePointer(ctx, msg.Ev)
			case Key:
				a.handleKey(ctx, msg.Ev)
			}
		}
	}
}

func (a *App) handlePointer(ctx context.Context, ev render.PointerEvent) {
	if a.overlay != nil {
		return
	}
	switch a.screen {
	case screenGame:
		switch {
		case ev.Move:
			a.ctrl.OnPointerMove(ev.X, ev.Y)
		case ev.Release || ev.Secondary:
			// releases and right clicks are not taps on the game canvas
		default:
			a.ctrl.OnPointerTap(ctx, ev.X, ev.Y)
		}
	case screenEditor:
		a.handleEditorPointer(ev)
	}
}

func (a *App) handleEditorPointer(ev render.PointerEvent) {
	x, y := float64(ev.X), float64(ev.Y)
	switch {
	case ev.Secondary:
		if id := a.edit.NodeAt(x, y); id != 0 {
			a.edit.RemoveNode(id)
		}
	case ev.Move:
		if a.editorDragging {
			a.edit.DragTo(x, y)
		}
	case ev.Release:
		if a.editorDragging {
			a.edit.EndDrag(x, y)
			a.editorDragging = false
		} else {
			a.edit.AddNode(x, y)
		}
	default: // press
		a.editorDragging = a.edit.BeginDrag(x, y)
	}
	a.draw()
}

func (a *App) handleKey(ctx context.Context, ev render.KeyEvent) {
	if a.overlay != nil {
		a.overlay = nil
		a.draw()
		return
	}
	switch a.screen {
	case screenEditor:
		a.handleEditorKey(ctx, ev)
		return
	default:
	}

	switch ev.Ch {
	case 'q':
		a.inbox <- Quit{}
	case 'n':
		go func() { _ = a.game.NewGame(ctx, a.opts.NumNodes) }()
	case 'u':
		if g := a.game.State(); g != nil && g.CanUndo {
			go func() {
				if err := a.game.Undo(ctx); err == nil {
					a.sounds.Click()
				}
			}()
		}
	case 'r':
		if g := a.game.State(); g != nil && g.CanRedo {
			go func() {
				if err := a.game.Redo(ctx); err == nil {
					a.sounds.Click()
				}
			}()
		}
	case 's':
		go func() {
			if _, err := a.game.SaveToFile(ctx, a.opts.SaveDir); err == nil {
				a.sounds.Click()
			}
		}()
	case 'l':
		go a.loadFromConfiguredFile(ctx)
	case 'h':
		go a.showHistory(ctx)
	case 'e':
		a.screen = screenEditor
		a.edit = editor.NewGraph()
		a.draw()
	case 'd':
		a.opts.Theme.Dark = !a.opts.Theme.Dark
		a.surface.SetTheme(a.opts.Theme)
		a.draw()
	case 'm':
		a.sounds.SetEnabled(false)
	case 'M':
		a.sounds.SetEnabled(true)
	case 'y':
		if a.mp != nil && a.mp.InRoom() {
			a.mp.ToggleReady()
		}
	case 'g':
		if a.mp != nil && a.mp.IsHost() {
			a.mp.StartGame()
		}
	case 'x':
		if a.mp != nil && a.mp.InRoom() {
			a.mp.LeaveRoom()
		}
	case 0:
		// resize arrives as a zero key event
		a.draw()
	}
}

func (a *App) handleEditorKey(ctx context.Context, ev render.KeyEvent) {
	switch ev.Ch {
	case 'c':
		a.edit.Clear()
		a.draw()
	case 'q':
		a.screen = screenGame
		a.draw()
	case 0:
		// Enter finalizes; anything else redraws (covers resize).
		if isEnter(ev) {
			a.finalizeEditor(ctx)
			return
		}
		a.draw()
	default:
		a.draw()
	}
}

func isEnter(ev render.KeyEvent) bool { return ev.Key == 0xD || ev.Key == 0xA }

// finalizeEditor validates locally; rejections show a message and send
// nothing.
func (a *App) finalizeEditor(ctx context.Context) {
	edges, err := a.edit.Finalize()
	if err != nil {
		a.overlay = &Notice{Title: "Error", Text: err.Error()}
		a.draw()
		return
	}
	a.screen = screenGame
	go func() { _ = a.game.CustomGame(ctx, edges) }()
	a.draw()
}

func (a *App) draw() {
	switch a.screen {
	case screenEditor:
		view := editor.View{Graph: a.edit}
		view.Draw(a.surface)
	default:
		showTiles := true
		if a.mp != nil {
			showTiles = a.mp.ShowTiles()
		}
		a.engine.Draw(a.surface, render.Frame{
			State:     a.game.State(),
			Sel:       a.ctrl.Selection(),
			Anim:      a.game.Anim(),
			ShowTiles: showTiles,
		})
		a.drawStatus()
	}
	if a.overlay != nil {
		a.drawOverlay()
	}
	a.surface.Flush()
}

func (a *App) drawStatus() {
	_, h := a.surface.Size()
	line := `n:new e:editor u:undo r:redo s:save l:load h:history q:quit`
	if g := a.game.State(); g != nil {
		status := "Playing"
		if !g.Active {
			status = "Game over"
		}
		line = fmt.Sprintf("Moves: %d  Optimal: %d  %s", g.MoveCount, g.OptimalMoves, status)
	}
	a.text(1, h-1, line, render.ColorMuted)

	if a.mp != nil && a.mp.InRoom() {
		a.drawRoom()
	}
}

// drawRoom paints the lobby roster or the live leaderboard down the right
// edge, straight from the latest RoomInfo; ordering and ranks are the
// server's.
func (a *App) drawRoom() {
	room := a.mp.Room()
	if room == nil {
		return
	}
	w, _ := a.surface.Size()
	col := w - 28
	a.text(col, 0, fmt.Sprintf("Room %s (%s)", room.Code, room.Mode), render.ColorText)
	for i, p := range room.Leaderboard {
		marker := " "
		if room.State == state.RoomLobby {
			if p.Ready {
				marker = "+"
			}
		} else if p.Solved {
			marker = fmt.Sprintf("#%d", p.Rank)
		} else if p.IsCurrentTurn {
			marker = ">"
		}
		name := p.Name
		if p.IsHost {
			name += " (host)"
		}
		if p.SessionID == a.mp.SessionID() {
			name += " (you)"
		}
		a.text(col, 1+i, fmt.Sprintf("%-2s %s %d moves", marker, name, p.Moves), render.ColorMuted)
	}
}

func (a *App) drawOverlay() {
	w, h := a.surface.Size()
	title := a.overlay.Title
	lines := strings.Split(a.overlay.Text, "\n")
	top := h/2 - len(lines)/2 - 1
	a.text((w-len(title))/2, top, title, render.ColorSelected)
	for i, line := range lines {
		a.text((w-len(line))/2, top+2+i, line, render.ColorText)
	}
	a.text((w-22)/2, top+3+len(lines), "press any key to close", render.ColorMuted)
}

func (a *App) text(x, y int, s string, fg render.Color) {
	for i, ch := range s {
		a.surface.SetCell(x+i, y, ch, fg, render.ColorDefault)
	}
}

// showHistory opens an overlay with the archive's aggregate stats and the
// latest finished puzzles.
func (a *App) showHistory(ctx context.Context) {
	stats, err := a.hist.FetchStats(ctx)
	if err != nil {
		a.log.Warn("history stats failed", zap.Error(err))
		a.Show("Error", "History unavailable")
		return
	}
	recent, err := a.hist.Recent(ctx, 5)
	if err != nil {
		a.log.Warn("history fetch failed", zap.Error(err))
		a.Show("Error", "History unavailable")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Played: %d  Perfect: %d", stats.Played, stats.Perfect)
	for _, r := range recent {
		fmt.Fprintf(&b, "\n%s  %d/%d moves  %s", r.PlayedAt.Format("2006-01-02"), r.Moves, r.Optimal, r.Rating)
	}
	a.Show("History", b.String())
}

func (a *App) loadFromConfiguredFile(ctx context.Context) {
	if a.opts.LoadPath == "" {
		a.Show("Error", "No save file configured (set TILESWAP_LOAD)")
		return
	}
	contents, err := os.ReadFile(a.opts.LoadPath)
	if err != nil {
		a.Show("Error", "Invalid save file")
		return
	}
	if err := a.game.LoadFromFile(ctx, contents); err == nil {
		a.sounds.Click()
	}
}

// TickerFrames drives animation steps off a wall-clock ticker, standing in
// for the host environment's per-frame redraw callback.
type TickerFrames struct {
	Interval time.Duration
}

func (t TickerFrames) Run(step func() bool) {
	iv := t.Interval
	if iv <= 0 {
		iv = 33 * time.Millisecond
	}
	tick := time.NewTicker(iv)
	defer tick.Stop()
	for range tick.C {
		if step() {
			return
		}
	}
}
