package render

import (
	termbox "github.com/nsf/termbox-go"
)

// TermSurface renders onto the terminal through termbox. It also owns the
// raw input loop, translated into pointer/key events by the caller.
type TermSurface struct {
	theme Theme
}

func NewTermSurface(theme Theme) (*TermSurface, error) {
	if err := termbox.Init(); err != nil {
		return nil, err
	}
	termbox.SetInputMode(termbox.InputEsc | termbox.InputMouse)
	return &TermSurface{theme: theme}, nil
}

func (t *TermSurface) Close() { termbox.Close() }

// SetTheme swaps the palette variant for subsequent frames.
func (t *TermSurface) SetTheme(theme Theme) { t.theme = theme }

func (t *TermSurface) Size() (int, int) { return termbox.Size() }

func (t *TermSurface) Clear() {
	_ = termbox.Clear(termbox.ColorDefault, t.background())
}

func (t *TermSurface) SetCell(x, y int, ch rune, fg, bg Color) {
	termbox.SetCell(x, y, ch, t.attr(fg), t.bgAttr(bg))
}

func (t *TermSurface) Flush() { _ = termbox.Flush() }

func (t *TermSurface) background() termbox.Attribute {
	if t.theme.Dark {
		return termbox.ColorBlack
	}
	return termbox.ColorDefault
}

func (t *TermSurface) attr(c Color) termbox.Attribute {
	switch c {
	case ColorEdge:
		return termbox.ColorWhite
	case ColorUnmatched:
		return termbox.ColorBlue
	case ColorMatched:
		return termbox.ColorGreen
	case ColorSelected:
		return termbox.ColorYellow | termbox.AttrBold
	case ColorHovered:
		return termbox.ColorWhite | termbox.AttrBold
	case ColorText:
		return termbox.ColorWhite | termbox.AttrBold
	case ColorMuted:
		return termbox.ColorWhite
	default:
		return termbox.ColorDefault
	}
}

func (t *TermSurface) bgAttr(c Color) termbox.Attribute {
	switch c {
	case ColorUnmatched:
		return termbox.ColorBlue
	case ColorMatched:
		return termbox.ColorGreen
	default:
		return t.background()
	}
}

// PointerEvent is one decoded mouse action in surface coordinates.
type PointerEvent struct {
	X, Y      int
	Secondary bool // right button: alternate activation (editor node removal)
	Release   bool
	Move      bool
}

// KeyEvent is one decoded key press.
type KeyEvent struct {
	Ch  rune
	Key termbox.Key
}

// PollEvent blocks on the next terminal event and translates it. The third
// return is false for events the client does not consume (resize is
// reported as a redraw-worthy key event with zero values).
func (t *TermSurface) PollEvent() (*PointerEvent, *KeyEvent, bool) {
	switch ev := termbox.PollEvent(); ev.Type {
	case termbox.EventMouse:
		pe := &PointerEvent{X: ev.MouseX, Y: ev.MouseY}
		switch ev.Key {
		case termbox.MouseLeft:
		case termbox.MouseRight:
			pe.Secondary = true
		case termbox.MouseRelease:
			pe.Release = true
		default:
			pe.Move = true
		}
		return pe, nil, true
	case termbox.EventKey:
		return nil, &KeyEvent{Ch: ev.Ch, Key: ev.Key}, true
	case termbox.EventResize:
		return nil, &KeyEvent{}, true
	default:
		return nil, nil, false
	}
}

// Interrupt unblocks a pending PollEvent so the event pump can shut down.
func (t *TermSurface) Interrupt() { termbox.Interrupt() }
