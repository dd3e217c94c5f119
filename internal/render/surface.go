package render

// Color is a device-independent palette index. The termbox surface maps it
// onto terminal attributes; tests use an in-memory grid.
type Color int

const (
	ColorDefault Color = iota
	ColorEdge
	ColorUnmatched
	ColorMatched
	ColorSelected
	ColorHovered
	ColorText
	ColorMuted
)

// Surface is the drawing target. The engine is a pure function of its
// inputs onto this interface; it keeps no pixel state of its own.
type Surface interface {
	Size() (w, h int)
	Clear()
	SetCell(x, y int, ch rune, fg, bg Color)
	Flush()
}

// Theme selects the palette variant.
type Theme struct {
	Dark bool
}
