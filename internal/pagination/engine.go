package pagination

import "fmt"

// State is the observable pagination state. CurrentPage never exceeds TotalPages.
type State struct {
	CurrentPage   int
	TracksPerPage int
	TotalPages    int
	WindowSize    int
	ItemCount     int
}

// Regime names how the button window is placed relative to the page range.
type Regime int

const (
	RegimeStart  Regime = iota // window pinned to page 1
	RegimeEnd                  // window pinned to the last page
	RegimeMiddle               // window centered on the current page
)

func (r Regime) String() string {
	switch r {
	case RegimeEnd:
		return "end"
	case RegimeMiddle:
		return "middle"
	default:
		return "start"
	}
}

// Button is one numbered page control.
type Button struct {
	Slot     int
	Page     int
	Active   bool
	Disabled bool
}

func (b Button) String() string {
	return fmt.Sprintf("%d", b.Page)
}

// Controls holds the disabled flags of the four navigation controls.
type Controls struct {
	First bool
	Prev  bool
	Next  bool
	Last  bool
}

// Engine tracks the current page against the viewport and the item count.
//
// An Engine is not safe for concurrent use. Every mutating method restores CurrentPage ≤ TotalPages before returning.
type Engine struct {
	layout   Layout
	viewport Viewport
	state    State
}

// NewEngine creates an [Engine] on page 1 with an unmeasured viewport.
func NewEngine(layout Layout) *Engine {
	e := &Engine{layout: layout, state: State{CurrentPage: 1}}
	e.recompute()
	return e
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	return e.state
}

// Viewport returns the last measured viewport.
func (e *Engine) Viewport() Viewport {
	return e.viewport
}

// Resize applies a new viewport measurement. Repeating the same measurement has no effect.
func (e *Engine) Resize(v Viewport) State {
	e.viewport = v
	e.recompute()
	return e.state
}

// SetItemCount updates the number of items being paginated.
func (e *Engine) SetItemCount(n int) State {
	e.state.ItemCount = max(n, 0)
	e.recompute()
	return e.state
}

// GoTo moves to page p, clamped to [1, TotalPages].
func (e *Engine) GoTo(p int) State {
	e.state.CurrentPage = p
	e.clamp()
	return e.state
}

func (e *Engine) First() State { return e.GoTo(1) }
func (e *Engine) Prev() State  { return e.GoTo(e.state.CurrentPage - 1) }
func (e *Engine) Next() State  { return e.GoTo(e.state.CurrentPage + 1) }
func (e *Engine) Last() State  { return e.GoTo(e.state.TotalPages) }

// Bounds returns the [start, end) item indices of the current page.
func (e *Engine) Bounds() (start, end int) {
	start = (e.state.CurrentPage - 1) * e.state.TracksPerPage
	end = min(start+e.state.TracksPerPage, e.state.ItemCount)
	return min(start, end), end
}

// Controls reports which navigation controls are disabled.
func (e *Engine) Controls() Controls {
	atStart := e.state.CurrentPage <= 1
	atEnd := e.state.CurrentPage >= e.state.TotalPages
	return Controls{First: atStart, Prev: atStart, Next: atEnd, Last: atEnd}
}

// Window is the number of numbered buttons actually shown: never more than there are pages.
func (e *Engine) Window() int {
	return min(e.state.WindowSize, e.state.TotalPages)
}

// Regime reports how the current window is placed.
func (e *Engine) Regime() Regime {
	return regime(e.state.CurrentPage, e.state.TotalPages, e.Window())
}

// Buttons maps each window slot to its page. The button for the current page is the only active one and is disabled.
func (e *Engine) Buttons() []Button {
	allowed := e.Window()
	if allowed <= 0 {
		return nil
	}

	cur, total := e.state.CurrentPage, e.state.TotalPages
	r := regime(cur, total, allowed)

	buttons := make([]Button, allowed)
	for i := range buttons {
		var page int
		switch r {
		case RegimeStart:
			page = i + 1
		case RegimeEnd:
			page = total - allowed + i + 1
		default:
			page = cur - allowed/2 + i
		}
		active := page == cur
		buttons[i] = Button{Slot: i, Page: page, Active: active, Disabled: active}
	}
	return buttons
}

// PageForSlot returns the page shown in the given window slot, or 0 when the slot is outside the window.
func (e *Engine) PageForSlot(slot int) int {
	buttons := e.Buttons()
	if slot < 0 || slot >= len(buttons) {
		return 0
	}
	return buttons[slot].Page
}

// LeadIn is the number of pages at either end for which the window stays pinned.
func LeadIn(allowed int) int {
	return allowed/2 + 1
}

func regime(cur, total, allowed int) Regime {
	leadIn := LeadIn(allowed)
	switch {
	case cur <= leadIn || total <= leadIn:
		return RegimeStart
	case cur > total-leadIn:
		return RegimeEnd
	default:
		return RegimeMiddle
	}
}

func (e *Engine) recompute() {
	e.state.TracksPerPage = e.layout.TracksPerPage(e.viewport)
	e.state.WindowSize = e.layout.WindowSize(e.viewport)
	e.state.TotalPages = max(1, (e.state.ItemCount+e.state.TracksPerPage-1)/e.state.TracksPerPage)
	e.clamp()
}

func (e *Engine) clamp() {
	e.state.CurrentPage = min(max(e.state.CurrentPage, 1), e.state.TotalPages)
}
