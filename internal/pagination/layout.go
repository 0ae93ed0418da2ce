package pagination

import (
	"math"

	"github.com/desertthunder/scorify/internal/shared"
)

const (
	MinTracksPerPage = 2
	MaxTracksPerPage = 15
	// NavButtons is the count of first/prev/next/last controls sharing the row with the numbered buttons.
	NavButtons = 4
)

// Viewport is one measurement of the available screen area.
type Viewport struct {
	Width  int
	Height int
}

// Layout holds the geometry constants that turn a [Viewport] into page and window sizes.
type Layout struct {
	ReservedHeight int // rows taken by chrome around the list
	ItemHeight     int // rows per track at BaseWidth or wider
	BaseWidth      int // columns below which items start wrapping
	ButtonWidth    int // columns per page button
}

// DefaultLayout matches the shipped configuration.
func DefaultLayout() Layout {
	return Layout{ReservedHeight: 12, ItemHeight: 2, BaseWidth: 100, ButtonWidth: 6}
}

// LayoutFromConfig converts the [layout] configuration section.
func LayoutFromConfig(c shared.LayoutConfig) Layout {
	return Layout{
		ReservedHeight: c.ReservedHeight,
		ItemHeight:     c.ItemHeight,
		BaseWidth:      c.BaseWidth,
		ButtonWidth:    c.ButtonWidth,
	}
}

// WidthFactor inflates the item height on narrow viewports where entries wrap onto more lines. It is never below 1.
func (l Layout) WidthFactor(v Viewport) float64 {
	width := max(v.Width, 1)
	return math.Max(1, float64(l.BaseWidth)/float64(width))
}

// TracksPerPage is the number of items that fit vertically, clamped to [MinTracksPerPage, MaxTracksPerPage].
func (l Layout) TracksPerPage(v Viewport) int {
	itemHeight := float64(max(l.ItemHeight, 1)) * l.WidthFactor(v)
	available := float64(v.Height - l.ReservedHeight)

	n := int(math.Floor(available / itemHeight))
	return min(max(n, MinTracksPerPage), MaxTracksPerPage)
}

// WindowSize is the number of numbered page buttons that fit horizontally beside the navigation controls.
func (l Layout) WindowSize(v Viewport) int {
	if v.Width <= 0 {
		return 0
	}
	return max(0, v.Width/max(l.ButtonWidth, 1)-NavButtons)
}
