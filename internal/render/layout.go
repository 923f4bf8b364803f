package render

import (
	"image"

	"go-restaurant-grid/pkg/models"
)

// Layout holds the fixed pixel geometry of the grid.
type Layout struct {
	RowHeight      int
	TextPanelWidth int
	CellWidth      int
	Slots          int

	TextX      int
	TextY      int
	LineHeight int
}

// DefaultLayout is a 300px text panel followed by five 200x200 image cells.
var DefaultLayout = Layout{
	RowHeight:      200,
	TextPanelWidth: 300,
	CellWidth:      200,
	Slots:          models.ImageSlots,

	TextX:      10,
	TextY:      10,
	LineHeight: 30,
}

// CanvasSize returns the canvas dimensions for rows records.
func (l Layout) CanvasSize(rows int) image.Point {
	if rows < 0 {
		rows = 0
	}
	return image.Pt(l.TextPanelWidth+l.Slots*l.CellWidth, l.RowHeight*rows)
}

// CellOrigin returns the top-left corner of image slot col in row.
func (l Layout) CellOrigin(row, col int) image.Point {
	return image.Pt(l.TextPanelWidth+col*l.CellWidth, row*l.RowHeight)
}

// CanvasSize returns the default canvas dimensions for n records.
func CanvasSize(n int) image.Point {
	return DefaultLayout.CanvasSize(n)
}

// FitSize scales (w, h) to the row height keeping the aspect ratio and then
// clamps the width to the cell, shrinking the height to match.
func (l Layout) FitSize(w, h int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	aspect := float64(w) / float64(h)
	newH := l.RowHeight
	newW := int(float64(newH) * aspect)
	if newW > l.CellWidth {
		newW = l.CellWidth
		newH = int(float64(newW) / aspect)
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	return newW, newH
}
