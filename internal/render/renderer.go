package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"time"

	apperrors "go-restaurant-grid/internal/errors"
	"go-restaurant-grid/internal/logger"
	"go-restaurant-grid/internal/observer"
	"go-restaurant-grid/internal/worker"
	"go-restaurant-grid/pkg/models"

	"github.com/golang/freetype/truetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// NoImageLabel is drawn on cells whose slot has no reference.
const NoImageLabel = "No Image"

var (
	// FailedImageGray fills a cell whose image could not be loaded.
	FailedImageGray = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	// EmptySlotGray fills a cell that has no image reference.
	EmptySlotGray = color.RGBA{R: 220, G: 220, B: 220, A: 255}
)

// ImageLoader resolves an image reference to opaque pixels.
type ImageLoader interface {
	Load(ctx context.Context, ref string) (*image.RGBA, error)
}

// Renderer composes restaurant records into a single grid image: one row
// per record, a text panel on the left and one cell per image slot.
//
// A Renderer is safe for concurrent use: each Render call draws with its own
// font face.
type Renderer struct {
	loader   ImageLoader
	layout   Layout
	font     *truetype.Font
	fontSize float64
	events   observer.Subject
	workers  int

	noImage *image.RGBA
}

type Option func(*Renderer)

// WithFontPath loads a TrueType font from path, keeping the embedded
// default when the file is missing or invalid.
func WithFontPath(path string) Option {
	return func(r *Renderer) {
		if path == "" {
			return
		}
		f, err := LoadFont(path)
		if err != nil {
			logger.WithError(err).WithField("font_path", path).
				Warn("Could not load font, falling back to embedded Go Regular")
			return
		}
		r.font = f
	}
}

func WithEvents(s observer.Subject) Option {
	return func(r *Renderer) {
		if s != nil {
			r.events = s
		}
	}
}

// WithImageWorkers sets how many cell images are loaded concurrently.
func WithImageWorkers(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.workers = n
		}
	}
}

func NewRenderer(loader ImageLoader, opts ...Option) *Renderer {
	r := &Renderer{
		loader:   loader,
		layout:   DefaultLayout,
		fontSize: DefaultFontSize,
		events:   observer.Nop{},
		workers:  1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.font == nil {
		r.font = DefaultFont()
	}
	// cell workers only read this template
	r.noImage = r.fit(r.emptyCell(newFace(r.font, r.fontSize)))
	return r
}

type slot struct {
	row, col   int
	restaurant string
	ref        string
}

// Render draws every record. It never fails: unloadable images become gray
// cells and empty slots become "No Image" cells. The canvas is exactly
// CanvasSize(len(records)), including for zero records.
func (r *Renderer) Render(ctx context.Context, records []models.RestaurantRecord) *image.RGBA {
	start := time.Now()
	size := r.layout.CanvasSize(len(records))
	canvas := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	face := newFace(r.font, r.fontSize)
	var slots []slot
	for i, rec := range records {
		r.drawText(canvas, face, i, rec)

		refs := rec.Slots()
		for j := 0; j < r.layout.Slots && j < len(refs); j++ {
			slots = append(slots, slot{row: i, col: j, restaurant: rec.Name, ref: refs[j]})
		}
	}

	cells := worker.Map(r.workers, slots, func(_ int, s slot) *image.RGBA {
		return r.cell(ctx, s)
	})
	for k, s := range slots {
		origin := r.layout.CellOrigin(s.row, s.col)
		dst := image.Rectangle{Min: origin, Max: origin.Add(cells[k].Bounds().Size())}
		draw.Draw(canvas, dst, cells[k], image.Point{}, draw.Src)
	}

	r.events.NotifyObservers(ctx, observer.GridEvent{
		EventType: observer.GridRendered,
		Duration:  time.Since(start),
		Success:   true,
		Metadata: map[string]interface{}{
			"rows":   len(records),
			"width":  size.X,
			"height": size.Y,
		},
	})
	return canvas
}

func (r *Renderer) drawText(canvas *image.RGBA, face font.Face, row int, rec models.RestaurantRecord) {
	lines := []string{
		"Name: " + rec.Name,
		"City: " + rec.City,
		"Distance: " + rec.DistanceLabel,
	}

	ascent := face.Metrics().Ascent
	top := row*r.layout.RowHeight + r.layout.TextY
	clip := canvas.SubImage(image.Rect(0, row*r.layout.RowHeight, r.layout.TextPanelWidth, (row+1)*r.layout.RowHeight)).(*image.RGBA)

	d := &font.Drawer{
		Dst:  clip,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	for k, line := range lines {
		d.Dot = fixed.Point26_6{
			X: fixed.I(r.layout.TextX),
			Y: fixed.I(top+k*r.layout.LineHeight) + ascent,
		}
		d.DrawString(line)
	}
}

// cell returns the fully composed cell for one slot.
func (r *Renderer) cell(ctx context.Context, s slot) *image.RGBA {
	if s.ref == models.NoImage {
		return r.noImage
	}

	start := time.Now()
	img, err := r.loader.Load(ctx, s.ref)
	if err == nil && (img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0) {
		err = apperrors.NewDecodeError(fmt.Sprintf("image has no pixels: %dx%d", img.Bounds().Dx(), img.Bounds().Dy()), nil)
	}
	if err != nil {
		r.events.NotifyObservers(ctx, observer.GridEvent{
			EventType:    observer.ImageFetchFailed,
			Restaurant:   s.restaurant,
			ImageRef:     s.ref,
			Duration:     time.Since(start),
			ErrorMessage: err.Error(),
			Metadata:     map[string]interface{}{"row": s.row, "slot": s.col},
		})
		return r.fit(r.solidCell(FailedImageGray))
	}

	r.events.NotifyObservers(ctx, observer.GridEvent{
		EventType:  observer.ImageFetched,
		Restaurant: s.restaurant,
		ImageRef:   s.ref,
		Duration:   time.Since(start),
		Success:    true,
	})
	return r.fit(img)
}

func (r *Renderer) solidCell(c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.layout.CellWidth, r.layout.RowHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func (r *Renderer) emptyCell(face font.Face) *image.RGBA {
	img := r.solidCell(EmptySlotGray)

	bounds, _ := font.BoundString(face, NoImageLabel)
	textW := (bounds.Max.X - bounds.Min.X).Ceil()
	textH := (bounds.Max.Y - bounds.Min.Y).Ceil()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	d.Dot = fixed.Point26_6{
		X: fixed.I((r.layout.CellWidth-textW)/2) - bounds.Min.X,
		Y: fixed.I((r.layout.RowHeight-textH)/2) - bounds.Min.Y,
	}
	d.DrawString(NoImageLabel)
	return img
}

// fit scales img into the cell and centres it on white.
func (r *Renderer) fit(img *image.RGBA) *image.RGBA {
	cell := r.solidCell(color.White)

	src := img.Bounds()
	w, h := r.layout.FitSize(src.Dx(), src.Dy())
	if w == 0 || h == 0 {
		return cell
	}

	off := image.Pt((r.layout.CellWidth-w)/2, (r.layout.RowHeight-h)/2)
	dst := image.Rectangle{Min: off, Max: off.Add(image.Pt(w, h))}
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(cell, dst, img, src.Min, draw.Src)
		return cell
	}
	xdraw.CatmullRom.Scale(cell, dst, img, src, xdraw.Src, nil)
	return cell
}

// EncodePNG serialises the composite image.
func EncodePNG(img image.Image) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, apperrors.NewValidationError("cannot encode an empty grid", nil)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperrors.NewInternalError("failed to encode png", err)
	}
	return buf.Bytes(), nil
}
