// Package canvas hosts the annotation surface inside a Fyne widget and
// translates Fyne input events into surface pointer events.
package canvas

import (
	"image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"image-labeler/internal/editor"
)

// Widget renders the surface through a raster and feeds it pointer
// events. All event positions are converted from logical units to device
// pixels before they reach the surface.
type Widget struct {
	widget.BaseWidget

	surface *editor.Surface
	raster  *fynecanvas.Raster

	// Device pixels per logical unit, captured on each draw.
	scale float64

	// fitPending schedules a fit-to-window on the next draw, once the
	// actual raster size is known.
	fitPending bool
}

// New creates the canvas widget for a surface.
func New(surface *editor.Surface) *Widget {
	w := &Widget{surface: surface, scale: 1.0}
	w.raster = fynecanvas.NewRaster(w.draw)
	w.ExtendBaseWidget(w)
	return w
}

// FitToWindow schedules a fit of the loaded image into the widget on the
// next draw.
func (w *Widget) FitToWindow() {
	w.fitPending = true
	w.Refresh()
}

func (w *Widget) draw(pw, ph int) image.Image {
	size := w.Size()
	if size.Width > 0 {
		w.scale = float64(pw) / float64(size.Width)
	}
	if w.fitPending && pw > 0 && ph > 0 {
		w.fitPending = false
		if w.surface.HasImage() {
			w.surface.View.FitTo(float64(pw), float64(ph))
		}
	}
	return w.surface.Render(pw, ph)
}

// CreateRenderer implements fyne.Widget.
func (w *Widget) CreateRenderer() fyne.WidgetRenderer {
	return &canvasRenderer{widget: w}
}

// MinSize keeps the canvas usable inside splits.
func (w *Widget) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

func (w *Widget) device(pos fyne.Position) (float64, float64) {
	return float64(pos.X) * w.scale, float64(pos.Y) * w.scale
}

func mapButton(b desktop.MouseButton) editor.Button {
	switch b {
	case desktop.MouseButtonTertiary:
		return editor.ButtonMiddle
	case desktop.MouseButtonSecondary:
		return editor.ButtonRight
	default:
		return editor.ButtonLeft
	}
}

// MouseDown implements desktop.Mouseable.
func (w *Widget) MouseDown(ev *desktop.MouseEvent) {
	x, y := w.device(ev.Position)
	ctrl := ev.Modifier&fyne.KeyModifierControl != 0
	w.surface.PointerDown(x, y, mapButton(ev.Button), ctrl)
}

// MouseUp implements desktop.Mouseable.
func (w *Widget) MouseUp(ev *desktop.MouseEvent) {
	x, y := w.device(ev.Position)
	w.surface.PointerUp(x, y)
}

// MouseIn implements desktop.Hoverable.
func (w *Widget) MouseIn(*desktop.MouseEvent) {}

// MouseMoved implements desktop.Hoverable and carries both hover and
// drag movement on desktop drivers.
func (w *Widget) MouseMoved(ev *desktop.MouseEvent) {
	x, y := w.device(ev.Position)
	w.surface.PointerMove(x, y)
}

// MouseOut implements desktop.Hoverable. A drag leaving the widget ends
// deterministically at the last position seen.
func (w *Widget) MouseOut() {
	w.surface.PointerLeave()
}

// Dragged implements fyne.Draggable so touchpad drags work without a
// hover-capable driver.
func (w *Widget) Dragged(ev *fyne.DragEvent) {
	x, y := w.device(ev.Position)
	w.surface.PointerMove(x, y)
}

// DragEnd implements fyne.Draggable; MouseUp carries the commit.
func (w *Widget) DragEnd() {}

// Scrolled implements fyne.Scrollable: the wheel zooms about the pointer.
func (w *Widget) Scrolled(ev *fyne.ScrollEvent) {
	x, y := w.device(ev.Position)
	w.surface.Wheel(x, y, float64(ev.Scrolled.DY))
	w.Refresh()
}

type canvasRenderer struct {
	widget *Widget
}

func (r *canvasRenderer) Layout(size fyne.Size) {
	r.widget.raster.Resize(size)
}

func (r *canvasRenderer) MinSize() fyne.Size {
	return r.widget.MinSize()
}

func (r *canvasRenderer) Refresh() {
	r.widget.raster.Refresh()
}

func (r *canvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.widget.raster}
}

func (r *canvasRenderer) Destroy() {}
