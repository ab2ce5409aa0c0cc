// Package scope implements a Fyne oscillogram widget for the acquisition
// pipeline: the raw sample stream as a curve and the published batch
// average as a horizontal cursor.
package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/daqforge/godaq/pkg/config"
)

// DefaultHistoryPoints is the number of recent samples kept for display
// (30 s at the default 10 Hz rate).
const DefaultHistoryPoints = 300

// Widget is a custom Fyne widget displaying the live sample stream.
type Widget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu          sync.RWMutex
	samples     *History
	average     float64
	haveAverage bool

	// Display buffer (reused between refreshes)
	displayPoints []Point

	// Auto-scaling
	yMin, yMax float64
	xMin, xMax time.Time
}

// New creates a new scope widget.
func New(cfg *config.Config) *Widget {
	w := &Widget{
		cfg:           cfg,
		samples:       NewHistory(DefaultHistoryPoints),
		displayPoints: make([]Point, 0, DefaultHistoryPoints),
	}
	w.ExtendBaseWidget(w)
	// Trigger initial refresh to display an empty scope
	w.Refresh()
	return w
}

// AddSample appends one raw sample to the display history. Call from the
// Fyne main thread (wrap with fyne.Do when feeding from the acquisition
// goroutines).
func (w *Widget) AddSample(t time.Time, v uint16) {
	w.mu.Lock()
	w.samples.Push(Point{T: t, V: float64(v)})
	w.updateAutoScale()
	w.mu.Unlock()

	// Refresh outside the lock to avoid a deadlock with the renderer.
	w.Refresh()
}

// SetAverage updates the published-average cursor. Call from the Fyne
// main thread.
func (w *Widget) SetAverage(avg float64) {
	w.mu.Lock()
	w.average = avg
	w.haveAverage = true
	w.mu.Unlock()

	w.Refresh()
}

// updateAutoScale recalculates the axis ranges from the current history.
// Caller must hold w.mu.
func (w *Widget) updateAutoScale() {
	w.displayPoints = w.samples.Points(w.displayPoints)
	if len(w.displayPoints) == 0 {
		w.yMin = 0
		w.yMax = float64(w.cfg.MaxCount())
		w.xMin = time.Now()
		w.xMax = w.xMin.Add(10 * time.Second)
		return
	}

	w.yMin = w.displayPoints[0].V
	w.yMax = w.displayPoints[0].V
	for _, p := range w.displayPoints {
		if p.V < w.yMin {
			w.yMin = p.V
		}
		if p.V > w.yMax {
			w.yMax = p.V
		}
	}
	if w.haveAverage {
		if w.average < w.yMin {
			w.yMin = w.average
		}
		if w.average > w.yMax {
			w.yMax = w.average
		}
	}

	// Add 10% margin
	span := w.yMax - w.yMin
	if span == 0 {
		span = 1.0
	}
	margin := span * 0.1
	w.yMin -= margin
	w.yMax += margin

	// Time range, with a minimum window so a fresh trace doesn't jitter
	w.xMin = w.displayPoints[0].T
	w.xMax = w.displayPoints[len(w.displayPoints)-1].T
	minWindow := 10 * w.cfg.Acquisition.SampleInterval
	if w.xMax.Sub(w.xMin) < minWindow {
		w.xMax = w.xMin.Add(minWindow)
	}
}

// CreateRenderer creates the widget renderer.
func (w *Widget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:   w,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}
