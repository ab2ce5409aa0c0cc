package scope

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/chewxy/math32"
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *Widget

	// Background
	bg *canvas.Rectangle

	// Objects list for Fyne, rebuilt on every refresh
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)

	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the plot from the widget's current data.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	points := r.scope.displayPoints
	average := r.scope.average
	haveAverage := r.scope.haveAverage
	yMin := r.scope.yMin
	yMax := r.scope.yMax
	xMin := r.scope.xMin
	xMax := r.scope.xMax
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.bg}

	marginLeft := float32(60.0)
	marginRight := float32(20.0)
	marginTop := float32(20.0)
	marginBottom := float32(40.0)

	plotWidth := size.Width - marginLeft - marginRight
	plotHeight := size.Height - marginTop - marginBottom
	plotX := marginLeft
	plotY := marginTop

	r.drawGrid(plotX, plotY, plotWidth, plotHeight, yMin, yMax, xMin, xMax)

	if len(points) > 1 {
		r.drawSampleLine(plotX, plotY, plotWidth, plotHeight, points, yMin, yMax, xMin, xMax)
	}

	if haveAverage {
		r.drawAverage(plotX, plotY, plotWidth, plotHeight, average, yMin, yMax)
	}
}

// drawGrid draws the oscilloscope-style grid with axis labels.
func (r *scopeRenderer) drawGrid(plotX, plotY, plotWidth, plotHeight float32, yMin, yMax float64, xMin, xMax time.Time) {
	gridColor := color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor := color.RGBA{R: 150, G: 150, B: 150, A: 255}

	// Horizontal grid lines (raw counts)
	numHLines := 8
	for i := 0; i <= numHLines; i++ {
		y := plotY + float32(i)*plotHeight/float32(numHLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotWidth, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		value := yMax - float64(i)*(yMax-yMin)/float64(numHLines)
		text := canvas.NewText(fmt.Sprintf("%.0f", value), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(plotX-5, y-6))
		r.objects = append(r.objects, text)
	}

	// Vertical grid lines (time)
	numVLines := 10
	for i := 0; i <= numVLines; i++ {
		x := plotX + float32(i)*plotWidth/float32(numVLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, plotY)
		line.Position2 = fyne.NewPos(x, plotY+plotHeight)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		offset := float64(i) * xMax.Sub(xMin).Seconds() / float64(numVLines)
		text := canvas.NewText(fmt.Sprintf("%.1fs", offset), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, plotY+plotHeight+5))
		r.objects = append(r.objects, text)
	}
}

// drawSampleLine draws the raw sample curve (orange).
func (r *scopeRenderer) drawSampleLine(plotX, plotY, plotWidth, plotHeight float32, points []Point, yMin, yMax float64, xMin, xMax time.Time) {
	span := xMax.Sub(xMin).Seconds()
	if span <= 0 || yMax <= yMin {
		return
	}

	positions := make([]fyne.Position, 0, len(points))
	for _, p := range points {
		x := plotX + float32(p.T.Sub(xMin).Seconds()/span)*plotWidth
		y := plotY + plotHeight - float32((p.V-yMin)/(yMax-yMin))*plotHeight
		// Clamp into the plot area so a late outlier can't escape it
		x = math32.Min(math32.Max(x, plotX), plotX+plotWidth)
		y = math32.Min(math32.Max(y, plotY), plotY+plotHeight)
		positions = append(positions, fyne.NewPos(x, y))
	}

	for i := 0; i < len(positions)-1; i++ {
		line := canvas.NewLine(color.RGBA{R: 255, G: 165, B: 0, A: 255}) // Orange
		line.Position1 = positions[i]
		line.Position2 = positions[i+1]
		line.StrokeWidth = 1.5
		r.objects = append(r.objects, line)
	}
}

// drawAverage draws the published batch average as a horizontal cursor
// with its value label (light blue).
func (r *scopeRenderer) drawAverage(plotX, plotY, plotWidth, plotHeight float32, average, yMin, yMax float64) {
	if yMax <= yMin {
		return
	}

	avgColor := color.RGBA{R: 100, G: 200, B: 255, A: 255}

	y := plotY + plotHeight - float32((average-yMin)/(yMax-yMin))*plotHeight
	y = math32.Min(math32.Max(y, plotY), plotY+plotHeight)

	line := canvas.NewLine(avgColor)
	line.Position1 = fyne.NewPos(plotX, y)
	line.Position2 = fyne.NewPos(plotX+plotWidth, y)
	line.StrokeWidth = 2
	r.objects = append(r.objects, line)

	label := canvas.NewText(fmt.Sprintf("Average: %.2f", average), avgColor)
	label.TextSize = 12
	label.Alignment = fyne.TextAlignLeading
	// Keep the label inside the plot when the cursor hugs the top edge
	labelY := math32.Max(y-16, plotY)
	label.Move(fyne.NewPos(plotX+10, labelY))
	r.objects = append(r.objects, label)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {
	// Cleanup handled by Fyne
}
