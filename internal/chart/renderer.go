package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sort"

	"signal-deck/internal/domain"
)

const (
	defaultChartWidth  = 960
	defaultChartHeight = 640
	maxChartPoints     = 24 * 30
)

var (
	colBackground = color.RGBA{R: 250, G: 252, B: 255, A: 255}
	colGrid       = color.RGBA{R: 225, G: 232, B: 240, A: 255}
	colPositive   = color.RGBA{R: 18, G: 140, B: 126, A: 255}
	colNegative   = color.RGBA{R: 210, G: 61, B: 87, A: 255}
	colNeutral    = color.RGBA{R: 104, G: 122, B: 146, A: 255}
	colSentiment  = color.RGBA{R: 62, G: 106, B: 214, A: 255}
	colPrice      = color.RGBA{R: 255, G: 149, B: 0, A: 255}
	colBand       = color.RGBA{R: 104, G: 122, B: 146, A: 255}
	colVolume     = color.RGBA{R: 120, G: 139, B: 164, A: 255}
)

type Image struct {
	MimeType string
	Width    int
	Height   int
	Bytes    []byte
}

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderSentimentChart draws sentiment on a 0-100 axis with 30/70 bands,
// price on its own scale, volume bars below and one marker per event.
func (r *Renderer) RenderSentimentChart(tl domain.SentimentTimeline) (*Image, error) {
	points := sortedPoints(tl.Points)
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 points to render chart")
	}
	if len(points) > maxChartPoints {
		points = points[len(points)-maxChartPoints:]
	}

	img := image.NewRGBA(image.Rect(0, 0, defaultChartWidth, defaultChartHeight))
	fillRect(img, img.Bounds(), colBackground)

	mainRect := image.Rect(60, 20, defaultChartWidth-20, (defaultChartHeight*72)/100)
	auxRect := image.Rect(60, mainRect.Max.Y+16, defaultChartWidth-20, defaultChartHeight-30)
	drawGrid(img, mainRect, 8, 5)
	drawGrid(img, auxRect, 8, 3)

	drawEventMarkers(img, mainRect, points, tl.Events)

	sentiment := make([]float64, len(points))
	prices := make([]float64, len(points))
	volumes := make([]float64, len(points))
	for i, p := range points {
		sentiment[i] = p.Sentiment
		prices[i] = p.Price
		volumes[i] = p.Volume
	}

	drawHorizontalValueLine(img, mainRect, 30, 0, 100, colBand)
	drawHorizontalValueLine(img, mainRect, 70, 0, 100, colBand)
	minP, maxP := finiteBounds(prices)
	drawSeries(img, mainRect, prices, minP, maxP, colPrice)
	drawSeries(img, mainRect, sentiment, 0, 100, colSentiment)

	_, maxV := finiteBounds(volumes)
	drawBars(img, auxRect, volumes, 0, maxV, colVolume)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return &Image{
		MimeType: "image/png",
		Width:    defaultChartWidth,
		Height:   defaultChartHeight,
		Bytes:    buf.Bytes(),
	}, nil
}

func sortedPoints(in []domain.SentimentPoint) []domain.SentimentPoint {
	out := make([]domain.SentimentPoint, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

func drawEventMarkers(img *image.RGBA, rect image.Rectangle, points []domain.SentimentPoint, events []domain.SentimentEvent) {
	first, last := points[0].Time, points[len(points)-1].Time
	span := last.Sub(first)
	if span <= 0 {
		return
	}
	for _, e := range events {
		if e.Time.Before(first) || e.Time.After(last) {
			continue
		}
		ratio := float64(e.Time.Sub(first)) / float64(span)
		x := rect.Min.X + int(ratio*float64(rect.Dx()-1))

		col := colNeutral
		switch e.Kind {
		case domain.EventPositive:
			col = colPositive
		case domain.EventNegative:
			col = colNegative
		}
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, col)
		fillRect(img, image.Rect(x-3, rect.Min.Y, x+4, rect.Min.Y+7), col)
	}
}

func drawSeries(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	lastX, lastY := -1, -1
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			lastX, lastY = -1, -1
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		if lastX >= 0 {
			drawLine(img, lastX, lastY, x, y, col)
		}
		lastX, lastY = x, y
	}
}

func drawBars(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	barW := max(1, (rect.Dx()-10)/len(series)-1)
	zeroY := mapValueToY(0, minV, maxV, rect)
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		top := min(y, zeroY)
		bottom := max(y, zeroY)
		fillRect(img, image.Rect(x-barW/2, top, x+barW/2+1, bottom+1), col)
	}
}

func drawGrid(img *image.RGBA, rect image.Rectangle, verticalLines, horizontalLines int) {
	for i := 0; i <= verticalLines; i++ {
		x := rect.Min.X + (rect.Dx()*i)/max(1, verticalLines)
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, colGrid)
	}
	for i := 0; i <= horizontalLines; i++ {
		y := rect.Min.Y + (rect.Dy()*i)/max(1, horizontalLines)
		drawLine(img, rect.Min.X, y, rect.Max.X, y, colGrid)
	}
}

func drawHorizontalValueLine(img *image.RGBA, rect image.Rectangle, value, minV, maxV float64, col color.RGBA) {
	y := mapValueToY(value, minV, maxV, rect)
	drawLine(img, rect.Min.X, y, rect.Max.X, y, col)
}

func mapIndexToX(idx, total int, rect image.Rectangle) int {
	if total <= 1 {
		return rect.Min.X
	}
	return rect.Min.X + (idx*(rect.Dx()-1))/(total-1)
}

func mapValueToY(value, minV, maxV float64, rect image.Rectangle) int {
	if maxV <= minV {
		return rect.Max.Y
	}
	ratio := (value - minV) / (maxV - minV)
	ratio = math.Max(0, math.Min(1, ratio))
	return rect.Max.Y - int(ratio*float64(rect.Dy()-1))
}

func finiteBounds(values []float64) (float64, float64) {
	minV := math.Inf(1)
	maxV := math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	if math.IsInf(minV, 1) || math.IsInf(maxV, -1) {
		return 0, 1
	}
	if minV == maxV {
		return minV, maxV + 1
	}
	return minV, maxV
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	r := rect.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.SetRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
