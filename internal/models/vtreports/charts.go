package vtreports

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"vitrine/internal/models/vtimages"
)

// Dimensions fixes des graphiques embarqués dans le rapport
const (
	chartWidth   = 720
	chartHeight  = 280
	chartPadding = 24
	axisGap      = 2
)

// ChartSeries est une série de valeurs d'un diagramme en barres
type ChartSeries struct {
	Label  string
	Values []int
	Color  vtimages.Color
}

// Chart est un graphique prêt à insérer : PNG encodé en base64
// avec sa légende, le titre étant rendu par le document lui-même
type Chart struct {
	Title   string
	Legend  []ChartSeries
	DataURI string
}

// RenderBarChart dessine un diagramme en barres groupées et le retourne
// en data-URI PNG. Les séries doivent avoir la même longueur
func RenderBarChart(title string, series []ChartSeries) (*Chart, error) {
	if len(series) == 0 || len(series[0].Values) == 0 {
		return nil, fmt.Errorf("aucune série à dessiner")
	}
	buckets := len(series[0].Values)
	for _, s := range series[1:] {
		if len(s.Values) != buckets {
			return nil, fmt.Errorf("séries de longueurs différentes")
		}
	}

	maxValue := 1
	for _, s := range series {
		for _, v := range s.Values {
			if v > maxValue {
				maxValue = v
			}
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, chartWidth, chartHeight))
	fillRect(img, img.Bounds(), color.RGBA{255, 255, 255, 255})

	plotLeft := chartPadding
	plotRight := chartWidth - chartPadding
	plotTop := chartPadding
	plotBottom := chartHeight - chartPadding
	plotHeight := plotBottom - plotTop

	// Axes
	axis := color.RGBA{60, 60, 60, 255}
	fillRect(img, image.Rect(plotLeft-1, plotTop, plotLeft, plotBottom), axis)
	fillRect(img, image.Rect(plotLeft-1, plotBottom, plotRight, plotBottom+1), axis)

	// Lignes de repère à 25/50/75/100 %
	grid := color.RGBA{225, 225, 225, 255}
	for i := 1; i <= 4; i++ {
		y := plotBottom - plotHeight*i/4
		fillRect(img, image.Rect(plotLeft, y, plotRight, y+1), grid)
	}

	groupWidth := (plotRight - plotLeft) / buckets
	barWidth := (groupWidth - axisGap) / len(series)
	if barWidth < 1 {
		barWidth = 1
	}

	for si, s := range series {
		fill := rgba(s.Color)
		for bi, v := range s.Values {
			if v <= 0 {
				continue
			}
			barHeight := plotHeight * v / maxValue
			x0 := plotLeft + bi*groupWidth + si*barWidth
			bar := image.Rect(x0, plotBottom-barHeight, x0+barWidth-1, plotBottom)
			fillRect(img, bar, fill)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("error encoding chart: %w", err)
	}

	return &Chart{
		Title:   title,
		Legend:  series,
		DataURI: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func rgba(c vtimages.Color) color.RGBA {
	return color.RGBA{uint8(c.R), uint8(c.G), uint8(c.B), 255}
}
