package render

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/hyperjump/semmap/internal/config"
	"github.com/hyperjump/semmap/internal/models"
)

const (
	fillDefault = "#1f3939"
	fillCurrent = "red"
	hoverRadius = 8.0
)

// Plot holds the map geometry and the most recently applied intensities.
// It implements search.Sink.
type Plot struct {
	Width   int
	Height  int
	MarginX int
	MarginY int
	Radius  float64
	Ticks   int

	mu          sync.RWMutex
	intensities map[string]float64
}

// NewPlot creates a plot from render settings.
func NewPlot(cfg config.RenderConfig) *Plot {
	return &Plot{
		Width:   cfg.Width,
		Height:  cfg.Height,
		MarginX: cfg.MarginX,
		MarginY: cfg.MarginY,
		Radius:  cfg.Radius,
		Ticks:   cfg.Ticks,
	}
}

// Apply replaces the intensities used for opacity.
func (p *Plot) Apply(intensities map[string]float64) {
	m := make(map[string]float64, len(intensities))
	for k, v := range intensities {
		m[k] = v
	}
	p.mu.Lock()
	p.intensities = m
	p.mu.Unlock()
}

// Opacity returns the intensity last applied to slug, or 1.0 if it has none.
func (p *Plot) Opacity(slug string) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.intensities[slug]; ok {
		return v
	}
	return 1.0
}

// WriteSVG draws gridlines and one dot per point. The dot for current is highlighted.
func (p *Plot) WriteSVG(w io.Writer, points []models.LayoutPoint, current string) error {
	width, height := float64(p.Width), float64(p.Height)
	mx, my := float64(p.MarginX), float64(p.MarginY)

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, pt := range points {
		xs[i], ys[i] = pt.X, pt.Y
	}
	xScale := NewLinearScale(xs, mx, width-mx)
	yScale := NewLinearScale(ys, my, height-my)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" preserveAspectRatio="xMidYMid meet">`+"\n",
		p.Width, p.Height, p.Width, p.Height)
	fmt.Fprintf(bw, "<style>.map-grid line{stroke:#ddd;stroke-width:1}.semantic-dot{cursor:pointer}.semantic-dot:hover{r:%gpx}</style>\n", hoverRadius)

	bw.WriteString(`<g class="map-grid">` + "\n")
	if len(points) > 0 {
		for _, t := range yScale.Ticks(p.Ticks) {
			y := yScale.Scale(t)
			fmt.Fprintf(bw, `<line class="horizontal" x1="%s" x2="%s" y1="%s" y2="%s"/>`+"\n", num(mx), num(width-mx), num(y), num(y))
		}
		for _, t := range xScale.Ticks(p.Ticks) {
			x := xScale.Scale(t)
			fmt.Fprintf(bw, `<line class="vertical" x1="%s" x2="%s" y1="%s" y2="%s"/>`+"\n", num(x), num(x), num(my), num(height-my))
		}
	}
	bw.WriteString("</g>\n")

	bw.WriteString(`<g class="map-dots">` + "\n")
	for _, pt := range points {
		fill := fillDefault
		if pt.Slug == current {
			fill = fillCurrent
		}
		fmt.Fprintf(bw, `<a href="/%s"><circle class="semantic-dot" cx="%s" cy="%s" r="%s" fill="%s" opacity="%s" data-slug="%s"><title>%s</title></circle></a>`+"\n",
			html.EscapeString(slugPath(pt.Slug)),
			num(xScale.Scale(pt.X)), num(yScale.Scale(pt.Y)), num(p.Radius),
			fill, num(p.Opacity(pt.Slug)),
			html.EscapeString(pt.Slug), html.EscapeString(pt.Title),
		)
	}
	bw.WriteString("</g>\n</svg>\n")
	return bw.Flush()
}

// slugPath escapes each path segment of a slug for use in a link.
func slugPath(slug string) string {
	parts := strings.Split(slug, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

// num formats a coordinate with at most three decimals.
func num(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
