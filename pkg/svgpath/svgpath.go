// Package svgpath models SVG path data: subpaths of straight and circular
// segments, and their serialization as a "d" attribute.
package svgpath

import (
	"math"
	"strconv"
	"strings"

	"panelcam/pkg/geometry"
)

type SubPath struct {
	X, Y   float64
	DrawTo []*DrawTo
}

type Command string

const (
	ClosePath = "Z"
	LineTo    = "L"
	ArcTo     = "A"
)

// DrawTo is one segment ending at X, Y. Arcs are circular with radius R;
// Large and Sweep are the SVG large-arc and sweep flags.
type DrawTo struct {
	Command Command
	X, Y    float64
	R       float64
	Large   bool
	Sweep   bool
}

func (path *SubPath) StartPoint() (float64, float64) {
	return path.X, path.Y
}

func (path *SubPath) EndPoint() (float64, float64) {
	if len(path.DrawTo) > 0 {
		last := path.DrawTo[len(path.DrawTo)-1]
		return last.X, last.Y
	}
	return path.X, path.Y
}

func (path *SubPath) LineTo(x, y float64) *SubPath {
	path.DrawTo = append(path.DrawTo, &DrawTo{Command: LineTo, X: x, Y: y})
	return path
}

func (path *SubPath) ArcTo(x, y, r float64, large, sweep bool) *SubPath {
	path.DrawTo = append(path.DrawTo, &DrawTo{Command: ArcTo, X: x, Y: y, R: r, Large: large, Sweep: sweep})
	return path
}

func (path *SubPath) Close() *SubPath {
	path.DrawTo = append(path.DrawTo, &DrawTo{Command: ClosePath, X: path.X, Y: path.Y})
	return path
}

// Transform applies m to every point of the paths. Arc radii are scaled by
// the X scale of m and sweep flags flip when m mirrors.
func Transform(paths []*SubPath, m geometry.Matrix) {
	scale := math.Hypot(m.A, m.B)
	for _, path := range paths {
		p := m.TransformPoint(geometry.Point{X: path.X, Y: path.Y})
		path.X, path.Y = p.X, p.Y
		for _, drawTo := range path.DrawTo {
			p := m.TransformPoint(geometry.Point{X: drawTo.X, Y: drawTo.Y})
			drawTo.X, drawTo.Y = p.X, p.Y
			if drawTo.Command == ArcTo {
				drawTo.R *= scale
				if m.Mirrors() {
					drawTo.Sweep = !drawTo.Sweep
				}
			}
		}
	}
}

func ToString(groups []*SubPath) string {
	var buf strings.Builder

	// Note: this function runs a simple serialization. It does not try to optimize the path string.

	formatNumber := func(n float64) string {
		n = math.Round(n*1000) / 1000
		if n == 0 {
			n = 0
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	formatFlag := func(b bool) string {
		if b {
			return "1"
		}
		return "0"
	}
	for i, group := range groups {
		if i > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString("M " + formatNumber(group.X) + " " + formatNumber(group.Y))
		for _, drawTo := range group.DrawTo {
			switch drawTo.Command {
			case LineTo:
				buf.WriteString(" L " + formatNumber(drawTo.X) + " " + formatNumber(drawTo.Y))
			case ArcTo:
				buf.WriteString(" A " +
					formatNumber(drawTo.R) + " " + formatNumber(drawTo.R) + " 0 " +
					formatFlag(drawTo.Large) + " " + formatFlag(drawTo.Sweep) + " " +
					formatNumber(drawTo.X) + " " + formatNumber(drawTo.Y))
			case ClosePath:
				buf.WriteString(" Z")
			}
		}
	}

	return buf.String()
}
