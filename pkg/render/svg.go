package render

import (
	"bytes"
	"fmt"
	"io"

	"zappem.net/pub/graphics/svgof"

	"panelcam/pkg/catalog"
	"panelcam/pkg/color"
	"panelcam/pkg/cutout"
	"panelcam/pkg/errors"
	"panelcam/pkg/geometry"
	"panelcam/pkg/svgpath"
	"panelcam/pkg/toolpath"
)

const (
	strokeWidth = 0.2
	// graticule is the half-length of a hole's centre mark relative to
	// its radius.
	graticule = 0.5
)

// flip maps machine coordinates (Y up, negative below the top edge) to SVG
// user units, which are mm with Y down.
var flip = geometry.Scale(1, -1)

// SVG draws the panel outline and cutouts, and when the job has a plan, the
// milled contours, the drill points and the travel between them.
func SVG(w io.Writer, job Job) error {
	p := job.Panel
	var buf bytes.Buffer
	canvas := svgof.New(&buf)
	canvas.Decimals = 3
	canvas.StartviewUnit(p.Width, p.Height, "mm", 0, 0, p.Width, p.Height)

	canvas.Gid("outline")
	outline := &svgpath.SubPath{}
	outline.LineTo(p.Width, 0).LineTo(p.Width, -p.Height).LineTo(0, -p.Height).Close()
	canvas.Path(pathData(outline), stroke(color.Outline))
	canvas.Gend()

	canvas.Gid("cutouts")
	for _, c := range job.Cutouts {
		drawCutout(canvas, c)
	}
	canvas.Gend()

	if job.Plan != nil {
		canvas.Gid("toolpaths")
		for _, op := range job.Plan.Operations() {
			drawOperation(canvas, op)
		}
		canvas.Gend()

		canvas.Gid("travel")
		var from *geometry.Point
		for _, op := range job.Plan.Operations() {
			to := flip.TransformPoint(op.Position)
			if from != nil && !from.Near(to, 1e-6) {
				canvas.Line(from.X, from.Y, to.X, to.Y, stroke(color.Travel)+";stroke-dasharray:1,1")
			}
			from = &to
		}
		canvas.Gend()
	}

	canvas.End()
	_, err := w.Write(buf.Bytes())
	return errors.Wrap(err, "writing svg")
}

func drawCutout(canvas *svgof.SVG, c cutout.Cutout) {
	style := stroke(color.Cutout)
	if c.Footprint == "" {
		style = stroke(color.Mounting)
	}
	center := flip.TransformPoint(c.Center)
	if c.Shape == catalog.Round {
		r := c.Diameter / 2
		canvas.Circle(center.X, center.Y, r, style)
		mark := r * graticule
		canvas.Line(center.X-mark, center.Y, center.X+mark, center.Y, style)
		canvas.Line(center.X, center.Y-mark, center.X, center.Y+mark, style)
		return
	}
	corners := c.Corners()
	rect := &svgpath.SubPath{X: corners[0].X, Y: corners[0].Y}
	for _, p := range corners[1:] {
		rect.LineTo(p.X, p.Y)
	}
	rect.Close()
	canvas.Path(pathData(rect), style)
}

func drawOperation(canvas *svgof.SVG, op toolpath.Operation) {
	switch op.Kind {
	case toolpath.SlotContour:
		if op.Contour != nil {
			canvas.Path(pathData(contourPath(op.Contour)), stroke(color.Contour))
		}
	case toolpath.PreDrillCycle:
		p := flip.TransformPoint(op.Position)
		canvas.Circle(p.X, p.Y, op.Tool.Radius(), stroke(color.Predrill))
	default:
		p := flip.TransformPoint(op.Position)
		canvas.Circle(p.X, p.Y, op.Tool.Radius(), stroke(color.Drill))
	}
}

// contourPath returns the tool-centre path of c in machine coordinates.
// Full circles are split in two half arcs, which SVG can express.
func contourPath(c *toolpath.Contour) *svgpath.SubPath {
	path := &svgpath.SubPath{X: c.Start.X, Y: c.Start.Y}
	from := c.Start
	for _, m := range c.Moves {
		if m.Kind != toolpath.ArcCW {
			path.LineTo(m.To.X, m.To.Y)
			from = m.To
			continue
		}
		r := m.Center.Distance(from)
		if m.To.Near(from, 1e-9) {
			opposite := m.Center.Add(m.Center.Minus(from))
			path.ArcTo(opposite.X, opposite.Y, r, false, false)
			path.ArcTo(m.To.X, m.To.Y, r, false, false)
		} else {
			sweep := geometry.NormalizeDegrees(from.Minus(m.Center).Angle() - m.To.Minus(m.Center).Angle())
			path.ArcTo(m.To.X, m.To.Y, r, sweep > 180, false)
		}
		from = m.To
	}
	return path
}

// pathData converts a machine-coordinate path to SVG path data.
func pathData(path *svgpath.SubPath) string {
	paths := []*svgpath.SubPath{path}
	svgpath.Transform(paths, flip)
	return svgpath.ToString(paths)
}

func stroke(c color.Color) string {
	return fmt.Sprintf("fill:none;stroke:%s;stroke-width:%.1f", c.Hex(), strokeWidth)
}
