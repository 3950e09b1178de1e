// Package cutout matches placed components against the footprint catalog
// and produces the through-panel cutouts in panel coordinates.
package cutout

import (
	"math"

	"panelcam/pkg/board"
	"panelcam/pkg/catalog"
	"panelcam/pkg/diag"
	"panelcam/pkg/errors"
	"panelcam/pkg/geometry"
	"panelcam/pkg/logger"
)

// Cutout is one hole or rectangular window through the panel. Rotation is
// the direction of the Width side in degrees, counter-clockwise in the
// panel frame, normalized to [0, 180).
type Cutout struct {
	Shape     catalog.Shape
	Center    geometry.Point
	Diameter  float64
	Width     float64
	Height    float64
	Rotation  float64
	Ref       string
	Footprint string
}

// Corners returns the rectangle corners counter-clockwise, starting at the
// corner left of the width axis and below the height axis. Round cutouts
// return the corners of their bounding square.
func (c Cutout) Corners() [4]geometry.Point {
	w, h := c.Width/2, c.Height/2
	if c.Shape == catalog.Round {
		w, h = c.Diameter/2, c.Diameter/2
	}
	local := [4]geometry.Point{{X: -w, Y: -h}, {X: w, Y: -h}, {X: w, Y: h}, {X: -w, Y: h}}
	var out [4]geometry.Point
	for i, p := range local {
		out[i] = c.Center.Add(p.Rotate(c.Rotation))
	}
	return out
}

// Bounds returns the axis-aligned extents of the cutout.
func (c Cutout) Bounds() geometry.Rectangle {
	if c.Shape == catalog.Round {
		r := c.Diameter / 2
		return geometry.Rectangle{
			Min: geometry.Point{X: c.Center.X - r, Y: c.Center.Y - r},
			Max: geometry.Point{X: c.Center.X + r, Y: c.Center.Y + r},
		}
	}
	corners := c.Corners()
	r, _ := geometry.Bounds(corners[:]...)
	return r
}

// Options controls which components are kept and how they are placed.
type Options struct {
	// Skip drops the listed references.
	Skip []string
	// Include, when not empty, keeps only the listed references.
	Include []string
	// Adjust moves a component by a board-frame offset before matching.
	Adjust map[string]geometry.Point
	// Strict turns unknown footprints into errors.
	Strict bool
	// Frame maps board coordinates to panel coordinates. The zero value
	// means identity.
	Frame geometry.Matrix
}

// Resolve returns one cutout per kept component, in input order.
func Resolve(components []board.PlacedComponent, cat *catalog.Catalog, opts Options) ([]Cutout, diag.List, error) {
	log := logger.Named("cutout")
	frame := opts.Frame
	if frame.IsZero() {
		frame = geometry.Identity()
	}
	skip := set(opts.Skip)
	include := set(opts.Include)

	var (
		cutouts []Cutout
		diags   diag.List
	)
	for _, pc := range components {
		if skip[pc.Ref] {
			diags.Add(diag.Debug, pc.Ref, "skipped")
			continue
		}
		if len(include) > 0 && !include[pc.Ref] {
			diags.Add(diag.Debug, pc.Ref, "not included")
			continue
		}

		fp, ok := cat.Footprint(pc.Footprint)
		if !ok {
			if opts.Strict {
				return nil, diags, errors.WithHint(
					errors.Kindf(errors.ErrUnmatchedFootprint, "%s: footprint %q", pc.Ref, pc.Footprint),
					"add the footprint to the catalog or skip the component")
			}
			diags.Add(diag.Warning, pc.Ref, "no catalog entry for footprint %q", pc.Footprint)
			continue
		}
		if pc.Back && !fp.PermitBack {
			diags.Add(diag.Debug, pc.Ref, "on back side")
			continue
		}

		c := place(pc, fp, opts.Adjust[pc.Ref], frame)
		log.Debugw("matched", "ref", c.Ref, "footprint", c.Footprint, "shape", c.Shape,
			"x", c.Center.X, "y", c.Center.Y)
		cutouts = append(cutouts, c)
	}
	return cutouts, diags, nil
}

// place positions the footprint's cutout. Board coordinates are Y down, so
// a rotation by -theta in the math convention reads counter-clockwise on
// the board drawing.
func place(pc board.PlacedComponent, fp catalog.Footprint, adjust geometry.Point, frame geometry.Matrix) Cutout {
	theta := pc.Rotation + fp.RotationOffset
	center := pc.Position.Add(adjust).Add(fp.Offset.Rotate(-theta))

	c := Cutout{
		Shape:     fp.Shape,
		Center:    frame.TransformPoint(center),
		Ref:       pc.Ref,
		Footprint: pc.Footprint,
	}
	switch fp.Shape {
	case catalog.Round:
		c.Diameter = fp.Diameter
	case catalog.Rect:
		c.Width, c.Height = fp.Width, fp.Height
		axis := frame.TransformVector(geometry.Point{X: 1}.Rotate(-theta))
		c.Rotation = halfTurn(axis.Angle())
	}
	return c
}

// halfTurn folds an axis angle into [0, 180), snapping values within
// floating-point noise of a multiple of 90 degrees.
func halfTurn(deg float64) float64 {
	deg = math.Mod(deg, 180)
	if snapped := math.Round(deg/90) * 90; math.Abs(deg-snapped) < 1e-9 {
		deg = snapped
	}
	if deg >= 180 {
		deg -= 180
	}
	return deg
}

func set(refs []string) map[string]bool {
	m := make(map[string]bool, len(refs))
	for _, r := range refs {
		m[r] = true
	}
	return m
}
