// Package panel works out the eurorack panel a board is mounted on: its
// size, where the board sits inside it, and the board-to-machine frame.
package panel

import (
	"fmt"
	"math"

	"panelcam/pkg/board"
	"panelcam/pkg/catalog"
	"panelcam/pkg/cutout"
	"panelcam/pkg/errors"
	"panelcam/pkg/geometry"
	"panelcam/pkg/logger"
)

const (
	// HPWidth is the width of one horizontal pitch unit (mm).
	HPWidth = 5.08
	// Height of a 3U eurorack panel (mm).
	Height = 128.5
	// MaxBoardHeight is the tallest board that fits between the rails (mm).
	MaxBoardHeight = 110.0

	// Mounting hole centres sit this far in from the left/right panel
	// edges and from the top/bottom edges.
	mountInset = 7.5
	mountEdge  = 3.0
)

// Panel is the resolved front panel. Offset is where the board's Origin
// lands, measured from the top-left panel corner.
type Panel struct {
	HP     int
	Width  float64
	Height float64
	Depth  float64
	Origin geometry.Point
	Offset geometry.Point
	// Board holds the detected board extents in the board frame; it is the
	// zero rectangle for Fixed.
	Board geometry.Rectangle
}

// Frame maps board coordinates (Y down) to machine coordinates with the
// origin at the top-left panel corner, +X right and +Y up.
func (p Panel) Frame() geometry.Matrix {
	return geometry.Scale(1, -1).Multiply(
		geometry.Translate(p.Offset.X-p.Origin.X, p.Offset.Y-p.Origin.Y))
}

func (p Panel) String() string {
	return fmt.Sprintf("%d HP (%.2f x %.1f mm)", p.HP, p.Width, p.Height)
}

// OutlineStrategy decides the panel extents for a board.
type OutlineStrategy interface {
	Resolve(b *board.Board) (Panel, error)
}

// Fixed sizes the panel from an explicit HP count, falling back to the HP
// declared by the board. The board origin maps to the panel corner.
type Fixed struct {
	HP int
}

func (s Fixed) Resolve(b *board.Board) (Panel, error) {
	hp := s.HP
	if hp == 0 {
		hp = b.HP
	}
	if hp <= 0 {
		return Panel{}, errors.WithHint(
			errors.Kindf(errors.ErrDegenerateOutline, "panel width unknown"),
			"pass --hp, set hp in the board file, or use --strategy bbox")
	}
	return Panel{
		HP:     hp,
		Width:  float64(hp) * HPWidth,
		Height: Height,
		Origin: b.Origin,
	}, nil
}

func (s Fixed) String() string { return "fixed" }

// BoundingBox uses the extents of every outline edge. HP, when set, must be
// wide enough for the board; otherwise the narrowest panel is chosen.
type BoundingBox struct {
	HP int
}

func (s BoundingBox) Resolve(b *board.Board) (Panel, error) {
	return detected(b.Outline, s.HP, "outline")
}

func (s BoundingBox) String() string { return "bbox" }

// NamedLayer uses the extents of the outline edges on one layer.
type NamedLayer struct {
	Layer string
	HP    int
}

func (s NamedLayer) Resolve(b *board.Board) (Panel, error) {
	var edges []board.Edge
	for _, e := range b.Outline {
		if e.Layer == s.Layer {
			edges = append(edges, e)
		}
	}
	return detected(edges, s.HP, "layer "+s.Layer)
}

func (s NamedLayer) String() string { return "layer:" + s.Layer }

// ParseStrategy maps a strategy name from the command line or config.
func ParseStrategy(name, layer string, hp int) (OutlineStrategy, error) {
	switch name {
	case "", "fixed":
		return Fixed{HP: hp}, nil
	case "bbox":
		return BoundingBox{HP: hp}, nil
	case "layer":
		return NamedLayer{Layer: layer, HP: hp}, nil
	}
	return nil, errors.WithHint(errors.Newf("unknown outline strategy %q", name),
		"use fixed, bbox or layer")
}

// Resolve runs the strategy and stamps the panel thickness.
func Resolve(b *board.Board, strategy OutlineStrategy, depth float64) (Panel, error) {
	p, err := strategy.Resolve(b)
	if err != nil {
		return Panel{}, err
	}
	p.Depth = depth
	logger.Named("panel").Infow("board requires "+p.String(),
		"strategy", strategy, "offset_x", p.Offset.X, "offset_y", p.Offset.Y)
	return p, nil
}

func detected(edges []board.Edge, hp int, what string) (Panel, error) {
	if len(edges) == 0 {
		return Panel{}, errors.Kindf(errors.ErrDegenerateOutline, "%s: no edges", what)
	}
	points := make([]geometry.Point, 0, 2*len(edges))
	for _, e := range edges {
		points = append(points, e.Start, e.End)
	}
	r, _ := geometry.Bounds(points...)
	width, height := r.Width(), r.Height()
	if width <= 0 || height <= 0 {
		return Panel{}, errors.Kindf(errors.ErrDegenerateOutline, "%s: %.3f x %.3f mm", what, width, height)
	}
	if n := chains(edges); n != 1 {
		return Panel{}, errors.Kindf(errors.ErrDegenerateOutline, "%s: %d disconnected outlines", what, n)
	}
	if height > MaxBoardHeight {
		return Panel{}, errors.WithHintf(
			errors.Kindf(errors.ErrDegenerateOutline, "%s: board is %.2f mm tall", what, height),
			"eurorack boards must be at most %.0f mm tall", MaxBoardHeight)
	}

	need := int(math.Ceil(width/HPWidth - 1e-9))
	if hp == 0 {
		hp = need
	} else if hp < need {
		return Panel{}, errors.Kindf(errors.ErrDegenerateOutline,
			"%s: board is %.2f mm wide, %d HP is too narrow (needs %d)", what, width, hp, need)
	}
	panelWidth := float64(hp) * HPWidth
	return Panel{
		HP:     hp,
		Width:  panelWidth,
		Height: Height,
		Origin: r.Min,
		Offset: geometry.Point{X: (panelWidth - width) / 2, Y: (Height - height) / 2},
		Board:  r,
	}, nil
}

// chains counts the connected groups of edges, joining edges whose
// endpoints coincide to within a micron.
func chains(edges []board.Edge) int {
	type key struct{ x, y int64 }
	snap := func(p geometry.Point) key {
		return key{int64(math.Round(p.X * 1000)), int64(math.Round(p.Y * 1000))}
	}

	parent := make([]int, len(edges))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	owner := map[key]int{}
	for i, e := range edges {
		for _, k := range []key{snap(e.Start), snap(e.End)} {
			if j, ok := owner[k]; ok {
				parent[find(i)] = find(j)
			} else {
				owner[k] = i
			}
		}
	}

	n := 0
	for i := range parent {
		if find(i) == i {
			n++
		}
	}
	return n
}

// MountingHoles returns the rail screw holes in machine coordinates: none
// for 1 HP panels, one column up to 8 HP, two columns beyond.
func (p Panel) MountingHoles(dia float64) []cutout.Cutout {
	hole := func(ref string, x, y float64) cutout.Cutout {
		return cutout.Cutout{
			Shape:    catalog.Round,
			Center:   geometry.Point{X: x, Y: -y},
			Diameter: dia,
			Ref:      ref,
		}
	}
	left, right := mountInset, p.Width-mountInset
	top, bottom := mountEdge, p.Height-mountEdge
	switch {
	case p.HP <= 1:
		return nil
	case p.HP <= 8:
		return []cutout.Cutout{
			hole("panel mount T", left, top),
			hole("panel mount B", left, bottom),
		}
	}
	return []cutout.Cutout{
		hole("panel mount T/L", left, top),
		hole("panel mount B/L", left, bottom),
		hole("panel mount T/R", right, top),
		hole("panel mount B/R", right, bottom),
	}
}
