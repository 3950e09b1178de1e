// Package toolpath decides how each cutout is machined: which tool, and
// whether it is drilled with a canned cycle or milled as a contour.
package toolpath

import (
	"math"

	"panelcam/pkg/catalog"
	"panelcam/pkg/cutout"
	"panelcam/pkg/diag"
	"panelcam/pkg/errors"
	"panelcam/pkg/geometry"
	"panelcam/pkg/logger"
)

type Kind int

const (
	DrillCycle Kind = iota
	PreDrillCycle
	SlotContour
)

func (k Kind) String() string {
	switch k {
	case PreDrillCycle:
		return "predrill"
	case SlotContour:
		return "contour"
	}
	return "drill"
}

type MoveKind int

const (
	Line MoveKind = iota
	// ArcCW is a clockwise arc about Center ending at To. An arc ending
	// where it started is a full circle.
	ArcCW
)

type Move struct {
	Kind   MoveKind
	To     geometry.Point
	Center geometry.Point
}

// Contour is a closed tool-centre path. The tool plunges at Entry, leads
// in to Start, follows Moves clockwise back to Start and leads out to
// Entry again.
type Contour struct {
	Entry geometry.Point
	Start geometry.Point
	Moves []Move
}

// Points returns Start followed by the end point of every move.
func (c *Contour) Points() []geometry.Point {
	pts := []geometry.Point{c.Start}
	for _, m := range c.Moves {
		pts = append(pts, m.To)
	}
	return pts
}

// Operation is one machining step. Position is the drill point for cycles
// and the contour entry point for contours.
type Operation struct {
	Tool     catalog.Tool
	Kind     Kind
	Position geometry.Point
	Contour  *Contour
	Depth    float64
	// Source is the index of the cutout this operation machines.
	Source int
	Ref    string
}

// Select turns cutouts into operations in cutout order. A pre-drill
// operation is placed directly before the drill it centres.
func Select(cutouts []cutout.Cutout, cat *catalog.Catalog, depth float64) ([]Operation, diag.List, error) {
	log := logger.Named("toolpath")
	stub, hasStub := cat.Predrill()
	mill, hasMill := cat.Mill()

	var (
		ops   []Operation
		diags diag.List
	)
	for i, c := range cutouts {
		if c.Shape == catalog.Round {
			if drill, ok := cat.DrillFor(c.Diameter); ok {
				if hasStub && drill.Number != stub.Number && drill.Diameter > stub.Diameter {
					ops = append(ops, Operation{
						Tool: stub, Kind: PreDrillCycle, Position: c.Center, Depth: depth, Source: i, Ref: c.Ref,
					})
				}
				ops = append(ops, Operation{
					Tool: drill, Kind: DrillCycle, Position: c.Center, Depth: depth, Source: i, Ref: c.Ref,
				})
				log.Debugw("drill", "ref", c.Ref, "tool", drill.Number, "dia", c.Diameter)
				continue
			}
			diags.Add(diag.Info, c.Ref, "no drill for %.2fmm, milling instead", c.Diameter)
		}

		if !hasMill {
			return nil, diags, errors.WithHint(
				errors.Kindf(errors.ErrUnmatchedTool, "%s: %s cutout needs an end mill", c.Ref, c.Shape),
				"add an endmill to the tool table")
		}
		contour, err := Inset(c, mill.Radius())
		if err != nil {
			return nil, diags, errors.Wrapf(err, "mill %d", mill.Number)
		}
		ops = append(ops, Operation{
			Tool: mill, Kind: SlotContour, Position: contour.Entry, Contour: contour, Depth: depth, Source: i, Ref: c.Ref,
		})
		log.Debugw("contour", "ref", c.Ref, "tool", mill.Number, "shape", c.Shape)
	}
	return ops, diags, nil
}

// Inset builds the tool-centre path for milling c with a cutter of
// radius r: a full circle for round cutouts, the inset rectangle for
// rectangular ones, both entered from the cutout centre.
func Inset(c cutout.Cutout, r float64) (*Contour, error) {
	if c.Shape == catalog.Round {
		inset := c.Diameter/2 - r
		if inset <= 0 {
			return nil, errors.Kindf(errors.ErrToolTooLarge, "%s: %.3fmm cutter in %.3fmm hole", c.Ref, 2*r, c.Diameter)
		}
		start := c.Center.Add(geometry.Point{X: -inset})
		return &Contour{
			Entry: c.Center,
			Start: start,
			Moves: []Move{{Kind: ArcCW, To: start, Center: c.Center}},
		}, nil
	}

	a, b := c.Width/2-r, c.Height/2-r
	if a <= 0 || b <= 0 {
		return nil, errors.Kindf(errors.ErrToolTooLarge, "%s: %.3fmm cutter in %.3f x %.3fmm rect",
			c.Ref, 2*r, c.Width, c.Height)
	}
	at := func(x, y float64) geometry.Point {
		return c.Center.Add(geometry.Point{X: x, Y: y}.Rotate(c.Rotation))
	}
	start := at(0, b)
	contour := &Contour{Entry: c.Center, Start: start}
	for _, p := range []geometry.Point{at(a, b), at(a, -b), at(-a, -b), at(-a, b), start} {
		contour.Moves = append(contour.Moves, Move{Kind: Line, To: p})
	}
	return contour, nil
}

// EntryHoles puts a drilled entry hole before every contour in ops, at the
// contour's entry point, so the end mill plunges into a hole. cutouts are
// the cutouts ops were selected for.
func EntryHoles(ops []Operation, cutouts []cutout.Cutout, cat *catalog.Catalog) ([]Operation, error) {
	log := logger.Named("toolpath")
	stub, hasStub := cat.Predrill()

	var out []Operation
	for _, op := range ops {
		if op.Kind != SlotContour {
			out = append(out, op)
			continue
		}
		c := cutouts[op.Source]
		drill, ok := EntryDrill(c, op.Tool, cat)
		if !ok {
			return nil, errors.WithHintf(
				errors.Kindf(errors.ErrUnmatchedTool, "%s: no entry drill for %gmm mill in %s cutout",
					c.Ref, op.Tool.Diameter, c.Shape),
				"add a drill wider than T%d and under half of %.3fmm, or turn off mill.entry_holes",
				op.Tool.Number, clearance(c))
		}
		entry := Operation{Tool: drill, Kind: DrillCycle, Position: op.Contour.Entry, Depth: op.Depth, Source: op.Source, Ref: op.Ref}
		if hasStub && drill.Number != stub.Number && drill.Diameter > stub.Diameter {
			pre := entry
			pre.Tool, pre.Kind = stub, PreDrillCycle
			out = append(out, pre)
		}
		out = append(out, entry, op)
		log.Debugw("entry hole", "ref", c.Ref, "tool", drill.Number, "dia", drill.Diameter)
	}
	return out, nil
}

// EntryDrill returns the smallest drill wider than mill that leaves at
// least its own diameter of material around the hole across c.
func EntryDrill(c cutout.Cutout, mill catalog.Tool, cat *catalog.Catalog) (catalog.Tool, bool) {
	need := clearance(c)
	for _, d := range cat.Drills() {
		if d.Diameter > mill.Diameter && 2*d.Diameter < need {
			return d, true
		}
	}
	return catalog.Tool{}, false
}

// clearance is the narrowest dimension of c.
func clearance(c cutout.Cutout) float64 {
	if c.Shape == catalog.Round {
		return c.Diameter
	}
	return math.Min(c.Width, c.Height)
}
