// Package planner turns the selected operations into an ordered machining
// plan: one group per tool, each group routed to keep travel short, with
// the canned-cycle parameters of every operation worked out.
package planner

import (
	"math"
	"sort"

	"panelcam/pkg/catalog"
	"panelcam/pkg/errors"
	"panelcam/pkg/geometry"
	"panelcam/pkg/logger"
	"panelcam/pkg/toolpath"
)

// Params holds the machine-level allowances used for cycle depths.
type Params struct {
	// DrillClearance is how far a drill's full diameter goes past the
	// bottom of the panel (mm).
	DrillClearance float64
	// PointAngle is the included angle of the drill point (degrees).
	PointAngle float64
	// MillClearance is how far the end mill goes past the panel (mm).
	MillClearance float64
	// Retract is the R plane for tools without their own retract height.
	Retract float64
	// SafeZ is the rapid clearance height. Every retract plane must be
	// below it; zero skips the check.
	SafeZ float64
}

func DefaultParams() Params {
	return Params{
		DrillClearance: 0.1,
		PointAngle:     120,
		MillClearance:  0.075,
		Retract:        2.0,
		SafeZ:          20,
	}
}

// Cycle is the depth schedule of one operation. Depths are positive
// distances below the panel surface.
type Cycle struct {
	Bottom  float64
	Peck    float64
	Pecks   int
	Retract float64
}

type Step struct {
	Op    toolpath.Operation
	Cycle Cycle
}

// Group is the contiguous run of steps done with one tool.
type Group struct {
	Tool  catalog.Tool
	Steps []Step
}

// End returns where the tool finishes the group.
func (g Group) End() geometry.Point {
	if len(g.Steps) == 0 {
		return geometry.Point{}
	}
	return g.Steps[len(g.Steps)-1].Op.Position
}

type Plan struct {
	Groups []Group
}

// Operations returns every operation in machining order.
func (p *Plan) Operations() []toolpath.Operation {
	var ops []toolpath.Operation
	for _, g := range p.Groups {
		for _, s := range g.Steps {
			ops = append(ops, s.Op)
		}
	}
	return ops
}

func (p *Plan) Len() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Steps)
	}
	return n
}

// Build groups ops by tool and orders the groups: the pre-drill stub first,
// then drills by ascending diameter, then mills by tool number. Within a
// group the router decides the order, starting where the previous group
// ended.
func Build(ops []toolpath.Operation, router Router, params Params) (*Plan, error) {
	log := logger.Named("planner")
	if router == nil {
		router = NearestNeighbor{}
	}

	stub := 0
	for _, op := range ops {
		if op.Kind == toolpath.PreDrillCycle {
			stub = op.Tool.Number
			break
		}
	}

	byTool := map[int]*Group{}
	var groups []*Group
	members := map[int][]int{}
	for i, op := range ops {
		if op.Tool.Number <= 0 {
			return nil, errors.Newf("%s: operation without a tool", op.Ref)
		}
		g, ok := byTool[op.Tool.Number]
		if !ok {
			g = &Group{Tool: op.Tool}
			byTool[op.Tool.Number] = g
			groups = append(groups, g)
		}
		members[op.Tool.Number] = append(members[op.Tool.Number], i)
	}

	rank := func(t catalog.Tool) int {
		switch {
		case t.Number == stub:
			return 0
		case t.Kind == catalog.Drill:
			return 1
		}
		return 2
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Tool, groups[j].Tool
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra < rb
		}
		if a.Kind == catalog.Drill && a.Diameter != b.Diameter {
			return a.Diameter < b.Diameter
		}
		return a.Number < b.Number
	})

	plan := &Plan{}
	at := geometry.Point{}
	for _, g := range groups {
		idx := members[g.Tool.Number]
		stops := make([]geometry.Point, len(idx))
		for k, i := range idx {
			stops[k] = ops[i].Position
		}
		for _, k := range router.Route(at, stops) {
			op := ops[idx[k]]
			c := cycle(op, params)
			if params.SafeZ > 0 && c.Retract >= params.SafeZ {
				return nil, errors.WithHintf(
					errors.Kindf(errors.ErrInvalidCatalog, "T%d retract height %g is not below safe Z %g",
						g.Tool.Number, c.Retract, params.SafeZ),
					"lower the tool's retract height or raise machine.safe_z")
			}
			g.Steps = append(g.Steps, Step{Op: op, Cycle: c})
		}
		if len(g.Steps) != len(idx) {
			return nil, errors.Newf("router returned %d of %d stops for tool %d", len(g.Steps), len(idx), g.Tool.Number)
		}
		at = g.End()
		plan.Groups = append(plan.Groups, *g)
		log.Debugw("group", "tool", g.Tool.Number, "kind", g.Tool.Kind, "operations", len(g.Steps))
	}
	return plan, nil
}

func cycle(op toolpath.Operation, params Params) Cycle {
	t := op.Tool
	c := Cycle{Retract: t.RetractHeight}
	if c.Retract == 0 {
		c.Retract = params.Retract
	}
	if op.Kind == toolpath.SlotContour {
		c.Bottom = op.Depth + params.MillClearance
		c.Peck = c.Bottom
		c.Pecks = 1
		return c
	}

	c.Bottom = op.Depth + PointLength(t.Diameter, params.PointAngle) + params.DrillClearance
	peck := t.PeckDepth
	if peck == 0 {
		peck = t.Diameter / 4
	}
	c.Pecks = int(math.Ceil(c.Bottom/peck - 1e-9))
	if c.Pecks < 1 {
		c.Pecks = 1
	}
	c.Peck = c.Bottom / float64(c.Pecks)
	return c
}

// PointLength returns the length of the conical tip of a drill with the
// given diameter and included point angle.
func PointLength(dia, angle float64) float64 {
	if angle <= 0 || angle >= 180 {
		return 0
	}
	return dia / 2 * math.Tan((90-angle/2)*math.Pi/180)
}
