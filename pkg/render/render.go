// Package render writes a resolved panel job in the formats other than
// G-code: an SVG drawing, an OpenSCAD model, CSV and a terminal table.
package render

import (
	"strconv"
	"strings"

	"panelcam/pkg/catalog"
	"panelcam/pkg/cutout"
	"panelcam/pkg/panel"
	"panelcam/pkg/planner"
	"panelcam/pkg/toolpath"
)

// Job is everything a renderer can draw. Plan may be nil when only the
// cutouts are wanted.
type Job struct {
	Name    string
	Panel   panel.Panel
	Cutouts []cutout.Cutout
	Plan    *planner.Plan
	// Sort orders the rows of the tabular outputs, see ParseSort.
	Sort []string
}

// operations returns the plan's operations keyed by the cutout they
// machine, in machining order.
func (j Job) operations() map[int][]toolpath.Operation {
	ops := map[int][]toolpath.Operation{}
	if j.Plan == nil {
		return ops
	}
	for _, op := range j.Plan.Operations() {
		ops[op.Source] = append(ops[op.Source], op)
	}
	return ops
}

// method describes how a cutout is machined, e.g. "predrill+drill", and
// with which tools, e.g. "1+3". Predrills sort first.
func method(ops []toolpath.Operation) (kinds, tools string) {
	var k, t []string
	for _, pass := range []bool{true, false} {
		for _, op := range ops {
			if (op.Kind == toolpath.PreDrillCycle) != pass {
				continue
			}
			k = append(k, op.Kind.String())
			t = append(t, strconv.Itoa(op.Tool.Number))
		}
	}
	return strings.Join(k, "+"), strings.Join(t, "+")
}

func describe(c cutout.Cutout) string {
	if c.Shape == catalog.Round {
		return "dia " + mm(c.Diameter, 2)
	}
	s := mm(c.Width, 2) + " x " + mm(c.Height, 2)
	if c.Rotation != 0 {
		s += " @ " + mm(c.Rotation, 1)
	}
	return s
}

func mm(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.Trim(s, "-0.") == "" {
		s = strings.TrimPrefix(s, "-")
	}
	return s
}

func cutoutOf(fp catalog.Footprint) cutout.Cutout {
	return cutout.Cutout{Shape: fp.Shape, Diameter: fp.Diameter, Width: fp.Width, Height: fp.Height, Footprint: fp.ID}
}
