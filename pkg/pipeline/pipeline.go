// Package pipeline runs a board through every CAM stage: outline, footprint
// matching, tool selection and planning. It has no side effects apart from
// logging, and the same inputs always give the same result.
package pipeline

import (
	"io"

	"panelcam/pkg/board"
	"panelcam/pkg/catalog"
	"panelcam/pkg/cutout"
	"panelcam/pkg/diag"
	"panelcam/pkg/errors"
	"panelcam/pkg/gcode"
	"panelcam/pkg/logger"
	"panelcam/pkg/panel"
	"panelcam/pkg/planner"
	"panelcam/pkg/render"
	"panelcam/pkg/toolpath"
)

type Options struct {
	// Name labels the job in program headers.
	Name     string
	Strategy panel.OutlineStrategy
	// Depth is the panel thickness (mm).
	Depth float64
	// MountingHoles adds the eurorack rail holes, drilled at MountDrill.
	MountingHoles bool
	MountDrill    float64
	// EntryHoles drills a hole where the mill plunges into each contour.
	EntryHoles bool
	// Cutouts filters and adjusts components. Its Frame is set from the
	// resolved panel.
	Cutouts cutout.Options
	Router  planner.Router
	Params  planner.Params
}

func DefaultOptions() Options {
	return Options{
		Strategy:   panel.Fixed{},
		Depth:      2.0,
		MountDrill: 3.2,
		Router:     planner.NearestNeighbor{},
		Params:     planner.DefaultParams(),
	}
}

// Result holds the output of every stage.
type Result struct {
	Name        string
	Panel       panel.Panel
	Cutouts     []cutout.Cutout
	Operations  []toolpath.Operation
	Plan        *planner.Plan
	Diagnostics diag.List
}

// Run resolves the panel, matches the components, selects tools and plans
// the machining. Diagnostics gathered before a failure are returned with
// the error.
func Run(b *board.Board, cat *catalog.Catalog, opts Options) (*Result, error) {
	log := logger.Named("pipeline")
	if cat == nil {
		return nil, errors.New("no catalog")
	}
	if opts.Strategy == nil {
		opts.Strategy = panel.Fixed{}
	}

	res := &Result{Name: opts.Name}
	p, err := panel.Resolve(b, opts.Strategy, opts.Depth)
	if err != nil {
		return res, errors.Wrap(err, "resolving outline")
	}
	res.Panel = p

	copts := opts.Cutouts
	copts.Frame = p.Frame()
	cutouts, diags, err := cutout.Resolve(b.Components, cat, copts)
	res.Diagnostics = append(res.Diagnostics, diags...)
	if err != nil {
		return res, errors.Wrap(err, "matching footprints")
	}
	if opts.MountingHoles {
		cutouts = append(cutouts, p.MountingHoles(opts.MountDrill)...)
	}
	res.Cutouts = cutouts
	if len(cutouts) == 0 {
		res.Diagnostics.Add(diag.Warning, "", "no components matched the catalog")
	}

	ops, diags, err := toolpath.Select(cutouts, cat, opts.Depth)
	res.Diagnostics = append(res.Diagnostics, diags...)
	if err != nil {
		return res, errors.Wrap(err, "selecting tools")
	}
	if opts.EntryHoles {
		if ops, err = toolpath.EntryHoles(ops, cutouts, cat); err != nil {
			return res, errors.Wrap(err, "adding entry holes")
		}
	}
	res.Operations = ops

	plan, err := planner.Build(ops, opts.Router, opts.Params)
	if err != nil {
		return res, errors.Wrap(err, "planning")
	}
	res.Plan = plan

	log.Infow("planned", "panel", p.String(), "cutouts", len(cutouts),
		"operations", plan.Len(), "tools", len(plan.Groups),
		"warnings", res.Diagnostics.Count(diag.Warning))
	return res, nil
}

// Job returns the result in the form the renderers draw.
func (r *Result) Job() render.Job {
	return render.Job{Name: r.Name, Panel: r.Panel, Cutouts: r.Cutouts, Plan: r.Plan}
}

// GCode emits the machining program.
func (r *Result) GCode(w io.Writer, opts gcode.Options) error {
	if r.Plan == nil {
		return errors.New("no plan to emit")
	}
	h := gcode.Header{Name: r.Name, Tools: gcode.Tools(r.Plan), Panel: r.Panel}
	return gcode.Emit(w, r.Plan, h, opts)
}
