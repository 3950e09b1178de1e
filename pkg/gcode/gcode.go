// Package gcode writes a machining plan as an RS-274 program for a
// three-axis mill: metric, absolute, one work offset, canned peck cycles
// for holes and cutter-compensated contours for everything else.
package gcode

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"panelcam/pkg/catalog"
	"panelcam/pkg/errors"
	"panelcam/pkg/geometry"
	"panelcam/pkg/panel"
	"panelcam/pkg/planner"
	"panelcam/pkg/toolpath"
)

type Options struct {
	// SafeZ is the clearance height for rapid moves and tool changes.
	SafeZ float64
	// LineNumbers prefixes every block with N<n>.
	LineNumbers bool
	// OptionalStop emits M1 before each tool change.
	OptionalStop bool
}

func DefaultOptions() Options {
	return Options{SafeZ: 20, LineNumbers: true, OptionalStop: true}
}

// Header describes the job in the comment block at the top of the program.
type Header struct {
	Name  string
	Tools []catalog.Tool
	Panel panel.Panel
}

// Emitter builds a program in memory. Each method is one transition of
// the program state machine; calling one from the wrong state fails and
// poisons the emitter. Nothing reaches the destination until End.
type Emitter struct {
	opts    Options
	buf     bytes.Buffer
	state   State
	begun   bool
	line    int
	tool    catalog.Tool
	coolant bool
	err     error
}

func NewEmitter(opts Options) *Emitter {
	return &Emitter{opts: opts, line: 10}
}

func (e *Emitter) State() State {
	return e.state
}

func (e *Emitter) transition(to State, what string) bool {
	if e.err != nil {
		return false
	}
	if !e.begun || !allowed(e.state, to) {
		e.err = errors.Kindf(errors.ErrEmitter, "%s while in %s", what, e.state)
		return false
	}
	e.state = to
	return true
}

// Begin writes the header comments and the modal safety block.
func (e *Emitter) Begin(h Header) error {
	if e.err != nil {
		return e.err
	}
	if e.begun || e.state != Idle {
		e.err = errors.Kindf(errors.ErrEmitter, "header while in %s", e.state)
		return e.err
	}
	e.begun = true

	if h.Name != "" {
		e.comment("%s", h.Name)
	}
	e.comment("Tool list:")
	milled := false
	for _, t := range h.Tools {
		e.comment("  T%d: %smm %s, %s", t.Number, num(t.Diameter), t.Kind, coolant(t.Coolant))
		milled = milled || t.Kind == catalog.Mill
	}
	p := h.Panel
	e.comment("Panel is %d HP, X %s Y %s, %smm thick", p.HP, num(p.Width), num(p.Height), num(p.Depth))
	if p.Board.Width() > 0 {
		e.comment("Board is X %s Y %s at X %s Y %s in panel",
			num(p.Board.Width()), num(p.Board.Height()), num(p.Offset.X), num(p.Offset.Y))
	}
	e.comment("Origin is at top left of panel, Y is negative")
	if milled {
		e.comment("Contours are tool-centre paths: D registers hold wear only, not the tool radius")
	}
	e.block("G17 G21 G40 G49 G80 G90 G94")
	e.block("G53 G0 Z0")
	e.block("G54")
	return nil
}

// ToolChange stops for the operator, loads t and starts spindle and coolant.
func (e *Emitter) ToolChange(t catalog.Tool, ops int) error {
	if !e.transition(ToolChange, fmt.Sprintf("tool change to T%d", t.Number)) {
		return e.err
	}
	e.tool = t
	e.newBlock()
	e.comment("T%d: %smm %s, %d operations", t.Number, num(t.Diameter), t.Kind, ops)
	if e.opts.OptionalStop {
		e.block("M1")
	}
	e.block("T%d M6", t.Number)
	e.block("G43 H%d", t.Number)
	e.block("S%.0f M3", t.SpindleSpeed)
	switch t.Coolant {
	case catalog.CoolantMist:
		e.block("M7")
	case catalog.CoolantFlood:
		e.block("M8")
	}
	e.coolant = t.Coolant != catalog.CoolantOff
	return nil
}

// MoveTo rapids to p at the safe height.
func (e *Emitter) MoveTo(p geometry.Point, ref string) error {
	if !e.transition(Positioning, "move") {
		return e.err
	}
	e.blockRef(ref, "G0 X%s Y%s Z%s", num(p.X), num(p.Y), num(e.opts.SafeZ))
	return nil
}

// Drill runs a chip-breaking peck cycle at the current position.
func (e *Emitter) Drill(s planner.Step) error {
	if !e.transition(Cycling, "drill") {
		return e.err
	}
	c, p := s.Cycle, s.Op.Position
	e.block("G98 G73 X%s Y%s Z%s R%s Q%s F%s",
		num(p.X), num(p.Y), num(-c.Bottom), num(c.Retract), num(c.Peck), num(e.tool.PlungeRate))
	e.block("G80")
	return nil
}

// Contour plunges at the entry point and follows the tool-centre path with
// right-hand compensation; the D register carries only the wear offset.
func (e *Emitter) Contour(s planner.Step) error {
	if !e.transition(Cycling, "contour") {
		return e.err
	}
	path := s.Op.Contour
	if path == nil {
		e.err = errors.Kindf(errors.ErrEmitter, "%s: contour operation without a path", s.Op.Ref)
		return e.err
	}
	c := s.Cycle
	e.block("G0 Z%s", num(c.Retract))
	e.block("G1 Z%s F%s", num(-c.Bottom), num(e.tool.PlungeRate))
	e.block("G42 D%d G1 X%s Y%s F%s", e.tool.Number, num(path.Start.X), num(path.Start.Y), num(e.tool.FeedRate))
	at := path.Start
	for _, m := range path.Moves {
		switch m.Kind {
		case toolpath.Line:
			e.block("G1 X%s Y%s", num(m.To.X), num(m.To.Y))
		case toolpath.ArcCW:
			e.block("G2 X%s Y%s I%s J%s", num(m.To.X), num(m.To.Y), num(m.Center.X-at.X), num(m.Center.Y-at.Y))
		}
		at = m.To
	}
	e.block("G40 G1 X%s Y%s", num(path.Entry.X), num(path.Entry.Y))
	e.block("G0 Z%s", num(c.Retract))
	return nil
}

// EndGroup stops coolant, lifts to the safe height and stops the spindle.
func (e *Emitter) EndGroup() error {
	if !e.transition(CoolantOff, "end of group") {
		return e.err
	}
	if e.coolant {
		e.block("M9")
		e.coolant = false
	}
	e.block("G0 Z%s", num(e.opts.SafeZ))
	e.block("M5")
	return nil
}

// End finishes the program and writes it to w. Nothing is written if any
// earlier step failed.
func (e *Emitter) End(w io.Writer) error {
	if !e.transition(ProgramEnd, "program end") {
		return e.err
	}
	e.newBlock()
	e.block("M5")
	e.block("G53 G0 Z0")
	e.block("M30")
	_, err := w.Write(e.buf.Bytes())
	return errors.Wrap(err, "writing program")
}

// Emit writes the whole plan as one program.
func Emit(w io.Writer, plan *planner.Plan, h Header, opts Options) error {
	e := NewEmitter(opts)
	if err := e.Begin(h); err != nil {
		return err
	}
	for _, g := range plan.Groups {
		if err := e.ToolChange(g.Tool, len(g.Steps)); err != nil {
			return err
		}
		for _, s := range g.Steps {
			if err := e.MoveTo(s.Op.Position, s.Op.Ref); err != nil {
				return err
			}
			var err error
			if s.Op.Kind == toolpath.SlotContour {
				err = e.Contour(s)
			} else {
				err = e.Drill(s)
			}
			if err != nil {
				return err
			}
		}
		if err := e.EndGroup(); err != nil {
			return err
		}
	}
	return e.End(w)
}

// Tools returns the tools of the plan in the order they are used.
func Tools(plan *planner.Plan) []catalog.Tool {
	tools := make([]catalog.Tool, 0, len(plan.Groups))
	for _, g := range plan.Groups {
		tools = append(tools, g.Tool)
	}
	return tools
}

// newBlock rounds the line number up to the next multiple of 1000.
func (e *Emitter) newBlock() {
	e.line = (e.line + 999) / 1000 * 1000
}

func (e *Emitter) block(format string, args ...interface{}) {
	e.blockRef("", format, args...)
}

func (e *Emitter) blockRef(ref, format string, args ...interface{}) {
	if e.opts.LineNumbers {
		fmt.Fprintf(&e.buf, "N%d ", e.line)
		e.line += 10
	}
	fmt.Fprintf(&e.buf, format, args...)
	if ref != "" {
		fmt.Fprintf(&e.buf, " (%s)", clean(ref))
	}
	e.buf.WriteByte('\n')
}

func (e *Emitter) comment(format string, args ...interface{}) {
	fmt.Fprintf(&e.buf, "(%s)\n", clean(fmt.Sprintf(format, args...)))
}

func coolant(c catalog.Coolant) string {
	if c == catalog.CoolantOff {
		return "no coolant"
	}
	return c.String() + " coolant"
}

var commentCleaner = strings.NewReplacer("(", "[", ")", "]", "\n", " ")

func clean(s string) string {
	return commentCleaner.Replace(s)
}

// num formats a coordinate with three decimals, never as -0.000.
func num(v float64) string {
	if math.Abs(v) < 0.0005 {
		v = 0
	}
	return fmt.Sprintf("%.3f", v)
}
