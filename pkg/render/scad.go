package render

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"panelcam/pkg/catalog"
	"panelcam/pkg/errors"
)

// SCAD writes an OpenSCAD model subtracting every cutout from the panel of
// the eurorack.scad library. OpenSCAD has its origin at the bottom-left
// panel corner, so machine Y is shifted up by the panel height.
func SCAD(w io.Writer, job Job) error {
	p := job.Panel
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "use <eurorack.scad>")
	fmt.Fprintln(&buf)
	fmt.Fprintln(&buf, "$fn=32;")
	fmt.Fprintln(&buf, "$vpr = [0, 0, 0];")
	fmt.Fprintf(&buf, "$vpt = [%.2f, %.2f, 0];\n", p.Width/2, p.Height/2)
	fmt.Fprintf(&buf, "$vpd = %.2f;\n", math.Max(p.Width, p.Height)*2.5)
	fmt.Fprintf(&buf, "depth=%s;\n", mm(p.Depth, 2))
	fmt.Fprintln(&buf, "difference() {")
	fmt.Fprintf(&buf, "\teurorack_panel(hp = %d);\n", p.HP)

	for _, c := range job.Cutouts {
		if c.Shape != catalog.Round {
			continue
		}
		fmt.Fprintf(&buf, "\t// Drill: %s\n", c.Ref)
		fmt.Fprintf(&buf, "\ttranslate([%.3f, %.3f, 0])\n", c.Center.X, p.Height+c.Center.Y)
		fmt.Fprintf(&buf, "\t    cylinder(h=depth, r=%.3f / 2.0, center=false);\n", c.Diameter)
	}
	for _, c := range job.Cutouts {
		if c.Shape != catalog.Rect {
			continue
		}
		fmt.Fprintf(&buf, "\t// Rect: %s\n", c.Ref)
		fmt.Fprintf(&buf, "\ttranslate([%.3f, %.3f, 0])\n", c.Center.X, p.Height+c.Center.Y)
		if c.Rotation != 0 {
			fmt.Fprintf(&buf, "\t    rotate([0, 0, %.3f])\n", c.Rotation)
		}
		fmt.Fprintf(&buf, "\t    translate([%.3f, %.3f, 0])\n", -c.Width/2, -c.Height/2)
		fmt.Fprintf(&buf, "\t    cube(size=[%.3f, %.3f, depth], center=false);\n", c.Width, c.Height)
	}
	fmt.Fprintln(&buf, "}")

	_, err := w.Write(buf.Bytes())
	return errors.Wrap(err, "writing openscad")
}
