package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"

	"panelcam/pkg/catalog"
	"panelcam/pkg/errors"
)

// Table writes the cutouts as a terminal table, one row per cutout.
func Table(w io.Writer, job Job) error {
	ops := job.operations()
	data := pterm.TableData{{"#", "Ref", "Footprint", "Cutout", "X", "Y", "Tool", "Method"}}
	for _, i := range job.order() {
		c := job.Cutouts[i]
		kinds, tools := method(ops[i])
		data = append(data, []string{
			strconv.Itoa(i + 1), c.Ref, c.Footprint, describe(c),
			mm(c.Center.X, 3), mm(c.Center.Y, 3), tools, kinds,
		})
	}
	return writeTable(w, data)
}

// ToolTable lists a tool catalog.
func ToolTable(w io.Writer, cat *catalog.Catalog) error {
	predrill, _ := cat.Predrill()
	mill, _ := cat.Mill()
	data := pterm.TableData{{"T", "Type", "Dia", "Feed", "Plunge", "Speed", "Coolant", "Peck", "Retract", "Role"}}
	for _, t := range cat.Tools() {
		role := ""
		switch t.Number {
		case predrill.Number:
			role = "predrill"
		case mill.Number:
			role = "mill"
		}
		data = append(data, []string{
			strconv.Itoa(t.Number), t.Kind.String(), mm(t.Diameter, 3),
			mm(t.FeedRate, 0), mm(t.PlungeRate, 0), mm(t.SpindleSpeed, 0), t.Coolant.String(),
			optional(t.PeckDepth), optional(t.RetractHeight), role,
		})
	}
	return writeTable(w, data)
}

// FootprintTable lists a footprint catalog.
func FootprintTable(w io.Writer, cat *catalog.Catalog) error {
	data := pterm.TableData{{"Footprint", "Cutout", "Offset", "Rotation", "Back"}}
	for _, fp := range cat.Footprints() {
		c := describe(cutoutOf(fp))
		back := ""
		if fp.PermitBack {
			back = "yes"
		}
		data = append(data, []string{
			fp.ID, c, mm(fp.Offset.X, 2) + ", " + mm(fp.Offset.Y, 2), mm(fp.RotationOffset, 1), back,
		})
	}
	return writeTable(w, data)
}

func optional(v float64) string {
	if v == 0 {
		return "-"
	}
	return mm(v, 3)
}

func writeTable(w io.Writer, data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "rendering table")
	}
	_, err = fmt.Fprintln(w, out)
	return errors.Wrap(err, "writing table")
}
