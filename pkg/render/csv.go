package render

import (
	"encoding/csv"
	"io"

	"panelcam/pkg/catalog"
	"panelcam/pkg/errors"
)

var csvHeader = []string{
	"ref", "footprint", "shape", "x", "y", "diameter", "width", "height", "rotation", "tool", "method",
}

// CSV writes one row per cutout in machine coordinates, ordered by job.Sort.
func CSV(w io.Writer, job Job) error {
	ops := job.operations()
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "writing csv")
	}
	for _, i := range job.order() {
		c := job.Cutouts[i]
		kinds, tools := method(ops[i])
		row := []string{c.Ref, c.Footprint, c.Shape.String(), mm(c.Center.X, 3), mm(c.Center.Y, 3)}
		if c.Shape == catalog.Round {
			row = append(row, mm(c.Diameter, 3), "", "", "")
		} else {
			row = append(row, "", mm(c.Width, 3), mm(c.Height, 3), mm(c.Rotation, 3))
		}
		row = append(row, tools, kinds)
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "writing csv")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "writing csv")
}
