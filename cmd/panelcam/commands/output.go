package commands

import (
	"bytes"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"panelcam/pkg/cfg"
	"panelcam/pkg/pipeline"
	"panelcam/pkg/render"
)

// writer renders a pipeline result in one output format.
type writer func(w io.Writer, res *pipeline.Result, conf *cfg.Config) error

func gcodeWriter(w io.Writer, res *pipeline.Result, conf *cfg.Config) error {
	return res.GCode(w, conf.GCode())
}

func jobWriter(fn func(io.Writer, render.Job) error) writer {
	return func(w io.Writer, res *pipeline.Result, _ *cfg.Config) error {
		job := res.Job()
		keys, err := render.ParseSort(flags.sort)
		if err != nil {
			return err
		}
		job.Sort = keys
		return fn(w, job)
	}
}

// addSortFlag adds --sort to the commands with tabular output.
func addSortFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flags.sort, "sort", "",
		"Sort rows by a comma separated list of "+strings.Join(render.SortKeyNames(), ", ")+" (default cutout order)")
}

// writers maps the format names accepted by watch --format.
var writers = map[string]writer{
	"gcode": gcodeWriter,
	"svg":   jobWriter(render.SVG),
	"scad":  jobWriter(render.SCAD),
	"csv":   jobWriter(render.CSV),
	"table": jobWriter(render.Table),
}

func newOutputCmd(use, short, long string, write writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <board>",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, conf, err := runJob(cmd, args[0])
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := write(&buf, res, conf); err != nil {
				return err
			}
			return writeOutput(cmd, &buf)
		},
	}
	addJobFlags(cmd)
	return cmd
}

var GCodeCmd = newOutputCmd("gcode", "Write the machining program", `Write the G-code program that drills and mills the panel.

Examples:
  panelcam gcode board.yaml -o panel.ngc
  panelcam gcode board.yaml --skip J3 --adjust J1:0.5,0 --mounting-holes`, gcodeWriter)

var SVGCmd = newOutputCmd("svg", "Draw the panel as SVG", `Draw the panel outline, the cutouts and the planned toolpaths in mm.

Examples:
  panelcam svg board.yaml -o panel.svg`, writers["svg"])

var SCADCmd = newOutputCmd("scad", "Write an OpenSCAD model of the panel", `Write an OpenSCAD model that subtracts every cutout from eurorack_panel().

Examples:
  panelcam scad board.yaml -o panel.scad`, writers["scad"])

var CSVCmd = newOutputCmd("csv", "List the cutouts as CSV", `List every cutout in machine coordinates with the tool and method chosen for it.

Examples:
  panelcam csv board.yaml > cutouts.csv`, writers["csv"])

var TableCmd = newOutputCmd("table", "Show the cutouts as a table", `Show every cutout with the tool and method chosen for it.

Examples:
  panelcam table board.yaml --strategy bbox`, writers["table"])

func init() {
	addSortFlag(CSVCmd)
	addSortFlag(TableCmd)
}
