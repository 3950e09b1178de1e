package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panelcam/pkg/catalog"
	"panelcam/pkg/cutout"
	"panelcam/pkg/geometry"
	"panelcam/pkg/panel"
	"panelcam/pkg/planner"
	"panelcam/pkg/svgpath"
	"panelcam/pkg/toolpath"
)

var (
	stub  = catalog.Tool{Number: 2, Kind: catalog.Drill, Diameter: 1, FeedRate: 100, PlungeRate: 100, SpindleSpeed: 10000}
	drill = catalog.Tool{Number: 1, Kind: catalog.Drill, Diameter: 5, FeedRate: 100, PlungeRate: 80, SpindleSpeed: 5000}
	mill  = catalog.Tool{Number: 3, Kind: catalog.Mill, Diameter: 3, FeedRate: 400, PlungeRate: 100, SpindleSpeed: 12000}
)

func testJob(t *testing.T) Job {
	t.Helper()
	led := cutout.Cutout{
		Shape: catalog.Round, Center: geometry.Point{X: 10, Y: -20}, Diameter: 5, Ref: "LED1", Footprint: "LED_5mm",
	}
	sw := cutout.Cutout{
		Shape: catalog.Rect, Center: geometry.Point{X: 10, Y: -60}, Width: 10, Height: 4, Ref: "SW1", Footprint: "SW_Tact",
	}
	contour, err := toolpath.Inset(sw, mill.Radius())
	require.NoError(t, err)

	op := func(tool catalog.Tool, kind toolpath.Kind, c cutout.Cutout, source int) planner.Step {
		return planner.Step{Op: toolpath.Operation{Tool: tool, Kind: kind, Position: c.Center, Depth: 2, Source: source, Ref: c.Ref}}
	}
	contourStep := op(mill, toolpath.SlotContour, sw, 1)
	contourStep.Op.Contour = contour

	return Job{
		Name:    "test",
		Panel:   panel.Panel{HP: 4, Width: 20.32, Height: panel.Height, Depth: 2},
		Cutouts: []cutout.Cutout{led, sw},
		Plan: &planner.Plan{Groups: []planner.Group{
			{Tool: stub, Steps: []planner.Step{op(stub, toolpath.PreDrillCycle, led, 0)}},
			{Tool: drill, Steps: []planner.Step{op(drill, toolpath.DrillCycle, led, 0)}},
			{Tool: mill, Steps: []planner.Step{contourStep}},
		}},
	}
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, testJob(t)))
	assert.Equal(t, strings.Join([]string{
		"ref,footprint,shape,x,y,diameter,width,height,rotation,tool,method",
		"LED1,LED_5mm,round,10.000,-20.000,5.000,,,,2+1,predrill+drill",
		"SW1,SW_Tact,rect,10.000,-60.000,,10.000,4.000,0.000,3,contour",
		"",
	}, "\n"), buf.String())
}

func TestCSVSorted(t *testing.T) {
	job := testJob(t)
	job.Sort = []string{"y", "ref"}
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, job))
	assert.Equal(t, strings.Join([]string{
		"ref,footprint,shape,x,y,diameter,width,height,rotation,tool,method",
		"SW1,SW_Tact,rect,10.000,-60.000,,10.000,4.000,0.000,3,contour",
		"LED1,LED_5mm,round,10.000,-20.000,5.000,,,,2+1,predrill+drill",
		"",
	}, "\n"), buf.String())
}

func TestParseSort(t *testing.T) {
	keys, err := ParseSort(" X, y ,ref")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "ref"}, keys)

	keys, err = ParseSort("")
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = ParseSort("x,colour")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestTableSorted(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	job := testJob(t)
	job.Sort = []string{"footprint"}
	job.Cutouts[0].Footprint = "Z_LED"
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, job))
	out := buf.String()
	assert.Less(t, strings.Index(out, "SW1"), strings.Index(out, "LED1"))
}

func TestCSVWithoutPlan(t *testing.T) {
	job := testJob(t)
	job.Plan = nil
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, job))
	assert.Contains(t, buf.String(), "LED1,LED_5mm,round,10.000,-20.000,5.000,,,,,\n")
}

func TestSCAD(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SCAD(&buf, testJob(t)))
	assert.Equal(t, `use <eurorack.scad>

$fn=32;
$vpr = [0, 0, 0];
$vpt = [10.16, 64.25, 0];
$vpd = 321.25;
depth=2.00;
difference() {
	eurorack_panel(hp = 4);
	// Drill: LED1
	translate([10.000, 108.500, 0])
	    cylinder(h=depth, r=5.000 / 2.0, center=false);
	// Rect: SW1
	translate([10.000, 68.500, 0])
	    translate([-5.000, -2.000, 0])
	    cube(size=[10.000, 4.000, depth], center=false);
}
`, buf.String())
}

func TestSCADRotatedRect(t *testing.T) {
	job := testJob(t)
	job.Cutouts[1].Rotation = 90
	var buf bytes.Buffer
	require.NoError(t, SCAD(&buf, job))
	assert.Contains(t, buf.String(), "\t    rotate([0, 0, 90.000])\n")
}

func TestContourPath(t *testing.T) {
	tests := []struct {
		name    string
		contour *toolpath.Contour
		want    string
	}{
		{
			name: "full circle",
			contour: &toolpath.Contour{
				Start: geometry.Point{X: -3.5},
				Moves: []toolpath.Move{{Kind: toolpath.ArcCW, To: geometry.Point{X: -3.5}}},
			},
			want: "M -3.5 0 A 3.5 3.5 0 0 1 3.5 0 A 3.5 3.5 0 0 1 -3.5 0",
		},
		{
			name: "quarter arc",
			contour: &toolpath.Contour{
				Start: geometry.Point{X: 1},
				Moves: []toolpath.Move{{Kind: toolpath.ArcCW, To: geometry.Point{Y: -1}}},
			},
			want: "M 1 0 A 1 1 0 0 1 0 1",
		},
		{
			name: "three quarter arc",
			contour: &toolpath.Contour{
				Start: geometry.Point{X: 1},
				Moves: []toolpath.Move{{Kind: toolpath.ArcCW, To: geometry.Point{Y: 1}}},
			},
			want: "M 1 0 A 1 1 0 1 1 0 -1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pathData(contourPath(tt.contour)))
		})
	}
}

func TestContourPathRect(t *testing.T) {
	contour, err := toolpath.Inset(cutout.Cutout{Shape: catalog.Rect, Width: 10, Height: 4}, 1.5)
	require.NoError(t, err)
	path := contourPath(contour)
	assert.Equal(t, "M 0 -0.5 L 3.5 -0.5 L 3.5 0.5 L -3.5 0.5 L -3.5 -0.5 L 0 -0.5", pathData(path))
}

func TestSVG(t *testing.T) {
	job := testJob(t)
	var buf bytes.Buffer
	require.NoError(t, SVG(&buf, job))
	out := buf.String()

	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "</svg>")
	// One cutout circle, then the predrill and drill points.
	assert.Equal(t, 3, strings.Count(out, "<circle"))
	assert.Contains(t, out, pathData(contourPath(job.Plan.Groups[2].Steps[0].Op.Contour)))
	assert.Contains(t, out, "stroke-dasharray")

	outline := &svgpath.SubPath{}
	outline.LineTo(20.32, 0).LineTo(20.32, -128.5).LineTo(0, -128.5).Close()
	assert.Contains(t, out, pathData(outline))
}

func TestSVGCutoutsOnly(t *testing.T) {
	job := testJob(t)
	job.Plan = nil
	var buf bytes.Buffer
	require.NoError(t, SVG(&buf, job))
	assert.Equal(t, 1, strings.Count(buf.String(), "<circle"))
	assert.NotContains(t, buf.String(), "stroke-dasharray")
}

func TestTable(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var buf bytes.Buffer
	require.NoError(t, Table(&buf, testJob(t)))
	out := buf.String()
	for _, want := range []string{"LED1", "dia 5.00", "2+1", "predrill+drill", "SW1", "10.00 x 4.00", "contour"} {
		assert.Contains(t, out, want)
	}
}

func TestCatalogTables(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	cat, err := catalog.New([]catalog.Footprint{
		{ID: "LED_5mm", Shape: catalog.Round, Diameter: 5},
		{ID: "Jack", Shape: catalog.Rect, Width: 6, Height: 8, RotationOffset: 90, PermitBack: true},
	}, catalog.ToolTable{Tools: []catalog.Tool{stub, drill, mill}, Predrill: 2})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ToolTable(&buf, cat))
	for _, want := range []string{"predrill", "endmill", "mill", "5.000"} {
		assert.Contains(t, buf.String(), want)
	}

	buf.Reset()
	require.NoError(t, FootprintTable(&buf, cat))
	for _, want := range []string{"LED_5mm", "dia 5.00", "Jack", "6.00 x 8.00", "90.0", "yes"} {
		assert.Contains(t, buf.String(), want)
	}
}

func TestMM(t *testing.T) {
	assert.Equal(t, "0.000", mm(-0.0001, 3))
	assert.Equal(t, "-1.50", mm(-1.5, 2))
}
