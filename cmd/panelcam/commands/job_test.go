package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panelcam/pkg/errors"
	"panelcam/pkg/geometry"
)

const (
	testFootprints = `
schema = "1"

[[footprint]]
id = "LED5"
hole = 5.0

[[footprint]]
id = "SW"
rect = [10.0, 4.0]
`
	testTools = `
schema = "1"

[[tool]]
number = 2
type = "drill"
dia = 5.0
feed = 120
speed = 5000

[[tool]]
number = 7
type = "endmill"
dia = 3.0
feed = 400
speed = 12000
`
	testBoard = `
hp: 10
components:
  - ref: D1
    footprint: LED5
    at: [10, 20]
  - ref: SW1
    footprint: SW
    at: [25, 60]
  - ref: D2
    footprint: LED5
    at: [40, 20]
`
)

func withFs(t *testing.T) afero.Fs {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "footprints.toml", []byte(testFootprints), 0o644))
	require.NoError(t, afero.WriteFile(mem, "tools.toml", []byte(testTools), 0o644))
	require.NoError(t, afero.WriteFile(mem, "board.yaml", []byte(testBoard), 0o644))
	old := fs
	fs = mem
	t.Cleanup(func() { fs = old })
	return mem
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGCodeCommand(t *testing.T) {
	withFs(t)
	cmd := newOutputCmd("gcode", "", "", gcodeWriter)
	out, err := execute(t, cmd, "board.yaml", "--skip", "D2", "--adjust", "D1:1,0")
	require.NoError(t, err)

	assert.Contains(t, out, "(board.yaml)")
	assert.Contains(t, out, "G98 G73 X11.000 Y-20.000 ")
	assert.NotContains(t, out, "(D2)")
	assert.Contains(t, out, "T7 M6")
	assert.True(t, strings.HasSuffix(out, "M30\n"))
}

func TestOutputFile(t *testing.T) {
	mem := withFs(t)
	cmd := newOutputCmd("csv", "", "", writers["csv"])
	out, err := execute(t, cmd, "board.yaml", "-o", "cutouts.csv", "--include", "SW1")
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := afero.ReadFile(mem, "cutouts.csv")
	require.NoError(t, err)
	assert.Equal(t, "ref,footprint,shape,x,y,diameter,width,height,rotation,tool,method\n"+
		"SW1,SW,rect,25.000,-60.000,,10.000,4.000,0.000,7,contour\n", string(data))
}

func TestOverrides(t *testing.T) {
	withFs(t)
	cmd := newOutputCmd("scad", "", "", writers["scad"])
	out, err := execute(t, cmd, "board.yaml", "--hp", "12", "--mounting-holes")
	require.NoError(t, err)
	assert.Contains(t, out, "eurorack_panel(hp = 12);")
	assert.Contains(t, out, "// Drill: panel mount T/R")
}

func TestStrictFailsWithoutOutput(t *testing.T) {
	mem := withFs(t)
	require.NoError(t, afero.WriteFile(mem, "board.yaml", []byte(testBoard+`
  - ref: J1
    footprint: Jack
    at: [30, 90]
`), 0o644))

	cmd := newOutputCmd("gcode", "", "", gcodeWriter)
	_, err := execute(t, cmd, "board.yaml", "--strict", "-o", "panel.ngc")
	assert.True(t, errors.Is(err, errors.ErrUnmatchedFootprint), "got %v", err)

	exists, _ := afero.Exists(mem, "panel.ngc")
	assert.False(t, exists, "output written for a failed run")
}

func TestMissingCatalog(t *testing.T) {
	withFs(t)
	cmd := newOutputCmd("gcode", "", "", gcodeWriter)
	_, err := execute(t, cmd, "board.yaml", "--tools", "missing.toml")
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestParseAdjust(t *testing.T) {
	got, err := parseAdjust([]string{"J1:0.5,-1", " R2 : 2 , 3 "})
	require.NoError(t, err)
	assert.Equal(t, map[string]geometry.Point{
		"J1": {X: 0.5, Y: -1},
		"R2": {X: 2, Y: 3},
	}, got)

	for _, bad := range []string{"J1", "J1:1", ":1,2", "J1:a,2", "J1:1,b"} {
		_, err := parseAdjust([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestFormatNames(t *testing.T) {
	assert.Equal(t, "csv, gcode, scad, svg, table", formatNames())
}

func TestCatalogCommands(t *testing.T) {
	withFs(t)
	out, err := execute(t, CatalogCmd, "tools")
	require.NoError(t, err)
	assert.Contains(t, out, "tools.toml")
	assert.Contains(t, out, "endmill")

	out, err = execute(t, CatalogCmd, "footprints")
	require.NoError(t, err)
	assert.Contains(t, out, "LED5")
	assert.Contains(t, out, "10.00 x 4.00")
}

func TestSortFlag(t *testing.T) {
	withFs(t)
	t.Cleanup(func() { flags.sort = "" })

	cmd := newOutputCmd("csv", "", "", writers["csv"])
	addSortFlag(cmd)
	out, err := execute(t, cmd, "board.yaml", "--sort", "y,x")
	require.NoError(t, err)
	rows := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, rows, 4)
	assert.True(t, strings.HasPrefix(rows[1], "SW1,"), rows[1])
	assert.True(t, strings.HasPrefix(rows[2], "D1,"), rows[2])
	assert.True(t, strings.HasPrefix(rows[3], "D2,"), rows[3])

	cmd = newOutputCmd("csv", "", "", writers["csv"])
	addSortFlag(cmd)
	_, err = execute(t, cmd, "board.yaml", "--sort", "colour")
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestEntryHolesFlag(t *testing.T) {
	mem := withFs(t)
	require.NoError(t, afero.WriteFile(mem, "board.yaml", []byte(`
hp: 10
components:
  - ref: SW1
    footprint: SW
    at: [25, 60]
`), 0o644))

	cmd := newOutputCmd("gcode", "", "", gcodeWriter)
	_, err := execute(t, cmd, "board.yaml", "--entry-holes")
	assert.True(t, errors.Is(err, errors.ErrUnmatchedTool), "got %v", err)
}
