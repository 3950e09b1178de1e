package board

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panelcam/pkg/errors"
	"panelcam/pkg/geometry"
)

const sample = `
hp: 10
origin: [100, 50]
components:
  - ref: D1
    footprint: LED_THT:LED_D5.0mm
    at: [110.5, 60]
  - ref: SW1
    footprint: Button_Switch_THT:SW_PUSH
    at: [120, 80]
    rotation: 90
    side: back
outline:
  - {layer: Edge.Cuts, start: [100, 50], end: [150.8, 50]}
  - {layer: Dwgs.User, start: [0, 0], end: [1, 1]}
  - {layer: Edge.Cuts, start: [150.8, 50], end: [150.8, 178.5]}
`

func TestRead(t *testing.T) {
	b, err := Read(strings.NewReader(sample))
	require.NoError(t, err)

	want := &Board{
		HP:     10,
		Origin: geometry.Point{X: 100, Y: 50},
		Components: []PlacedComponent{
			{Ref: "D1", Footprint: "LED_THT:LED_D5.0mm", Position: geometry.Point{X: 110.5, Y: 60}},
			{Ref: "SW1", Footprint: "Button_Switch_THT:SW_PUSH", Position: geometry.Point{X: 120, Y: 80}, Rotation: 90, Back: true},
		},
		Outline: []Edge{
			{Layer: "Edge.Cuts", Start: geometry.Point{X: 100, Y: 50}, End: geometry.Point{X: 150.8, Y: 50}},
			{Layer: "Dwgs.User", Start: geometry.Point{}, End: geometry.Point{X: 1, Y: 1}},
			{Layer: "Edge.Cuts", Start: geometry.Point{X: 150.8, Y: 50}, End: geometry.Point{X: 150.8, Y: 178.5}},
		},
	}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Errorf("incorrect board: %s", diff)
	}
	assert.Equal(t, []string{"Edge.Cuts", "Dwgs.User"}, b.Layers())
}

func TestReadJSON(t *testing.T) {
	b, err := Read(strings.NewReader(`{"components": [{"ref": "R1", "footprint": "X", "at": [1, 2], "side": "front"}]}`))
	require.NoError(t, err)
	require.Len(t, b.Components, 1)
	assert.False(t, b.Components[0].Back)
	assert.Equal(t, 0, b.HP)
}

func TestReadEmpty(t *testing.T) {
	b, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, b.Components)
}

func TestReadRejects(t *testing.T) {
	tests := []string{
		"components:\n  - ref: D1\n    at: [1]\n",
		"components:\n  - footprint: X\n    at: [1, 2]\n",
		"components:\n  - ref: D1\n    at: [1, 2]\n    side: middle\n",
		"components:\n  - ref: D1\n    at: [1, 2]\n    layer: F.Cu\n",
		"outline:\n  - {layer: Edge.Cuts, start: [0, 0]}\n",
		"hp: -3\n",
	}
	for _, data := range tests {
		_, err := Read(strings.NewReader(data))
		assert.True(t, errors.Is(err, errors.ErrInvalidBoard), "%q: got %v", data, err)
	}
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "panel.yaml", []byte(sample), 0644))
	b, err := Load(fs, "panel.yaml")
	require.NoError(t, err)
	assert.Len(t, b.Components, 2)

	_, err = Load(fs, "missing.yaml")
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}
