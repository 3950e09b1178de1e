package panel

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panelcam/pkg/board"
	"panelcam/pkg/errors"
	"panelcam/pkg/geometry"
)

var floatOpt = cmp.Comparer(func(x, y float64) bool {
	return math.Abs(x-y) < 0.00001
})

func pt(x, y float64) geometry.Point {
	return geometry.Point{X: x, Y: y}
}

// rect returns a closed rectangular outline on the given layer.
func rect(layer string, x0, y0, x1, y1 float64) []board.Edge {
	return []board.Edge{
		{Layer: layer, Start: pt(x0, y0), End: pt(x1, y0)},
		{Layer: layer, Start: pt(x1, y0), End: pt(x1, y1)},
		{Layer: layer, Start: pt(x1, y1), End: pt(x0, y1)},
		{Layer: layer, Start: pt(x0, y1), End: pt(x0, y0)},
	}
}

func TestFixed(t *testing.T) {
	b := &board.Board{HP: 6, Origin: pt(100, 50)}
	p, err := Resolve(b, Fixed{}, 2)
	require.NoError(t, err)
	want := Panel{HP: 6, Width: 30.48, Height: 128.5, Depth: 2, Origin: pt(100, 50)}
	if diff := cmp.Diff(want, p, floatOpt); diff != "" {
		t.Errorf("incorrect panel: %s", diff)
	}

	p, err = Resolve(b, Fixed{HP: 10}, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, p.HP)

	_, err = Resolve(&board.Board{}, Fixed{}, 2)
	assert.True(t, errors.Is(err, errors.ErrDegenerateOutline))
}

func TestFrame(t *testing.T) {
	p := Panel{Origin: pt(100, 50), Offset: pt(1, 2)}
	got := p.Frame().TransformPoint(pt(110, 60))
	if diff := cmp.Diff(pt(11, -12), got, floatOpt); diff != "" {
		t.Errorf("incorrect frame: %s", diff)
	}
}

func TestBoundingBox(t *testing.T) {
	// 48 mm wide, 100 mm tall: 10 HP is 50.8 mm.
	b := &board.Board{Outline: rect("Edge.Cuts", 100, 50, 148, 150)}
	p, err := Resolve(b, BoundingBox{}, 2)
	require.NoError(t, err)
	want := Panel{
		HP:     10,
		Width:  50.8,
		Height: 128.5,
		Depth:  2,
		Origin: pt(100, 50),
		Offset: pt(1.4, 14.25),
		Board:  geometry.Rectangle{Min: pt(100, 50), Max: pt(148, 150)},
	}
	if diff := cmp.Diff(want, p, floatOpt); diff != "" {
		t.Errorf("incorrect panel: %s", diff)
	}

	// The board's top-left corner is centred inside the panel.
	got := p.Frame().TransformPoint(pt(100, 50))
	if diff := cmp.Diff(pt(1.4, -14.25), got, floatOpt); diff != "" {
		t.Errorf("incorrect frame: %s", diff)
	}

	// An exact multiple of the pitch needs no extra HP.
	b = &board.Board{Outline: rect("Edge.Cuts", 0, 0, 5.08*4, 100)}
	p, err = Resolve(b, BoundingBox{}, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, p.HP)

	p, err = Resolve(b, BoundingBox{HP: 12}, 2)
	require.NoError(t, err)
	assert.Equal(t, 12, p.HP)

	_, err = Resolve(b, BoundingBox{HP: 3}, 2)
	assert.True(t, errors.Is(err, errors.ErrDegenerateOutline))
}

func TestNamedLayer(t *testing.T) {
	outline := append(rect("Edge.Cuts", 0, 0, 20, 100), rect("Dwgs.User", -50, -50, 200, 200)...)
	b := &board.Board{Outline: outline}

	p, err := Resolve(b, NamedLayer{Layer: "Edge.Cuts"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, p.HP)

	_, err = Resolve(b, BoundingBox{}, 2)
	assert.True(t, errors.Is(err, errors.ErrDegenerateOutline), "two outlines should be rejected")

	_, err = Resolve(b, NamedLayer{Layer: "F.Cu"}, 2)
	assert.True(t, errors.Is(err, errors.ErrDegenerateOutline))
}

func TestDegenerate(t *testing.T) {
	tests := []struct {
		name  string
		edges []board.Edge
	}{
		{"empty", nil},
		{"flat", []board.Edge{{Start: pt(0, 0), End: pt(10, 0)}}},
		{"too tall", rect("", 0, 0, 20, 111)},
		{"disconnected", append(rect("", 0, 0, 20, 20), rect("", 30, 30, 40, 40)...)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Resolve(&board.Board{Outline: test.edges}, BoundingBox{}, 2)
			assert.True(t, errors.Is(err, errors.ErrDegenerateOutline), "got %v", err)
		})
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("layer", "Edge.Cuts", 8)
	require.NoError(t, err)
	assert.Equal(t, NamedLayer{Layer: "Edge.Cuts", HP: 8}, s)

	s, err = ParseStrategy("", "", 0)
	require.NoError(t, err)
	assert.Equal(t, Fixed{}, s)

	_, err = ParseStrategy("convex", "", 0)
	assert.Error(t, err)
}

func TestMountingHoles(t *testing.T) {
	assert.Empty(t, Panel{HP: 1, Width: 5.08, Height: Height}.MountingHoles(3.2))

	holes := Panel{HP: 8, Width: 40.64, Height: Height}.MountingHoles(3.2)
	require.Len(t, holes, 2)
	assert.Equal(t, pt(7.5, -3), holes[0].Center)
	assert.Equal(t, pt(7.5, -125.5), holes[1].Center)
	assert.Equal(t, 3.2, holes[0].Diameter)

	holes = Panel{HP: 10, Width: 50.8, Height: Height}.MountingHoles(3.4)
	require.Len(t, holes, 4)
	if diff := cmp.Diff(pt(43.3, -125.5), holes[3].Center, floatOpt); diff != "" {
		t.Errorf("incorrect right column: %s", diff)
	}
	assert.Equal(t, "panel mount B/R", holes[3].Ref)
}
