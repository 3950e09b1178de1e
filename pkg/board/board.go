// Package board reads the normalized placement file produced by the board
// parser: component placements plus the board outline edges.
package board

import (
	"bytes"
	"io"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"panelcam/pkg/errors"
	"panelcam/pkg/geometry"
)

// PlacedComponent is one component instance. Coordinates are in mm in the
// board frame (origin top-left, Y down), rotation in degrees.
type PlacedComponent struct {
	Ref       string
	Footprint string
	Position  geometry.Point
	Rotation  float64
	Back      bool
}

// Edge is one straight segment of the board outline.
type Edge struct {
	Layer string
	Start geometry.Point
	End   geometry.Point
}

type Board struct {
	// HP is the panel width declared in the board file; 0 if absent.
	HP         int
	Origin     geometry.Point
	Components []PlacedComponent
	Outline    []Edge
}

type fileBoard struct {
	HP         int             `yaml:"hp"`
	Origin     []float64       `yaml:"origin"`
	Components []fileComponent `yaml:"components"`
	Outline    []fileEdge      `yaml:"outline"`
}

type fileComponent struct {
	Ref       string    `yaml:"ref"`
	Footprint string    `yaml:"footprint"`
	At        []float64 `yaml:"at"`
	Rotation  float64   `yaml:"rotation"`
	Side      string    `yaml:"side"`
}

type fileEdge struct {
	Layer string    `yaml:"layer"`
	Start []float64 `yaml:"start"`
	End   []float64 `yaml:"end"`
}

// Load reads a placement file. JSON is accepted as a subset of YAML.
func Load(fs afero.Fs, path string) (*Board, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.WithHint(errors.Wrapf(err, "opening board %s", path),
			"the placement file is produced by the board export step")
	}
	defer f.Close()

	b, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "board %s", path)
	}
	return b, nil
}

func Read(r io.Reader) (*Board, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var fb fileBoard
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fb); err != nil && err != io.EOF {
		return nil, errors.Kindf(errors.ErrInvalidBoard, "%v", err)
	}

	b := &Board{HP: fb.HP}
	if fb.HP < 0 {
		return nil, errors.Kindf(errors.ErrInvalidBoard, "negative hp %d", fb.HP)
	}
	if fb.Origin != nil {
		if b.Origin, err = point(fb.Origin); err != nil {
			return nil, errors.Wrap(err, "origin")
		}
	}

	for i, fc := range fb.Components {
		if fc.Ref == "" {
			return nil, errors.Kindf(errors.ErrInvalidBoard, "component #%d has no ref", i+1)
		}
		pos, err := point(fc.At)
		if err != nil {
			return nil, errors.Wrapf(err, "component %s", fc.Ref)
		}
		var back bool
		switch fc.Side {
		case "", "front", "top", "F":
		case "back", "bottom", "B":
			back = true
		default:
			return nil, errors.Kindf(errors.ErrInvalidBoard, "component %s: unknown side %q", fc.Ref, fc.Side)
		}
		b.Components = append(b.Components, PlacedComponent{
			Ref:       fc.Ref,
			Footprint: fc.Footprint,
			Position:  pos,
			Rotation:  fc.Rotation,
			Back:      back,
		})
	}

	for i, fe := range fb.Outline {
		start, err := point(fe.Start)
		if err != nil {
			return nil, errors.Wrapf(err, "outline edge #%d", i+1)
		}
		end, err := point(fe.End)
		if err != nil {
			return nil, errors.Wrapf(err, "outline edge #%d", i+1)
		}
		b.Outline = append(b.Outline, Edge{Layer: fe.Layer, Start: start, End: end})
	}
	return b, nil
}

func point(v []float64) (geometry.Point, error) {
	if len(v) != 2 {
		return geometry.Point{}, errors.Kindf(errors.ErrInvalidBoard, "expected [x, y], got %d values", len(v))
	}
	return geometry.Point{X: v[0], Y: v[1]}, nil
}

// Layers returns the distinct outline layers in order of first appearance.
func (b *Board) Layers() []string {
	var layers []string
	seen := map[string]bool{}
	for _, e := range b.Outline {
		if !seen[e.Layer] {
			seen[e.Layer] = true
			layers = append(layers, e.Layer)
		}
	}
	return layers
}
