package catalog

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"panelcam/pkg/errors"
	"panelcam/pkg/geometry"
)

// SchemaConstraint is the range of catalog schema versions this build reads.
const SchemaConstraint = "^1"

type footprintFile struct {
	Schema     string           `toml:"schema" yaml:"schema"`
	Footprints []footprintEntry `toml:"footprint" yaml:"footprints"`
}

type footprintEntry struct {
	ID         string    `toml:"id" yaml:"id"`
	Hole       float64   `toml:"hole" yaml:"hole"`
	Rect       []float64 `toml:"rect" yaml:"rect"`
	Offset     []float64 `toml:"offset" yaml:"offset"`
	Rotation   float64   `toml:"rotation" yaml:"rotation"`
	PermitBack bool      `toml:"permit_back" yaml:"permit_back"`
}

type toolFile struct {
	Schema   string      `toml:"schema" yaml:"schema"`
	Predrill int         `toml:"predrill" yaml:"predrill"`
	Mill     int         `toml:"mill" yaml:"mill"`
	Coolant  string      `toml:"coolant" yaml:"coolant"`
	Tools    []toolEntry `toml:"tool" yaml:"tools"`
}

type toolEntry struct {
	Number   int     `toml:"number" yaml:"number"`
	Type     string  `toml:"type" yaml:"type"`
	Dia      float64 `toml:"dia" yaml:"dia"`
	Feed     float64 `toml:"feed" yaml:"feed"`
	Downfeed float64 `toml:"downfeed" yaml:"downfeed"`
	Speed    float64 `toml:"speed" yaml:"speed"`
	Coolant  string  `toml:"coolant" yaml:"coolant"`
	Peck     float64 `toml:"peck" yaml:"peck"`
	Retract  float64 `toml:"retract" yaml:"retract"`
}

// Load reads both catalog files and validates the result. Tool tables ending
// in .db or .sqlite are read as a SQLite tool crib from the real filesystem.
func Load(ctx context.Context, fs afero.Fs, footprintsPath, toolsPath string) (*Catalog, error) {
	footprints, err := LoadFootprints(fs, footprintsPath)
	if err != nil {
		return nil, err
	}

	var table ToolTable
	if IsToolCrib(toolsPath) {
		table, err = OpenToolCrib(ctx, toolsPath)
	} else {
		table, err = LoadTools(fs, toolsPath)
	}
	if err != nil {
		return nil, err
	}

	c, err := New(footprints, table)
	if err != nil {
		return nil, errors.Wrapf(err, "loading catalogs %s, %s", footprintsPath, toolsPath)
	}
	return c, nil
}

// LoadFootprints reads a TOML or YAML footprint table.
func LoadFootprints(fs afero.Fs, path string) ([]Footprint, error) {
	var file footprintFile
	if err := decodeFile(fs, path, &file); err != nil {
		return nil, err
	}
	if err := checkSchema(path, file.Schema); err != nil {
		return nil, err
	}

	footprints := make([]Footprint, 0, len(file.Footprints))
	for i, entry := range file.Footprints {
		fp, err := entry.footprint()
		if err != nil {
			return nil, errors.Wrapf(err, "%s: footprint #%d", path, i+1)
		}
		footprints = append(footprints, fp)
	}
	return footprints, nil
}

func (e footprintEntry) footprint() (Footprint, error) {
	fp := Footprint{
		ID:             e.ID,
		RotationOffset: e.Rotation,
		PermitBack:     e.PermitBack,
	}
	if (e.Hole != 0) == (e.Rect != nil) {
		return fp, errors.Kindf(errors.ErrInvalidCatalog, "%q: must specify hole or rect", e.ID)
	}
	if e.Hole != 0 {
		fp.Shape = Round
		fp.Diameter = e.Hole
	} else {
		if len(e.Rect) != 2 {
			return fp, errors.Kindf(errors.ErrInvalidCatalog, "%q: rect takes [width, height]", e.ID)
		}
		fp.Shape = Rect
		fp.Width, fp.Height = e.Rect[0], e.Rect[1]
	}
	switch len(e.Offset) {
	case 0:
	case 2:
		fp.Offset = geometry.Point{X: e.Offset[0], Y: e.Offset[1]}
	default:
		return fp, errors.Kindf(errors.ErrInvalidCatalog, "%q: offset takes [x, y]", e.ID)
	}
	return fp, nil
}

// LoadTools reads a TOML or YAML tool table. The table-level coolant mode
// applies to tools that do not set their own.
func LoadTools(fs afero.Fs, path string) (ToolTable, error) {
	var file toolFile
	if err := decodeFile(fs, path, &file); err != nil {
		return ToolTable{}, err
	}
	if err := checkSchema(path, file.Schema); err != nil {
		return ToolTable{}, err
	}

	table := ToolTable{Predrill: file.Predrill, Mill: file.Mill}
	for _, entry := range file.Tools {
		coolant := entry.Coolant
		if coolant == "" {
			coolant = file.Coolant
		}
		tool, err := newTool(entry.Number, entry.Type, entry.Dia, entry.Feed, entry.Downfeed,
			entry.Speed, coolant, entry.Peck, entry.Retract)
		if err != nil {
			return ToolTable{}, errors.Wrapf(err, "%s: tool %d", path, entry.Number)
		}
		table.Tools = append(table.Tools, tool)
	}
	return table, nil
}

func newTool(number int, kind string, dia, feed, downfeed, speed float64, coolant string, peck, retract float64) (Tool, error) {
	k, err := ParseToolKind(kind)
	if err != nil {
		return Tool{}, err
	}
	c, err := ParseCoolant(coolant)
	if err != nil {
		return Tool{}, err
	}
	return Tool{
		Number:        number,
		Kind:          k,
		Diameter:      dia,
		FeedRate:      feed,
		PlungeRate:    downfeed,
		SpindleSpeed:  speed,
		Coolant:       c,
		PeckDepth:     peck,
		RetractHeight: retract,
	}, nil
}

func decodeFile(fs afero.Fs, path string, v interface{}) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return errors.WithHint(errors.Wrapf(err, "reading catalog %s", path),
			"check the catalog paths in panelcam.toml or pass --footprints/--tools")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), v)
		if err != nil {
			return errors.Wrapf(errors.Kindf(errors.ErrInvalidCatalog, "%v", err), "parsing %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return errors.Kindf(errors.ErrInvalidCatalog, "%s: unsupported keyword %s", path, undecoded[0])
		}
	case ".yaml", ".yml", ".json":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil {
			return errors.Wrapf(errors.Kindf(errors.ErrInvalidCatalog, "%v", err), "parsing %s", path)
		}
	default:
		return errors.Kindf(errors.ErrInvalidCatalog, "%s: unknown catalog format", path)
	}
	return nil
}

func checkSchema(path, schema string) error {
	if schema == "" {
		return nil
	}
	v, err := semver.NewVersion(schema)
	if err != nil {
		return errors.Kindf(errors.ErrInvalidCatalog, "%s: bad schema version %q", path, schema)
	}
	constraint, err := semver.NewConstraint(SchemaConstraint)
	if err != nil {
		return errors.WithStack(err)
	}
	if !constraint.Check(v) {
		return errors.WithHintf(
			errors.Kindf(errors.ErrInvalidCatalog, "%s: schema %s not supported", path, v),
			"this build reads catalog schema %s", SchemaConstraint)
	}
	return nil
}
