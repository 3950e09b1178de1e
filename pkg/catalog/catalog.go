// Package catalog holds the footprint and tool tables the CAM pipeline
// works from. A Catalog is built once, validated, and then only read: the
// matcher, selector and planner all receive it as an explicit argument.
package catalog

import (
	"math"
	"sort"

	"panelcam/pkg/errors"
	"panelcam/pkg/geometry"
)

// DiameterTolerance is the largest difference (mm) at which a round cutout
// is considered an exact match for a drill.
const DiameterTolerance = 0.01

type Shape int

const (
	Round Shape = iota
	Rect
)

func (s Shape) String() string {
	if s == Rect {
		return "rect"
	}
	return "round"
}

// Footprint describes the through-panel cutout of one footprint. Offset is
// the position of the cutout centre relative to the footprint origin, in
// the board frame of an unrotated footprint.
type Footprint struct {
	ID             string
	Shape          Shape
	Diameter       float64
	Width          float64
	Height         float64
	Offset         geometry.Point
	RotationOffset float64
	PermitBack     bool
}

type ToolKind int

const (
	Drill ToolKind = iota
	Mill
)

func (k ToolKind) String() string {
	if k == Mill {
		return "endmill"
	}
	return "drill"
}

type Coolant int

const (
	CoolantOff Coolant = iota
	CoolantFlood
	CoolantMist
)

func (c Coolant) String() string {
	switch c {
	case CoolantFlood:
		return "flood"
	case CoolantMist:
		return "mist"
	}
	return "none"
}

// ParseCoolant accepts the names used in tool tables. An empty string is Off.
func ParseCoolant(s string) (Coolant, error) {
	switch s {
	case "", "none", "off":
		return CoolantOff, nil
	case "flood":
		return CoolantFlood, nil
	case "mist":
		return CoolantMist, nil
	}
	return CoolantOff, errors.Kindf(errors.ErrInvalidCatalog, "invalid coolant mode %q", s)
}

// ParseToolKind accepts "drill", "endmill" and "mill".
func ParseToolKind(s string) (ToolKind, error) {
	switch s {
	case "drill":
		return Drill, nil
	case "endmill", "mill":
		return Mill, nil
	}
	return Drill, errors.Kindf(errors.ErrInvalidCatalog, "unrecognised tool type %q", s)
}

// Tool is one entry of the tool table. Number is the tool-changer slot and
// doubles as the length/diameter offset register. A zero RetractHeight means
// "use the machine default"; a zero PeckDepth means "diameter / 4".
type Tool struct {
	Number        int
	Kind          ToolKind
	Diameter      float64
	FeedRate      float64
	PlungeRate    float64
	SpindleSpeed  float64
	Coolant       Coolant
	PeckDepth     float64
	RetractHeight float64
}

func (t Tool) Radius() float64 {
	return t.Diameter / 2
}

// ToolTable is the raw tool configuration before validation.
type ToolTable struct {
	Tools []Tool
	// Predrill is the stub tool used to spot larger holes; 0 disables it.
	Predrill int
	// Mill selects the end mill for contours; 0 picks the only end mill, if any.
	Mill int
}

type Catalog struct {
	footprints map[string]Footprint
	tools      map[int]Tool
	numbers    []int
	predrill   int
	mill       int
}

// New validates the footprints and tool table and returns an immutable catalog.
func New(footprints []Footprint, table ToolTable) (*Catalog, error) {
	c := &Catalog{
		footprints: make(map[string]Footprint, len(footprints)),
		tools:      make(map[int]Tool, len(table.Tools)),
	}

	for _, fp := range footprints {
		if err := validateFootprint(fp); err != nil {
			return nil, err
		}
		if _, dup := c.footprints[fp.ID]; dup {
			return nil, errors.Kindf(errors.ErrInvalidCatalog, "duplicate footprint %q", fp.ID)
		}
		c.footprints[fp.ID] = fp
	}

	var mills []int
	for _, tool := range table.Tools {
		if err := validateTool(tool); err != nil {
			return nil, err
		}
		if _, dup := c.tools[tool.Number]; dup {
			return nil, errors.Kindf(errors.ErrInvalidCatalog, "duplicate tool %d", tool.Number)
		}
		for _, n := range c.numbers {
			other := c.tools[n]
			if other.Kind == tool.Kind && math.Abs(other.Diameter-tool.Diameter) <= 2*DiameterTolerance {
				return nil, errors.Kindf(errors.ErrInvalidCatalog,
					"tools %d and %d are both %.3fmm %s", other.Number, tool.Number, tool.Diameter, tool.Kind)
			}
		}
		if tool.PlungeRate == 0 {
			tool.PlungeRate = tool.FeedRate
		}
		c.tools[tool.Number] = tool
		c.numbers = append(c.numbers, tool.Number)
		if tool.Kind == Mill {
			mills = append(mills, tool.Number)
		}
	}
	sort.Ints(c.numbers)

	if table.Predrill != 0 {
		tool, ok := c.tools[table.Predrill]
		if !ok {
			return nil, errors.Kindf(errors.ErrInvalidCatalog, "predrill refers to missing tool %d", table.Predrill)
		}
		if tool.Kind != Drill {
			return nil, errors.Kindf(errors.ErrInvalidCatalog, "predrill %d is not a drill", table.Predrill)
		}
		c.predrill = table.Predrill
	}

	switch {
	case table.Mill != 0:
		tool, ok := c.tools[table.Mill]
		if !ok {
			return nil, errors.Kindf(errors.ErrInvalidCatalog, "mill refers to missing tool %d", table.Mill)
		}
		if tool.Kind != Mill {
			return nil, errors.Kindf(errors.ErrInvalidCatalog, "mill %d is not an endmill", table.Mill)
		}
		c.mill = table.Mill
	case len(mills) == 1:
		c.mill = mills[0]
	case len(mills) > 1:
		return nil, errors.WithHint(
			errors.Kindf(errors.ErrInvalidCatalog, "%d end mills defined and none selected", len(mills)),
			"set mill=<tool number> in the tool table")
	}

	return c, nil
}

func validateFootprint(fp Footprint) error {
	if fp.ID == "" {
		return errors.Kindf(errors.ErrInvalidCatalog, "footprint without id")
	}
	switch fp.Shape {
	case Round:
		if fp.Diameter <= 0 {
			return errors.Kindf(errors.ErrInvalidCatalog, "footprint %q: hole diameter must be positive", fp.ID)
		}
	case Rect:
		if fp.Width <= 0 || fp.Height <= 0 {
			return errors.Kindf(errors.ErrInvalidCatalog, "footprint %q: rect size must be positive", fp.ID)
		}
	default:
		return errors.Kindf(errors.ErrInvalidCatalog, "footprint %q: unknown shape", fp.ID)
	}
	return nil
}

func validateTool(t Tool) error {
	switch {
	case t.Number <= 0:
		return errors.Kindf(errors.ErrInvalidCatalog, "tool number %d must be positive", t.Number)
	case t.Diameter <= 0:
		return errors.Kindf(errors.ErrInvalidCatalog, "tool %d: diameter must be positive", t.Number)
	case t.FeedRate <= 0:
		return errors.Kindf(errors.ErrInvalidCatalog, "tool %d: feed must be positive", t.Number)
	case t.SpindleSpeed <= 0:
		return errors.Kindf(errors.ErrInvalidCatalog, "tool %d: speed must be positive", t.Number)
	case t.PlungeRate < 0, t.PeckDepth < 0, t.RetractHeight < 0:
		return errors.Kindf(errors.ErrInvalidCatalog, "tool %d: negative plunge, peck or retract", t.Number)
	}
	return nil
}

func (c *Catalog) Footprint(id string) (Footprint, bool) {
	fp, ok := c.footprints[id]
	return fp, ok
}

// Footprints returns all footprints sorted by id.
func (c *Catalog) Footprints() []Footprint {
	fps := make([]Footprint, 0, len(c.footprints))
	for _, fp := range c.footprints {
		fps = append(fps, fp)
	}
	sort.Slice(fps, func(i, j int) bool { return fps[i].ID < fps[j].ID })
	return fps
}

func (c *Catalog) Tool(number int) (Tool, bool) {
	t, ok := c.tools[number]
	return t, ok
}

// Tools returns all tools sorted by number.
func (c *Catalog) Tools() []Tool {
	tools := make([]Tool, 0, len(c.numbers))
	for _, n := range c.numbers {
		tools = append(tools, c.tools[n])
	}
	return tools
}

// DrillFor returns the drill whose diameter matches dia within
// DiameterTolerance, preferring the closest one.
func (c *Catalog) DrillFor(dia float64) (Tool, bool) {
	var best Tool
	found := false
	for _, n := range c.numbers {
		t := c.tools[n]
		if t.Kind != Drill {
			continue
		}
		d := math.Abs(t.Diameter - dia)
		if d <= DiameterTolerance && (!found || d < math.Abs(best.Diameter-dia)) {
			best, found = t, true
		}
	}
	return best, found
}

// Drills returns the drills sorted by ascending diameter.
func (c *Catalog) Drills() []Tool {
	var drills []Tool
	for _, n := range c.numbers {
		if t := c.tools[n]; t.Kind == Drill {
			drills = append(drills, t)
		}
	}
	sort.SliceStable(drills, func(i, j int) bool { return drills[i].Diameter < drills[j].Diameter })
	return drills
}

func (c *Catalog) Predrill() (Tool, bool) {
	if c.predrill == 0 {
		return Tool{}, false
	}
	return c.tools[c.predrill], true
}

func (c *Catalog) Mill() (Tool, bool) {
	if c.mill == 0 {
		return Tool{}, false
	}
	return c.tools[c.mill], true
}
