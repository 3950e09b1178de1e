// Package cfg loads panelcam.toml. Every key has a default, can be set in
// the file and can be overridden by a PANELCAM_ environment variable, e.g.
// PANELCAM_PANEL_DEPTH=1.6.
package cfg

import (
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"panelcam/pkg/errors"
	"panelcam/pkg/gcode"
	"panelcam/pkg/panel"
	"panelcam/pkg/pipeline"
	"panelcam/pkg/planner"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "panelcam.toml"

type Config struct {
	Panel   PanelConfig   `mapstructure:"panel"`
	Machine MachineConfig `mapstructure:"machine"`
	Drill   DrillConfig   `mapstructure:"drill"`
	Mill    MillConfig    `mapstructure:"mill"`
	Catalog CatalogConfig `mapstructure:"catalog"`
}

type PanelConfig struct {
	Depth float64 `mapstructure:"depth"`
	// HP of 0 defers to the board file (fixed) or the detected outline.
	HP            int     `mapstructure:"hp"`
	Strategy      string  `mapstructure:"strategy"` // fixed, bbox or layer
	Layer         string  `mapstructure:"layer"`
	MountingHoles bool    `mapstructure:"mounting_holes"`
	MountDrill    float64 `mapstructure:"mount_drill"`
}

type MachineConfig struct {
	SafeZ        float64 `mapstructure:"safe_z"`
	Retract      float64 `mapstructure:"retract"`
	LineNumbers  bool    `mapstructure:"line_numbers"`
	OptionalStop bool    `mapstructure:"optional_stop"`
	Router       string  `mapstructure:"router"` // nearest or input
}

type DrillConfig struct {
	Clearance  float64 `mapstructure:"clearance"`
	PointAngle float64 `mapstructure:"point_angle"`
}

type MillConfig struct {
	Clearance  float64 `mapstructure:"clearance"`
	EntryHoles bool    `mapstructure:"entry_holes"`
}

type CatalogConfig struct {
	Footprints string `mapstructure:"footprints"`
	Tools      string `mapstructure:"tools"`
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("panel.depth", 2.0)
	v.SetDefault("panel.hp", 0)
	v.SetDefault("panel.strategy", "fixed")
	v.SetDefault("panel.layer", "Edge.Cuts")
	v.SetDefault("panel.mounting_holes", false)
	v.SetDefault("panel.mount_drill", 3.2)

	v.SetDefault("machine.safe_z", 20.0)
	v.SetDefault("machine.retract", 2.0)
	v.SetDefault("machine.line_numbers", true)
	v.SetDefault("machine.optional_stop", true)
	v.SetDefault("machine.router", "nearest")

	v.SetDefault("drill.clearance", 0.1)
	v.SetDefault("drill.point_angle", 120.0)
	v.SetDefault("mill.clearance", 0.075)
	v.SetDefault("mill.entry_holes", false)

	v.SetDefault("catalog.footprints", "footprints.toml")
	v.SetDefault("catalog.tools", "tools.toml")
}

// New returns a viper instance with defaults and environment binding, reading
// path when given or panelcam.toml from the working directory when present.
func New(fs afero.Fs, path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix("PANELCAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
		return v, nil
	}

	if ok, _ := afero.Exists(fs, FileName); ok {
		v.SetConfigFile(FileName)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config %s", FileName)
		}
	}
	return v, nil
}

// Load reads and validates the configuration.
func Load(fs afero.Fs, path string) (*Config, error) {
	v, err := New(fs, path)
	if err != nil {
		return nil, err
	}
	return LoadWithViper(v)
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch {
	case c.Panel.Depth <= 0:
		return errors.Newf("panel.depth must be > 0, got %g", c.Panel.Depth)
	case c.Panel.HP < 0:
		return errors.Newf("panel.hp must be >= 0, got %d", c.Panel.HP)
	case c.Panel.MountingHoles && c.Panel.MountDrill <= 0:
		return errors.Newf("panel.mount_drill must be > 0, got %g", c.Panel.MountDrill)
	case c.Machine.Retract < 0:
		return errors.Newf("machine.retract must be >= 0, got %g", c.Machine.Retract)
	case c.Machine.SafeZ <= c.Machine.Retract:
		return errors.Newf("machine.safe_z (%g) must be above machine.retract (%g)", c.Machine.SafeZ, c.Machine.Retract)
	case c.Drill.Clearance < 0, c.Mill.Clearance < 0:
		return errors.New("drill.clearance and mill.clearance must be >= 0")
	case c.Drill.PointAngle <= 0 || c.Drill.PointAngle >= 180:
		return errors.Newf("drill.point_angle must be between 0 and 180, got %g", c.Drill.PointAngle)
	}
	if _, err := c.Router(); err != nil {
		return err
	}
	_, err := c.Strategy()
	return err
}

func (c *Config) Strategy() (panel.OutlineStrategy, error) {
	return panel.ParseStrategy(c.Panel.Strategy, c.Panel.Layer, c.Panel.HP)
}

func (c *Config) Router() (planner.Router, error) {
	switch c.Machine.Router {
	case "", "nearest":
		return planner.NearestNeighbor{}, nil
	case "input":
		return planner.InputOrder{}, nil
	}
	return nil, errors.WithHint(errors.Newf("unknown router %q", c.Machine.Router), "use nearest or input")
}

func (c *Config) Params() planner.Params {
	return planner.Params{
		DrillClearance: c.Drill.Clearance,
		PointAngle:     c.Drill.PointAngle,
		MillClearance:  c.Mill.Clearance,
		Retract:        c.Machine.Retract,
		SafeZ:          c.Machine.SafeZ,
	}
}

func (c *Config) GCode() gcode.Options {
	return gcode.Options{
		SafeZ:        c.Machine.SafeZ,
		LineNumbers:  c.Machine.LineNumbers,
		OptionalStop: c.Machine.OptionalStop,
	}
}

// Pipeline returns the pipeline options the configuration describes.
// Component filters are left to the caller.
func (c *Config) Pipeline() (pipeline.Options, error) {
	strategy, err := c.Strategy()
	if err != nil {
		return pipeline.Options{}, err
	}
	router, err := c.Router()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Strategy:      strategy,
		Depth:         c.Panel.Depth,
		MountingHoles: c.Panel.MountingHoles,
		MountDrill:    c.Panel.MountDrill,
		EntryHoles:    c.Mill.EntryHoles,
		Router:        router,
		Params:        c.Params(),
	}, nil
}
