package commands

import (
	"bytes"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"panelcam/pkg/board"
	"panelcam/pkg/catalog"
	"panelcam/pkg/cfg"
	"panelcam/pkg/cutout"
	"panelcam/pkg/diag"
	"panelcam/pkg/errors"
	"panelcam/pkg/geometry"
	"panelcam/pkg/logger"
	"panelcam/pkg/pipeline"
)

// fs is where boards, catalogs, config and outputs are read and written.
var fs afero.Fs = afero.NewOsFs()

// jobFlags are shared by every command that runs the pipeline.
type jobFlags struct {
	footprints    string
	tools         string
	skip          []string
	include       []string
	adjust        []string
	strict        bool
	hp            int
	strategy      string
	layer         string
	mountingHoles bool
	entryHoles    bool
	sort          string
	output        string
}

var flags jobFlags

func addCatalogFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flags.footprints, "footprints", "", "Footprint catalog (overrides catalog.footprints)")
	cmd.Flags().StringVar(&flags.tools, "tools", "", "Tool table or tool crib database (overrides catalog.tools)")
}

func addJobFlags(cmd *cobra.Command) {
	addCatalogFlags(cmd)
	f := cmd.Flags()
	f.StringSliceVar(&flags.skip, "skip", nil, "Component references to leave out")
	f.StringSliceVar(&flags.include, "include", nil, "Only machine these component references")
	f.StringArrayVar(&flags.adjust, "adjust", nil, "Move a component before matching, as ref:dx,dy (repeatable)")
	f.BoolVar(&flags.strict, "strict", false, "Fail on components without a catalog footprint")
	f.IntVar(&flags.hp, "hp", 0, "Panel width in HP (overrides panel.hp)")
	f.StringVar(&flags.strategy, "strategy", "", "Outline strategy: fixed, bbox or layer (overrides panel.strategy)")
	f.StringVar(&flags.layer, "layer", "", "Outline layer for --strategy layer (overrides panel.layer)")
	f.BoolVar(&flags.mountingHoles, "mounting-holes", false, "Drill the eurorack mounting holes")
	f.BoolVar(&flags.entryHoles, "entry-holes", false, "Drill an entry hole for every milled cutout (overrides mill.entry_holes)")
	f.StringVarP(&flags.output, "output", "o", "", "Output file (default stdout)")
}

// loadConfig reads the configuration and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*cfg.Config, error) {
	conf, err := cfg.Load(fs, flagString(cmd, "config"))
	if err != nil {
		return nil, err
	}
	if flags.footprints != "" {
		conf.Catalog.Footprints = flags.footprints
	}
	if flags.tools != "" {
		conf.Catalog.Tools = flags.tools
	}
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("hp") {
		conf.Panel.HP = flags.hp
	}
	if changed("strategy") {
		conf.Panel.Strategy = flags.strategy
	}
	if changed("layer") {
		conf.Panel.Layer = flags.layer
	}
	if changed("mounting-holes") {
		conf.Panel.MountingHoles = flags.mountingHoles
	}
	if changed("entry-holes") {
		conf.Mill.EntryHoles = flags.entryHoles
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func loadCatalog(cmd *cobra.Command, conf *cfg.Config) (*catalog.Catalog, error) {
	return catalog.Load(cmd.Context(), fs, conf.Catalog.Footprints, conf.Catalog.Tools)
}

// runJob loads every input and runs the pipeline on boardPath.
func runJob(cmd *cobra.Command, boardPath string) (*pipeline.Result, *cfg.Config, error) {
	conf, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	cat, err := loadCatalog(cmd, conf)
	if err != nil {
		return nil, nil, err
	}
	b, err := board.Load(fs, boardPath)
	if err != nil {
		return nil, nil, err
	}
	adjust, err := parseAdjust(flags.adjust)
	if err != nil {
		return nil, nil, err
	}

	opts, err := conf.Pipeline()
	if err != nil {
		return nil, nil, err
	}
	opts.Name = filepath.Base(boardPath)
	opts.Cutouts = cutout.Options{
		Skip:    flags.skip,
		Include: flags.include,
		Adjust:  adjust,
		Strict:  flags.strict,
	}

	res, err := pipeline.Run(b, cat, opts)
	if res != nil {
		res.Diagnostics.Log(logger.Named("diag"))
		if n := res.Diagnostics.Count(diag.Warning); n > 0 {
			logger.Logger.Warnf("%d components need attention, see warnings above", n)
		}
	}
	if err != nil {
		return nil, nil, err
	}
	return res, conf, nil
}

// parseAdjust parses "ref:dx,dy" values.
func parseAdjust(values []string) (map[string]geometry.Point, error) {
	adjust := map[string]geometry.Point{}
	for _, v := range values {
		ref, offset, ok := strings.Cut(v, ":")
		xs, ys, ok2 := strings.Cut(offset, ",")
		if !ok || !ok2 || ref == "" {
			return nil, errors.WithHint(errors.Newf("bad --adjust %q", v), "use ref:dx,dy, e.g. J1:0.5,-1")
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad --adjust %q", v)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad --adjust %q", v)
		}
		adjust[strings.TrimSpace(ref)] = geometry.Point{X: x, Y: y}
	}
	return adjust, nil
}

// writeOutput writes a finished output to --output, or to the command's
// stdout when no file is given.
func writeOutput(cmd *cobra.Command, buf *bytes.Buffer) error {
	if flags.output == "" || flags.output == "-" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := afero.WriteFile(fs, flags.output, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", flags.output)
	}
	logger.Named("cli").Infow("wrote output", "file", flags.output, "bytes", buf.Len())
	return nil
}

func flagString(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}
