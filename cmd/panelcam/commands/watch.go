package commands

import (
	"bytes"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"panelcam/pkg/errors"
	"panelcam/pkg/watch"
)

var (
	watchFormat   string
	watchDebounce time.Duration
)

// WatchCmd reruns the pipeline whenever the board, a catalog or the
// configuration changes
var WatchCmd = &cobra.Command{
	Use:   "watch <board>",
	Short: "Regenerate an output whenever its inputs change",
	Long: `watch - Regenerate an output whenever its inputs change

The board file, both catalogs and panelcam.toml are watched. Runs happen one
at a time; a failing run is reported and watching continues.

Examples:
  panelcam watch board.yaml -o panel.ngc
  panelcam watch board.yaml --format svg -o panel.svg`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	addJobFlags(WatchCmd)
	addSortFlag(WatchCmd)
	WatchCmd.Flags().StringVar(&watchFormat, "format", "gcode", "Output format: "+formatNames())
	WatchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Wait this long for changes to settle")
}

func formatNames() string {
	var names []string
	for name := range writers {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func runWatch(cmd *cobra.Command, args []string) error {
	write, ok := writers[watchFormat]
	if !ok {
		return errors.WithHintf(errors.Newf("unknown format %q", watchFormat), "use one of %s", formatNames())
	}
	if flags.output == "" || flags.output == "-" {
		return errors.WithHint(errors.New("watch needs an output file"), "pass -o")
	}

	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	paths := []string{args[0], conf.Catalog.Footprints, conf.Catalog.Tools}
	if config := flagString(cmd, "config"); config != "" {
		paths = append(paths, config)
	} else {
		paths = append(paths, "panelcam.toml")
	}

	run := func() error {
		res, conf, err := runJob(cmd, args[0])
		if err != nil {
			pterm.Error.Println(err.Error())
			return err
		}
		var buf bytes.Buffer
		if err := write(&buf, res, conf); err != nil {
			pterm.Error.Println(err.Error())
			return err
		}
		if err := writeOutput(cmd, &buf); err != nil {
			return err
		}
		pterm.Success.Printf("%s: %s, %d operations\n", flags.output, res.Panel, res.Plan.Len())
		return nil
	}
	// The first run's failure is already reported; keep watching for a fix.
	_ = run()

	w, err := watch.New(paths, watchDebounce)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	pterm.Info.Printf("watching %s\n", strings.Join(paths, ", "))
	return w.Run(ctx, run)
}
