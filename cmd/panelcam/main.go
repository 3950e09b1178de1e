package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"panelcam/cmd/panelcam/commands"
	"panelcam/pkg/errors"
	"panelcam/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "panelcam",
	Short: "panelcam - CAM for eurorack front panels",
	Long: `panelcam - CAM for eurorack front panels.

panelcam reads a board placement file, matches every component against a
footprint catalog and plans the drilling and milling of the front panel.

Available commands:
  gcode   - Write the machining program
  svg     - Draw the panel as SVG
  scad    - Write an OpenSCAD model of the panel
  csv     - List the cutouts as CSV
  table   - Show the cutouts as a table
  catalog - Inspect the footprint and tool catalogs
  watch   - Regenerate an output whenever its inputs change

Examples:
  panelcam gcode board.yaml -o panel.ngc
  panelcam svg board.yaml --strategy bbox -o panel.svg
  panelcam catalog tools`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		if err := logger.Initialize(verbosity, jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("config", "", "Configuration file (default ./panelcam.toml)")

	rootCmd.AddCommand(commands.GCodeCmd)
	rootCmd.AddCommand(commands.SVGCmd)
	rootCmd.AddCommand(commands.SCADCmd)
	rootCmd.AddCommand(commands.CSVCmd)
	rootCmd.AddCommand(commands.TableCmd)
	rootCmd.AddCommand(commands.CatalogCmd)
	rootCmd.AddCommand(commands.WatchCmd)
}

func main() {
	err := rootCmd.Execute()
	logger.Cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		os.Exit(1)
	}
}
