package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"panelcam/pkg/render"
)

// CatalogCmd groups the catalog listings
var CatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the footprint and tool catalogs",
	Long: `catalog - Inspect the footprint and tool catalogs

Examples:
  panelcam catalog tools                  # List the tool table
  panelcam catalog tools --tools crib.db  # List a SQLite tool crib
  panelcam catalog footprints             # List the footprint catalog`,
}

var catalogToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tool table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cmd, conf)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), pterm.DefaultSection.Sprint("Tools: "+conf.Catalog.Tools))
		return render.ToolTable(cmd.OutOrStdout(), cat)
	},
}

var catalogFootprintsCmd = &cobra.Command{
	Use:   "footprints",
	Short: "List the footprint catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cmd, conf)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), pterm.DefaultSection.Sprint("Footprints: "+conf.Catalog.Footprints))
		return render.FootprintTable(cmd.OutOrStdout(), cat)
	},
}

func init() {
	addCatalogFlags(catalogToolsCmd)
	addCatalogFlags(catalogFootprintsCmd)
	CatalogCmd.AddCommand(catalogToolsCmd)
	CatalogCmd.AddCommand(catalogFootprintsCmd)
}
