package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	var pendingOnly bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog contents and conversion state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			store := catalog.NewStore(cfg.CatalogPath())
			c, err := store.Load()
			if err != nil {
				return err
			}

			apps := c.Applications
			if pendingOnly {
				apps = c.Pending("")
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(apps)
			}

			renderStatusTable(cmd, c, apps)
			return nil
		},
	}

	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Show only records awaiting conversion")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit records as JSON")

	return cmd
}

func renderStatusTable(cmd *cobra.Command, c *catalog.Catalog, apps []*catalog.Application) {
	sorted := make([]*catalog.Application, len(apps))
	copy(sorted, apps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Version", "Arch", "Status", "Packages"})

	for _, app := range sorted {
		tw.AppendRow(table.Row{
			app.ID,
			app.Version,
			app.Architecture,
			string(app.ConversionStatus),
			packageSummary(app),
		})
	}
	tw.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d applications shown (catalog updated %s)\n",
		len(sorted), c.Metadata.TotalApplications, c.Metadata.LastUpdated)
}

// packageSummary compresses per-format statuses into one cell.
func packageSummary(app *catalog.Application) string {
	formats := make([]string, 0, len(app.ConvertedPackages))
	for format := range app.ConvertedPackages {
		formats = append(formats, string(format))
	}
	sort.Strings(formats)

	parts := make([]string, 0, len(formats))
	for _, format := range formats {
		pkg := app.ConvertedPackages[catalog.Format(format)]
		parts = append(parts, fmt.Sprintf("%s:%s", format, pkg.Status))
	}
	return strings.Join(parts, " ")
}
