package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/DevelopmentCats/AppBinHub/internal/deps"
	"github.com/DevelopmentCats/AppBinHub/internal/utils"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that external tools and directories are usable",
		Long: `Reports the availability of every external tool the conversion
pipeline may invoke and checks that configured directories are
writable. A missing required tool means conversions on this worker
will record tool_unavailable for the affected formats.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			statuses := deps.Check(deps.Requirements())

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Tool", "Available", "Notes"})

			missing := 0
			for _, status := range statuses {
				note := status.Description
				if !status.Available {
					note = status.Detail
					if !status.Optional {
						missing++
					}
				}
				tw.AppendRow(table.Row{status.Name, yesNo(status.Available), note})
			}
			tw.Render()

			for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.AssetDir} {
				if err := checkWritable(dir); err != nil {
					return fmt.Errorf("directory %s is not writable: %w", dir, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Directory %s is writable\n", dir)
			}

			if missing > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d required tools missing; affected formats will be recorded as tool_unavailable\n", missing)
			}
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// checkWritable creates and removes a probe file in dir.
func checkWritable(dir string) error {
	if err := utils.EnsureDir(dir); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".appbinhub-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return err
	}
	return os.Remove(probe)
}
