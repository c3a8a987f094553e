package cli

import (
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command, the scheduled entry point
func NewRunCmd() *cobra.Command {
	var arch string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run discovery followed by conversion",
		Long: `The full pipeline in one invocation: monitor all sources, then
convert and publish everything pending. This is the command scheduled
runs invoke; a failed record is simply retried on the next run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := runMonitor(cmd.Context(), cfg); err != nil {
				return err
			}
			return runConvert(cmd.Context(), cfg, arch)
		},
	}

	cmd.Flags().StringVar(&arch, "arch", "", "Restrict conversion to one architecture (e.g. x86_64)")

	return cmd
}
