package cmd

import (
	"os"

	"github.com/atikulmunna/logdeck/internal/grouper"
	"github.com/atikulmunna/logdeck/internal/output"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [folders...]",
	Short: "List the rolled log families found under folders",
	Long: `Recursively scan folders for log files and print them grouped by family,
oldest file first. Without arguments the configured folders are scanned.

Examples:
  logdeck scan /var/log/app
  logdeck scan ./logs /srv/logs --output json`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	folders := args
	if len(folders) == 0 {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		folders = cfg.Folders
	}

	ctx, cancel := signalContext()
	defer cancel()

	groups, err := grouper.Scan(ctx, folders)
	if err != nil {
		return err
	}
	log.Debug().Int("groups", len(groups)).Int("files", grouper.CountFiles(groups)).Msg("scan finished")

	return output.RenderGroups(os.Stdout, outputFmt, groups)
}
