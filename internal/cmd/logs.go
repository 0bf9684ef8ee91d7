package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yallma3/yashell/internal/config"
	"github.com/yallma3/yashell/internal/logging"
)

var (
	logsStream   string
	logsContains string
	logsTail     int
	logsFormat   string
	logsOutput   string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the sidecar's captured output",
	Long: `Read the sidecar's server.log, optionally filter it, and print or
export it. The log holds stream-tagged lines ([STDOUT]/[STDERR]) plus a
[SPAWN] line per launch recording the PID and resolved path.`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().StringVar(&logsStream, "stream", "", "filter by stream tag (STDOUT, STDERR, SPAWN)")
	logsCmd.Flags().StringVar(&logsContains, "contains", "", "filter to lines containing a substring")
	logsCmd.Flags().IntVar(&logsTail, "tail", 0, "show only the last N matching lines")
	logsCmd.Flags().StringVar(&logsFormat, "format", "text", "output format: text, json, or csv")
	logsCmd.Flags().StringVarP(&logsOutput, "output", "o", "", "export to a file instead of stdout")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	entries, err := logging.ReadServerLog(cfg.LogDir())
	if err != nil {
		return err
	}

	entries = logging.FilterServerLog(entries, logging.ServerLogFilter{
		Stream:   logsStream,
		Contains: logsContains,
		Tail:     logsTail,
	})

	if logsOutput != "" {
		if err := logging.ExportServerLog(entries, logsOutput, logsFormat); err != nil {
			return err
		}
		fmt.Printf("Exported %d entries to %s\n", len(entries), logsOutput)
		return nil
	}

	return logging.WriteServerLog(os.Stdout, entries, logsFormat)
}
