package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yallma3/yashell/internal/config"
	"github.com/yallma3/yashell/internal/sidecar"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show where the sidecar entry point resolves to",
	Long: `Resolve the core API entry point for the current configuration and
print the result, without spawning anything. Useful for diagnosing
packaging and layout problems.`,
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	resolved, err := sidecar.NewResolver(resolverConfig(cfg)).Resolve()
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}

	fmt.Printf("Mode: %s\n", cfg.Sidecar.Mode)
	fmt.Printf("Strategy: %s\n", cfg.Sidecar.Strategy)
	fmt.Printf("Entry: %s\n", resolved.Path)
	if resolved.RunDirect() {
		fmt.Println("Interpreter: none (run directly)")
	} else {
		fmt.Printf("Interpreter: %s\n", resolved.Interpreter)
	}
	fmt.Printf("Log dir: %s\n", cfg.LogDir())

	return nil
}
