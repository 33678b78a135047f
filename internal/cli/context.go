package cli

import (
	"fmt"
	"strings"

	"github.com/dictachat/memcore/internal/client"
	"github.com/spf13/cobra"
)

var contextBudget int

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Fetch a prompt-ready context block from a running server",
	Long:  "Query a running memcore server for a budget-packed, cited context block ready to inject into a prompt.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runContext,
}

func init() {
	contextCmd.Flags().IntVar(&contextBudget, "budget", 0, "Token budget (0 uses the server default)")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	c := client.New()
	if !c.Healthy() {
		return fmt.Errorf("no memcore server reachable (is `memcore serve` running?)")
	}

	resp, err := c.Context(query, contextBudget)
	if err != nil {
		return fmt.Errorf("fetch context: %w", err)
	}

	if resp.Context == "" {
		fmt.Println("No relevant memory found.")
		return nil
	}
	fmt.Println(resp.Context)
	if resp.Degraded {
		fmt.Println("\n(warning: degraded retrieval — results may be partial)")
	}
	return nil
}
