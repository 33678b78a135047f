package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "memcore",
	Short: "Tiered memory retrieval and learning engine",
	Long:  "Memcore stores conversation memory in tiered fragments, ranks retrieval by similarity with learned boosts, and serves prompt-ready context over HTTP. Single Go binary.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(statsCmd)
}
