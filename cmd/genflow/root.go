// genflow serves a generation graph: prompt, language model, image, video and
// display nodes wired by edges, run against the Pollinations API.
//
// Usage:
//
//	genflow serve
//	genflow validate-key --key=<key> [--save]
//	genflow models [--category=text|image|video] [--json]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "genflow",
	Short: "Generation graph engine for text, image and video nodes",
	Long: "genflow keeps a graph of generation nodes, resolves the values flowing\n" +
		"along its edges and runs language model, image and video nodes against\n" +
		"the Pollinations API.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateKeyCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.Version = Version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
