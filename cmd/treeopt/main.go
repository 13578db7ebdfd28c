package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"treeopt/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "treeopt",
	Short: "Tree-IR function optimizer",
	Long:  `treeopt runs optimization passes over tree-IR modules`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(optCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("jobs", 0, "max concurrent functions per pass (0 = GOMAXPROCS)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the persistent --color flag against the output stream.
func useColor(cmd *cobra.Command, f *os.File) bool {
	colorFlag, _ := cmd.Root().PersistentFlags().GetString("color")
	return colorFlag == "on" || (colorFlag == "auto" && isTerminal(f))
}
