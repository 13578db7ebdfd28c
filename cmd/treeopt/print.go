package main

import (
	"os"

	"github.com/spf13/cobra"

	"treeopt/internal/ir"
)

var printCmd = &cobra.Command{
	Use:   "print [flags] module.sxp",
	Short: "Parse a module and pretty-print it",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrint,
}

func runPrint(cmd *cobra.Command, args []string) error {
	m, err := loadModule(args[0])
	if err != nil {
		return err
	}
	return ir.Dump(os.Stdout, m)
}
