package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"treeopt/internal/config"
	"treeopt/internal/ir"
	"treeopt/internal/irbin"
	"treeopt/internal/observ"
	"treeopt/internal/passes"
	"treeopt/internal/text"
)

var optCmd = &cobra.Command{
	Use:   "opt [flags] module.sxp",
	Short: "Run optimization passes over a module",
	Long:  `Opt reads a module (textual .sxp or binary .tob), runs the configured passes and emits the result`,
	Args:  cobra.ExactArgs(1),
	RunE:  runOpt,
}

func init() {
	optCmd.Flags().String("config", "", "path to treeopt.toml (default: treeopt.toml next to the input, if present)")
	optCmd.Flags().StringSlice("passes", nil, "passes to run, overriding the configuration")
	optCmd.Flags().StringP("output", "o", "", "output path (default: stdout)")
	optCmd.Flags().String("emit", "text", "output format (text|bin)")
}

func runOpt(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	cfg, err := loadOptConfig(cmd, inputPath)
	if err != nil {
		return err
	}

	passNames, err := cmd.Flags().GetStringSlice("passes")
	if err != nil {
		return fmt.Errorf("failed to get passes flag: %w", err)
	}
	if len(passNames) == 0 {
		passNames = cfg.Passes
	}

	jobs, err := cmd.Root().PersistentFlags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs == 0 {
		jobs = cfg.Jobs
	}

	timer := observ.NewTimer()

	phase := timer.Begin("read")
	m, err := loadModule(inputPath)
	if err != nil {
		return err
	}
	timer.End(phase, fmt.Sprintf("%d functions", len(m.Funcs)))

	phase = timer.Begin("passes")
	if err := passes.Run(cmd.Context(), m, passNames, cfg.Options(), jobs); err != nil {
		return err
	}
	timer.End(phase, strings.Join(passNames, ","))
	reportQuiet(cmd, "optimized %d functions (%s)\n", len(m.Funcs), strings.Join(passNames, ", "))

	phase = timer.Begin("emit")
	if err := emitModule(cmd, m); err != nil {
		return err
	}
	timer.End(phase, "")

	if timings, _ := cmd.Root().PersistentFlags().GetBool("timings"); timings {
		fmt.Fprint(os.Stderr, timer.Summary())
	}
	return nil
}

// loadOptConfig resolves --config, falling back to a treeopt.toml next
// to the input when none is given.
func loadOptConfig(cmd *cobra.Command, inputPath string) (config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if configPath != "" {
		return config.Load(configPath)
	}
	implicit := filepath.Join(filepath.Dir(inputPath), "treeopt.toml")
	cfg, err := config.Load(implicit)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

// loadModule reads a module by extension: .tob is binary, everything
// else is textual.
func loadModule(path string) (*ir.Module, error) {
	if filepath.Ext(path) == ".tob" {
		m, err := irbin.Load(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return m, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := text.Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", path, err)
	}
	return m, nil
}

func emitModule(cmd *cobra.Command, m *ir.Module) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	emit, err := cmd.Flags().GetString("emit")
	if err != nil {
		return fmt.Errorf("failed to get emit flag: %w", err)
	}

	switch emit {
	case "bin":
		if outputPath == "" {
			return fmt.Errorf("--emit bin requires -o")
		}
		return irbin.Save(outputPath, m)
	case "text":
		if outputPath == "" {
			return ir.Dump(os.Stdout, m)
		}
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		if err := ir.Dump(f, m); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	default:
		return fmt.Errorf("unsupported emit format %q (must be text or bin)", emit)
	}
}

// reportQuiet prints a one-line summary unless --quiet is set.
func reportQuiet(cmd *cobra.Command, format string, args ...any) {
	if quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet"); quiet {
		return
	}
	if useColor(cmd, os.Stderr) {
		color.New(color.FgCyan).Fprintf(os.Stderr, format, args...)
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}
