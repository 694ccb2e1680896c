package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gridc-io/gridc/frontend"
	"github.com/gridc-io/gridc/frontend/clc"
)

var pchCmd = &cobra.Command{
	Use:   "pch <directory>",
	Short: "Generate precompiled headers for the bundled standard header",
	Long:  "Generates the precompiled header files the build looks for, one per pointer width and optimization level, into the given directory.",
	Args:  cobra.ExactArgs(1),
	RunE:  pchExecution,
}

func pchExecution(cmd *cobra.Command, args []string) error {
	dir := args[0]
	names := []string{
		"kernelstd32.pch",
		"kernelstd32.noopt.pch",
		"kernelstd64.pch",
		"kernelstd64.noopt.pch",
	}
	for _, name := range names {
		path := filepath.Join(dir, name)
		err := clc.WritePCHFile(path, frontend.FallbackHeaderName,
			frontend.FallbackHeaderSource(), frontend.Extensions)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		color.Green("wrote %s", path)
	}
	return nil
}
