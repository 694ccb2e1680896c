package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gridc-io/gridc"
)

var linkCmd = &cobra.Command{
	Use:   "link -o <output> <binaries...>",
	Short: "Link program binaries into one program",
	Args:  cobra.MinimumNArgs(2),
	RunE:  linkExecution,
}

func linkExecution(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	ctx := gridc.NewContext()
	progs := make([]*gridc.Program, 0, len(args))
	for _, path := range args {
		p, err := gridc.FromBitcodeFile(ctx, path, gridc.WithLogger(logger()))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		progs = append(progs, p)
	}

	linked, err := gridc.FromPrograms(ctx, progs)
	if err != nil {
		return err
	}
	data, err := linked.Binary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}
	color.Green("linked %s (%d kernels, %d bytes)", output, linked.NumKernels(), len(data))
	return nil
}

func init() {
	linkCmd.Flags().StringP("output", "o", "linked.bin", "output path")
}
