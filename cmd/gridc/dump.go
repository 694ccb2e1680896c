package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridc-io/gridc/bitcode"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <binary>",
	Short: "Print the textual IR of a program binary",
	Args:  cobra.ExactArgs(1),
	RunE:  dumpExecution,
}

func dumpExecution(cmd *cobra.Command, args []string) error {
	mod, err := bitcode.DecodeFile(args[0])
	if err != nil {
		return err
	}
	fmt.Print(mod.String())
	return nil
}
