package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gridc-io/gridc"
	"github.com/gridc-io/gridc/kernels"
)

var kernelsCmd = &cobra.Command{
	Use:   "kernels <binary|source>",
	Short: "List the kernel entry points of a program",
	Args:  cobra.ExactArgs(1),
	RunE:  kernelsExecution,
}

func kernelsExecution(cmd *cobra.Command, args []string) error {
	p, err := loadProgram(args[0])
	if err != nil {
		return err
	}

	names := p.KernelNames()
	if len(names) == 0 {
		fmt.Println("no kernels")
		return nil
	}
	for _, name := range names {
		k := p.CreateKernel(name)
		if k == nil {
			color.Red("%s (malformed)", name)
			continue
		}
		color.Cyan("%s", name)
		for _, arg := range k.Args() {
			fmt.Printf("  %s\n", formatArg(arg))
		}
	}
	return nil
}

// loadProgram builds a Program from either a portable binary or kernel
// source, decided by file extension.
func loadProgram(path string) (*gridc.Program, error) {
	ctx := gridc.NewContext()
	if strings.HasSuffix(path, ".bin") {
		return gridc.FromBitcodeFile(ctx, path, gridc.WithLogger(logger()))
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := gridc.New(ctx, string(source),
		gridc.WithPolicy(policy()),
		gridc.WithLogger(logger()),
	)
	if !p.Build("", nil) {
		fmt.Fprint(os.Stderr, colorizeLog(p.BuildLog()))
		return nil, fmt.Errorf("build failed")
	}
	return p, nil
}

// formatArg renders one argument; the type string already carries pointer
// and address-space information.
func formatArg(arg kernels.ArgInfo) string {
	if arg.Name == "" {
		return arg.Type
	}
	return fmt.Sprintf("%s %s", arg.Type, arg.Name)
}
