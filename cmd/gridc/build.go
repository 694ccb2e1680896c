package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gridc-io/gridc"
	"github.com/gridc-io/gridc/frontend"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] <source>",
	Short: "Compile kernel source into a portable program binary",
	Args:  cobra.ExactArgs(1),
	RunE:  buildExecution,
}

func buildExecution(cmd *cobra.Command, args []string) error {
	options, err := cmd.Flags().GetString("options")
	if err != nil {
		return err
	}
	headerSpecs, err := cmd.Flags().GetStringArray("header")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	headers, err := loadHeaders(headerSpecs)
	if err != nil {
		return err
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if output == "" {
		output = outputName(args[0])
	}

	p := gridc.New(gridc.NewContext(), string(source),
		gridc.WithPolicy(policy()),
		gridc.WithLogger(logger()),
	)
	if !p.Build(options, headers) {
		fmt.Fprint(os.Stderr, colorizeLog(p.BuildLog()))
		return fmt.Errorf("build failed")
	}
	if log := p.BuildLog(); log != "" {
		fmt.Fprint(os.Stderr, colorizeLog(log))
	}

	data, err := p.Binary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}
	color.Green("built %s (%d kernels, %d bytes)", output, p.NumKernels(), len(data))
	return nil
}

// loadHeaders parses --header name=path specs into build headers.
func loadHeaders(specs []string) ([]frontend.Header, error) {
	var headers []frontend.Header
	for _, spec := range specs {
		name, path, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid header spec %q, want name=path", spec)
		}
		source, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		headers = append(headers, frontend.Header{Name: name, Source: string(source)})
	}
	return headers, nil
}

func outputName(input string) string {
	if i := strings.LastIndexByte(input, '.'); i > 0 {
		input = input[:i]
	}
	return input + ".bin"
}

// colorizeLog highlights error and warning lines of a build log.
func colorizeLog(log string) string {
	var sb strings.Builder
	for _, line := range strings.Split(strings.TrimRight(log, "\n"), "\n") {
		switch {
		case strings.Contains(line, "error:"):
			sb.WriteString(color.RedString("%s", line))
		case strings.Contains(line, "warning:"):
			sb.WriteString(color.YellowString("%s", line))
		default:
			sb.WriteString(line)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func init() {
	buildCmd.Flags().String("options", "", "whitespace-separated build options")
	buildCmd.Flags().StringArray("header", nil, "auxiliary header as name=path (repeatable)")
	buildCmd.Flags().StringP("output", "o", "", "output path (default: source with .bin extension)")
}
