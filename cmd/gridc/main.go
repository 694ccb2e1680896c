// Package main implements the gridc CLI.
package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gridc-io/gridc/frontend"
)

var version = "dev"

var envKeyReplacer = strings.NewReplacer("-", "_")

var rootCmd = &cobra.Command{
	Use:   "gridc",
	Short: "Device-kernel compiler and program toolchain",
	Long:  "gridc compiles device-kernel source into portable program binaries and inspects their kernel entry points.",
}

func main() {
	rootCmd.Version = version

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(kernelsCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(pchCmd)

	rootCmd.PersistentFlags().Bool("verbose", false, "log build internals to stderr")
	rootCmd.PersistentFlags().String("pch-dir", "", "directory holding precompiled headers")
	rootCmd.PersistentFlags().Int("pointer-width", 0, "target pointer width in bits (32 or 64, 0 = host)")

	// Every persistent flag can also be set through a GRIDC_* environment
	// variable, e.g. GRIDC_PCH_DIR.
	viper.SetEnvPrefix("GRIDC")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()
	for _, name := range []string{"verbose", "pch-dir", "pointer-width"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func logger() zerolog.Logger {
	if !viper.GetBool("verbose") {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func policy() frontend.Policy {
	return frontend.Policy{
		PCHDir:       viper.GetString("pch-dir"),
		PointerWidth: viper.GetInt("pointer-width"),
	}
}
