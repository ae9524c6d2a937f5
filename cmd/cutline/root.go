package main

import (
	"fmt"
	"os"

	"github.com/aretw0/cutline/internal/cli"
	"github.com/aretw0/cutline/pkg/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cutline",
	Short: "cutline turns vector drawings into cutter and plotter programs",
	Long: `cutline converts SVG and path documents into HPGL, DMPL, GPGL or CAMM
programs, applying copies, cut overlap and blade offset compensation, and
streams them to devices over serial, TCP or spool files.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultFile, "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

func globalOptions(cmd *cobra.Command) cli.Options {
	path, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.Options{ConfigPath: path, LogLevel: level, Debug: debug}
}
