package main

import (
	"github.com/aretw0/cutline/internal/cli"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Convert a drawing into a device program",
	Long: `Converts an SVG, YAML or JSON drawing into a device program and writes it
to stdout or --output. Use "-" to read SVG from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.ConvertOptions{Input: args[0]}
		opts.Format, _ = cmd.Flags().GetString("format")
		opts.Profile, _ = cmd.Flags().GetString("profile")
		opts.Dialect, _ = cmd.Flags().GetString("dialect")
		opts.Output, _ = cmd.Flags().GetString("output")
		opts.Set, _ = cmd.Flags().GetStringArray("set")
		opts.Summary, _ = cmd.Flags().GetBool("summary")

		app, err := cli.Setup(globalOptions(cmd))
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.Convert(cmd.Context(), app, opts, cli.StdIO())
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringP("profile", "p", "", "Device profile name")
	convertCmd.Flags().String("dialect", "", "Encode for a dialect without a profile")
	convertCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	convertCmd.Flags().String("format", "", "Input format: svg, yaml or json (default from extension)")
	convertCmd.Flags().StringArray("set", nil, "Job parameter override as key=value (repeatable)")
	convertCmd.Flags().Bool("summary", false, "Print a program summary to stderr")
}
