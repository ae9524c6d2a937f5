package main

import (
	"os"

	"github.com/aretw0/cutline"
	"github.com/aretw0/cutline/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var plotCmd = &cobra.Command{
	Use:   "plot <input>",
	Short: "Send a drawing to a configured device",
	Long: `Compiles the drawing for the device's profile and streams it group by
group. Ctrl+C cancels the job at the next group boundary.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.PlotOptions{Input: args[0]}
		opts.Format, _ = cmd.Flags().GetString("format")
		opts.Device, _ = cmd.Flags().GetString("device")
		opts.Set, _ = cmd.Flags().GetStringArray("set")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")
		noProgress, _ := cmd.Flags().GetBool("no-progress")

		showBar := !noProgress && !opts.Quiet && term.IsTerminal(int(os.Stderr.Fd()))
		progress := cli.NewProgress(os.Stderr, showBar)

		app, err := cli.Setup(globalOptions(cmd), cutline.WithLifecycleHooks(progress.Hooks()))
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.Plot(cmd.Context(), app, opts, progress, cli.StdIO())
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)

	plotCmd.Flags().StringP("device", "d", "", "Device name from the configuration")
	_ = plotCmd.MarkFlagRequired("device")
	plotCmd.Flags().String("format", "", "Input format: svg, yaml or json (default from extension)")
	plotCmd.Flags().StringArray("set", nil, "Job parameter override as key=value (repeatable)")
	plotCmd.Flags().BoolP("quiet", "q", false, "Print nothing but errors")
	plotCmd.Flags().Bool("no-progress", false, "Disable the progress bar")
}
