package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/cutline"
	"github.com/aretw0/cutline/internal/cli"
	"github.com/aretw0/cutline/internal/presentation/tui"
	"github.com/aretw0/cutline/pkg/protocol"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of cutline",
	Run: func(cmd *cobra.Command, args []string) {
		if banner, _ := cmd.Flags().GetBool("banner"); banner {
			tui.PrintBanner(os.Stdout, strings.TrimSpace(cutline.Version))
			return
		}
		fmt.Printf("cutline version %s\n", strings.TrimSpace(cutline.Version))
	},
}

var dialectsCmd = &cobra.Command{
	Use:   "dialects",
	Short: "List the supported protocol dialects",
	RunE: func(cmd *cobra.Command, args []string) error {
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(protocol.Describe())
		}
		return cli.PrintDialects(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("banner", false, "Print the banner")

	rootCmd.AddCommand(dialectsCmd)
	dialectsCmd.Flags().Bool("json", false, "Print as JSON")
}
