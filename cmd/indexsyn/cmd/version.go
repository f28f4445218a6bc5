package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexsyn/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var jsonOutput bool
	var shortOutput bool
	var depsOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information including git commit, build date, and Go version.
With --deps, also list the bleve, vellum, OpenSearch and SQLite modules linked in.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if shortOutput {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Short())
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(version.GetInfo())
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), version.String()); err != nil {
				return err
			}
			if depsOutput {
				_, err := fmt.Fprint(cmd.OutOrStdout(), version.Describe())
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	cmd.Flags().BoolVar(&shortOutput, "short", false, "Output only the version number")
	cmd.Flags().BoolVar(&depsOutput, "deps", false, "List linked search and storage modules")

	return cmd
}
