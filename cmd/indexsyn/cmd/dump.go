package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexsyn/internal/fst"
	"github.com/Aman-CERP/indexsyn/internal/output"
)

func newDumpCmd() *cobra.Command {
	var (
		limit int
		words bool
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print every compiled synonym mapping",
		Long: `Compile the configured synonyms and print each input with its
outputs in sorted order. "(+orig)" marks inputs that keep the original
tokens next to their synonyms.`,
		Example: `  indexsyn dump --limit 20
  indexsyn dump --words`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			m, _, err := loadMap(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if words {
				for _, w := range m.Words() {
					out.Status("", w)
				}
				return nil
			}

			n := 0
			m.Walk(func(input []string, match fst.Match) bool {
				outputs := make([]string, len(match.Outputs))
				for i, o := range match.Outputs {
					outputs[i] = strings.Join(o, " ")
				}
				out.Mapping(strings.Join(input, " "), outputs, match.IncludeOrig)
				n++
				return limit <= 0 || n < limit
			})
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many entries (0 = all)")
	cmd.Flags().BoolVar(&words, "words", false, "Print the distinct output terms instead")

	return cmd
}
