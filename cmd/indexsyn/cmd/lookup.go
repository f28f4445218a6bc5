package cmd

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/registry"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexsyn/internal/config"
	"github.com/Aman-CERP/indexsyn/internal/filter"
	"github.com/Aman-CERP/indexsyn/internal/output"
)

func newLookupCmd() *cobra.Command {
	var graph bool

	cmd := &cobra.Command{
		Use:   "lookup <text...>",
		Short: "Run text through the synonym filter",
		Long: `Analyze the text, apply the synonym filter and print the
alternatives for every position. With --graph the text goes through a
bleve analyzer chain ending in the index_synonym_graph token filter and
the resulting token stream is printed.`,
		Example: `  indexsyn lookup "flights to ny"
  indexsyn lookup --graph "usa travel"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, strings.Join(args, " "), graph)
		},
	}

	cmd.Flags().BoolVar(&graph, "graph", false, "Print the bleve token stream with positions")

	return cmd
}

func runLookup(cmd *cobra.Command, text string, graph bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	factory, err := newFactory(cfg)
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if graph {
		return lookupGraph(cmd, out, cfg, factory, text)
	}

	a, err := bleveAnalyzer(cfg, cfg.Analysis.Analyzer)
	if err != nil {
		return err
	}
	f, err := factory.Create(cmd.Context(), settings(cfg))
	if err != nil {
		return err
	}
	if f.PassThrough() {
		out.Warningf("No synonyms in %s", cfg.Source.Index)
	}

	tokens := a.Tokens(text)
	for i, alts := range f.Apply(tokens) {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i, strings.Join(alts, " | "))
	}
	return nil
}

// lookupGraph registers factory as the bleve token filter and analyzes text
// with tokenizer, lowercase, then index_synonym_graph.
func lookupGraph(cmd *cobra.Command, out *output.Writer, cfg *config.Config, factory *filter.Factory, text string) error {
	filter.RegisterBleve(factory)

	tokenizer := cfg.Analysis.Tokenizer
	if tokenizer == "" {
		tokenizer = unicode.Name
	}
	filters := cfg.Analysis.TokenFilters
	if len(filters) == 0 {
		filters = []string{lowercase.Name}
	}

	cache := registry.NewCache()
	s := settings(cfg)
	if _, err := cache.DefineTokenFilter("indexsyn_lookup", map[string]interface{}{
		"type":     filter.Name,
		"index":    s.Index,
		"analyzer": s.Analyzer,
		"expand":   s.Expand,
		"lenient":  s.Lenient,
	}); err != nil {
		return err
	}
	a, err := cache.DefineAnalyzer("indexsyn_lookup", map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     tokenizer,
		"token_filters": append(append([]string{}, filters...), "indexsyn_lookup"),
	})
	if err != nil {
		return err
	}

	out.Header("pos\tterm\toffsets")
	for _, tok := range a.Analyze([]byte(text)) {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d:%d\n", tok.Position, tok.Term, tok.Start, tok.End)
	}
	return nil
}
