package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexsyn/internal/config"
	synerrors "github.com/Aman-CERP/indexsyn/internal/errors"
	"github.com/Aman-CERP/indexsyn/internal/lock"
	"github.com/Aman-CERP/indexsyn/internal/output"
	"github.com/Aman-CERP/indexsyn/internal/source"
)

// rulesField is the field --rule values are stored under.
const rulesField = "synonyms"

func newIndexCmd() *cobra.Command {
	var (
		ruleArgs []string
		newIDs   bool
		wait     bool
	)

	cmd := &cobra.Command{
		Use:   "index [file...]",
		Short: "Store synonym documents in a local source",
		Long: `Write synonym documents into the local bleve, sqlite or files
source. Each file holds one document or a list of documents in JSON or
YAML; every string field is a block of rules.

Documents without an "_id" take the file name as id. Rules given with
--rule are stored as one new document with a generated id.

Writers take an exclusive lock on the source; a second writer fails
unless --wait is given.`,
		Example: `  indexsyn index --backend sqlite synonyms.json
  indexsyn index --backend bleve --rule "usa, united states" --rule "ny => new york"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(ruleArgs) == 0 {
				return errors.New("nothing to index: pass files or --rule")
			}
			return runIndex(cmd, args, ruleArgs, newIDs, wait)
		},
	}

	cmd.Flags().StringArrayVar(&ruleArgs, "rule", nil, "Rule text to store (repeatable)")
	cmd.Flags().BoolVar(&newIDs, "new-ids", false, "Assign generated ids instead of file-derived ones")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the source lock instead of failing")

	return cmd
}

func runIndex(cmd *cobra.Command, files, ruleArgs []string, newIDs, wait bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	docs, err := readDocuments(files, newIDs)
	if err != nil {
		return err
	}
	if len(ruleArgs) > 0 {
		rulesValue := make([]any, len(ruleArgs))
		for i, r := range ruleArgs {
			rulesValue[i] = r
		}
		docs = append(docs, source.NewDocument("", source.Field{Name: rulesField, Value: rulesValue}))
	}

	l, err := sourceLock(cfg)
	if err != nil {
		return err
	}
	if wait {
		err = l.Lock()
	} else {
		err = l.TryLock()
	}
	if err != nil {
		return synerrors.New(synerrors.ErrCodeLocked, "synonym source is busy", err).
			WithDetail("lock", l.Path()).
			WithSuggestion("retry with --wait")
	}
	defer func() { _ = l.Unlock() }()

	w, closer, err := source.OpenWriter(sourceConfig(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	if err := w.IndexDocuments(cmd.Context(), cfg.Source.Index, docs); err != nil {
		return fmt.Errorf("store synonym documents in %s: %w", cfg.Source.Index, err)
	}

	slog.Info("synonym_documents_indexed",
		slog.String("backend", cfg.Source.Backend),
		slog.String("index", cfg.Source.Index),
		slog.Int("documents", len(docs)))

	out := output.New(cmd.OutOrStdout())
	out.Successf("Indexed %d document(s) into %s", len(docs), cfg.Source.Index)
	for _, d := range docs {
		out.Status("", d.ID)
	}
	return nil
}

// readDocuments parses every file. Ids default to the file name without
// extension.
func readDocuments(files []string, newIDs bool) ([]source.Document, error) {
	var docs []source.Document
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, synerrors.New(synerrors.ErrCodeFileNotFound, fmt.Sprintf("cannot read %s", path), err)
		}
		base := filepath.Base(path)
		parsed, err := source.ParseDocuments(strings.TrimSuffix(base, filepath.Ext(base)), data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if newIDs {
			for i := range parsed {
				parsed[i].ID = source.NewID()
			}
		}
		docs = append(docs, parsed...)
	}
	return docs, nil
}

// sourceLock returns the write lock for a local source.
func sourceLock(cfg *config.Config) (*lock.FileLock, error) {
	switch cfg.Source.Backend {
	case source.BackendSQLite:
		return lock.ForFile(cfg.Source.Path), nil
	case source.BackendBleve, source.BackendFiles:
		if cfg.Source.Path == "" {
			return nil, fmt.Errorf("source.path is required to index into %s", cfg.Source.Backend)
		}
		return lock.ForDir(cfg.Source.Path), nil
	default:
		return nil, fmt.Errorf("backend %s is read-only", cfg.Source.Backend)
	}
}
