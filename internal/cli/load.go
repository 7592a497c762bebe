package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cypherbridge/cypherbridge/internal/memstore"
	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Store string
}

// tripleDoc is the YAML shape of a triples file: ground triples using
// the same term syntax as query documents, minus variables.
type tripleDoc struct {
	Prefixes map[string]string `yaml:"prefixes"`
	Triples  [][]string        `yaml:"triples"`
}

// LoadOutput is the load command's success payload.
type LoadOutput struct {
	Store   string `json:"store"`
	Triples int    `json:"triples"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <triples.yaml>",
		Short: "Load triples into the local store",
		Long: `Load ground triples from a YAML file into the local SQLite store.

The store backs the run command's fallback evaluator.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoadCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "cypherbridge.db", "local store path")

	return cmd
}

func runLoadCmd(opts *LoadOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fail(formatter, ExitCommandError, ErrCodeNotFound, fmt.Sprintf("triples file not found: %s", path))
		}
		return fail(formatter, ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("reading triples file: %v", err))
	}

	var doc tripleDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fail(formatter, ExitFailure, ErrCodeReadFailed, fmt.Sprintf("parsing YAML: %v", err))
	}
	if len(doc.Triples) == 0 {
		return fail(formatter, ExitFailure, ErrCodeReadFailed, "no triples in file")
	}

	prefixes := make(map[string]string, len(defaultPrefixes)+len(doc.Prefixes))
	for k, v := range defaultPrefixes {
		prefixes[k] = v
	}
	for k, v := range doc.Prefixes {
		prefixes[k] = v
	}

	store, err := memstore.Open(opts.Store)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeStore, err.Error())
	}
	defer store.Close()

	ctx := cmd.Context()
	for i, raw := range doc.Triples {
		if len(raw) != 3 {
			return fail(formatter, ExitFailure, ErrCodeBadTerm,
				fmt.Sprintf("triple %d has %d terms, want 3", i, len(raw)))
		}
		s, err := groundTerm(raw[0], prefixes)
		if err != nil {
			return fail(formatter, ExitFailure, ErrCodeBadTerm, err.Error())
		}
		p, err := groundTerm(raw[1], prefixes)
		if err != nil {
			return fail(formatter, ExitFailure, ErrCodeBadTerm, err.Error())
		}
		pred, ok := p.(rdf.IRI)
		if !ok {
			return fail(formatter, ExitFailure, ErrCodeBadTerm,
				fmt.Sprintf("triple %d: predicate must be an IRI, got %s", i, p))
		}
		o, err := groundTerm(raw[2], prefixes)
		if err != nil {
			return fail(formatter, ExitFailure, ErrCodeBadTerm, err.Error())
		}
		if err := store.Add(ctx, s, pred, o); err != nil {
			return fail(formatter, ExitCommandError, ErrCodeStore, err.Error())
		}
	}

	formatter.VerboseLog("Loaded %d triple(s) into %s", len(doc.Triples), opts.Store)
	if formatter.Format == "json" {
		return formatter.Success(&LoadOutput{Store: opts.Store, Triples: len(doc.Triples)})
	}
	fmt.Fprintf(formatter.Writer, "✓ Loaded %d triple(s) into %s\n", len(doc.Triples), opts.Store)
	return nil
}

// groundTerm parses a term and rejects pattern variables.
func groundTerm(s string, prefixes map[string]string) (rdf.Term, error) {
	term, err := parseTerm(s, prefixes)
	if err != nil {
		return nil, err
	}
	if _, ok := rdf.AsVar(term); ok {
		return nil, fmt.Errorf("variable %s is not allowed in a triples file", term)
	}
	return term, nil
}
