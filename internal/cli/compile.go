package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cypherbridge/cypherbridge/internal/cypher"
	"github.com/cypherbridge/cypherbridge/internal/exec"
	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	MaxAmbiguous int
	Tolerance    float64
}

// CompileOutput is the compile command's success payload.
type CompileOutput struct {
	Query    string            `json:"query"`
	Params   map[string]any    `json:"params"`
	Bindings map[string]string `json:"bindings"`
	Branches int               `json:"branches"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query.yaml>",
		Short: "Compile a query document to Cypher",
		Long: `Compile a YAML query document to parameterized Cypher.

The document is validated against the embedded schema, built into an
operator tree, and translated. Patterns outside the pushable shapes
fail with the reason the translation was refused.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompileCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.MaxAmbiguous, "max-ambiguous", cypher.DefaultMaxAmbiguousVars,
		"partial-union limit on ambiguous variables")
	cmd.Flags().Float64Var(&opts.Tolerance, "spatial-tolerance", cypher.DefaultSpatialToleranceMeters,
		"spatial predicate tolerance in meters")

	return cmd
}

func runCompileCmd(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	op, err := LoadQueryDocument(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded query document %s", path)

	compiler := cypher.New()
	compiler.MaxAmbiguousVars = opts.MaxAmbiguous
	compiler.SpatialToleranceMeters = opts.Tolerance

	res, err := exec.Compile(compiler, op)
	if err != nil {
		if ce, ok := cypher.AsCompileError(err); ok {
			return fail(formatter, ExitFailure, ErrCodeCompile,
				fmt.Sprintf("%s: %s", ce.Kind, ce.Reason))
		}
		return fail(formatter, ExitCommandError, ErrCodeGeneric, err.Error())
	}

	out := &CompileOutput{
		Query:    res.Query,
		Params:   rdf.NativeParams(res.Params),
		Bindings: bindingSummary(res.Bindings),
		Branches: res.Branches,
	}
	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	fmt.Fprintln(formatter.Writer, out.Query)
	fmt.Fprintln(formatter.Writer)
	for _, name := range sortedKeys(out.Params) {
		fmt.Fprintf(formatter.Writer, "  $%s = %v\n", name, out.Params[name])
	}
	if opts.Verbose {
		fmt.Fprintf(formatter.Writer, "\n%d branch(es)\n", out.Branches)
		for _, v := range sortedKeys(out.Bindings) {
			fmt.Fprintf(formatter.Writer, "  ?%s <- %s\n", v, out.Bindings[v])
		}
	}
	return nil
}

func bindingSummary(bindings map[string]cypher.Binding) map[string]string {
	out := make(map[string]string, len(bindings))
	for v, b := range bindings {
		out[v] = fmt.Sprintf("%s (%s)", b.Column, b.Kind)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// outputLoadError maps loader errors onto exit codes: missing files are
// command errors, everything else is a document failure.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		code := ExitFailure
		if loadErr.Code == ErrCodeNotFound || loadErr.Code == ErrCodeReadFailed {
			code = ExitCommandError
		}
		return fail(formatter, code, loadErr.Code, loadErr.Message)
	}
	return fail(formatter, ExitCommandError, ErrCodeGeneric, err.Error())
}
