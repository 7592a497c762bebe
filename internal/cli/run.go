package cli

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cypherbridge/cypherbridge/internal/exec"
	"github.com/cypherbridge/cypherbridge/internal/memstore"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config string
	Store  string
}

// RunOutput is the run command's success payload.
type RunOutput struct {
	Rows []map[string]string `json:"rows"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <query.yaml>",
		Short: "Run a query document",
		Long: `Run a YAML query document.

With --config the query is pushed down to the graph engine; patterns
that cannot be compiled are evaluated against the local store given by
--store. Without --config everything runs against the local store.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "graph engine config file (yaml)")
	cmd.Flags().StringVar(&opts.Store, "store", "cypherbridge.db", "local store path")

	return cmd
}

func runRunCmd(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := cmd.Context()

	op, err := LoadQueryDocument(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	var runner exec.Runner
	if opts.Config != "" {
		cfg, err := exec.LoadConfig(opts.Config)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeConnect, err.Error())
		}
		neo, err := exec.NewNeo4jRunner(cfg)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeConnect, err.Error())
		}
		defer neo.Close(ctx)
		if err := neo.Verify(ctx); err != nil {
			return fail(formatter, ExitCommandError, ErrCodeConnect,
				fmt.Sprintf("verifying connectivity: %v", err))
		}
		runner = neo
	}

	store, err := memstore.Open(opts.Store)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeStore, err.Error())
	}
	defer store.Close()

	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(formatter.ErrWriter,
		&slog.HandlerOptions{Level: logLevel}))

	adapter := exec.New(runner, store, exec.WithLogger(logger))
	solutions, err := adapter.Evaluate(ctx, op)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeExecute, err.Error())
	}

	out := &RunOutput{Rows: make([]map[string]string, 0, len(solutions))}
	for _, sol := range solutions {
		row := make(map[string]string, len(sol))
		for name, term := range sol {
			row[name] = term.String()
		}
		out.Rows = append(out.Rows, row)
	}
	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	fmt.Fprintf(formatter.Writer, "%d row(s)\n", len(out.Rows))
	for _, row := range out.Rows {
		vars := make([]string, 0, len(row))
		for v := range row {
			vars = append(vars, v)
		}
		sort.Strings(vars)
		for _, v := range vars {
			fmt.Fprintf(formatter.Writer, "  ?%s = %s", v, row[v])
		}
		fmt.Fprintln(formatter.Writer)
	}
	return nil
}
