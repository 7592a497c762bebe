package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidateOutput is the validate command's success payload.
type ValidateOutput struct {
	Document string `json:"document"`
	Valid    bool   `json:"valid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <query.yaml>",
		Short: "Validate a query document against the schema",
		Long: `Validate a YAML query document without compiling it.

Checks the document against the embedded schema and parses every term
and filter expression. Exit code 1 means the document is invalid.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateCmd(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidateCmd(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := LoadQueryDocument(path); err != nil {
		return outputLoadError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(&ValidateOutput{Document: path, Valid: true})
	}
	fmt.Fprintf(formatter.Writer, "✓ %s is valid\n", path)
	return nil
}
