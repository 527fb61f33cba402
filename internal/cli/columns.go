package cli

import (
	"github.com/spf13/cobra"

	"github.com/syssam/pgstmt/dialect/sql"
)

// ColumnsOptions holds flags for the columns command.
type ColumnsOptions struct {
	*RootOptions
	Schema string
}

// NewColumnsCommand creates the columns subcommand.
func NewColumnsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ColumnsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "columns <table>",
		Short:         "List the columns of a table",
		Example:       "  pgstmt columns users --schema public",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runColumns(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "schema of the table (default any)")

	return cmd
}

func runColumns(cmd *cobra.Command, opts *ColumnsOptions, table string) error {
	stmt := sql.Select{
		Table:  "information_schema.columns",
		Fields: sql.Columns("column_name", "data_type", "is_nullable"),
		Wheres: []sql.Where{sql.EQ("table_name", table)},
	}
	if opts.Schema != "" {
		stmt.Wheres = append(stmt.Wheres, sql.EQ("table_schema", opts.Schema))
	}
	client, ctx, cancel, err := opts.client(cmd.Context())
	if err != nil {
		return err
	}
	defer cancel()
	set, err := client.FetchAll(ctx, stmt)
	if err != nil {
		return err
	}
	return writeRowSet(cmd.OutOrStdout(), opts.Format, set)
}
