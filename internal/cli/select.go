package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/pgstmt/dialect/sql"
)

// SelectOptions holds flags for the select command.
type SelectOptions struct {
	*RootOptions
	Fields []string
	Wheres []string
	Join   string
	All    bool
}

// NewSelectCommand creates the select subcommand.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SelectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "select <table>",
		Short: "Fetch rows from a table",
		Long: `Fetch the first matching row of a table, or every row with --all.

Each --where takes column=value and compares with equality.`,
		Example: `  pgstmt select users --fields id,email --where id=42
  pgstmt select users --where status=active --all --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Fields, "fields", "f", nil, "columns to return (default all)")
	cmd.Flags().StringArrayVarP(&opts.Wheres, "where", "w", nil, "column=value condition (repeatable)")
	cmd.Flags().StringVar(&opts.Join, "join", "", "how conditions combine (and|or)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "return every matching row")

	return cmd
}

func runSelect(cmd *cobra.Command, opts *SelectOptions, table string) error {
	stmt := sql.Select{Table: table, Fields: sql.Star, Join: sql.Join(opts.Join)}
	if len(opts.Fields) > 0 {
		stmt.Fields = sql.Columns(opts.Fields...)
	}
	for _, w := range opts.Wheres {
		where, err := parseWhere(w)
		if err != nil {
			return err
		}
		stmt.Wheres = append(stmt.Wheres, where)
	}
	client, ctx, cancel, err := opts.client(cmd.Context())
	if err != nil {
		return err
	}
	defer cancel()
	if opts.All {
		set, err := client.FetchAll(ctx, stmt)
		if err != nil {
			return err
		}
		return writeRowSet(cmd.OutOrStdout(), opts.Format, set)
	}
	rec, err := client.FetchOne(ctx, stmt)
	if err != nil {
		return err
	}
	return writeRecord(cmd.OutOrStdout(), opts.Format, rec)
}

// parseWhere parses "column=value" into an equality condition.
func parseWhere(s string) (sql.Where, error) {
	column, value, ok := strings.Cut(s, "=")
	if !ok || column == "" {
		return sql.Where{}, fmt.Errorf("invalid condition %q: want column=value", s)
	}
	return sql.EQ(column, value), nil
}
