package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/pgstmt/dialect/sql"
)

// ExistsOptions holds flags for the exists command.
type ExistsOptions struct {
	*RootOptions
	Matches []string
	Join    string
}

// NewExistsCommand creates the exists subcommand.
func NewExistsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExistsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exists <table>",
		Short: "Report whether a table holds a matching row",
		Long: `Report whether a table holds a row matching every --match group.

Each --match takes column=value[,value...]; values of one group are OR-ed.
With more than one group, --join tells how the groups combine.`,
		Example: `  pgstmt exists users --match id=1,2,3
  pgstmt exists users --match org_id=9 --match status=active --join and`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExists(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Matches, "match", "m", nil, "column=value[,value...] group (repeatable)")
	cmd.Flags().StringVar(&opts.Join, "join", "", "how match groups combine (and|or)")
	_ = cmd.MarkFlagRequired("match")

	return cmd
}

func runExists(cmd *cobra.Command, opts *ExistsOptions, table string) error {
	matches := make([]sql.Match, 0, len(opts.Matches))
	for _, m := range opts.Matches {
		match, err := parseMatch(m)
		if err != nil {
			return err
		}
		matches = append(matches, match)
	}
	client, ctx, cancel, err := opts.client(cmd.Context())
	if err != nil {
		return err
	}
	defer cancel()
	ok, err := client.IsExists(ctx, table, sql.Join(opts.Join), matches...)
	if err != nil {
		return err
	}
	return writeValue(cmd.OutOrStdout(), opts.Format, map[string]bool{"exists": ok}, fmt.Sprint(ok))
}

// parseMatch parses "column=v1,v2" into a match group.
func parseMatch(s string) (sql.Match, error) {
	column, list, ok := strings.Cut(s, "=")
	if !ok || column == "" || list == "" {
		return sql.Match{}, fmt.Errorf("invalid match %q: want column=value[,value...]", s)
	}
	parts := strings.Split(list, ",")
	values := make([]any, len(parts))
	for i, p := range parts {
		values[i] = p
	}
	return sql.MatchAny(column, values...), nil
}
