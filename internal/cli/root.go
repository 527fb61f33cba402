// Package cli implements the pgstmt command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syssam/pgstmt"
	"github.com/syssam/pgstmt/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Credentials string
	Role        string
	Format      string // "json" | "text"
	Timeout     time.Duration
	Verbose     bool

	log       *slog.Logger
	newClient func(*RootOptions) (*pgstmt.Client, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the pgstmt CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(openClient)
}

func newRootCommand(newClient func(*RootOptions) (*pgstmt.Client, error)) *cobra.Command {
	opts := &RootOptions{newClient: newClient}
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "pgstmt",
		Short: "Run typed statements against PostgreSQL",
		Long: `Run typed statements against PostgreSQL.

Flags can also be set with PGSTMT_* environment variables, for example
PGSTMT_CREDENTIALS and PGSTMT_ROLE. A .env file in the working directory
is loaded first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			opts.Credentials = v.GetString("credentials")
			opts.Role = v.GetString("role")
			opts.Format = v.GetString("format")
			opts.Timeout = v.GetDuration("timeout")
			opts.Verbose = v.GetBool("verbose")
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("credentials", "credentials.json", "path of the role-keyed credentials file")
	flags.String("role", "", "credentials role to connect as")
	flags.String("format", "text", "output format (json|text)")
	flags.Duration("timeout", 30*time.Second, "timeout of the whole command")
	flags.BoolP("verbose", "v", false, "log every statement")

	v.SetEnvPrefix("PGSTMT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	cmd.AddCommand(NewExistsCommand(opts))
	cmd.AddCommand(NewSelectCommand(opts))
	cmd.AddCommand(NewColumnsCommand(opts))

	return cmd
}

// client returns a client for the configured role and the context of one command.
func (o *RootOptions) client(ctx context.Context) (*pgstmt.Client, context.Context, context.CancelFunc, error) {
	c, err := o.newClient(o)
	if err != nil {
		return nil, nil, nil, err
	}
	if o.Timeout <= 0 {
		ctx, cancel := context.WithCancel(ctx)
		return c, ctx, cancel, nil
	}
	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	return c, ctx, cancel, nil
}

func openClient(o *RootOptions) (*pgstmt.Client, error) {
	if o.Role == "" {
		return nil, errors.New("no role given: set --role or PGSTMT_ROLE")
	}
	db, err := config.Load(o.Credentials, o.Role)
	if err != nil {
		return nil, err
	}
	o.log.Debug("connecting", "database", db.String())
	return pgstmt.Open(db, pgstmt.WithLogger(o.log))
}
