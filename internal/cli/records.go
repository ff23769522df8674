package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/config"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/oracle"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/record"
)

// DefaultListLimit is the list command's --limit default.
const DefaultListLimit = 10

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init <owner>",
		Short: "Record the oracle owner",
		Long: `Record the single identity allowed to store prophecies.

Init succeeds once per database. A second init fails with
E_ALREADY_INITIALIZED and leaves the original owner in place.

Exit codes:
  0 - Owner recorded
  1 - Oracle already initialized
  2 - Command error (bad config, empty owner, etc.)

Examples:
  oracle init oracle.near --db ./oracle.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			svc, err := oracle.Initialize(ctx, e.backend, args[0], e.serviceOptions()...)
			if err != nil {
				return e.out.Fail("failed to initialize oracle", err)
			}
			return e.out.Success(ownerView{Owner: svc.Owner()})
		},
	}
}

// StoreOptions holds flags for the store command.
type StoreOptions struct {
	*RootOptions
	Caller string
}

// NewStoreCommand creates the store command.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "store <id> <text>",
		Short: "Store a prophecy under an identifier",
		Long: `Store text under id as the given caller.

Only the owner may store. Storing an existing id replaces its record but
keeps its position in the listing. The caller defaults to the config
"caller" field or ORACLE_CALLER.

The caller is not verified. Anyone who can write the database file can
claim any identity, including the owner, so access to the file is the
trust boundary. Use "oracle serve", which authenticates the caller from a
signed bearer token, when writers should not share file access.

Exit codes:
  0 - Stored
  1 - Caller is not the owner
  2 - Command error (not initialized, no caller, etc.)

Examples:
  oracle store test_prophecy "The future of Web3 is bright!" --caller oracle.near`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStore(opts, cmd, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Caller, "caller", "", "identity performing the write (not verified)")

	return cmd
}

func runStore(opts *StoreOptions, cmd *cobra.Command, id, text string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close(ctx)

	caller := opts.Caller
	if caller == "" {
		caller = e.cfg.Caller
	}
	if caller == "" {
		return e.out.Fail("no caller", &config.Error{
			Field:   "caller",
			Message: "set --caller, the config caller field or " + config.EnvCaller,
		})
	}

	svc, err := e.openService(ctx)
	if err != nil {
		return err
	}

	e.out.VerboseLog("storing %q as %s", id, caller)
	if err := svc.Store(ctx, svc.Call(caller), id, text); err != nil {
		return e.out.Fail("failed to store prophecy", err)
	}
	return e.out.Success(storedView{ID: id, Caller: caller})
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Read the prophecy stored under an identifier",
		Long: `Read the record stored under id. A missing id is not an error.

Examples:
  oracle get test_prophecy
  oracle get test_prophecy --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			svc, err := e.openService(ctx)
			if err != nil {
				return err
			}

			rec, found, err := svc.Get(ctx, args[0])
			if err != nil {
				return e.out.Fail("failed to read prophecy", err)
			}
			v := recordView{ID: args[0], Found: found}
			if found {
				v.Record = &rec
			}
			return e.out.Success(v)
		},
	}
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Limit uint64
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List prophecies in insertion order",
		Long: `List up to --limit records in the order their identifiers were first
stored. Overwrites do not move a record.

Examples:
  oracle list
  oracle list --limit 100 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, opts.RootOptions, cmd)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			svc, err := e.openService(ctx)
			if err != nil {
				return err
			}

			entries, err := svc.List(ctx, opts.Limit)
			if err != nil {
				return e.out.Fail("failed to list prophecies", err)
			}
			if entries == nil {
				entries = []record.Entry{}
			}
			return e.out.Success(listView(entries))
		},
	}

	cmd.Flags().Uint64VarP(&opts.Limit, "limit", "n", DefaultListLimit, "maximum number of records")

	return cmd
}

type ownerView struct {
	Owner string `json:"owner"`
}

func (v ownerView) String() string {
	return fmt.Sprintf("Oracle initialized (owner=%s)", v.Owner)
}

type storedView struct {
	ID     string `json:"id"`
	Caller string `json:"caller"`
}

func (v storedView) String() string {
	return fmt.Sprintf("Stored %q", v.ID)
}

type recordView struct {
	ID     string         `json:"id"`
	Found  bool           `json:"found"`
	Record *record.Record `json:"record"`
}

func (v recordView) String() string {
	if !v.Found {
		return fmt.Sprintf("%s: not found", v.ID)
	}
	return fmt.Sprintf("%s\n  text:      %s\n  creator:   %s\n  timestamp: %d",
		v.ID, v.Record.Text, v.Record.Creator, v.Record.Timestamp)
}

type listView []record.Entry

func (v listView) String() string {
	if len(v) == 0 {
		return "No prophecies."
	}
	var b strings.Builder
	for i, e := range v {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s\t%s\t%d\t%s", e.ID, e.Record.Creator, e.Record.Timestamp, e.Record.Text)
	}
	return b.String()
}
