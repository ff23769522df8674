package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/record"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export every prophecy with the state digest",
		Long: `Write the owner, every entry in insertion order and the state digest.
Two oracles holding the same entries in the same order export the same
digest.

Examples:
  oracle export > snapshot.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, e, err := snapshot(rootOpts, cmd)
			if err != nil {
				return err
			}
			if e.out.Format == "json" {
				return e.out.Success(snap)
			}
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return e.out.Fail("failed to encode snapshot", err)
			}
			fmt.Fprintln(e.out.Writer, string(data))
			return nil
		},
	}
}

// NewDigestCommand creates the digest command.
func NewDigestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Print the state digest",
		Long: `Print the SHA-256 digest over the ordered entries, as included in
export. Useful for comparing replicas without transferring records.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, e, err := snapshot(rootOpts, cmd)
			if err != nil {
				return err
			}
			return e.out.Success(digestView{Digest: snap.Digest, Records: len(snap.Entries)})
		},
	}
}

// snapshot opens the oracle, exports it and closes the env. The returned
// env is closed and only its formatter may be used.
func snapshot(opts *RootOptions, cmd *cobra.Command) (record.Snapshot, *env, error) {
	ctx := cmd.Context()
	e, err := openEnv(ctx, opts, cmd)
	if err != nil {
		return record.Snapshot{}, nil, err
	}
	defer e.Close(ctx)

	svc, err := e.openService(ctx)
	if err != nil {
		return record.Snapshot{}, nil, err
	}
	snap, err := svc.Snapshot(ctx)
	if err != nil {
		return record.Snapshot{}, nil, e.out.Fail("failed to export", err)
	}
	if snap.Entries == nil {
		snap.Entries = []record.Entry{}
	}
	return snap, e, nil
}

type digestView struct {
	Digest  string `json:"digest"`
	Records int    `json:"records"`
}

func (v digestView) String() string {
	return v.Digest
}
