package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/config"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/harness"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Builtin bool
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Digest string   `json:"digest"`
	Errors []string `json:"errors,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [scenario.yaml ...]",
		Short: "Run scenarios against a scratch oracle",
		Long: `Replay scripted scenarios against a fresh in-memory oracle with a
deterministic clock and check every step's expectations and the final
assertions. The database is never touched.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (unreadable or invalid scenario file)

Examples:
  oracle replay --builtin
  oracle replay ./scenarios/owner.yaml --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Builtin, "builtin", false, "run the scenarios shipped with the binary")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command, paths []string) error {
	out := newFormatter(opts.RootOptions, cmd)

	var scenarios []*harness.Scenario
	if opts.Builtin {
		builtin, err := harness.Builtin()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load builtin scenarios", err)
		}
		scenarios = append(scenarios, builtin...)
	}
	for _, p := range paths {
		s, err := harness.LoadScenario(p)
		if err != nil {
			_ = out.Error(ErrCodeScenario, fmt.Sprintf("%s: %v", p, err), nil)
			e := WrapExitError(ExitCommandError, "invalid scenario "+p, err)
			e.Reported = true
			return e
		}
		scenarios = append(scenarios, s)
	}
	if len(scenarios) == 0 {
		return NewExitError(ExitCommandError, "no scenarios: pass scenario files or --builtin")
	}

	var hopts []harness.Option
	if opts.Verbose {
		hopts = append(hopts, harness.WithLogger(newLogger(config.LogConfig{}, true, out.GetErrWriter())))
	}

	result := ReplayResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarios)),
		Total:     len(scenarios),
	}
	for _, s := range scenarios {
		out.VerboseLog("replaying %s", s.Name)
		r, err := harness.Run(cmd.Context(), s, hopts...)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to run scenario "+s.Name, err)
		}
		result.Scenarios = append(result.Scenarios, ScenarioResult{
			Name:   s.Name,
			Pass:   r.Pass,
			Digest: r.Digest,
			Errors: r.Errors,
		})
		if r.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		if err := json.NewEncoder(cmd.OutOrStdout()).Encode(result); err != nil {
			return err
		}
	} else {
		outputReplayText(cmd, result)
	}

	if result.Failed > 0 {
		e := NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.Total))
		e.Reported = true
		return e
	}
	return nil
}

func outputReplayText(cmd *cobra.Command, result ReplayResult) {
	w := cmd.OutOrStdout()
	for _, s := range result.Scenarios {
		status := "PASS"
		if !s.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s  %s  %s\n", status, s.Name, s.Digest)
		for _, msg := range s.Errors {
			fmt.Fprintf(w, "      %s\n", msg)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
