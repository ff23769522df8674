package harness

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

// builtinFS holds the scenarios shipped with the binary. They encode the
// registry's core guarantees: owner-only writes, write-then-read,
// insertion-ordered listing and single initialization.
//
//go:embed scenarios/*.yaml
var builtinFS embed.FS

// Builtin returns the shipped scenarios sorted by name.
func Builtin() ([]*Scenario, error) {
	paths, err := fs.Glob(builtinFS, "scenarios/*.yaml")
	if err != nil {
		return nil, err
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		data, err := builtinFS.ReadFile(p)
		if err != nil {
			return nil, err
		}
		s, err := ParseScenario(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		scenarios = append(scenarios, s)
	}

	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].Name < scenarios[j].Name })
	return scenarios, nil
}
