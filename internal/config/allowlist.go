package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Allowlist is the optional set of verbs the command channel may forward to
// the notes CLI. A nil Allowlist permits everything; deployments that want
// a gate list verbs in a YAML file.
type Allowlist struct {
	verbs map[string]struct{}
}

type allowlistFile struct {
	Verbs []string `yaml:"verbs"`
}

// LoadAllowlist reads the verbs file at path. An empty path returns nil,
// meaning no filtering.
func LoadAllowlist(path string) (*Allowlist, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read allowlist file %s: %w", path, err)
	}

	var file allowlistFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("cannot parse allowlist file %s: %w", path, err)
	}

	verbs := make(map[string]struct{}, len(file.Verbs))
	for _, v := range file.Verbs {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		verbs[v] = struct{}{}
	}

	if len(verbs) == 0 {
		return nil, fmt.Errorf("allowlist file %s lists no verbs", path)
	}

	return &Allowlist{verbs: verbs}, nil
}

// Permits reports whether a verb may be forwarded. The verb is matched on
// its first whitespace-separated word, so "grep foo" is gated on "grep".
func (a *Allowlist) Permits(verb string) bool {
	if a == nil {
		return true
	}
	first := verb
	if i := strings.IndexAny(verb, " \t"); i >= 0 {
		first = verb[:i]
	}
	_, ok := a.verbs[first]
	return ok
}
