package policy

import (
	"embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

//go:embed policies/*.json
var policiesFS embed.FS

// Loader loads route policies from embedded JSON files
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// LoadRoutePolicies returns every route policy keyed by "METHOD:PATH".
func (l *Loader) LoadRoutePolicies() (map[string]*RoutePolicy, error) {
	policies := make(map[string]*RoutePolicy)

	entries, err := policiesFS.ReadDir("policies")
	if err != nil {
		return nil, fmt.Errorf("failed to read policies directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := policiesFS.ReadFile("policies/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read policy file %s: %w", entry.Name(), err)
		}

		var file routeFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse policy file %s: %w", entry.Name(), err)
		}

		for _, p := range file.Routes {
			p.Method = strings.ToUpper(p.Method)
			if p.RequiresPermission() && p.AdminOnly {
				return nil, fmt.Errorf("policy %s in %s sets both a permission and admin_only", p.Key(), entry.Name())
			}
			if _, dup := policies[p.Key()]; dup {
				return nil, fmt.Errorf("duplicate policy %s in %s", p.Key(), entry.Name())
			}
			policies[p.Key()] = p
		}
	}

	return policies, nil
}
