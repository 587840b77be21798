package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/vueadmin/vibeguard/pkg/types"
	"gopkg.in/yaml.v3"
)

// Loader reads rule definitions from YAML files.
type Loader struct {
	fs fs.FS
}

// NewLoader creates a loader backed by the embedded builtin rules.
func NewLoader() *Loader {
	return &Loader{fs: builtinRulesFS}
}

// NewLoaderWithFS creates a loader over a custom filesystem, used by
// tests and by custom rule directories.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{fs: fsys}
}

// LoadRules parses all rules from YAML bytes. Every rule is self-checked
// on the way in: required fields, a compilable pattern, and positive
// examples that actually match. A rule that fails its own examples is a
// definition bug and rejects the whole file.
func (l *Loader) LoadRules(data []byte) ([]*types.Rule, error) {
	var file yamlRulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("no rules found in YAML")
	}

	rules := make([]*types.Rule, 0, len(file.Rules))
	for _, yr := range file.Rules {
		rule, err := convertYAMLRule(yr)
		if err != nil {
			return nil, err
		}
		if err := ValidateRule(rule); err != nil {
			return nil, fmt.Errorf("rule self-check failed: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// LoadRuleFile parses rules from a YAML file path.
func (l *Loader) LoadRuleFile(path string) ([]*types.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return l.LoadRules(data)
}

// LoadBuiltinRules loads all builtin rules from the embedded filesystem.
// Files are walked in sorted path order so registration order is stable
// across processes.
func (l *Loader) LoadBuiltinRules() ([]*types.Rule, error) {
	var paths []string
	err := fs.WalkDir(l.fs, "rules", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yml" {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var rules []*types.Rule
	for _, path := range paths {
		data, err := fs.ReadFile(l.fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		loaded, err := l.LoadRules(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		rules = append(rules, loaded...)
	}
	return rules, nil
}

// convertYAMLRule converts yamlRule to types.Rule and computes the
// structural id. Named quick-fix transforms are resolved here; an unknown
// name is a load error rather than a silent no-op fix.
func convertYAMLRule(yr yamlRule) (*types.Rule, error) {
	r := &types.Rule{
		ID:                yr.ID,
		Name:              yr.Name,
		Category:          types.Category(yr.Category),
		Severity:          types.Severity(yr.Severity),
		Pattern:           yr.Pattern,
		MessageTemplate:   yr.Message,
		Description:       yr.Description,
		WhitelistPatterns: yr.Whitelist,
		Languages:         yr.Languages,
		Keywords:          yr.Keywords,
		Confidence:        yr.Confidence,
		Impact:            types.Impact(yr.Impact),
		Effort:            types.Effort(yr.Effort),
		Examples:          yr.Examples,
		NegativeExamples:  yr.NegativeExamples,
		References:        yr.References,
		Enabled:           !yr.Disabled,
	}
	if len(r.Languages) == 0 {
		r.Languages = []string{types.LanguageWildcard}
	}
	if r.Confidence == 0 {
		r.Confidence = 0.8
	}

	if yr.QuickFix != nil {
		qf := &types.QuickFix{Title: yr.QuickFix.Title}
		switch {
		case yr.QuickFix.Transform != "":
			fn := lookupTransform(yr.QuickFix.Transform)
			if fn == nil {
				return nil, fmt.Errorf("rule %s: unknown quick-fix transform %q", yr.ID, yr.QuickFix.Transform)
			}
			qf.Kind = types.QuickFixTransform
			qf.Transform = fn
		default:
			qf.Kind = types.QuickFixLiteral
			qf.Literal = yr.QuickFix.Replacement
		}
		r.QuickFix = qf
	}

	r.StructuralID = r.ComputeStructuralID()
	return r, nil
}
