package registry

import (
	"fmt"

	"github.com/dlclark/regexp2"
	"github.com/vueadmin/vibeguard/pkg/types"
)

// knownCategories and knownSeverities bound the closed enums a rule file
// may use.
var knownCategories = map[types.Category]bool{
	types.CategoryCredentialExposure: true,
	types.CategoryDestructiveSQL:     true,
	types.CategoryCodeInjection:      true,
	types.CategoryFrameworkRisk:      true,
	types.CategoryConfigError:        true,
}

var knownSeverities = map[types.Severity]bool{
	types.SeverityError:   true,
	types.SeverityWarning: true,
	types.SeverityInfo:    true,
}

// ValidateRule checks rule consistency and required fields, compiles the
// pattern, and self-tests it against the rule's positive examples.
// Negative examples are not checked here: several of them rely on
// whitelist suppression, which belongs to the engine.
func ValidateRule(r *types.Rule) error {
	if r == nil {
		return fmt.Errorf("rule is nil")
	}
	if r.ID == "" {
		return fmt.Errorf("rule ID is required")
	}
	if r.Name == "" {
		return fmt.Errorf("rule %s: name is required", r.ID)
	}
	if r.Pattern == "" {
		return fmt.Errorf("rule %s: pattern is required", r.ID)
	}
	if !knownCategories[r.Category] {
		return fmt.Errorf("rule %s: unknown category %q", r.ID, r.Category)
	}
	if !knownSeverities[r.Severity] {
		return fmt.Errorf("rule %s: unknown severity %q", r.ID, r.Severity)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("rule %s: confidence %v outside [0,1]", r.ID, r.Confidence)
	}
	if r.MessageTemplate == "" {
		return fmt.Errorf("rule %s: message is required", r.ID)
	}

	re, err := compilePattern(r.Pattern)
	if err != nil {
		return fmt.Errorf("rule %s: invalid pattern: %w", r.ID, err)
	}

	for _, wl := range r.WhitelistPatterns {
		if _, err := compilePattern(wl); err != nil {
			return fmt.Errorf("rule %s: invalid whitelist pattern %q: %w", r.ID, wl, err)
		}
	}

	for _, example := range r.Examples {
		ok, err := re.MatchString(example)
		if err != nil {
			return fmt.Errorf("rule %s: example match failed: %w", r.ID, err)
		}
		if !ok {
			return fmt.Errorf("rule %s: pattern does not match example %q", r.ID, example)
		}
	}

	if expected := r.ComputeStructuralID(); r.StructuralID != "" && r.StructuralID != expected {
		return fmt.Errorf("rule %s: inconsistent StructuralID: got %s, expected %s",
			r.ID, r.StructuralID, expected)
	}

	return nil
}

// compilePattern compiles with RE2 semantics first (no backtracking,
// safer), falling back to Perl-compatible mode for patterns that need
// lookaround. Mirrors the engine's compilation strategy.
func compilePattern(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.RE2|regexp2.Multiline)
	if err != nil {
		re, err = regexp2.Compile(pattern, regexp2.Multiline)
		if err != nil {
			return nil, err
		}
	}
	return re, nil
}
