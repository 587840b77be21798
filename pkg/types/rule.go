package types

import (
	"crypto/sha1"
	"encoding/hex"
)

// Category classifies what kind of dangerous construct a rule detects.
type Category string

const (
	CategoryCredentialExposure Category = "credential-exposure"
	CategoryDestructiveSQL     Category = "destructive-sql"
	CategoryCodeInjection      Category = "code-injection"
	CategoryFrameworkRisk      Category = "framework-risk"
	CategoryConfigError        Category = "config-error"
)

// Severity is the user-facing weight of a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// LanguageWildcard in a rule's language set makes it apply to every language.
const LanguageWildcard = "*"

// QuickFixKind discriminates the quick-fix payload variant.
type QuickFixKind int

const (
	// QuickFixLiteral replaces the matched range with a fixed string.
	QuickFixLiteral QuickFixKind = iota

	// QuickFixTransform derives the replacement from the matched text.
	QuickFixTransform
)

// QuickFix is a tagged variant: either a literal replacement or a pure
// transform from matched text to replacement text.
type QuickFix struct {
	Kind      QuickFixKind
	Title     string
	Literal   string
	Transform func(matched string) string
}

// Apply evaluates the variant against the matched text.
func (q *QuickFix) Apply(matched string) string {
	if q.Kind == QuickFixTransform && q.Transform != nil {
		return q.Transform(matched)
	}
	return q.Literal
}

// Rule is an immutable detection rule. Instances are owned by the
// registry; the engine only borrows them for execution. Only Enabled
// may change after registration, and only through the registry.
type Rule struct {
	ID                string // e.g., "vg.credential.openai"
	Name              string // human-readable name
	Category          Category
	Severity          Severity
	Pattern           string // regex pattern, compiled with multiline semantics
	StructuralID      string // SHA-1 of pattern (computed)
	MessageTemplate   string // "%s" interpolates the raw matched text
	Description       string // optional longer description
	QuickFix          *QuickFix
	WhitelistPatterns []string // context regexes that suppress matches on the enclosing line
	Languages         []string // applicable language ids, or LanguageWildcard
	Keywords          []string // literals for Aho-Corasick prefiltering
	Confidence        float64  // 0..1, detection confidence carried into findings
	Impact            Impact
	Effort            Effort
	Examples          []string // positive self-test cases
	NegativeExamples  []string // negative self-test cases
	References        []string // documentation URLs
	Enabled           bool
}

// ComputeStructuralID computes the SHA-1 of the pattern, used as a stable
// identity for the compiled form independent of rule metadata.
func (r *Rule) ComputeStructuralID() string {
	h := sha1.New()
	h.Write([]byte(r.Pattern))
	return hex.EncodeToString(h.Sum(nil))
}

// AppliesTo reports whether the rule should run for the given language.
func (r *Rule) AppliesTo(languageID string) bool {
	for _, lang := range r.Languages {
		if lang == LanguageWildcard || lang == languageID {
			return true
		}
	}
	return false
}
