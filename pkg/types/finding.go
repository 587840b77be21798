package types

import "time"

// Impact grades how bad exploitation of a finding would be.
type Impact string

const (
	ImpactCritical Impact = "critical"
	ImpactHigh     Impact = "high"
	ImpactMedium   Impact = "medium"
	ImpactLow      Impact = "low"
)

// Effort grades how much work remediation takes.
type Effort string

const (
	EffortTrivial  Effort = "trivial"
	EffortModerate Effort = "moderate"
	EffortInvolved Effort = "involved"
)

// Metadata carries remediation hints attached to a finding.
type Metadata struct {
	Confidence float64 // 0..1
	Impact     Impact
	Effort     Effort
	Tags       []string
}

// Finding is a single non-whitelisted rule match. Findings are value
// objects: created fresh on every analysis pass and never mutated.
type Finding struct {
	RuleID      string
	Category    Category
	Severity    Severity
	Message     string
	Description string // longer rule description, may be empty
	Matched     string // raw matched text
	Location    Location
	QuickFix    *QuickFix
	Metadata    Metadata
}

// AnalysisResult is one document's finding list plus the fingerprint it
// was computed from. Owned by the analysis cache once stored.
type AnalysisResult struct {
	Findings    []Finding
	Fingerprint Fingerprint
	LanguageID  string
	CreatedAt   time.Time
	Partial     bool // true when a timeout cut the pass short
}
