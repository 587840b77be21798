package types

// Tag is a presentation hint attached to a diagnostic.
type Tag string

const (
	// TagUnnecessary marks code the user should delete outright rather
	// than edit, e.g. a hardcoded credential.
	TagUnnecessary Tag = "unnecessary"
)

// RelatedInformation is a secondary note attached to a diagnostic.
type RelatedInformation struct {
	Message  string
	Location Location
}

// Diagnostic is a Finding after message enhancement, grouping, and
// capping: the unit handed to the external diagnostic sink.
type Diagnostic struct {
	RuleID   string
	Category Category
	Severity Severity
	Message  string
	Location Location
	QuickFix *QuickFix
	Related  []RelatedInformation
	Tags     []Tag

	// GroupCount is > 1 when this diagnostic stands in for several
	// identical findings collapsed by rule id.
	GroupCount int
}
