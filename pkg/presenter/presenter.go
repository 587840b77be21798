// Package presenter converts raw findings into enriched, grouped,
// capped diagnostics ready for a diagnostic sink.
package presenter

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/vueadmin/vibeguard/pkg/types"
)

// DefaultMaxPerFile is the per-document diagnostic cap.
const DefaultMaxPerFile = 50

// categoryTips maps each category to remediation guidance appended to
// the finding message.
var categoryTips = map[types.Category]string{
	types.CategoryCredentialExposure: "Move secrets to environment variables or a secret manager.",
	types.CategoryDestructiveSQL:     "Scope the statement with a WHERE clause or run it as a reviewed migration.",
	types.CategoryCodeInjection:      "Never feed untrusted input to code evaluation; use a safe parsing API.",
	types.CategoryFrameworkRisk:      "Escape or sanitize user-controlled markup before rendering.",
	types.CategoryConfigError:        "Review this setting before it reaches production.",
}

// Options configures presentation.
type Options struct {
	MaxPerFile      int
	GroupingEnabled bool
	Logger          zerolog.Logger
}

// DefaultOptions returns the default presenter options.
func DefaultOptions() Options {
	return Options{
		MaxPerFile:      DefaultMaxPerFile,
		GroupingEnabled: true,
		Logger:          zerolog.Nop(),
	}
}

// Presenter enriches findings into diagnostics.
type Presenter struct {
	opts   Options
	logger zerolog.Logger
}

// New creates a presenter.
func New(opts Options) *Presenter {
	if opts.MaxPerFile <= 0 {
		opts.MaxPerFile = DefaultMaxPerFile
	}
	return &Presenter{
		opts:   opts,
		logger: opts.Logger.With().Str("component", "presenter").Logger(),
	}
}

// Present transforms findings, in order: hard cap, message enhancement,
// related information, tags, then optional grouping by rule id. The cap
// is applied first, so grouping operates on the truncated set.
func (p *Presenter) Present(findings []types.Finding) []types.Diagnostic {
	if len(findings) > p.opts.MaxPerFile {
		p.logger.Debug().Int("total", len(findings)).Int("cap", p.opts.MaxPerFile).
			Msg("truncating findings to per-file cap")
		findings = findings[:p.opts.MaxPerFile]
	}

	diagnostics := make([]types.Diagnostic, 0, len(findings))
	for _, f := range findings {
		diagnostics = append(diagnostics, p.enrich(f))
	}

	if p.opts.GroupingEnabled {
		diagnostics = groupByRule(diagnostics)
	}
	return diagnostics
}

// enrich builds one diagnostic from one finding.
func (p *Presenter) enrich(f types.Finding) types.Diagnostic {
	message := f.Message
	if tip, ok := categoryTips[f.Category]; ok {
		message += " " + tip
	}
	if f.Metadata.Effort != "" {
		message += fmt.Sprintf(" (remediation: %s)", f.Metadata.Effort)
	}

	var related []types.RelatedInformation
	if f.Description != "" && f.Description != f.Message {
		related = append(related, types.RelatedInformation{
			Message:  f.Description,
			Location: f.Location,
		})
	}
	if f.QuickFix != nil {
		related = append(related, types.RelatedInformation{
			Message:  "Quick fix available: " + f.QuickFix.Title,
			Location: f.Location,
		})
	}

	tags := []types.Tag{}
	if f.Category == types.CategoryCredentialExposure && f.Severity == types.SeverityError {
		// Hint that the offending code should be deleted outright
		// rather than edited.
		tags = append(tags, types.TagUnnecessary)
	}

	return types.Diagnostic{
		RuleID:     f.RuleID,
		Category:   f.Category,
		Severity:   f.Severity,
		Message:    message,
		Location:   f.Location,
		QuickFix:   f.QuickFix,
		Related:    related,
		Tags:       tags,
		GroupCount: 1,
	}
}

// groupByRule buckets diagnostics by rule id. Singleton buckets pass
// through unchanged; larger buckets collapse into the first member with
// a count annotation.
func groupByRule(diagnostics []types.Diagnostic) []types.Diagnostic {
	buckets := make(map[string][]types.Diagnostic)
	var order []string
	for _, d := range diagnostics {
		if _, seen := buckets[d.RuleID]; !seen {
			order = append(order, d.RuleID)
		}
		buckets[d.RuleID] = append(buckets[d.RuleID], d)
	}

	result := make([]types.Diagnostic, 0, len(order))
	for _, ruleID := range order {
		bucket := buckets[ruleID]
		if len(bucket) == 1 {
			result = append(result, bucket[0])
			continue
		}

		collapsed := bucket[0]
		collapsed.GroupCount = len(bucket)
		collapsed.Message += fmt.Sprintf(" (%d identical findings in this file)", len(bucket))
		result = append(result, collapsed)
	}
	return result
}
