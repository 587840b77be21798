package engine

import (
	"regexp"
	"strings"

	"github.com/vueadmin/vibeguard/pkg/types"
)

// Suppression directives let users silence findings from inside the
// document, matching the edits the presenter synthesizes as quick fixes.
//
//	vibeguard-ignore-next-line   silences every rule on the next line
//	vibeguard-disable <rule-id>  silences one rule for the whole file
const (
	ignoreNextLineDirective = "vibeguard-ignore-next-line"
	disableRuleDirective    = "vibeguard-disable"
)

var disableRuleRe = regexp.MustCompile(`vibeguard-disable\s+([A-Za-z0-9._-]+)`)

// rulesDisabledByDirective scans the document once for file-wide disable
// directives and returns the named rule ids.
func rulesDisabledByDirective(text string) map[string]bool {
	if !strings.Contains(text, disableRuleDirective) {
		return nil
	}
	disabled := make(map[string]bool)
	for _, m := range disableRuleRe.FindAllStringSubmatch(text, -1) {
		disabled[m[1]] = true
	}
	return disabled
}

// suppressedByIgnoreDirective reports whether the line preceding the
// match carries an ignore-next-line directive.
func suppressedByIgnoreDirective(text string, start int) bool {
	lineStart := start - prefixLenOnLine(text, start)
	if lineStart == 0 {
		return false
	}
	prevLine := types.EnclosingLine(text, lineStart-1)
	return strings.Contains(prevLine, ignoreNextLineDirective)
}
