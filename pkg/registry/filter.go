package registry

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vueadmin/vibeguard/pkg/types"
)

// FilterConfig specifies include and exclude patterns for rule filtering.
type FilterConfig struct {
	Include []string // regex patterns - only matching rule ids included
	Exclude []string // regex patterns - matching rule ids excluded
}

// ParsePatterns splits a comma-separated string into trimmed patterns.
func ParsePatterns(patterns string) []string {
	if patterns == "" {
		return []string{}
	}

	parts := strings.Split(patterns, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Filter applies include and exclude patterns to rules. Include runs
// first; empty include means "include all". Returns an error for any
// invalid regex.
func Filter(rules []*types.Rule, config FilterConfig) ([]*types.Rule, error) {
	if len(rules) == 0 {
		return rules, nil
	}

	includeRegexes, err := compileAll(config.Include)
	if err != nil {
		return nil, err
	}
	excludeRegexes, err := compileAll(config.Exclude)
	if err != nil {
		return nil, err
	}

	filtered := rules
	if len(includeRegexes) > 0 {
		filtered = keepMatching(filtered, includeRegexes, true)
	}
	if len(excludeRegexes) > 0 {
		filtered = keepMatching(filtered, excludeRegexes, false)
	}
	return filtered, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	var regexes []*regexp.Regexp
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		regexes = append(regexes, re)
	}
	return regexes, nil
}

func keepMatching(rules []*types.Rule, regexes []*regexp.Regexp, wantMatch bool) []*types.Rule {
	result := make([]*types.Rule, 0, len(rules))
	for _, rule := range rules {
		if matchesAny(rule.ID, regexes) == wantMatch {
			result = append(result, rule)
		}
	}
	return result
}

func matchesAny(ruleID string, regexes []*regexp.Regexp) bool {
	for _, re := range regexes {
		if re.MatchString(ruleID) {
			return true
		}
	}
	return false
}
