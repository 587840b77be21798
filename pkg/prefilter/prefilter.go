// Package prefilter narrows the rule set before regex execution using
// Aho-Corasick keyword matching. A rule whose keywords are all absent
// from the document cannot match, so its pattern never runs.
package prefilter

import (
	"bytes"

	"github.com/cloudflare/ahocorasick"
	"github.com/vueadmin/vibeguard/pkg/types"
)

// Prefilter scans content once for every known keyword.
// Keywords are matched case-insensitively: both keywords and content are
// lowercased, since most rule patterns carry (?i).
type Prefilter struct {
	matcher        *ahocorasick.Matcher
	keywords       [][]byte
	keywordRules   map[string][]*types.Rule // keyword -> rules needing it
	noKeywordRules []*types.Rule            // rules without keywords (always checked)
	known          map[*types.Rule]bool     // rules indexed at construction
}

// New builds a prefilter from rules. Rules registered after construction
// are not indexed; Eligible passes them through unfiltered rather than
// dropping them.
func New(rules []*types.Rule) *Prefilter {
	pf := &Prefilter{
		keywordRules:   make(map[string][]*types.Rule),
		noKeywordRules: make([]*types.Rule, 0),
		known:          make(map[*types.Rule]bool, len(rules)),
	}

	seen := make(map[string]bool)
	for _, rule := range rules {
		pf.known[rule] = true
		if len(rule.Keywords) == 0 {
			pf.noKeywordRules = append(pf.noKeywordRules, rule)
			continue
		}
		for _, keyword := range rule.Keywords {
			kw := string(bytes.ToLower([]byte(keyword)))
			if !seen[kw] {
				seen[kw] = true
				pf.keywords = append(pf.keywords, []byte(kw))
			}
			pf.keywordRules[kw] = append(pf.keywordRules[kw], rule)
		}
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewMatcher(pf.keywords)
	}
	return pf
}

// Candidates returns the rules that might match content: rules with a
// keyword hit plus rules without keywords. The returned set preserves no
// particular order; callers needing registration order should use
// Eligible instead.
func (pf *Prefilter) Candidates(content []byte) map[*types.Rule]bool {
	candidates := make(map[*types.Rule]bool, len(pf.noKeywordRules))
	for _, rule := range pf.noKeywordRules {
		candidates[rule] = true
	}

	if pf.matcher == nil {
		return candidates
	}

	hits := pf.matcher.Match(bytes.ToLower(content))
	for _, hit := range hits {
		keyword := string(pf.keywords[hit])
		for _, rule := range pf.keywordRules[keyword] {
			candidates[rule] = true
		}
	}
	return candidates
}

// Eligible filters an ordered rule slice down to prefilter candidates,
// preserving the input order. Rules unknown to the prefilter (registered
// after it was built) are kept: running an extra pattern is cheaper than
// silently skipping a rule.
func (pf *Prefilter) Eligible(rules []*types.Rule, content []byte) []*types.Rule {
	candidates := pf.Candidates(content)
	result := make([]*types.Rule, 0, len(candidates))
	for _, rule := range rules {
		if candidates[rule] || !pf.known[rule] {
			result = append(result, rule)
		}
	}
	return result
}
