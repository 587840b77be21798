// Package engine executes registered detection rules against a text
// buffer, producing ordered, whitelist-filtered findings.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog"
	"github.com/vueadmin/vibeguard/pkg/prefilter"
	"github.com/vueadmin/vibeguard/pkg/registry"
	"github.com/vueadmin/vibeguard/pkg/types"
)

const (
	// DefaultMaxMatchesPerRule bounds pathological inputs: a rule that
	// matches more often than this contributes only the first N matches.
	DefaultMaxMatchesPerRule = 200

	// DefaultRuleTimeout guards against catastrophic backtracking in a
	// single rule's pattern.
	DefaultRuleTimeout = 5 * time.Second

	// maxMessageMatchLen truncates interpolated match text in messages.
	maxMessageMatchLen = 48
)

// Options configures engine behavior.
type Options struct {
	MaxMatchesPerRule int
	RuleTimeout       time.Duration
	Logger            zerolog.Logger
}

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{
		MaxMatchesPerRule: DefaultMaxMatchesPerRule,
		RuleTimeout:       DefaultRuleTimeout,
		Logger:            zerolog.Nop(),
	}
}

// Engine runs rules from an explicit registry instance. Output is a pure
// function of (text, languageID) for a fixed rule set: identical input
// yields an identical, order-stable finding list.
type Engine struct {
	registry  *registry.Registry
	whitelist *Whitelist
	prefilter *prefilter.Prefilter
	opts      Options
	logger    zerolog.Logger

	mu       sync.Mutex
	compiled map[string]*regexp2.Regexp // pattern -> compiled regex
}

// New creates an engine over the given registry. The prefilter is built
// from the full rule set once; enabled-state filtering happens per call.
// Rules registered after construction still execute, just without
// keyword prefiltering.
func New(reg *registry.Registry, opts Options) *Engine {
	if opts.MaxMatchesPerRule <= 0 {
		opts.MaxMatchesPerRule = DefaultMaxMatchesPerRule
	}
	if opts.RuleTimeout <= 0 {
		opts.RuleTimeout = DefaultRuleTimeout
	}

	var all []*types.Rule
	for rule := range reg.All() {
		all = append(all, rule)
	}

	return &Engine{
		registry:  reg,
		whitelist: NewWhitelist(),
		prefilter: prefilter.New(all),
		opts:      opts,
		logger:    opts.Logger.With().Str("component", "engine").Logger(),
		compiled:  make(map[string]*regexp2.Regexp),
	}
}

// Execute runs every enabled, language-applicable rule against text and
// returns findings ordered by ascending start offset, ties broken by
// rule registration order. A cancelled context stops between rules and
// returns the partial list together with the context error.
func (e *Engine) Execute(ctx context.Context, text, languageID string) ([]types.Finding, error) {
	enabled := e.registry.Enabled()
	candidates := e.prefilter.Eligible(enabled, []byte(text))
	disabled := rulesDisabledByDirective(text)

	conv := newOffsetConverter(text)

	type ordered struct {
		finding types.Finding
		ruleIdx int
	}
	var collected []ordered
	var execErr error

	for idx, rule := range candidates {
		if err := ctx.Err(); err != nil {
			execErr = err
			break
		}
		if !rule.AppliesTo(languageID) {
			continue
		}
		if disabled[rule.ID] {
			continue
		}

		findings, err := e.runRule(rule, text, conv)
		if err != nil {
			// A single faulting rule contributes zero findings; the
			// others proceed.
			e.logger.Warn().Err(err).Str("rule", rule.ID).Msg("rule execution failed")
			continue
		}
		for _, f := range findings {
			collected = append(collected, ordered{finding: f, ruleIdx: idx})
		}
	}

	sort.SliceStable(collected, func(i, j int) bool {
		if collected[i].finding.Location.StartOffset != collected[j].finding.Location.StartOffset {
			return collected[i].finding.Location.StartOffset < collected[j].finding.Location.StartOffset
		}
		return collected[i].ruleIdx < collected[j].ruleIdx
	})

	result := make([]types.Finding, len(collected))
	for i, c := range collected {
		result[i] = c.finding
	}
	return result, execErr
}

// runRule applies one rule's pattern repeatedly from the current search
// cursor, never overlapping matches of the same rule.
func (e *Engine) runRule(rule *types.Rule, text string, conv *offsetConverter) ([]types.Finding, error) {
	re, err := e.compile(rule.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern for rule %s: %w", rule.ID, err)
	}

	var findings []types.Finding

	m, err := re.FindStringMatch(text)
	if err != nil {
		return nil, fmt.Errorf("match for rule %s: %w", rule.ID, err)
	}

	for m != nil {
		if len(findings) >= e.opts.MaxMatchesPerRule {
			e.logger.Debug().Str("rule", rule.ID).Int("cap", e.opts.MaxMatchesPerRule).
				Msg("match cap reached")
			break
		}

		matched := m.String()
		start := conv.byteOffset(m.Index)
		end := start + len(matched)

		if !suppressedByIgnoreDirective(text, start) &&
			!e.whitelist.IsSuppressed(text, rule, start, end, matched) {
			line, column := types.ComputeLineColumn(text, start)
			findings = append(findings, types.Finding{
				RuleID:      rule.ID,
				Category:    rule.Category,
				Severity:    rule.Severity,
				Message:     formatMessage(rule.MessageTemplate, matched),
				Description: rule.Description,
				Matched:     matched,
				Location: types.Location{
					Line:        line,
					Column:      column,
					Length:      end - start,
					StartOffset: start,
					EndOffset:   end,
				},
				QuickFix: rule.QuickFix,
				Metadata: types.Metadata{
					Confidence: rule.Confidence,
					Impact:     rule.Impact,
					Effort:     rule.Effort,
					Tags:       []string{string(rule.Category)},
				},
			})
		}

		m, err = re.FindNextMatch(m)
		if err != nil {
			return nil, fmt.Errorf("match for rule %s: %w", rule.ID, err)
		}
	}

	return findings, nil
}

// compile returns a cached compiled pattern. RE2 mode is tried first
// (no backtracking); patterns needing lookaround fall back to the
// default Perl-compatible mode. MatchTimeout bounds backtracking time
// so a malicious input degrades to a per-rule error, not a hang.
func (e *Engine) compile(pattern string) (*regexp2.Regexp, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if re, ok := e.compiled[pattern]; ok {
		return re, nil
	}

	re, err := regexp2.Compile(pattern, regexp2.RE2|regexp2.Multiline)
	if err != nil {
		re, err = regexp2.Compile(pattern, regexp2.Multiline)
		if err != nil {
			return nil, err
		}
	}
	re.MatchTimeout = e.opts.RuleTimeout
	e.compiled[pattern] = re
	return re, nil
}

// formatMessage interpolates the raw matched text where the template has
// an interpolation point. Long matches are truncated for display.
func formatMessage(template, matched string) string {
	if !strings.Contains(template, "%s") {
		return template
	}
	display := matched
	if utf8.RuneCountInString(display) > maxMessageMatchLen {
		runes := []rune(display)
		display = string(runes[:maxMessageMatchLen]) + "..."
	}
	return fmt.Sprintf(template, display)
}

// offsetConverter maps regexp2's rune indices to byte offsets. For pure
// ASCII text the mapping is the identity and costs nothing.
type offsetConverter struct {
	byteOf []int // byteOf[runeIdx] = byte offset; nil for ASCII text
}

func newOffsetConverter(text string) *offsetConverter {
	if len(text) == utf8.RuneCountInString(text) {
		return &offsetConverter{}
	}
	byteOf := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		byteOf = append(byteOf, i)
	}
	byteOf = append(byteOf, len(text))
	return &offsetConverter{byteOf: byteOf}
}

func (c *offsetConverter) byteOffset(runeIdx int) int {
	if c.byteOf == nil {
		return runeIdx
	}
	if runeIdx >= len(c.byteOf) {
		return c.byteOf[len(c.byteOf)-1]
	}
	return c.byteOf[runeIdx]
}
