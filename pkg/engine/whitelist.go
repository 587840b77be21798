package engine

import (
	"strings"
	"sync"

	"github.com/dlclark/regexp2"
	"github.com/vueadmin/vibeguard/pkg/types"
)

// lexicalWhitelist holds substrings that mark a matched text as benign:
// environment-variable reference syntax, documented placeholder tokens,
// and known example-key prefixes. Checked case-insensitively against the
// matched text itself.
var lexicalWhitelist = []string{
	"process.env",
	"os.environ",
	"getenv",
	"import.meta.env",
	"your_",
	"your-",
	"example",
	"placeholder",
	"changeme",
	"<your",
	"dummy",
	"not_a_real",
	"insert_",
	"todo",
}

// commentMarkers are line-comment openers checked against the text that
// precedes the match on its own line. A marker must follow whitespace or
// start the line, so "https://" does not count as a comment.
var commentMarkers = []string{"//", "#", "--", ";;"}

// blockCommentOpeners suppress when present anywhere before the match on
// the line. This is a best-effort heuristic: block comments spanning
// multiple lines are not tracked, a documented limitation of the
// line-scoped context window.
var blockCommentOpeners = []string{"/*", "<!--"}

// Whitelist suppresses matches that fall inside comments, environment
// variable references, or known placeholder text. It is a lexical
// heuristic over the enclosing line, not a parser: it does not understand
// nested comments or string literals and may under- or over-suppress in
// adversarial input.
type Whitelist struct {
	mu       sync.Mutex
	compiled map[string]*regexp2.Regexp // rule-scoped context patterns
}

// NewWhitelist creates a whitelist filter.
func NewWhitelist() *Whitelist {
	return &Whitelist{compiled: make(map[string]*regexp2.Regexp)}
}

// IsSuppressed reports whether a match should be discarded. The two
// strategies are applied independently; either suffices:
// (a) the rule's whitelist sub-patterns tested against the enclosing
// line, plus the built-in comment heuristics; (b) the global lexical
// whitelist tested against the matched text, plus env-reference syntax
// wrapping the match.
func (w *Whitelist) IsSuppressed(text string, rule *types.Rule, start, end int, matched string) bool {
	line := types.EnclosingLine(text, start)
	lineStart := start - prefixLenOnLine(text, start)
	prefix := text[lineStart:start]
	var suffix string
	if lineEnd := lineStart + len(line); end <= lineEnd {
		suffix = text[end:lineEnd]
	}

	if inComment(line, prefix) {
		return true
	}
	if w.matchesRuleWhitelist(rule, line) {
		return true
	}
	if matchesLexical(matched) {
		return true
	}
	if isEnvReference(prefix, suffix) {
		return true
	}
	return false
}

// inComment applies the comment heuristics to the enclosing line.
func inComment(line, prefix string) bool {
	trimmed := strings.TrimSpace(line)

	// A leading "*" means we are likely inside a block comment body.
	if strings.HasPrefix(trimmed, "*") {
		return true
	}

	for _, marker := range commentMarkers {
		if strings.HasPrefix(trimmed, marker) {
			return true
		}
		if i := strings.Index(prefix, marker); i >= 0 {
			if i == 0 || isSpace(prefix[i-1]) {
				return true
			}
		}
	}
	for _, opener := range blockCommentOpeners {
		if strings.Contains(prefix, opener) {
			return true
		}
	}
	return false
}

// matchesRuleWhitelist tests the rule's own sub-patterns against the
// enclosing line.
func (w *Whitelist) matchesRuleWhitelist(rule *types.Rule, line string) bool {
	for _, pattern := range rule.WhitelistPatterns {
		re := w.compileContext(pattern)
		if re == nil {
			continue
		}
		if ok, err := re.MatchString(line); err == nil && ok {
			return true
		}
	}
	return false
}

// matchesLexical tests the global lexical whitelist against the matched
// text, case-insensitively.
func matchesLexical(matched string) bool {
	lowered := strings.ToLower(matched)
	for _, entry := range lexicalWhitelist {
		if strings.Contains(lowered, entry) {
			return true
		}
	}
	return false
}

// isEnvReference reports whether the match sits inside environment
// variable reference syntax on its line: ${...} interpolation, or a
// process.env / os.environ accessor immediately before the match.
func isEnvReference(prefix, suffix string) bool {
	if strings.Contains(prefix, "${") && strings.Contains(suffix, "}") {
		return true
	}
	lowered := strings.ToLower(prefix)
	return strings.HasSuffix(lowered, "process.env.") ||
		strings.HasSuffix(lowered, "os.environ[") ||
		strings.HasSuffix(lowered, "getenv(")
}

func (w *Whitelist) compileContext(pattern string) *regexp2.Regexp {
	w.mu.Lock()
	defer w.mu.Unlock()

	if re, ok := w.compiled[pattern]; ok {
		return re
	}
	re, err := regexp2.Compile(pattern, regexp2.RE2)
	if err != nil {
		re, err = regexp2.Compile(pattern, regexp2.None)
		if err != nil {
			// Invalid whitelist patterns are rejected at load time;
			// tolerate them here by never suppressing.
			w.compiled[pattern] = nil
			return nil
		}
	}
	w.compiled[pattern] = re
	return re
}

func prefixLenOnLine(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return offset - (strings.LastIndexByte(text[:offset], '\n') + 1)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}
