package presenter

import (
	"fmt"

	"github.com/vueadmin/vibeguard/pkg/types"
)

// SuppressionEdit is a synthesized text edit that silences a diagnostic:
// an insertion of a new directive line, independent of the rule's own
// quick fix.
type SuppressionEdit struct {
	Title      string
	InsertLine int // 0-based line the new text is inserted before
	NewText    string
}

// commentPrefixes maps language ids to their line-comment opener.
// Languages outside this set fall back to "//".
var commentPrefixes = map[string]string{
	"javascript":      "//",
	"typescript":      "//",
	"javascriptreact": "//",
	"typescriptreact": "//",
	"go":              "//",
	"java":            "//",
	"c":               "//",
	"cpp":             "//",
	"csharp":          "//",
	"php":             "//",
	"python":          "#",
	"ruby":            "#",
	"shellscript":     "#",
	"yaml":            "#",
	"dotenv":          "#",
	"properties":      "#",
	"toml":            "#",
	"sql":             "--",
	"lua":             "--",
}

// CommentPrefix returns the line-comment opener for a language.
func CommentPrefix(languageID string) string {
	if prefix, ok := commentPrefixes[languageID]; ok {
		return prefix
	}
	return "//"
}

// SynthesizeSuppressions generates the suppression edits for one
// diagnostic: ignore-next-line above the finding, and a file-wide
// disable for the originating rule.
func SynthesizeSuppressions(d types.Diagnostic, languageID string) []SuppressionEdit {
	prefix := CommentPrefix(languageID)
	return []SuppressionEdit{
		{
			Title:      "Ignore this line",
			InsertLine: d.Location.Line,
			NewText:    fmt.Sprintf("%s vibeguard-ignore-next-line\n", prefix),
		},
		{
			Title:      fmt.Sprintf("Disable rule %s in this file", d.RuleID),
			InsertLine: 0,
			NewText:    fmt.Sprintf("%s vibeguard-disable %s\n", prefix, d.RuleID),
		},
	}
}
