package registry

import "strings"

// transforms maps names usable in rule YAML (quick_fix.transform) to pure
// text-to-text replacement functions. Transforms cannot be expressed in
// YAML directly, so builtin rules reference them by name.
var transforms = map[string]func(string) string{
	// use-textcontent swaps innerHTML assignment for textContent.
	"use-textcontent": func(matched string) string {
		return strings.Replace(matched, "innerHTML", "textContent", 1)
	},

	// json-parse swaps an eval call opener for JSON.parse.
	"json-parse": func(matched string) string {
		return strings.Replace(matched, "eval", "JSON.parse", 1)
	},

	// add-where-clause turns an unscoped statement terminator into a
	// WHERE placeholder the user must fill in.
	"add-where-clause": func(matched string) string {
		trimmed := strings.TrimRight(matched, ";")
		return trimmed + " WHERE <condition>;"
	},

	// comment-out prefixes the matched text with a line comment.
	"comment-out": func(matched string) string {
		return "// " + matched
	},
}

// lookupTransform resolves a named transform, nil if unknown.
func lookupTransform(name string) func(string) string {
	return transforms[name]
}
