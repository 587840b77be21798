package registry

import "embed"

// builtinRulesFS embeds the builtin rules directory, one YAML file per
// detection category.
//
//go:embed rules/*.yml
var builtinRulesFS embed.FS
