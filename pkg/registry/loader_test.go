package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vueadmin/vibeguard/pkg/types"
)

func TestLoader_LoadBuiltinRules(t *testing.T) {
	loader := NewLoader()
	rules, err := loader.LoadBuiltinRules()
	require.NoError(t, err)
	require.NotEmpty(t, rules)

	// Every builtin rule must pass self-validation.
	for _, r := range rules {
		assert.NoError(t, ValidateRule(r), "rule %s", r.ID)
	}

	// Builtin ids are unique.
	seen := make(map[string]bool)
	for _, r := range rules {
		assert.False(t, seen[r.ID], "duplicate builtin id %s", r.ID)
		seen[r.ID] = true
	}
}

func TestLoader_BuiltinCoversAllCategories(t *testing.T) {
	loader := NewLoader()
	rules, err := loader.LoadBuiltinRules()
	require.NoError(t, err)

	got := make(map[types.Category]bool)
	for _, r := range rules {
		got[r.Category] = true
	}
	for cat := range knownCategories {
		assert.True(t, got[cat], "no builtin rule for category %s", cat)
	}
}

func TestLoader_LoadRules(t *testing.T) {
	data := []byte(`
rules:
  - id: test.rule
    name: Test Rule
    category: code-injection
    severity: warning
    pattern: 'dangerous\('
    message: found dangerous call
    languages: [javascript]
    keywords: [dangerous]
`)

	loader := NewLoader()
	rules, err := loader.LoadRules(data)
	require.NoError(t, err)
	require.Len(t, rules, 1)

	r := rules[0]
	assert.Equal(t, "test.rule", r.ID)
	assert.Equal(t, types.CategoryCodeInjection, r.Category)
	assert.Equal(t, types.SeverityWarning, r.Severity)
	assert.True(t, r.Enabled)
	assert.NotEmpty(t, r.StructuralID)
}

func TestLoader_RejectsRuleFailingSelfCheck(t *testing.T) {
	data := []byte(`
rules:
  - id: test.broken
    name: Broken Rule
    category: code-injection
    severity: warning
    pattern: 'dangerous\('
    message: found dangerous call
    examples:
      - 'perfectly safe call'
`)

	_, err := NewLoader().LoadRules(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "self-check")
	assert.Contains(t, err.Error(), "test.broken")
}

func TestLoader_RejectsUnknownCategory(t *testing.T) {
	data := []byte(`
rules:
  - id: test.rule
    name: Test Rule
    category: made-up
    severity: warning
    pattern: 'x'
    message: m
`)

	_, err := NewLoader().LoadRules(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestLoader_DefaultsToWildcardLanguage(t *testing.T) {
	data := []byte(`
rules:
  - id: test.rule
    name: Test Rule
    category: config-error
    severity: info
    pattern: 'x'
    message: m
`)

	rules, err := NewLoader().LoadRules(data)
	require.NoError(t, err)
	assert.Equal(t, []string{types.LanguageWildcard}, rules[0].Languages)
}

func TestLoader_LiteralQuickFix(t *testing.T) {
	data := []byte(`
rules:
  - id: test.rule
    name: Test Rule
    category: credential-exposure
    severity: error
    pattern: '"hunter2"'
    message: m
    quick_fix:
      title: Use the environment
      replacement: process.env.PASSWORD
`)

	rules, err := NewLoader().LoadRules(data)
	require.NoError(t, err)
	qf := rules[0].QuickFix
	require.NotNil(t, qf)
	assert.Equal(t, types.QuickFixLiteral, qf.Kind)
	assert.Equal(t, "process.env.PASSWORD", qf.Apply(`"hunter2"`))
}

func TestLoader_TransformQuickFix(t *testing.T) {
	data := []byte(`
rules:
  - id: test.rule
    name: Test Rule
    category: framework-risk
    severity: warning
    pattern: '\.innerHTML\s*='
    message: m
    quick_fix:
      title: Use textContent
      transform: use-textcontent
`)

	rules, err := NewLoader().LoadRules(data)
	require.NoError(t, err)
	qf := rules[0].QuickFix
	require.NotNil(t, qf)
	assert.Equal(t, types.QuickFixTransform, qf.Kind)
	assert.Equal(t, "el.textContent =", qf.Apply("el.innerHTML ="))
}

func TestLoader_UnknownTransformFails(t *testing.T) {
	data := []byte(`
rules:
  - id: test.rule
    name: Test Rule
    category: framework-risk
    severity: warning
    pattern: 'x'
    message: m
    quick_fix:
      title: T
      transform: does-not-exist
`)

	_, err := NewLoader().LoadRules(data)
	assert.ErrorContains(t, err, "unknown quick-fix transform")
}

func TestLoader_EmptyFileFails(t *testing.T) {
	_, err := NewLoader().LoadRules([]byte("rules: []"))
	assert.Error(t, err)
}
