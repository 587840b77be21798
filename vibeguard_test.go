package vibeguard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vueadmin/vibeguard/pkg/config"
	"github.com/vueadmin/vibeguard/pkg/types"
)

func newAnalyzer(t *testing.T, opts ...Option) *Analyzer {
	t.Helper()
	analyzer, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(analyzer.Close)
	return analyzer
}

func TestAnalyzeString_DetectsHardcodedKey(t *testing.T) {
	analyzer := newAnalyzer(t)

	findings, err := analyzer.AnalyzeString(`const apiKey = "sk-proj-AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA";`, "javascript")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "vg.credential.openai", findings[0].RuleID)
	assert.Equal(t, types.CategoryCredentialExposure, findings[0].Category)
}

func TestAnalyzeString_DetectsUnscopedDelete(t *testing.T) {
	analyzer := newAnalyzer(t)

	findings, err := analyzer.AnalyzeString("DELETE FROM users;", "sql")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "vg.sql.delete-without-where", findings[0].RuleID)

	findings, err = analyzer.AnalyzeString("DELETE FROM users WHERE id = 1;", "sql")
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestAnalyzeString_EnvReferenceSuppressed(t *testing.T) {
	analyzer := newAnalyzer(t)

	findings, err := analyzer.AnalyzeString("const key = process.env.OPENAI_API_KEY;", "javascript")
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestAnalyzeString_CleanContent(t *testing.T) {
	analyzer := newAnalyzer(t)

	findings, err := analyzer.AnalyzeString("func add(a, b int) int { return a + b }", "go")
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestAnalyzeFile(t *testing.T) {
	analyzer := newAnalyzer(t)

	path := filepath.Join(t.TempDir(), "wipe.sql")
	require.NoError(t, os.WriteFile(path, []byte("TRUNCATE TABLE audit_log;\n"), 0o644))

	findings, err := analyzer.AnalyzeFile(path, "sql")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "vg.sql.truncate", findings[0].RuleID)

	_, err = analyzer.AnalyzeFile(filepath.Join(t.TempDir(), "absent.sql"), "sql")
	assert.Error(t, err)
}

func TestWithRules_ReplacesBuiltins(t *testing.T) {
	custom := &types.Rule{
		ID:              "custom.marker",
		Name:            "Marker",
		Category:        types.CategoryConfigError,
		Severity:        types.SeverityWarning,
		Pattern:         `FIXME-SECURITY`,
		MessageTemplate: "unresolved security marker",
		Languages:       []string{types.LanguageWildcard},
		Enabled:         true,
	}
	analyzer := newAnalyzer(t, WithRules([]*Rule{custom}))

	findings, err := analyzer.AnalyzeString("FIXME-SECURITY harden this\nDELETE FROM users;", "sql")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "custom.marker", findings[0].RuleID)
	assert.Equal(t, 0, findings[0].Location.Line)
}

func TestWithRuleFilter(t *testing.T) {
	analyzer := newAnalyzer(t, WithRuleFilter([]string{`^vg\.sql\.`}, []string{`truncate`}))

	text := "DELETE FROM users;\nTRUNCATE TABLE users;\neval(x)"
	findings, err := analyzer.AnalyzeString(text, "sql")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "vg.sql.delete-without-where", findings[0].RuleID)
}

func TestWithRuleFilter_InvalidPattern(t *testing.T) {
	_, err := New(WithRuleFilter([]string{"("}, nil))
	assert.Error(t, err)
}

func TestWithCustomRuleFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  - id: custom.internal-host
    name: Internal Hostname
    category: config-error
    severity: info
    pattern: 'corp\.internal'
    message: internal hostname in source
`), 0o644))

	analyzer := newAnalyzer(t, WithCustomRuleFiles(path))

	findings, err := analyzer.AnalyzeString("api.corp.internal", "go")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "custom.internal-host", findings[0].RuleID)

	// Builtins still active alongside the custom file.
	findings, err = analyzer.AnalyzeString("DELETE FROM users;", "sql")
	require.NoError(t, err)
	assert.Len(t, findings, 1)
}

func TestWithConfig_FileSizeCeiling(t *testing.T) {
	cfg := config.Default()
	cfg.Monitor.MaxFileSizeKB = 1
	analyzer := newAnalyzer(t, WithConfig(cfg))

	big := make([]byte, 2048)
	for i := range big {
		big[i] = 'a'
	}
	_, err := analyzer.AnalyzeString(string(big), "go")
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestPresent_CapsAndGroups(t *testing.T) {
	cfg := config.Default()
	cfg.Presenter.MaxFindingsPerFile = 2
	analyzer := newAnalyzer(t, WithConfig(cfg))

	findings, err := analyzer.AnalyzeString("eval(a)\neval(b)\neval(c)", "javascript")
	require.NoError(t, err)
	require.Len(t, findings, 3)

	diagnostics := analyzer.Present(findings)
	require.Len(t, diagnostics, 1)
	assert.Equal(t, 2, diagnostics[0].GroupCount)
}

func TestRegistry_DisableRule(t *testing.T) {
	analyzer := newAnalyzer(t)
	require.NoError(t, analyzer.Registry().SetEnabled("vg.sql.delete-without-where", false))

	findings, err := analyzer.AnalyzeString("DELETE FROM users;", "sql")
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestAnalyzeString_RepeatedCallsShareCache(t *testing.T) {
	analyzer := newAnalyzer(t)

	first, err := analyzer.AnalyzeString("DELETE FROM users;", "sql")
	require.NoError(t, err)
	second, err := analyzer.AnalyzeString("DELETE FROM users;", "sql")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
