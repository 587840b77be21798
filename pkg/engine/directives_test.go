package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirective_IgnoreNextLine(t *testing.T) {
	e := builtinEngine(t)
	text := "// vibeguard-ignore-next-line\nDELETE FROM users;"

	findings, err := e.Execute(context.Background(), text, "sql")
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestDirective_IgnoreOnlyAffectsNextLine(t *testing.T) {
	e := builtinEngine(t)
	text := "// vibeguard-ignore-next-line\nDELETE FROM a;\nDELETE FROM b;"

	findings, err := e.Execute(context.Background(), text, "sql")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].Location.Line)
}

func TestDirective_DisableRuleFileWide(t *testing.T) {
	e := builtinEngine(t)
	text := "-- vibeguard-disable vg.sql.delete-without-where\nDELETE FROM a;\nDELETE FROM b;"

	findings, err := e.Execute(context.Background(), text, "sql")
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestDirective_DisableRuleLeavesOthersActive(t *testing.T) {
	e := builtinEngine(t)
	text := "-- vibeguard-disable vg.sql.delete-without-where\nDELETE FROM a;\nDROP TABLE b"

	findings, err := e.Execute(context.Background(), text, "sql")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "vg.sql.drop", findings[0].RuleID)
}

func TestRulesDisabledByDirective(t *testing.T) {
	disabled := rulesDisabledByDirective("x\n# vibeguard-disable a.b\n# vibeguard-disable c-d\n")
	assert.True(t, disabled["a.b"])
	assert.True(t, disabled["c-d"])
	assert.False(t, disabled["other"])

	assert.Nil(t, rulesDisabledByDirective("plain text"))
}
