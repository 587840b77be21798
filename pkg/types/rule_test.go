package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRule_AppliesTo(t *testing.T) {
	tests := []struct {
		name       string
		languages  []string
		languageID string
		want       bool
	}{
		{"exact match", []string{"javascript", "typescript"}, "javascript", true},
		{"no match", []string{"javascript"}, "python", false},
		{"wildcard", []string{LanguageWildcard}, "anything", true},
		{"empty set", nil, "javascript", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Rule{Languages: tt.languages}
			assert.Equal(t, tt.want, r.AppliesTo(tt.languageID))
		})
	}
}

func TestRule_ComputeStructuralID(t *testing.T) {
	r1 := &Rule{Pattern: `AKIA[0-9A-Z]{16}`}
	r2 := &Rule{Pattern: `AKIA[0-9A-Z]{16}`}
	r3 := &Rule{Pattern: `ghp_[A-Za-z0-9]{36}`}

	assert.Equal(t, r1.ComputeStructuralID(), r2.ComputeStructuralID())
	assert.NotEqual(t, r1.ComputeStructuralID(), r3.ComputeStructuralID())
	assert.Len(t, r1.ComputeStructuralID(), 40)
}

func TestQuickFix_ApplyLiteral(t *testing.T) {
	q := &QuickFix{Kind: QuickFixLiteral, Literal: "process.env.API_KEY"}
	assert.Equal(t, "process.env.API_KEY", q.Apply(`"sk-secret"`))
}

func TestQuickFix_ApplyTransform(t *testing.T) {
	q := &QuickFix{
		Kind: QuickFixTransform,
		Transform: func(matched string) string {
			return strings.ToUpper(matched)
		},
	}
	assert.Equal(t, "EVAL", q.Apply("eval"))
}

func TestQuickFix_TransformNilFallsBackToLiteral(t *testing.T) {
	q := &QuickFix{Kind: QuickFixTransform, Literal: "fallback"}
	assert.Equal(t, "fallback", q.Apply("x"))
}
