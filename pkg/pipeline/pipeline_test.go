package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vueadmin/vibeguard/pkg/cache"
	"github.com/vueadmin/vibeguard/pkg/engine"
	"github.com/vueadmin/vibeguard/pkg/registry"
)

func newTestPipeline(t *testing.T, popts Options, copts cache.Options) *Pipeline {
	t.Helper()

	reg := registry.New()
	rules, err := registry.NewLoader().LoadBuiltinRules()
	require.NoError(t, err)
	require.NoError(t, reg.RegisterAll(rules))

	c, err := cache.New(copts)
	require.NoError(t, err)

	p := New(engine.New(reg, engine.DefaultOptions()), c, popts)
	t.Cleanup(p.Close)
	return p
}

func TestAnalyze_ProducesFindings(t *testing.T) {
	p := newTestPipeline(t, DefaultOptions(), cache.DefaultOptions())

	result, err := p.Analyze(context.Background(), "doc1", "DELETE FROM users;", "sql")
	require.NoError(t, err)
	require.Len(t, result.Findings, 1)
	assert.False(t, result.Partial)
	assert.Equal(t, "sql", result.LanguageID)
}

func TestAnalyze_CacheHitReturnsSameResult(t *testing.T) {
	p := newTestPipeline(t, DefaultOptions(), cache.DefaultOptions())

	first, err := p.Analyze(context.Background(), "doc1", "DELETE FROM users;", "sql")
	require.NoError(t, err)

	// Identical content before TTL expiry: the cached result comes back
	// without re-running the engine.
	second, err := p.Analyze(context.Background(), "doc1", "DELETE FROM users;", "sql")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestAnalyze_CacheIsContentKeyedAcrossDocuments(t *testing.T) {
	p := newTestPipeline(t, DefaultOptions(), cache.DefaultOptions())

	first, err := p.Analyze(context.Background(), "doc1", "DELETE FROM users;", "sql")
	require.NoError(t, err)

	// A different document with identical content shares the entry.
	second, err := p.Analyze(context.Background(), "doc2", "DELETE FROM users;", "sql")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestAnalyze_LanguageIsPartOfTheKey(t *testing.T) {
	p := newTestPipeline(t, DefaultOptions(), cache.DefaultOptions())

	asSQL, err := p.Analyze(context.Background(), "doc1", "DELETE FROM users;", "sql")
	require.NoError(t, err)
	asYAML, err := p.Analyze(context.Background(), "doc1", "DELETE FROM users;", "yaml")
	require.NoError(t, err)
	assert.NotSame(t, asSQL, asYAML)
}

func TestAnalyze_TTLExpiryReanalyzes(t *testing.T) {
	copts := cache.DefaultOptions()
	copts.TTL = 20 * time.Millisecond
	p := newTestPipeline(t, DefaultOptions(), copts)

	first, err := p.Analyze(context.Background(), "doc1", "DELETE FROM users;", "sql")
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	second, err := p.Analyze(context.Background(), "doc1", "DELETE FROM users;", "sql")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, first.Findings, second.Findings)
}

func TestAnalyze_FileTooLarge(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxFileSize = 10
	p := newTestPipeline(t, opts, cache.DefaultOptions())

	result, err := p.Analyze(context.Background(), "doc1", "DELETE FROM users; -- well over ten bytes", "sql")
	assert.ErrorIs(t, err, ErrFileTooLarge)
	require.NotNil(t, result)
	assert.Empty(t, result.Findings)
}

func TestAnalyze_Timeout(t *testing.T) {
	opts := DefaultOptions()
	opts.Timeout = time.Nanosecond
	p := newTestPipeline(t, opts, cache.DefaultOptions())

	result, err := p.Analyze(context.Background(), "doc1", "DELETE FROM users;", "sql")
	assert.ErrorIs(t, err, ErrAnalysisTimeout)
	require.NotNil(t, result)
	assert.True(t, result.Partial)
}

func TestAnalyze_TimeoutResultNotCached(t *testing.T) {
	opts := DefaultOptions()
	opts.Timeout = time.Nanosecond
	p := newTestPipeline(t, opts, cache.DefaultOptions())

	_, err := p.Analyze(context.Background(), "doc1", "DELETE FROM users;", "sql")
	require.ErrorIs(t, err, ErrAnalysisTimeout)

	// A later run with a sane budget must not see the partial result.
	p.opts.Timeout = DefaultTimeout
	result, err := p.Analyze(context.Background(), "doc1", "DELETE FROM users;", "sql")
	require.NoError(t, err)
	assert.Len(t, result.Findings, 1)
}

func TestAnalyze_SupersedeCancelsOlderRun(t *testing.T) {
	p := newTestPipeline(t, DefaultOptions(), cache.DefaultOptions())

	ctx1, v1, err := p.begin(context.Background(), "doc1")
	require.NoError(t, err)
	ctx2, v2, err := p.begin(context.Background(), "doc1")
	require.NoError(t, err)

	// The newer request cancels the older unfinished one.
	assert.Error(t, ctx1.Err())
	assert.NoError(t, ctx2.Err())
	assert.Greater(t, v2, v1)
	assert.True(t, p.isStale("doc1", v1))
	assert.False(t, p.isStale("doc1", v2))

	p.finish("doc1", v2)
}

func TestAnalyze_IndependentDocumentsDoNotSupersede(t *testing.T) {
	p := newTestPipeline(t, DefaultOptions(), cache.DefaultOptions())

	ctx1, v1, err := p.begin(context.Background(), "doc1")
	require.NoError(t, err)
	_, _, err = p.begin(context.Background(), "doc2")
	require.NoError(t, err)

	assert.NoError(t, ctx1.Err())
	assert.False(t, p.isStale("doc1", v1))
}

func TestAnalyze_AfterCloseFails(t *testing.T) {
	p := newTestPipeline(t, DefaultOptions(), cache.DefaultOptions())
	p.Close()

	_, err := p.Analyze(context.Background(), "doc1", "text", "sql")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestAnalyze_CloseCancelsInflight(t *testing.T) {
	p := newTestPipeline(t, DefaultOptions(), cache.DefaultOptions())

	ctx1, _, err := p.begin(context.Background(), "doc1")
	require.NoError(t, err)

	p.Close()
	assert.Error(t, ctx1.Err())
}
