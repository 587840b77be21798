// Package pipeline orchestrates rule engine execution per document:
// fingerprint-keyed caching, size and time budgets, and last-write-wins
// supersede semantics for concurrent triggers on the same document.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vueadmin/vibeguard/pkg/cache"
	"github.com/vueadmin/vibeguard/pkg/engine"
	"github.com/vueadmin/vibeguard/pkg/types"
)

const (
	// DefaultMaxFileSize is the document size ceiling in bytes.
	DefaultMaxFileSize = 1 << 20 // 1 MiB

	// DefaultTimeout is the wall-clock budget for one analysis pass.
	DefaultTimeout = 5 * time.Second
)

var (
	// ErrFileTooLarge signals that the document exceeded the size
	// ceiling and no rule was run. Recoverable: analysis is skipped.
	ErrFileTooLarge = errors.New("file exceeds analysis size ceiling")

	// ErrAnalysisTimeout signals that the wall-clock budget elapsed.
	// The returned result holds whatever partial findings existed.
	ErrAnalysisTimeout = errors.New("analysis timed out")

	// ErrSuperseded signals that a newer analysis was requested for the
	// same document while this one ran; the result must not be
	// published.
	ErrSuperseded = errors.New("analysis superseded by newer request")

	// ErrClosed is returned for requests after Close.
	ErrClosed = errors.New("pipeline closed")
)

// Options configures the pipeline.
type Options struct {
	MaxFileSize int
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// DefaultOptions returns the default pipeline options.
func DefaultOptions() Options {
	return Options{
		MaxFileSize: DefaultMaxFileSize,
		Timeout:     DefaultTimeout,
		Logger:      zerolog.Nop(),
	}
}

type inflight struct {
	version uint64
	cancel  context.CancelFunc
}

// Pipeline runs the engine per document with at most one in-flight
// analysis per document id: a newer request cancels an older unfinished
// one rather than queuing behind it.
type Pipeline struct {
	engine *engine.Engine
	cache  *cache.Cache
	opts   Options
	logger zerolog.Logger

	mu       sync.Mutex
	inflight map[string]*inflight
	versions map[string]uint64
	closed   bool
}

// New creates a pipeline. The pipeline takes ownership of the cache and
// closes it on Close.
func New(eng *engine.Engine, c *cache.Cache, opts Options) *Pipeline {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Pipeline{
		engine:   eng,
		cache:    c,
		opts:     opts,
		logger:   opts.Logger.With().Str("component", "pipeline").Logger(),
		inflight: make(map[string]*inflight),
		versions: make(map[string]uint64),
	}
}

// Analyze runs one analysis pass for the document. The text is treated
// as an immutable snapshot. On ErrAnalysisTimeout the result carries the
// partial findings produced before the budget elapsed; on ErrSuperseded
// and ErrFileTooLarge the result is empty.
func (p *Pipeline) Analyze(ctx context.Context, docID, text, languageID string) (*types.AnalysisResult, error) {
	runCtx, version, err := p.begin(ctx, docID)
	if err != nil {
		return nil, err
	}
	defer p.finish(docID, version)

	fp := types.ComputeFingerprint(text)
	key := fp.Key(languageID)

	if cached := p.cache.Get(key); cached != nil {
		p.logger.Debug().Str("doc", docID).Str("fingerprint", fp.Hex()).Msg("cache hit")
		return cached, nil
	}

	if len(text) > p.opts.MaxFileSize {
		p.logger.Debug().Str("doc", docID).Int("size", len(text)).Msg("document over size ceiling")
		return p.emptyResult(fp, languageID), ErrFileTooLarge
	}

	execCtx, cancel := context.WithTimeout(runCtx, p.opts.Timeout)
	defer cancel()

	findings, execErr := p.engine.Execute(execCtx, text, languageID)
	result := &types.AnalysisResult{
		Findings:    findings,
		Fingerprint: fp,
		LanguageID:  languageID,
		CreatedAt:   time.Now(),
		Partial:     execErr != nil,
	}

	switch {
	case execErr == nil:
	case errors.Is(execErr, context.DeadlineExceeded):
		p.logger.Warn().Str("doc", docID).Int("partial", len(findings)).Msg("analysis timed out")
		return result, ErrAnalysisTimeout
	case errors.Is(execErr, context.Canceled):
		return p.emptyResult(fp, languageID), ErrSuperseded
	default:
		return p.emptyResult(fp, languageID), execErr
	}

	p.cache.Put(key, result)

	if p.isStale(docID, version) {
		return result, ErrSuperseded
	}
	return result, nil
}

// begin registers a new analysis for the document, cancelling any older
// unfinished one, and returns the run context and this run's version.
func (p *Pipeline) begin(ctx context.Context, docID string) (context.Context, uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, 0, ErrClosed
	}

	if prev, ok := p.inflight[docID]; ok {
		prev.cancel()
	}

	p.versions[docID]++
	version := p.versions[docID]

	runCtx, cancel := context.WithCancel(ctx)
	p.inflight[docID] = &inflight{version: version, cancel: cancel}
	return runCtx, version, nil
}

// finish drops the in-flight record if it still belongs to this run.
func (p *Pipeline) finish(docID string, version uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cur, ok := p.inflight[docID]; ok && cur.version == version {
		cur.cancel()
		delete(p.inflight, docID)
	}
}

// isStale reports whether a newer analysis was triggered for the
// document after this run began.
func (p *Pipeline) isStale(docID string, version uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.versions[docID] != version
}

// InvalidateDocument drops any cached result matching the given
// fingerprint key. Content-keyed entries shared with identical documents
// stay valid, so this is rarely needed outside tests.
func (p *Pipeline) InvalidateDocument(text, languageID string) {
	p.cache.Invalidate(types.ComputeFingerprint(text).Key(languageID))
}

// Close cancels all in-flight analyses and releases the cache. Requests
// after Close fail with ErrClosed.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, fl := range p.inflight {
		fl.cancel()
	}
	p.inflight = make(map[string]*inflight)
	p.mu.Unlock()

	p.cache.Close()
}

func (p *Pipeline) emptyResult(fp types.Fingerprint, languageID string) *types.AnalysisResult {
	return &types.AnalysisResult{
		Fingerprint: fp,
		LanguageID:  languageID,
		CreatedAt:   time.Now(),
	}
}
