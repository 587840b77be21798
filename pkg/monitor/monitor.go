// Package monitor watches document lifecycle events and drives analysis
// through the pipeline. Change events are debounced per document with a
// quiet period; open and save bypass the debounce and analyze
// immediately.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vueadmin/vibeguard/pkg/pipeline"
	"github.com/vueadmin/vibeguard/pkg/presenter"
	"github.com/vueadmin/vibeguard/pkg/types"
)

// DefaultDebounceDelay is the quiet period after the last change event
// before analysis fires.
const DefaultDebounceDelay = 500 * time.Millisecond

// Document identifies an open document and carries the attributes the
// eligibility gate inspects.
type Document struct {
	ID         string
	LanguageID string
	Untitled   bool
	Size       int
}

// TextSource resolves the current text of a document at the moment
// analysis fires. The debounce window means the text at event time may
// already be stale, so the monitor reads through this interface instead
// of capturing snapshots per event.
type TextSource interface {
	Text(docID string) (string, bool)
}

// DiagnosticSink receives presentation output. Publish replaces the
// document's diagnostics wholesale; Clear removes one document's,
// ClearAll removes every document's.
type DiagnosticSink interface {
	Publish(docID string, diagnostics []types.Diagnostic)
	Clear(docID string)
	ClearAll()
}

// Config holds the monitor tunables.
type Config struct {
	RealtimeEnabled    bool
	DebounceDelay      time.Duration
	SupportedLanguages []string
	MaxFileSize        int
}

// DefaultConfig returns the default monitor configuration. An empty
// SupportedLanguages list means every language is eligible.
func DefaultConfig() Config {
	return Config{
		RealtimeEnabled: true,
		DebounceDelay:   DefaultDebounceDelay,
		MaxFileSize:     pipeline.DefaultMaxFileSize,
	}
}

// Monitor listens for document events and schedules analyses. One timer
// per document: a new change event for a document cancels its pending
// timer and arms a fresh one, so analysis fires once per burst, timed
// from the last event.
type Monitor struct {
	pipeline  *pipeline.Pipeline
	presenter *presenter.Presenter
	source    TextSource
	sink      DiagnosticSink
	logger    zerolog.Logger

	mu     sync.Mutex
	cfg    Config
	timers map[string]*time.Timer
	docs   map[string]Document
	closed bool

	wg sync.WaitGroup
}

// New creates a monitor. The monitor takes ownership of the pipeline
// and closes it on Close.
func New(p *pipeline.Pipeline, pres *presenter.Presenter, source TextSource, sink DiagnosticSink, cfg Config, logger zerolog.Logger) *Monitor {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}
	return &Monitor{
		pipeline:  p,
		presenter: pres,
		source:    source,
		sink:      sink,
		logger:    logger.With().Str("component", "monitor").Logger(),
		cfg:       cfg,
		timers:    make(map[string]*time.Timer),
		docs:      make(map[string]Document),
	}
}

// HandleOpen registers the document and analyzes it immediately,
// bypassing the debounce.
func (m *Monitor) HandleOpen(doc Document) {
	if !m.track(doc) {
		return
	}
	if !m.eligible(doc) {
		return
	}
	m.analyzeAsync(doc)
}

// HandleSave analyzes the document immediately, bypassing the debounce.
// A pending change timer for the document is cancelled first so the
// save result is not overwritten moments later by a stale trigger.
func (m *Monitor) HandleSave(doc Document) {
	if !m.track(doc) {
		return
	}
	m.cancelTimer(doc.ID)
	if !m.eligible(doc) {
		return
	}
	m.analyzeAsync(doc)
}

// HandleChange schedules a debounced analysis. Each call for the same
// document resets the quiet period, so a burst of edits yields exactly
// one analysis, fired DebounceDelay after the last edit.
func (m *Monitor) HandleChange(doc Document) {
	if !m.track(doc) {
		return
	}
	if !m.eligible(doc) {
		return
	}
	m.schedule(doc, m.delay())
}

// HandleClose cancels any pending work for the document and clears its
// diagnostics.
func (m *Monitor) HandleClose(docID string) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if t, ok := m.timers[docID]; ok {
		t.Stop()
		delete(m.timers, docID)
	}
	delete(m.docs, docID)
	m.mu.Unlock()

	m.sink.Clear(docID)
}

// UpdateConfig swaps the configuration and re-arms every pending timer
// with the new delay, so a shortened quiet period takes effect without
// waiting for the old one to elapse. Documents made ineligible by the
// new config have their pending timers dropped.
func (m *Monitor) UpdateConfig(cfg Config) {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.cfg = cfg

	var rearm []Document
	for docID, t := range m.timers {
		t.Stop()
		delete(m.timers, docID)
		if doc, ok := m.docs[docID]; ok && m.eligibleLocked(doc) {
			rearm = append(rearm, doc)
		}
	}
	m.mu.Unlock()

	m.logger.Info().Dur("debounce", cfg.DebounceDelay).Bool("realtime", cfg.RealtimeEnabled).
		Int("pending", len(rearm)).Msg("configuration updated")

	for _, doc := range rearm {
		m.schedule(doc, cfg.DebounceDelay)
	}
}

// Close stops all pending timers, waits for in-flight analyses to drain
// and closes the pipeline. Events after Close are ignored.
func (m *Monitor) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	for docID, t := range m.timers {
		t.Stop()
		delete(m.timers, docID)
	}
	m.mu.Unlock()

	m.pipeline.Close()
	m.wg.Wait()
	m.sink.ClearAll()
}

// track records the document's latest attributes. It returns false once
// the monitor is closed.
func (m *Monitor) track(doc Document) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.docs[doc.ID] = doc
	return true
}

// eligible reports whether the document passes the analysis gate:
// realtime enabled, a saved file, a supported language, and under the
// size ceiling.
func (m *Monitor) eligible(doc Document) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eligibleLocked(doc)
}

func (m *Monitor) eligibleLocked(doc Document) bool {
	if !m.cfg.RealtimeEnabled {
		return false
	}
	if doc.Untitled {
		return false
	}
	if m.cfg.MaxFileSize > 0 && doc.Size > m.cfg.MaxFileSize {
		return false
	}
	if len(m.cfg.SupportedLanguages) == 0 {
		return true
	}
	for _, lang := range m.cfg.SupportedLanguages {
		if lang == doc.LanguageID {
			return true
		}
	}
	return false
}

func (m *Monitor) delay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.DebounceDelay
}

// schedule arms the document's debounce timer, replacing any pending
// one.
func (m *Monitor) schedule(doc Document, delay time.Duration) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if t, ok := m.timers[doc.ID]; ok {
		t.Stop()
	}
	m.timers[doc.ID] = time.AfterFunc(delay, func() {
		m.fire(doc)
	})
	m.mu.Unlock()
}

// fire is the timer callback: it unregisters the timer and runs
// analysis inline on the timer goroutine. The WaitGroup entry is taken
// under the lock, while closed is still false, so Close's Wait covers
// every analysis that passed the closed check.
func (m *Monitor) fire(doc Document) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	delete(m.timers, doc.ID)
	m.wg.Add(1)
	m.mu.Unlock()

	defer m.wg.Done()
	m.analyze(doc)
}

func (m *Monitor) cancelTimer(docID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[docID]; ok {
		t.Stop()
		delete(m.timers, docID)
	}
}

// analyzeAsync runs analysis on its own goroutine so lifecycle handlers
// never block on the pipeline. As in fire, the WaitGroup entry is taken
// under the lock so it cannot race Close's Wait.
func (m *Monitor) analyzeAsync(doc Document) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		m.analyze(doc)
	}()
}

// analyze reads the current text, runs the pipeline and routes the
// outcome to the sink. Superseded runs are dropped silently; a timeout
// still publishes the partial findings it produced.
func (m *Monitor) analyze(doc Document) {
	text, ok := m.source.Text(doc.ID)
	if !ok {
		return
	}

	result, err := m.pipeline.Analyze(context.Background(), doc.ID, text, doc.LanguageID)
	switch {
	case err == nil:
		m.sink.Publish(doc.ID, m.presenter.Present(result.Findings))
	case errors.Is(err, pipeline.ErrAnalysisTimeout):
		m.logger.Warn().Str("doc", doc.ID).Int("partial", len(result.Findings)).
			Msg("publishing partial findings after timeout")
		m.sink.Publish(doc.ID, m.presenter.Present(result.Findings))
	case errors.Is(err, pipeline.ErrFileTooLarge):
		m.sink.Clear(doc.ID)
	case errors.Is(err, pipeline.ErrSuperseded), errors.Is(err, pipeline.ErrClosed):
	default:
		m.logger.Error().Err(err).Str("doc", doc.ID).Msg("analysis failed")
		m.sink.Clear(doc.ID)
	}
}
