// Package vibeguard provides static detection of risky patterns in
// source text: hardcoded credentials, destructive SQL, code injection
// sinks, framework footguns, and insecure configuration.
//
// # Basic Usage
//
// Create an analyzer with the builtin rules and analyze content:
//
//	analyzer, err := vibeguard.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer analyzer.Close()
//
//	findings, err := analyzer.AnalyzeString(`DELETE FROM users;`, "sql")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, f := range findings {
//	    fmt.Printf("%s at line %d: %s\n", f.RuleID, f.Location.Line, f.Message)
//	}
//
// # Presentation
//
// Raw findings can be turned into capped, grouped diagnostics:
//
//	diagnostics := analyzer.Present(findings)
//
// # Rule selection
//
// Restrict the rule set with regex filters over rule ids:
//
//	analyzer, err := vibeguard.New(
//	    vibeguard.WithRuleFilter([]string{`^vg\.credential\.`}, nil),
//	)
package vibeguard

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/vueadmin/vibeguard/pkg/cache"
	"github.com/vueadmin/vibeguard/pkg/config"
	"github.com/vueadmin/vibeguard/pkg/engine"
	"github.com/vueadmin/vibeguard/pkg/pipeline"
	"github.com/vueadmin/vibeguard/pkg/presenter"
	"github.com/vueadmin/vibeguard/pkg/registry"
	"github.com/vueadmin/vibeguard/pkg/types"
)

// Re-export commonly used types so callers can import just
// "github.com/vueadmin/vibeguard" without subpackages.
type (
	// Rule defines one detection pattern.
	Rule = types.Rule

	// Finding is a single raw detection result.
	Finding = types.Finding

	// Diagnostic is a presented finding ready for display.
	Diagnostic = types.Diagnostic

	// Location describes where in the text a finding sits.
	Location = types.Location

	// QuickFix describes an automated remediation.
	QuickFix = types.QuickFix

	// AnalysisResult is the cached output of one analysis pass.
	AnalysisResult = types.AnalysisResult
)

// Re-export the recoverable analysis errors.
var (
	ErrFileTooLarge    = pipeline.ErrFileTooLarge
	ErrAnalysisTimeout = pipeline.ErrAnalysisTimeout
	ErrSuperseded      = pipeline.ErrSuperseded
)

// Analyzer ties the rule registry, engine, cache and pipeline together
// behind a single entry point.
type Analyzer struct {
	registry  *registry.Registry
	pipeline  *pipeline.Pipeline
	presenter *presenter.Presenter
	cfg       *config.Config
	seq       atomic.Uint64
}

type analyzerConfig struct {
	cfg             *config.Config
	logger          zerolog.Logger
	rules           []*types.Rule
	filter          registry.FilterConfig
	customRuleFiles []string
}

// Option configures an Analyzer.
type Option func(*analyzerConfig)

// WithConfig supplies a full configuration. Defaults apply for any nil
// config.
func WithConfig(cfg *config.Config) Option {
	return func(c *analyzerConfig) {
		if cfg != nil {
			c.cfg = cfg
		}
	}
}

// WithLogger sets the logger for all components. The default discards
// everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *analyzerConfig) {
		c.logger = logger
	}
}

// WithRules uses the given rules instead of the builtin set.
func WithRules(rules []*Rule) Option {
	return func(c *analyzerConfig) {
		c.rules = rules
	}
}

// WithRuleFilter restricts the rule set by regex over rule ids. Include
// runs first; an empty include list means "include all".
func WithRuleFilter(include, exclude []string) Option {
	return func(c *analyzerConfig) {
		c.filter = registry.FilterConfig{Include: include, Exclude: exclude}
	}
}

// WithCustomRuleFiles loads additional rule YAML files on top of the
// base rule set.
func WithCustomRuleFiles(paths ...string) Option {
	return func(c *analyzerConfig) {
		c.customRuleFiles = append(c.customRuleFiles, paths...)
	}
}

// New creates an Analyzer.
//
// By default the analyzer uses the builtin rules, a 60 second result
// cache, a 5 second analysis budget and a 1 MiB size ceiling.
func New(opts ...Option) (*Analyzer, error) {
	ac := &analyzerConfig{
		cfg:    config.Default(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(ac)
	}

	rules, err := resolveRules(ac)
	if err != nil {
		return nil, err
	}

	reg := registry.New()
	if err := reg.RegisterAll(rules); err != nil {
		return nil, fmt.Errorf("registering rules: %w", err)
	}

	eng := engine.New(reg, engine.Options{
		MaxMatchesPerRule: ac.cfg.Analysis.MaxMatchesPerRule,
		RuleTimeout:       ac.cfg.Analysis.RuleTimeout(),
		Logger:            ac.logger,
	})

	c, err := cache.New(cache.Options{
		TTL:           ac.cfg.Cache.TTL(),
		Capacity:      ac.cfg.Cache.Capacity,
		SweepInterval: ac.cfg.Cache.SweepInterval(),
		Logger:        ac.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	p := pipeline.New(eng, c, pipeline.Options{
		MaxFileSize: ac.cfg.Monitor.MaxFileSize(),
		Timeout:     ac.cfg.Analysis.Timeout(),
		Logger:      ac.logger,
	})

	pres := presenter.New(presenter.Options{
		MaxPerFile:      ac.cfg.Presenter.MaxFindingsPerFile,
		GroupingEnabled: ac.cfg.Presenter.GroupingEnabled,
		Logger:          ac.logger,
	})

	return &Analyzer{
		registry:  reg,
		pipeline:  p,
		presenter: pres,
		cfg:       ac.cfg,
	}, nil
}

func resolveRules(ac *analyzerConfig) ([]*types.Rule, error) {
	rules := ac.rules
	if rules == nil {
		loaded, err := registry.NewLoader().LoadBuiltinRules()
		if err != nil {
			return nil, fmt.Errorf("loading builtin rules: %w", err)
		}
		rules = loaded
	}

	loader := registry.NewLoader()
	for _, path := range ac.customRuleFiles {
		custom, err := loader.LoadRuleFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading custom rules: %w", err)
		}
		rules = append(rules, custom...)
	}

	filtered, err := registry.Filter(rules, ac.filter)
	if err != nil {
		return nil, fmt.Errorf("filtering rules: %w", err)
	}
	return filtered, nil
}

// AnalyzeString analyzes a string and returns the raw findings.
//
// Example:
//
//	findings, err := analyzer.AnalyzeString(`eval(userInput)`, "javascript")
func (a *Analyzer) AnalyzeString(content, languageID string) ([]Finding, error) {
	return a.AnalyzeWithContext(context.Background(), content, languageID)
}

// AnalyzeWithContext analyzes a string under a caller-supplied context.
func (a *Analyzer) AnalyzeWithContext(ctx context.Context, content, languageID string) ([]Finding, error) {
	// One-shot calls get distinct document ids so concurrent calls
	// never supersede each other; the cache still dedupes by content.
	docID := fmt.Sprintf("adhoc-%d", a.seq.Add(1))
	result, err := a.pipeline.Analyze(ctx, docID, content, languageID)
	if err != nil {
		return nil, err
	}
	return result.Findings, nil
}

// AnalyzeFile reads and analyzes a file.
//
// Example:
//
//	findings, err := analyzer.AnalyzeFile("schema/drop.sql", "sql")
func (a *Analyzer) AnalyzeFile(path, languageID string) ([]Finding, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return a.AnalyzeString(string(content), languageID)
}

// Present turns raw findings into capped, enriched, optionally grouped
// diagnostics.
func (a *Analyzer) Present(findings []Finding) []Diagnostic {
	return a.presenter.Present(findings)
}

// Registry exposes the rule registry for enable/disable control and
// enumeration.
func (a *Analyzer) Registry() *registry.Registry {
	return a.registry
}

// Pipeline exposes the analysis pipeline for callers that manage their
// own document identities, such as the change monitor.
func (a *Analyzer) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}

// Presenter exposes the configured presenter.
func (a *Analyzer) Presenter() *presenter.Presenter {
	return a.presenter
}

// Config returns the configuration the analyzer was built with.
func (a *Analyzer) Config() *config.Config {
	return a.cfg
}

// Close releases the cache and cancels in-flight analyses.
func (a *Analyzer) Close() {
	a.pipeline.Close()
}
