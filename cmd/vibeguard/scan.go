package main

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vueadmin/vibeguard"
	"github.com/vueadmin/vibeguard/pkg/config"
	"github.com/vueadmin/vibeguard/pkg/registry"
	"github.com/vueadmin/vibeguard/pkg/types"
)

var (
	scanRulesPath   string
	scanInclude     string
	scanExclude     string
	scanLanguage    string
	scanFormat      string
	scanColor       string
	scanFailOn      bool
	scanGroup       bool
	scanShowFixes   bool
	scanMaxFindings int
)

var scanCmd = &cobra.Command{
	Use:   "scan <target>",
	Short: "Scan a file or directory for risky patterns",
	Long:  "Scan a file or directory for risky patterns using detection rules",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanRulesPath, "rules", "", "Path to custom rules file")
	scanCmd.Flags().StringVar(&scanInclude, "include", "", "Include rules matching regex (comma-separated)")
	scanCmd.Flags().StringVar(&scanExclude, "exclude", "", "Exclude rules matching regex (comma-separated)")
	scanCmd.Flags().StringVar(&scanLanguage, "language", "", "Force a language id instead of detecting by extension")
	scanCmd.Flags().StringVar(&scanFormat, "format", "human", "Output format: human, json")
	scanCmd.Flags().StringVar(&scanColor, "color", "auto", "Color output: auto, always, never")
	scanCmd.Flags().BoolVar(&scanFailOn, "fail-on-findings", false, "Exit with an error when findings exist")
	scanCmd.Flags().BoolVar(&scanGroup, "group", true, "Group identical findings per file")
	scanCmd.Flags().BoolVar(&scanShowFixes, "show-fixes", false, "Show quick fix replacements")
	scanCmd.Flags().IntVar(&scanMaxFindings, "max-findings", config.DefaultMaxFindingsPerFile, "Per-file findings cap")
}

// languageByExtension maps file extensions to the language ids rules
// are scoped by.
var languageByExtension = map[string]string{
	".js":    "javascript",
	".jsx":   "javascriptreact",
	".ts":    "typescript",
	".tsx":   "typescriptreact",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".py":    "python",
	".go":    "go",
	".php":   "php",
	".rb":    "ruby",
	".java":  "java",
	".sql":   "sql",
	".vue":   "vue",
	".html":  "html",
	".htm":   "html",
	".yml":   "yaml",
	".yaml":  "yaml",
	".json":  "json",
	".toml":  "toml",
	".ini":   "ini",
	".env":   "dotenv",
	".props": "properties",
}

type fileReport struct {
	Path        string
	Language    string
	Diagnostics []vibeguard.Diagnostic
}

// diagnosticListing is the JSON projection of a diagnostic. QuickFix
// transforms are functions and cannot be marshaled, so only the title
// survives.
type diagnosticListing struct {
	RuleID     string      `json:"rule_id"`
	Category   string      `json:"category"`
	Severity   string      `json:"severity"`
	Message    string      `json:"message"`
	Line       int         `json:"line"`
	Column     int         `json:"column"`
	Length     int         `json:"length"`
	QuickFix   string      `json:"quick_fix,omitempty"`
	Tags       []types.Tag `json:"tags,omitempty"`
	GroupCount int         `json:"group_count"`
}

type reportListing struct {
	Path        string              `json:"path"`
	Language    string              `json:"language"`
	Diagnostics []diagnosticListing `json:"diagnostics"`
}

func toListing(r fileReport) reportListing {
	l := reportListing{Path: r.Path, Language: r.Language}
	for _, d := range r.Diagnostics {
		dl := diagnosticListing{
			RuleID:     d.RuleID,
			Category:   string(d.Category),
			Severity:   string(d.Severity),
			Message:    d.Message,
			Line:       d.Location.Line,
			Column:     d.Location.Column,
			Length:     d.Location.Length,
			Tags:       d.Tags,
			GroupCount: d.GroupCount,
		}
		if d.QuickFix != nil {
			dl.QuickFix = d.QuickFix.Title
		}
		l.Diagnostics = append(l.Diagnostics, dl)
	}
	return l
}

func runScan(cmd *cobra.Command, args []string) error {
	target := args[0]
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("target does not exist: %s", target)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.Presenter.GroupingEnabled = scanGroup
	cfg.Presenter.MaxFindingsPerFile = scanMaxFindings

	opts := []vibeguard.Option{
		vibeguard.WithConfig(cfg),
		vibeguard.WithLogger(newLogger()),
		vibeguard.WithRuleFilter(
			registry.ParsePatterns(scanInclude),
			registry.ParsePatterns(scanExclude),
		),
	}
	if scanRulesPath != "" {
		opts = append(opts, vibeguard.WithCustomRuleFiles(scanRulesPath))
	}

	analyzer, err := vibeguard.New(opts...)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	paths, err := collectTargets(target, info)
	if err != nil {
		return err
	}

	var reports []fileReport
	total := 0
	for _, path := range paths {
		report, err := scanFile(analyzer, path)
		if err != nil {
			return err
		}
		if report == nil {
			continue
		}
		total += len(report.Diagnostics)
		reports = append(reports, *report)
	}

	out := cmd.OutOrStdout()
	switch scanFormat {
	case "json":
		listings := make([]reportListing, 0, len(reports))
		for _, r := range reports {
			listings = append(listings, toListing(r))
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(listings); err != nil {
			return err
		}
	case "human":
		renderHuman(out, reports, total, len(paths))
	default:
		return fmt.Errorf("unknown output format: %s", scanFormat)
	}

	if scanFailOn && total > 0 {
		return fmt.Errorf("%d findings", total)
	}
	return nil
}

// collectTargets expands a directory target into the files with a known
// language extension; a file target is taken as-is.
func collectTargets(target string, info os.FileInfo) ([]string, error) {
	if !info.IsDir() {
		return []string{target}, nil
	}

	var paths []string
	err := filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if name == "node_modules" || name == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		if detectLanguage(path) != "" {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func detectLanguage(path string) string {
	if scanLanguage != "" {
		return scanLanguage
	}
	if strings.HasPrefix(filepath.Base(path), ".env") {
		return "dotenv"
	}
	return languageByExtension[filepath.Ext(path)]
}

func scanFile(analyzer *vibeguard.Analyzer, path string) (*fileReport, error) {
	language := detectLanguage(path)
	if language == "" {
		return nil, nil
	}

	findings, err := analyzer.AnalyzeFile(path, language)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	if len(findings) == 0 {
		return nil, nil
	}

	return &fileReport{
		Path:        path,
		Language:    language,
		Diagnostics: analyzer.Present(findings),
	}, nil
}

// styles holds color formatters for human output.
type styles struct {
	path     *color.Color
	ruleID   *color.Color
	severity map[string]*color.Color
	matched  *color.Color
	fix      *color.Color
}

func newStyles(enabled bool) *styles {
	s := &styles{
		path:   color.New(color.Bold, color.FgHiWhite),
		ruleID: color.New(color.FgHiGreen),
		severity: map[string]*color.Color{
			"error":   color.New(color.Bold, color.FgHiRed),
			"warning": color.New(color.Bold, color.FgYellow),
			"info":    color.New(color.Bold, color.FgHiBlue),
		},
		matched: color.New(color.FgYellow),
		fix:     color.New(color.FgHiBlue),
	}
	if !enabled {
		s.path.DisableColor()
		s.ruleID.DisableColor()
		s.matched.DisableColor()
		s.fix.DisableColor()
		for _, c := range s.severity {
			c.DisableColor()
		}
	}
	return s
}

func colorEnabled() bool {
	switch scanColor {
	case "always":
		return true
	case "never":
		return false
	default:
		return !color.NoColor
	}
}

func renderHuman(out io.Writer, reports []fileReport, total, scanned int) {
	s := newStyles(colorEnabled())

	for _, report := range reports {
		fmt.Fprintf(out, "%s (%s)\n", s.path.Sprint(report.Path), report.Language)
		for _, d := range report.Diagnostics {
			sev := s.severity[string(d.Severity)]
			if sev == nil {
				sev = s.severity["info"]
			}
			fmt.Fprintf(out, "  %s %s at %d:%d  %s\n",
				sev.Sprintf("%-7s", d.Severity),
				s.ruleID.Sprint(d.RuleID),
				d.Location.Line+1, d.Location.Column+1,
				d.Message)
			for _, related := range d.Related {
				fmt.Fprintf(out, "          %s\n", s.matched.Sprint(related.Message))
			}
			if scanShowFixes && d.QuickFix != nil {
				fmt.Fprintf(out, "          %s %s\n", s.fix.Sprint("fix:"), d.QuickFix.Title)
			}
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "%d findings in %d files scanned\n", total, scanned)
}
