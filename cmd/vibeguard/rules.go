package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vueadmin/vibeguard/pkg/registry"
	"github.com/vueadmin/vibeguard/pkg/types"
)

var (
	rulesPath    string
	rulesInclude string
	rulesExclude string
	rulesFormat  string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage detection rules",
	Long:  "Commands for listing and validating detection rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available rules",
	RunE:  runRulesList,
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate rule definitions and self-test examples",
	RunE:  runRulesCheck,
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesCheckCmd)

	for _, cmd := range []*cobra.Command{rulesListCmd, rulesCheckCmd} {
		cmd.Flags().StringVar(&rulesPath, "rules", "", "Path to custom rules file")
		cmd.Flags().StringVar(&rulesInclude, "include", "", "Include rules matching regex (comma-separated)")
		cmd.Flags().StringVar(&rulesExclude, "exclude", "", "Exclude rules matching regex (comma-separated)")
	}
	rulesListCmd.Flags().StringVar(&rulesFormat, "format", "table", "Output format: table, json")
}

func loadRules() ([]*types.Rule, error) {
	loader := registry.NewLoader()

	var rules []*types.Rule
	var err error
	if rulesPath != "" {
		rules, err = loader.LoadRuleFile(rulesPath)
	} else {
		rules, err = loader.LoadBuiltinRules()
	}
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	return registry.Filter(rules, registry.FilterConfig{
		Include: registry.ParsePatterns(rulesInclude),
		Exclude: registry.ParsePatterns(rulesExclude),
	})
}

func runRulesList(cmd *cobra.Command, args []string) error {
	rules, err := loadRules()
	if err != nil {
		return err
	}

	switch rulesFormat {
	case "json":
		return outputRulesJSON(cmd, rules)
	case "table":
		return outputRulesTable(cmd, rules)
	default:
		return fmt.Errorf("unknown output format: %s", rulesFormat)
	}
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	rules, err := loadRules()
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range rules {
		if err := registry.ValidateRule(r); err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", r.ID, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d rules failed validation", failed, len(rules))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d rules OK\n", len(rules))
	return nil
}

// ruleListing is the JSON projection of a rule. QuickFix transforms are
// functions and cannot be marshaled, so only the title is emitted.
type ruleListing struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Severity    string   `json:"severity"`
	Pattern     string   `json:"pattern"`
	Languages   []string `json:"languages,omitempty"`
	Description string   `json:"description,omitempty"`
	QuickFix    string   `json:"quick_fix,omitempty"`
	Confidence  float64  `json:"confidence"`
}

func outputRulesJSON(cmd *cobra.Command, rules []*types.Rule) error {
	listings := make([]ruleListing, 0, len(rules))
	for _, r := range rules {
		l := ruleListing{
			ID:          r.ID,
			Name:        r.Name,
			Category:    string(r.Category),
			Severity:    string(r.Severity),
			Pattern:     r.Pattern,
			Languages:   r.Languages,
			Description: r.Description,
			Confidence:  r.Confidence,
		}
		if r.QuickFix != nil {
			l.QuickFix = r.QuickFix.Title
		}
		listings = append(listings, l)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(listings)
}

func outputRulesTable(cmd *cobra.Command, rules []*types.Rule) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tName\tCategory\tSeverity\tLanguages\n")
	fmt.Fprintf(w, "--\t----\t--------\t--------\t---------\n")
	for _, r := range rules {
		langs := "*"
		if len(r.Languages) > 0 && r.Languages[0] != types.LanguageWildcard {
			langs = fmt.Sprintf("%v", r.Languages)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Category, r.Severity, langs)
	}
	return nil
}
