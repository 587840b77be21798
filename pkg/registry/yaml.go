package registry

// yamlRule is the intermediate struct for parsing the YAML rule format.
type yamlRule struct {
	ID               string        `yaml:"id"`
	Name             string        `yaml:"name"`
	Category         string        `yaml:"category"`
	Severity         string        `yaml:"severity"`
	Pattern          string        `yaml:"pattern"`
	Message          string        `yaml:"message"`
	Description      string        `yaml:"description,omitempty"`
	QuickFix         *yamlQuickFix `yaml:"quick_fix,omitempty"`
	Whitelist        []string      `yaml:"whitelist,omitempty"`
	Languages        []string      `yaml:"languages,omitempty"`
	Keywords         []string      `yaml:"keywords,omitempty"`
	Confidence       float64       `yaml:"confidence,omitempty"`
	Impact           string        `yaml:"impact,omitempty"`
	Effort           string        `yaml:"effort,omitempty"`
	Examples         []string      `yaml:"examples,omitempty"`
	NegativeExamples []string      `yaml:"negative_examples,omitempty"`
	References       []string      `yaml:"references,omitempty"`
	Disabled         bool          `yaml:"disabled,omitempty"`
}

// yamlQuickFix carries the quick-fix variant in YAML form. Exactly one of
// replacement (literal) or transform (named pure function) should be set.
type yamlQuickFix struct {
	Title       string `yaml:"title"`
	Replacement string `yaml:"replacement,omitempty"`
	Transform   string `yaml:"transform,omitempty"`
}

// yamlRulesFile is the top-level structure of a rules YAML file: a
// "rules" array at the top level.
type yamlRulesFile struct {
	Rules []yamlRule `yaml:"rules"`
}
