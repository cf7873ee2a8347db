package executor

import (
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/voidws/xcpilot/assets"
)

// Pattern is a compiled fatal-output rule. When a line of output matches,
// the process is terminated immediately rather than awaited to completion.
type Pattern struct {
	re      *regexp.Regexp
	Source  string
	Message string
}

// Match reports whether the line triggers this pattern.
func (p Pattern) Match(line string) bool {
	return p.re.MatchString(line)
}

// FatalRule describes a regex-based fatal-output rule.
type FatalRule struct {
	Pattern string `yaml:"pattern"`
	Message string `yaml:"message"`
}

// RulesFile is the YAML schema root.
type RulesFile struct {
	Rules struct {
		FatalPatterns []FatalRule `yaml:"fatal_patterns"`
	} `yaml:"rules"`
}

// LoadPatterns reads fatal-pattern rules from disk, falling back to the
// embedded defaults when the path is empty or unreadable.
func LoadPatterns(path string) ([]Pattern, error) {
	data := assets.DefaultFatalRulesYAML
	if path != "" {
		if fileData, err := os.ReadFile(path); err == nil {
			data = fileData
		}
	}

	var rules RulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	return CompilePatterns(rules.Rules.FatalPatterns)
}

// CompilePatterns compiles rules in order; order matters because only the
// first matching pattern is reported for a run.
func CompilePatterns(rules []FatalRule) ([]Pattern, error) {
	var compiled []Pattern
	for _, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, err
		}
		msg := rule.Message
		if msg == "" {
			msg = rule.Pattern
		}
		compiled = append(compiled, Pattern{re: re, Source: rule.Pattern, Message: msg})
	}
	return compiled, nil
}

// MustPatterns compiles rules from raw pattern strings, panicking on bad
// regexes. Intended for tests and fixed built-in lists.
func MustPatterns(patterns ...string) []Pattern {
	var rules []FatalRule
	for _, p := range patterns {
		rules = append(rules, FatalRule{Pattern: p})
	}
	compiled, err := CompilePatterns(rules)
	if err != nil {
		panic(err)
	}
	return compiled
}
