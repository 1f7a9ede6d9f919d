package safety

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var embeddedRules []byte

// RuleSet is the versioned detection rule set driving the scorer. Keyword
// sets and advice tables live in rules.yaml, not code, so they can be
// audited and revised without touching the scoring arithmetic.
type RuleSet struct {
	Version          int                   `yaml:"version"`
	CrisisKeywords   []string              `yaml:"crisis_keywords"`
	CriticalKeywords []string              `yaml:"critical_keywords"`
	AbuseKeywords    []string              `yaml:"abuse_keywords"`
	NegativeWords    []string              `yaml:"negative_words"`
	PositiveWords    []string              `yaml:"positive_words"`
	SeverityAdvice   map[Severity][]string `yaml:"severity_advice"`
	KeywordAdvice    map[string]string     `yaml:"keyword_advice"`
}

// LoadRules parses and validates a rule set document.
func LoadRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("safety: parse rules: %w", err)
	}
	if rs.Version <= 0 {
		return nil, fmt.Errorf("safety: rules version must be positive, got %d", rs.Version)
	}
	if len(rs.CrisisKeywords) == 0 {
		return nil, fmt.Errorf("safety: rules define no crisis keywords")
	}
	crisis := make(map[string]bool, len(rs.CrisisKeywords))
	for _, kw := range rs.CrisisKeywords {
		crisis[kw] = true
	}
	for _, kw := range rs.CriticalKeywords {
		if !crisis[kw] {
			return nil, fmt.Errorf("safety: critical keyword %q is not a crisis keyword", kw)
		}
	}
	for _, kw := range rs.AbuseKeywords {
		if !crisis[kw] {
			return nil, fmt.Errorf("safety: abuse keyword %q is not a crisis keyword", kw)
		}
	}
	return &rs, nil
}

// DefaultRules returns the embedded rule set. It panics if the embedded
// document is invalid, which is a build defect rather than a runtime
// condition.
func DefaultRules() *RuleSet {
	rs, err := LoadRules(embeddedRules)
	if err != nil {
		panic(err)
	}
	return rs
}
