package safety

import (
	"strings"
	"unicode"
)

// Scored is the outcome of pure risk scoring, before any persistence or
// caching side effects.
type Scored struct {
	RiskScore       int
	Severity        Severity
	DetectedSignals []string
	Recommendations []string
	Sentiment       float64
	RequiresReview  bool
}

// Scorer computes risk scores from a rule set. It is a pure function of its
// input and the rules; scoring never blocks.
type Scorer struct {
	rules    *RuleSet
	critical map[string]bool
	negative map[string]bool
	positive map[string]bool
}

// NewScorer builds a Scorer. A nil rules argument uses the embedded default
// rule set.
func NewScorer(rules *RuleSet) *Scorer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Scorer{
		rules:    rules,
		critical: wordSet(rules.CriticalKeywords),
		negative: wordSet(rules.NegativeWords),
		positive: wordSet(rules.PositiveWords),
	}
}

// RulesVersion returns the version of the active rule set.
func (s *Scorer) RulesVersion() int {
	return s.rules.Version
}

// Score runs the risk pipeline over content: keyword scan, sentiment,
// additive clamped scoring, severity thresholds and recommendations.
//
// The arithmetic is monotonic in detected keywords: each keyword adds 15,
// which always outweighs the at-most-10-point sentiment bonus a longer text
// could forfeit.
func (s *Scorer) Score(content string) Scored {
	normalized := strings.ToLower(content)
	tokens := tokenize(normalized)

	signals := s.detectSignals(normalized, tokens)
	sentiment := s.sentiment(tokens)

	score := 15 * len(signals)
	switch {
	case sentiment < -0.5:
		score += 20
	case sentiment < -0.2:
		score += 10
	}
	if strings.ContainsRune(content, '!') && len(signals) > 0 {
		score += 5
	}
	if len(content) > 10 && isAllUpper(content) {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	severity := s.severity(score, signals)

	return Scored{
		RiskScore:       score,
		Severity:        severity,
		DetectedSignals: signals,
		Recommendations: s.recommendations(severity, signals),
		Sentiment:       sentiment,
		RequiresReview:  severity == SeverityHigh || severity == SeverityCritical,
	}
}

func (s *Scorer) detectSignals(normalized string, tokens []string) []string {
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	var signals []string
	for _, kw := range s.rules.CrisisKeywords {
		if strings.ContainsRune(kw, ' ') {
			if strings.Contains(normalized, kw) {
				signals = append(signals, kw)
			}
		} else if set[kw] {
			signals = append(signals, kw)
		}
	}
	return signals
}

// sentiment scores tokens into [-1, 1] using the rule set lexicons. Zero
// means neutral or no sentiment-bearing words at all.
func (s *Scorer) sentiment(tokens []string) float64 {
	var pos, neg int
	for _, tok := range tokens {
		if s.positive[tok] {
			pos++
		}
		if s.negative[tok] {
			neg++
		}
	}
	total := pos + neg
	if total == 0 {
		return 0
	}
	return float64(pos-neg) / float64(total)
}

func (s *Scorer) severity(score int, signals []string) Severity {
	hasCritical := false
	for _, sig := range signals {
		if s.critical[sig] {
			hasCritical = true
			break
		}
	}
	switch {
	case score >= 80 || hasCritical:
		return SeverityCritical
	case score >= 60:
		return SeverityHigh
	case score >= 40:
		return SeverityMedium
	case score >= 20:
		return SeverityLow
	default:
		return SeverityNone
	}
}

func (s *Scorer) recommendations(severity Severity, signals []string) []string {
	var recs []string
	seen := make(map[string]bool)
	for _, advice := range s.rules.SeverityAdvice[severity] {
		if !seen[advice] {
			seen[advice] = true
			recs = append(recs, advice)
		}
	}
	for _, sig := range signals {
		if advice, ok := s.rules.KeywordAdvice[sig]; ok && !seen[advice] {
			seen[advice] = true
			recs = append(recs, advice)
		}
	}
	return recs
}

func tokenize(normalized string) []string {
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func isAllUpper(text string) bool {
	hasLetter := false
	for _, r := range text {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
