package safety

import (
	"strings"
	"testing"
)

func TestScoreEmptyContent(t *testing.T) {
	s := NewScorer(nil)
	got := s.Score("")
	if got.RiskScore != 0 {
		t.Fatalf("expected score 0, got %d", got.RiskScore)
	}
	if got.Severity != SeverityNone {
		t.Fatalf("expected severity none, got %s", got.Severity)
	}
	if got.RequiresReview {
		t.Fatal("empty content must not require review")
	}
}

func TestScoreNeutralContent(t *testing.T) {
	s := NewScorer(nil)
	got := s.Score("Can you tell me about dinosaurs?")
	if got.RiskScore != 0 {
		t.Fatalf("expected score 0, got %d", got.RiskScore)
	}
	if len(got.DetectedSignals) != 0 {
		t.Fatalf("expected no signals, got %v", got.DetectedSignals)
	}
}

func TestScoreCriticalKeywordForcesCritical(t *testing.T) {
	s := NewScorer(nil)
	got := s.Score("I want to hurt myself")

	if got.Severity != SeverityCritical {
		t.Fatalf("expected critical, got %s (score %d)", got.Severity, got.RiskScore)
	}
	if !got.RequiresReview {
		t.Fatal("critical analysis must require review")
	}
	if !containsString(got.DetectedSignals, "hurt myself") {
		t.Fatalf("expected signal 'hurt myself', got %v", got.DetectedSignals)
	}
	if !containsString(got.Recommendations, "Provide self-harm crisis resources") {
		t.Fatalf("expected self-harm advice, got %v", got.Recommendations)
	}
}

func TestScoreHighScoreIsCriticalWithoutCriticalKeyword(t *testing.T) {
	s := NewScorer(nil)
	// Five non-critical keywords plus strongly negative sentiment pushes the
	// score past 80.
	got := s.Score("weapon gun knife abuse dying scared")
	if got.RiskScore < 80 {
		t.Fatalf("expected score >= 80, got %d", got.RiskScore)
	}
	if got.Severity != SeverityCritical {
		t.Fatalf("expected critical, got %s", got.Severity)
	}
}

func TestScoreSeverityBands(t *testing.T) {
	s := NewScorer(nil)
	tests := []struct {
		name    string
		content string
		want    Severity
	}{
		// 3 keywords (45) + sentiment -1 (20) = 65.
		{"high", "weapon gun knife scared", SeverityHigh},
		// 3 keywords, neutral sentiment = 45.
		{"medium", "weapon gun knife", SeverityMedium},
		// 1 keyword + exclamation bonus = 20.
		{"low", "There is a gun!", SeverityLow},
		// 1 keyword = 15.
		{"none", "There is a gun", SeverityNone},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := s.Score(tc.content)
			if got.Severity != tc.want {
				t.Fatalf("Score(%q) severity = %s (score %d), want %s",
					tc.content, got.Severity, got.RiskScore, tc.want)
			}
		})
	}
}

func TestScoreExclamationNeedsKeyword(t *testing.T) {
	s := NewScorer(nil)
	got := s.Score("This is so exciting!")
	if got.RiskScore != 0 {
		t.Fatalf("exclamation without keywords must not score, got %d", got.RiskScore)
	}
}

func TestScoreAllCapsBonus(t *testing.T) {
	s := NewScorer(nil)
	upper := s.Score("GIVE ME THE KNIFE")
	lower := s.Score("give me the knife")
	if upper.RiskScore != lower.RiskScore+5 {
		t.Fatalf("expected caps bonus of 5: upper=%d lower=%d", upper.RiskScore, lower.RiskScore)
	}
}

func TestScoreSentiment(t *testing.T) {
	s := NewScorer(nil)
	tests := []struct {
		content string
		want    float64
	}{
		{"I am happy and sad", 0},
		{"I feel sad and scared", -1},
		{"what a great fun day", 1},
		{"nothing emotional here", 0},
	}
	for _, tc := range tests {
		got := s.Score(tc.content)
		if got.Sentiment != tc.want {
			t.Fatalf("Score(%q) sentiment = %v, want %v", tc.content, got.Sentiment, tc.want)
		}
	}
}

func TestScoreClampedAtHundred(t *testing.T) {
	s := NewScorer(nil)
	content := strings.Repeat("suicide kill weapon gun knife abuse ", 5) + "!"
	got := s.Score(content)
	if got.RiskScore != 100 {
		t.Fatalf("expected clamp at 100, got %d", got.RiskScore)
	}
}

func TestScoreTokenBoundaries(t *testing.T) {
	s := NewScorer(nil)
	// "diet" must not match the "die" keyword.
	got := s.Score("I started a new diet")
	if len(got.DetectedSignals) != 0 {
		t.Fatalf("expected no signals, got %v", got.DetectedSignals)
	}
}

func TestRecommendationsDeduplicated(t *testing.T) {
	s := NewScorer(nil)
	// Both keywords map to the same advice line.
	got := s.Score("bad touch and secret touch")
	count := 0
	for _, rec := range got.Recommendations {
		if rec == "Contact child protective services" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected advice exactly once, got %d in %v", count, got.Recommendations)
	}
}

func TestScoreMonotonicInKeywords(t *testing.T) {
	s := NewScorer(nil)
	bases := []string{
		"",
		"tell me about dinosaurs",
		"i am sad and scared",
		"there is a gun!",
		"weapon gun knife",
	}
	for _, base := range bases {
		before := s.Score(base).RiskScore
		for _, kw := range DefaultRules().CrisisKeywords {
			after := s.Score(base + " " + kw).RiskScore
			if after < before {
				t.Fatalf("adding %q to %q lowered the score: %d -> %d", kw, base, before, after)
			}
		}
	}
}

func TestSeverityThresholds(t *testing.T) {
	s := NewScorer(nil)
	tests := []struct {
		score int
		want  Severity
	}{
		{100, SeverityCritical},
		{80, SeverityCritical},
		{79, SeverityHigh},
		{60, SeverityHigh},
		{59, SeverityMedium},
		{40, SeverityMedium},
		{39, SeverityLow},
		{20, SeverityLow},
		{19, SeverityNone},
		{0, SeverityNone},
	}
	for _, tc := range tests {
		if got := s.severity(tc.score, nil); got != tc.want {
			t.Fatalf("severity(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}

	// A critical keyword overrides the numeric band at any score.
	critical := DefaultRules().CriticalKeywords[0]
	if got := s.severity(0, []string{critical}); got != SeverityCritical {
		t.Fatalf("severity(0, %q) = %s, want critical", critical, got)
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
