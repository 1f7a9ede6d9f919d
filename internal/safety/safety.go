// Package safety implements the content risk-scoring pipeline: keyword and
// sentiment analysis over conversational text, incident persistence for
// review-worthy content, and degraded-mode reads when the durable store is
// unreachable.
package safety

import "time"

// Severity is the ordinal risk classification produced by scoring.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityNone, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Incident categories.
const (
	CategoryAutomated = "automated_detection"
	CategoryManual    = "manual_report"
)

// Incident statuses.
const (
	StatusOpen     = "open"
	StatusResolved = "resolved"
)

// Analysis is the immutable result of scoring one piece of content.
type Analysis struct {
	AnalysisID      string   `json:"analysisId"`
	UserID          string   `json:"userId"`
	ConversationID  string   `json:"conversationId"`
	RiskScore       int      `json:"riskScore"`
	Severity        Severity `json:"severity"`
	DetectedSignals []string `json:"detectedSignals"`
	Recommendations []string `json:"recommendations"`
	RequiresReview  bool     `json:"requiresReview"`
	Sentiment       float64  `json:"sentiment"`
	RulesVersion    int      `json:"rulesVersion"`
	CreatedAt       string   `json:"createdAt"`
}

// Incident is the persisted record created when content crosses the review
// threshold. The ID is derived from the producing analysis so replays are
// idempotent.
type Incident struct {
	ID             string   `json:"id" dynamodbav:"id"`
	UserID         string   `json:"userId" dynamodbav:"userId"`
	ConversationID string   `json:"conversationId" dynamodbav:"conversationId"`
	Severity       Severity `json:"severity" dynamodbav:"severity"`
	Category       string   `json:"category" dynamodbav:"category"`
	Description    string   `json:"description" dynamodbav:"description"`
	AnalysisID     string   `json:"analysisId" dynamodbav:"analysisId"`
	CreatedAt      string   `json:"createdAt" dynamodbav:"createdAt"`
	Status         string   `json:"status" dynamodbav:"status"`
}

// IncidentID returns the deterministic incident ID for an analysis.
func IncidentID(analysisID string) string {
	return "inc-" + analysisID
}

// timestampLayout keeps fractional seconds fixed width so lexicographic order
// on CreatedAt matches chronological order. The DynamoDB GSI sort key and the
// degraded-read sort both compare these strings directly.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func nowRFC3339() string {
	return time.Now().UTC().Format(timestampLayout)
}
