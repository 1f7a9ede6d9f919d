// Package intent maps free-text user input to a coarse request category used
// to pick a downstream agent.
package intent

// Tag identifies a coarse category of user request.
type Tag string

const (
	TagContent   Tag = "CONTENT"
	TagAuth      Tag = "AUTH"
	TagEmotion   Tag = "EMOTION"
	TagSmartHome Tag = "SMART_HOME"
	TagCommerce  Tag = "COMMERCE"
	TagKnowledge Tag = "KNOWLEDGE"
)

// DefaultConfidence is reported when no rule matched and the classifier fell
// back to the default intent. Kept for wire compatibility with older clients;
// Unclassified is the authoritative signal.
const DefaultConfidence = 0.5

// Result is the outcome of classifying one piece of text.
type Result struct {
	Primary    Tag     `json:"primary"`
	Secondary  []Tag   `json:"secondary,omitempty"`
	Confidence float64 `json:"confidence"`

	// Unclassified is true when no rule matched and Primary is the default
	// fallback rather than a genuine classification. A genuine match may still
	// carry Confidence == 0.5; callers must branch on this field, not the value.
	Unclassified bool `json:"unclassified,omitempty"`
}
