package intent

import (
	"sort"
	"strings"
	"unicode"
)

// rule maps a set of trigger phrases to an intent tag. Multi-word phrases are
// matched by containment on the normalized text; single words are matched
// against whole tokens so "sing" does not fire inside "using".
type rule struct {
	tag     Tag
	weight  float64
	phrases []string
}

// The rule table is ordered; earlier rules win vote ties.
var rules = []rule{
	{tag: TagContent, weight: 1.5, phrases: []string{"tell me a story", "create a story", "make a story", "write a story", "make a picture", "draw me"}},
	{tag: TagContent, weight: 1.0, phrases: []string{"story", "draw", "sing", "song", "poem", "play a game"}},
	{tag: TagAuth, weight: 1.5, phrases: []string{"log in", "log out", "sign in", "sign out", "reset my password"}},
	{tag: TagAuth, weight: 1.0, phrases: []string{"login", "logout", "account", "password", "profile", "register"}},
	{tag: TagEmotion, weight: 2.0, phrases: []string{"hurt myself", "hurt me", "kill myself", "want to die", "wanna die", "end my life", "hate myself", "hurting me", "hit me", "nobody loves me", "run away from home"}},
	{tag: TagEmotion, weight: 1.5, phrases: []string{"i feel", "i am sad", "i'm sad", "i am scared", "i'm scared", "i miss"}},
	{tag: TagEmotion, weight: 1.0, phrases: []string{"sad", "scared", "lonely", "angry", "upset", "cry", "crying", "worried", "afraid", "hurt", "die", "dying", "kill", "bully", "bullied", "unsafe"}},
	{tag: TagSmartHome, weight: 1.5, phrases: []string{"turn on", "turn off", "switch on", "switch off", "dim the"}},
	{tag: TagSmartHome, weight: 1.0, phrases: []string{"lights", "light", "thermostat", "speaker", "volume", "alarm"}},
	{tag: TagCommerce, weight: 1.5, phrases: []string{"buy a", "purchase a", "renew my"}},
	{tag: TagCommerce, weight: 1.0, phrases: []string{"buy", "purchase", "subscription", "subscribe", "order", "pay", "payment"}},
	{tag: TagKnowledge, weight: 1.5, phrases: []string{"how do i", "how do you", "what is", "what are", "why does", "why is", "tell me about"}},
	{tag: TagKnowledge, weight: 1.0, phrases: []string{"explain", "learn", "teach"}},
}

// secondaryThreshold is the minimum vote for a non-primary tag to be reported.
const secondaryThreshold = 1.0

// Classifier matches text against the static rule table. It is stateless and
// safe for concurrent use.
type Classifier struct{}

// NewClassifier returns a rule-based classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify maps text to a primary intent plus any secondary intents. Empty or
// entirely non-matching input returns the default CONTENT intent with
// Unclassified set; callers must not treat that as a genuine classification.
func (c *Classifier) Classify(text string) Result {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return unclassified()
	}

	tokens := tokenSet(normalized)
	votes := make(map[Tag]float64)
	order := make(map[Tag]int)

	for i, r := range rules {
		for _, phrase := range r.phrases {
			if !phraseMatches(normalized, tokens, phrase) {
				continue
			}
			votes[r.tag] += r.weight
			if _, seen := order[r.tag]; !seen {
				order[r.tag] = i
			}
		}
	}
	if len(votes) == 0 {
		return unclassified()
	}

	tags := make([]Tag, 0, len(votes))
	total := 0.0
	for tag, vote := range votes {
		tags = append(tags, tag)
		total += vote
	}
	sort.Slice(tags, func(i, j int) bool {
		if votes[tags[i]] != votes[tags[j]] {
			return votes[tags[i]] > votes[tags[j]]
		}
		return order[tags[i]] < order[tags[j]]
	})

	primary := tags[0]
	var secondary []Tag
	for _, tag := range tags[1:] {
		if votes[tag] >= secondaryThreshold {
			secondary = append(secondary, tag)
		}
	}

	return Result{
		Primary:    primary,
		Secondary:  secondary,
		Confidence: votes[primary] / total,
	}
}

func unclassified() Result {
	return Result{
		Primary:      TagContent,
		Confidence:   DefaultConfidence,
		Unclassified: true,
	}
}

func phraseMatches(normalized string, tokens map[string]bool, phrase string) bool {
	if strings.ContainsRune(phrase, ' ') {
		return strings.Contains(normalized, phrase)
	}
	return tokens[phrase]
}

func tokenSet(normalized string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	}) {
		set[strings.Trim(tok, "'")] = true
	}
	return set
}
