// Package agents routes classified events to specialized downstream agents
// behind per-destination circuit breakers.
package agents

import (
	"time"

	"github.com/brightbuddy-ai/platform/internal/intent"
)

// Ref identifies a downstream agent plus its dispatch metadata.
type Ref struct {
	Name            string
	Timeout         time.Duration
	MaxRetries      int
	FallbackAllowed bool
}

// Decision is a resolved route for one classified event.
type Decision struct {
	Intent      intent.Tag
	Destination Ref
}

// Registry is the static mapping from intent to destination agent.
type Registry struct {
	routes   map[intent.Tag]Ref
	fallback Ref
}

// NewRegistry builds the default agent table. defaultTimeout bounds any route
// without an explicit timeout; zero means 5s.
func NewRegistry(defaultTimeout time.Duration) *Registry {
	if defaultTimeout <= 0 {
		defaultTimeout = 5 * time.Second
	}
	content := Ref{Name: "content-agent", Timeout: 8 * time.Second, MaxRetries: 1}
	return &Registry{
		fallback: content,
		routes: map[intent.Tag]Ref{
			intent.TagContent:   content,
			intent.TagAuth:      {Name: "auth-agent", Timeout: 3 * time.Second},
			intent.TagEmotion:   {Name: "emotion-agent", Timeout: defaultTimeout},
			intent.TagSmartHome: {Name: "smarthome-agent", Timeout: 3 * time.Second, MaxRetries: 1, FallbackAllowed: true},
			intent.TagCommerce:  {Name: "commerce-agent", Timeout: defaultTimeout},
			intent.TagKnowledge: {Name: "knowledge-agent", Timeout: defaultTimeout, MaxRetries: 1, FallbackAllowed: true},
		},
	}
}

// Decide resolves the destination for a tag. Unknown tags route to the
// generic content agent.
func (r *Registry) Decide(tag intent.Tag) Decision {
	ref, ok := r.routes[tag]
	if !ok {
		ref = r.fallback
	}
	return Decision{Intent: tag, Destination: ref}
}

// Fallback returns the designated secondary destination used when a primary
// dispatch fails and the route permits a fallback hop.
func (r *Registry) Fallback() Ref {
	return r.fallback
}

// Agents lists every registered destination name, fallback included.
func (r *Registry) Agents() []string {
	seen := map[string]bool{r.fallback.Name: true}
	names := []string{r.fallback.Name}
	for _, ref := range r.routes {
		if !seen[ref.Name] {
			seen[ref.Name] = true
			names = append(names, ref.Name)
		}
	}
	return names
}
