package agents

import (
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/brightbuddy-ai/platform/internal/observability/metrics"
	"github.com/brightbuddy-ai/platform/pkg/logging"
)

// Default circuit breaker settings.
const (
	defaultFailureThreshold uint32        = 3
	defaultRecoveryTimeout  time.Duration = 30 * time.Second
)

// BreakerConfig controls per-agent circuit breaker behavior.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before the
	// circuit opens.
	FailureThreshold uint32
	// RecoveryTimeout is how long the circuit stays open before admitting a
	// single half-open trial call.
	RecoveryTimeout time.Duration
}

// Breakers maintains exactly one circuit breaker per destination agent.
// The half-open admission check-and-transition is atomic inside gobreaker,
// so at most one trial call is in flight per agent.
type Breakers struct {
	mu      sync.Mutex
	byAgent map[string]*gobreaker.TwoStepCircuitBreaker[struct{}]
	cfg     BreakerConfig
	metrics *metrics.RouterMetrics
	logger  *logging.Logger
}

// NewBreakers creates the breaker registry. Zero config fields fall back to
// 3 failures / 30s recovery.
func NewBreakers(cfg BreakerConfig, m *metrics.RouterMetrics, logger *logging.Logger) *Breakers {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = defaultRecoveryTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Breakers{
		byAgent: make(map[string]*gobreaker.TwoStepCircuitBreaker[struct{}]),
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// errCallFailed feeds failed outcomes into gobreaker's error-based callback.
var errCallFailed = errors.New("agents: agent call failed")

// Allow reports whether a call to agent may proceed. On admission it returns
// a done callback that must be invoked exactly once with the call outcome.
func (b *Breakers) Allow(agent string) (done func(success bool), ok bool) {
	cbDone, err := b.breaker(agent).Allow()
	if err != nil {
		return nil, false
	}
	return func(success bool) {
		if success {
			cbDone(nil)
			return
		}
		cbDone(errCallFailed)
	}, true
}

// State returns the current circuit state for agent.
func (b *Breakers) State(agent string) gobreaker.State {
	return b.breaker(agent).State()
}

// Counts returns the current failure/success counters for agent.
func (b *Breakers) Counts(agent string) gobreaker.Counts {
	return b.breaker(agent).Counts()
}

func (b *Breakers) breaker(agent string) *gobreaker.TwoStepCircuitBreaker[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.byAgent[agent]; ok {
		return cb
	}
	cb := gobreaker.NewTwoStepCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        agent,
		MaxRequests: 1, // single half-open trial
		Timeout:     b.cfg.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= b.cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("circuit breaker state change",
				"agent", name,
				"from", from.String(),
				"to", to.String(),
			)
			b.metrics.ObserveBreakerTransition(name, to.String())
		},
	})
	b.byAgent[agent] = cb
	return cb
}
