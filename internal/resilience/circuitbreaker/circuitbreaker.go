// Package circuitbreaker provides circuit breakers for the bot's external collaborators.
// It uses the github.com/sony/gobreaker library.
package circuitbreaker

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// Collaborator names used as breaker names and health labels.
const (
	NameLLM    = "llm"
	NameCMS    = "cms"
	NameSocial = "social"
)

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name is the circuit breaker name for logging and health reporting
	Name string

	// MaxRequests is the maximum number of requests allowed in half-open state
	MaxRequests uint32

	// Interval is the cyclic period of the closed state to clear counts.
	// Zero keeps counts until the state changes.
	Interval time.Duration

	// Timeout is how long to wait in open state before allowing a probe
	Timeout time.Duration

	// ConsecutiveFailures trips the circuit after this many failures in a row.
	// When zero, the ratio-based FailureThreshold/MinRequests rule applies instead.
	ConsecutiveFailures uint32

	// FailureThreshold is the failure ratio threshold to trip the circuit
	FailureThreshold float64

	// MinRequests is the minimum number of requests before calculating failure ratio
	MinRequests uint32
}

// collaboratorConfig suits a collaborator called a handful of times per day:
// three failed cycles in a row open the circuit, and the next day's call is the probe.
func collaboratorConfig(name string) Config {
	return Config{
		Name:                name,
		MaxRequests:         1,
		Interval:            0,
		Timeout:             time.Hour,
		ConsecutiveFailures: 3,
	}
}

// LLMConfig returns the breaker configuration for the language-model API.
func LLMConfig() Config { return collaboratorConfig(NameLLM) }

// CMSConfig returns the breaker configuration for the Ghost Admin API.
func CMSConfig() Config { return collaboratorConfig(NameCMS) }

// SocialConfig returns the breaker configuration for the X API.
func SocialConfig() Config { return collaboratorConfig(NameSocial) }

// CircuitBreaker wraps gobreaker.CircuitBreaker.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a new circuit breaker with the given configuration.
func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.ConsecutiveFailures > 0 {
				return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
			}
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Do runs fn through the circuit breaker.
// If the circuit is open, it returns gobreaker.ErrOpenState without calling fn.
func Do[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	value, _ := result.(T)
	return value, nil
}

func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen returns true if the circuit breaker is in the open state.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}

// Registry collects breakers for health reporting.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
}

func NewRegistry() *Registry {
	return &Registry{breakers: make(map[string]*CircuitBreaker)}
}

// Register adds cb under its name, replacing any breaker with the same name.
func (r *Registry) Register(cb *CircuitBreaker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakers[cb.Name()] = cb
}

// States returns each breaker's state ("closed", "half-open", "open") by name.
func (r *Registry) States() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	states := make(map[string]string, len(r.breakers))
	for name, cb := range r.breakers {
		states[name] = cb.State().String()
	}
	return states
}

// Open returns the sorted names of breakers currently open.
func (r *Registry) Open() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var open []string
	for name, cb := range r.breakers {
		if cb.IsOpen() {
			open = append(open, name)
		}
	}
	sort.Strings(open)
	return open
}
