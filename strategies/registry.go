// Package strategies holds the registry of pluggable strategies and the
// builtin implementations shipped with the simulator.
package strategies

import (
	"fmt"
	"sort"

	"backsim/internal/engine"
	"backsim/strategies/bollinger"
	"backsim/strategies/macross"
	"backsim/strategies/rsi"
)

// Factory builds a strategy from run-configuration parameters. Parameter
// validation happens here, at configuration time, so a bad run config
// fails before the engine is constructed.
type Factory func(params map[string]float64) (engine.Strategy, error)

// Registry maps strategy identifiers to factories.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given identifier, replacing any
// previous registration.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Resolve builds the named strategy with the given parameters. Unknown
// identifiers and invalid parameters are configuration errors.
func (r *Registry) Resolve(name string, params map[string]float64) (engine.Strategy, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q: %w", name, engine.ConfigErr)
	}
	s, err := f(params)
	if err != nil {
		return nil, fmt.Errorf("strategy %q: %w: %v", name, engine.ConfigErr, err)
	}
	return s, nil
}

// List returns all registered identifiers, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a registry preloaded with the shipped strategies.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register("ma-cross", func(params map[string]float64) (engine.Strategy, error) {
		return macross.New(
			intParam(params, "fast", 10),
			intParam(params, "slow", 20),
		)
	})
	r.Register("rsi", func(params map[string]float64) (engine.Strategy, error) {
		return rsi.New(
			intParam(params, "period", 14),
			floatParam(params, "oversold", 30),
			floatParam(params, "overbought", 70),
		)
	})
	r.Register("bollinger", func(params map[string]float64) (engine.Strategy, error) {
		return bollinger.New(
			intParam(params, "period", 20),
			floatParam(params, "stddev", 2),
		)
	})
	return r
}

func intParam(params map[string]float64, key string, def int) int {
	if v, ok := params[key]; ok {
		return int(v)
	}
	return def
}

func floatParam(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}
