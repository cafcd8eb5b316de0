// Package natusmetrics exposes Prometheus counters for
// the engine loader, the value façade's Context lifecycle, and the
// require subsystem's cache and hook chain.
package natusmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every metric Natus emits. A nil *Registry is safe to
// call methods on; every method is a no-op in that case, so components
// can embed an optional *Registry without nil-checking at every call
// site.
type Registry struct {
	EnginesLoaded      prometheus.Counter
	EngineLoadFailures *prometheus.CounterVec
	ContextsCreated    prometheus.Counter
	ContextsDestroyed  prometheus.Counter
	ValuesAllocated    prometheus.Counter

	RequireHookInvocations *prometheus.CounterVec
	RequireCacheHits       prometheus.Counter
	RequireCacheMisses     prometheus.Counter
	NativeLoaderOutcomes   *prometheus.CounterVec
}

// NewRegistry constructs and registers every Natus metric against reg.
// Pass prometheus.NewRegistry() for an isolated registry in tests, or
// prometheus.DefaultRegisterer in production.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		EnginesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "natus",
			Name:      "engines_loaded_total",
			Help:      "Number of backend engine plugins successfully loaded.",
		}),
		EngineLoadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "natus",
			Name:      "engine_load_failures_total",
			Help:      "Number of backend engine plugin load attempts that failed, by reason.",
		}, []string{"reason"}),
		ContextsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "natus",
			Name:      "contexts_created_total",
			Help:      "Number of backend contexts (globals) created.",
		}),
		ContextsDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "natus",
			Name:      "contexts_destroyed_total",
			Help:      "Number of backend contexts torn down.",
		}),
		ValuesAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "natus",
			Name:      "values_allocated_total",
			Help:      "Number of façade Value handles allocated.",
		}),
		RequireHookInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "natus",
			Name:      "require_hook_invocations_total",
			Help:      "Number of require hook invocations, by step.",
		}, []string{"step"}),
		RequireCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "natus",
			Name:      "require_cache_hits_total",
			Help:      "Number of require() calls served from the module cache.",
		}),
		RequireCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "natus",
			Name:      "require_cache_misses_total",
			Help:      "Number of require() calls that missed the module cache.",
		}),
		NativeLoaderOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "natus",
			Name:      "native_loader_outcomes_total",
			Help:      "Outcomes of the native loader hook's candidate probing, by kind and outcome.",
		}, []string{"candidate_kind", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			r.EnginesLoaded, r.EngineLoadFailures,
			r.ContextsCreated, r.ContextsDestroyed, r.ValuesAllocated,
			r.RequireHookInvocations, r.RequireCacheHits, r.RequireCacheMisses,
			r.NativeLoaderOutcomes,
		)
	}
	return r
}

func (r *Registry) incEnginesLoaded() {
	if r == nil {
		return
	}
	r.EnginesLoaded.Inc()
}

func (r *Registry) incEngineLoadFailure(reason string) {
	if r == nil {
		return
	}
	r.EngineLoadFailures.WithLabelValues(reason).Inc()
}

func (r *Registry) incContextsCreated() {
	if r == nil {
		return
	}
	r.ContextsCreated.Inc()
}

func (r *Registry) incContextsDestroyed() {
	if r == nil {
		return
	}
	r.ContextsDestroyed.Inc()
}

func (r *Registry) incValuesAllocated() {
	if r == nil {
		return
	}
	r.ValuesAllocated.Inc()
}

// EngineLoadedEvent records a successful backend plugin load.
func (r *Registry) EngineLoadedEvent() { r.incEnginesLoaded() }

// EngineLoadFailed records a failed backend plugin load attempt.
func (r *Registry) EngineLoadFailed(reason string) { r.incEngineLoadFailure(reason) }

// ContextCreated records a new Context (global) coming into existence.
func (r *Registry) ContextCreated() { r.incContextsCreated() }

// ContextDestroyed records a Context being torn down.
func (r *Registry) ContextDestroyed() { r.incContextsDestroyed() }

// ValueAllocated records a new façade Value handle.
func (r *Registry) ValueAllocated() { r.incValuesAllocated() }

// RequireHookInvoked records one hook-chain step execution.
func (r *Registry) RequireHookInvoked(step string) {
	if r == nil {
		return
	}
	r.RequireHookInvocations.WithLabelValues(step).Inc()
}

// RequireCacheHit records a require() call served from cache.
func (r *Registry) RequireCacheHit() {
	if r == nil {
		return
	}
	r.RequireCacheHits.Inc()
}

// RequireCacheMiss records a require() call that missed the cache.
func (r *Registry) RequireCacheMiss() {
	if r == nil {
		return
	}
	r.RequireCacheMisses.Inc()
}

// NativeLoaderOutcome records one native-loader candidate probe outcome.
func (r *Registry) NativeLoaderOutcome(candidateKind, outcome string) {
	if r == nil {
		return
	}
	r.NativeLoaderOutcomes.WithLabelValues(candidateKind, outcome).Inc()
}
