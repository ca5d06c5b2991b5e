package render

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/delaneyj/flowdom/pkg/reconcile"
	"github.com/delaneyj/flowdom/pkg/scope"
)

// Metrics counts renders, scope churn and patch operations. A nil *Metrics
// records nothing.
type Metrics struct {
	renders *prometheus.CounterVec
	scopes  *prometheus.CounterVec
	patches *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowdom",
			Name:      "block_renders_total",
			Help:      "Number of times a control-flow block rendered new content.",
		}, []string{"block"}),
		scopes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowdom",
			Name:      "scopes_total",
			Help:      "Number of scopes created and destroyed.",
		}, []string{"event"}),
		patches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowdom",
			Name:      "patch_operations_total",
			Help:      "Structural operations performed by the reconciler.",
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.renders, m.scopes, m.patches)
	}
	return m
}

func (m *Metrics) rendered(block string) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(block).Inc()
}

func (m *Metrics) patched(s reconcile.Stats) {
	if m == nil {
		return
	}
	m.patches.WithLabelValues("insert").Add(float64(s.Inserts))
	m.patches.WithLabelValues("remove").Add(float64(s.Removes))
	m.patches.WithLabelValues("replace").Add(float64(s.Replaces))
}

// Created implements scope.Tracer.
func (m *Metrics) Created(*scope.Node) {
	if m == nil {
		return
	}
	m.scopes.WithLabelValues("created").Inc()
}

// Destroyed implements scope.Tracer.
func (m *Metrics) Destroyed(*scope.Node) {
	if m == nil {
		return
	}
	m.scopes.WithLabelValues("destroyed").Inc()
}

// Renders returns the counter for one block kind.
func (m *Metrics) Renders(block string) prometheus.Counter {
	return m.renders.WithLabelValues(block)
}

// Scopes returns the counter for "created" or "destroyed".
func (m *Metrics) Scopes(event string) prometheus.Counter {
	return m.scopes.WithLabelValues(event)
}

// Patches returns the counter for "insert", "remove" or "replace".
func (m *Metrics) Patches(op string) prometheus.Counter {
	return m.patches.WithLabelValues(op)
}
