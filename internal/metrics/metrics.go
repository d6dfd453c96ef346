// Package metrics maintains process counters published through expvar.
package metrics

import (
	"expvar"
	"runtime"
)

// Metrics holds the counters. expvar makes them safe for concurrent use.
type Metrics struct {
	goroutines *expvar.Int
	requests   *expvar.Int
	errors     *expvar.Int
	panics     *expvar.Int
}

func New() *Metrics {
	return &Metrics{
		goroutines: expvar.NewInt("goroutines"),
		requests:   expvar.NewInt("requests"),
		errors:     expvar.NewInt("errors"),
		panics:     expvar.NewInt("panics"),
	}
}

func (m *Metrics) SetGoroutines() int {
	gs := runtime.NumGoroutine()
	m.goroutines.Set(int64(gs))
	return gs
}

func (m *Metrics) AddRequest() int {
	m.requests.Add(1)
	return int(m.requests.Value())
}

func (m *Metrics) AddError() int {
	m.errors.Add(1)
	return int(m.errors.Value())
}

func (m *Metrics) AddPanic() int {
	m.panics.Add(1)
	return int(m.panics.Value())
}
