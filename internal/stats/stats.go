package stats

import (
	"encoding/json"
	"expvar"
	"net/http"
	"time"
)

// Metric names registered by the live server.
const (
	ActiveConnections = "ActiveConnections"
	ChatMessages      = "ChatMessages"
	BidsAccepted      = "BidsAccepted"
	BidsRejected      = "BidsRejected"
)

type StatsProvider interface {
	Incr(name string)
	Decr(name string)
	RegisterMetric(name string)
	Run()
}

// StatsUpdater aggregates counter deltas through a channel so callers on
// the hot path never block on expvar.
type StatsUpdater struct {
	vars   *expvar.Map
	deltas chan statDelta
}

type statDelta struct {
	name  string
	value int64
}

func NewStatsUpdater(mux *http.ServeMux) *StatsUpdater {
	su := &StatsUpdater{
		vars:   expvar.NewMap("skilllink-live-stats"),
		deltas: make(chan statDelta, 512),
	}

	startTime := time.Now()
	su.vars.Set("UptimeMillis", expvar.Func(func() any {
		return time.Since(startTime).Milliseconds()
	}))

	mux.HandleFunc("GET /debug/vars", su.expvarHandler)
	return su
}

func (su *StatsUpdater) expvarHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	data := make(map[string]any)
	su.vars.Do(func(kv expvar.KeyValue) {
		var value any
		json.Unmarshal([]byte(kv.Value.String()), &value)
		data[kv.Key] = value
	})

	json.NewEncoder(w).Encode(data)
}

// RegisterMetric publishes a counter. Deltas for unregistered names are
// discarded.
func (su *StatsUpdater) RegisterMetric(name string) {
	su.vars.Set(name, new(expvar.Int))
}

func (su *StatsUpdater) Incr(name string) {
	su.deltas <- statDelta{name: name, value: 1}
}

func (su *StatsUpdater) Decr(name string) {
	su.deltas <- statDelta{name: name, value: -1}
}

func (su *StatsUpdater) Run() {
	go su.apply()
}

func (su *StatsUpdater) apply() {
	for d := range su.deltas {
		counter, ok := su.vars.Get(d.name).(*expvar.Int)
		if !ok {
			continue
		}
		counter.Add(d.value)
	}
}

// Stop closes the delta channel, ending the apply loop started by Run.
func (su *StatsUpdater) Stop() {
	close(su.deltas)
}
