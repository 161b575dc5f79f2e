// Package metrics exports search progress as Prometheus metrics
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lixenwraith/gamatch/genetic"
)

const namespace = "gamatch"

// Recorder publishes per-run engine statistics
type Recorder struct {
	generations *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	best        *prometheus.GaugeVec
	mean        *prometheus.GaugeVec
	sentinels   *prometheus.GaugeVec
}

// NewRecorder creates the collectors and registers them
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generations advanced per run.",
		}, []string{"run"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Fitness evaluations per run, bounds sentinels included.",
		}, []string{"run"}),
		best: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_fitness",
			Help:      "Fitness of the best gene in the current population.",
		}, []string{"run"}),
		mean: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mean_fitness",
			Help:      "Mean fitness of the current population.",
		}, []string{"run"}),
		sentinels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sentinel_individuals",
			Help:      "Genes of the current population sitting outside the valid search area.",
		}, []string{"run"}),
	}

	for _, c := range []prometheus.Collector{r.generations, r.evaluations, r.best, r.mean, r.sentinels} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe records the state after one or more generations
// generations and evaluations are deltas since the previous observation
func (r *Recorder) Observe(run string, s genetic.Stats, generations int, evaluations uint64) {
	if r == nil {
		return
	}
	r.generations.WithLabelValues(run).Add(float64(generations))
	r.evaluations.WithLabelValues(run).Add(float64(evaluations))
	r.best.WithLabelValues(run).Set(s.Best.Fitness)
	r.mean.WithLabelValues(run).Set(s.MeanScore)
	r.sentinels.WithLabelValues(run).Set(float64(s.Sentinels))
}

// Forget drops all series of a run
func (r *Recorder) Forget(run string) {
	if r == nil {
		return
	}
	r.generations.DeleteLabelValues(run)
	r.evaluations.DeleteLabelValues(run)
	r.best.DeleteLabelValues(run)
	r.mean.DeleteLabelValues(run)
	r.sentinels.DeleteLabelValues(run)
}

// Handler serves the given gatherer in the Prometheus text format
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
