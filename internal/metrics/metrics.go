/*
Copyright 2025 Guided Traffic.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
)

const namespace = "secretgen"

// Recorder records generation metrics
type Recorder interface {
	// Generated counts a successfully generated value
	Generated(algorithm string)
	// GenerationFailed counts a failed generation
	GenerationFailed(algorithm string)
	// Rotated counts a rotated Secret
	Rotated()
}

// PrometheusRecorder implements Recorder with Prometheus counters
type PrometheusRecorder struct {
	generated *prometheus.CounterVec
	failed    *prometheus.CounterVec
	rotations prometheus.Counter
}

// NewPrometheusRecorder creates the counters and registers them with registerer
func NewPrometheusRecorder(registerer prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generated_total",
			Help:      "Number of generated secret values by algorithm.",
		}, []string{"algorithm"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_errors_total",
			Help:      "Number of failed secret generations by algorithm.",
		}, []string{"algorithm"}),
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rotations_total",
			Help:      "Number of Secrets whose values were rotated.",
		}),
	}

	for _, c := range []prometheus.Collector{r.generated, r.failed, r.rotations} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// NewControllerRecorder registers the counters with the controller-runtime metrics registry
func NewControllerRecorder() (*PrometheusRecorder, error) {
	return NewPrometheusRecorder(ctrlmetrics.Registry)
}

// Generated counts a successfully generated value
func (r *PrometheusRecorder) Generated(algorithm string) {
	r.generated.WithLabelValues(algorithm).Inc()
}

// GenerationFailed counts a failed generation
func (r *PrometheusRecorder) GenerationFailed(algorithm string) {
	r.failed.WithLabelValues(algorithm).Inc()
}

// Rotated counts a rotated Secret
func (r *PrometheusRecorder) Rotated() {
	r.rotations.Inc()
}

// NoopRecorder discards all metrics
type NoopRecorder struct{}

// Generated does nothing
func (NoopRecorder) Generated(string) {}

// GenerationFailed does nothing
func (NoopRecorder) GenerationFailed(string) {}

// Rotated does nothing
func (NoopRecorder) Rotated() {}
