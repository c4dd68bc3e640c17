// Package tracing configures OpenCensus tracing and its Jaeger exporter.
package tracing

import (
	"contrib.go.opencensus.io/exporter/jaeger"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

var log = logrus.WithField("prefix", "tracing")

// Config of the tracing exporter.
type Config struct {
	ServiceName    string
	Endpoint       string
	SampleFraction float64
	Enable         bool
}

// Setup applies the sampler of cfg and registers a Jaeger exporter when
// tracing is enabled. It returns the exporter so callers can flush it on
// shutdown, nil when tracing is disabled.
func Setup(cfg *Config) (*jaeger.Exporter, error) {
	if !cfg.Enable {
		trace.ApplyConfig(trace.Config{DefaultSampler: trace.NeverSample()})
		return nil, nil
	}
	if cfg.ServiceName == "" {
		return nil, errors.New("tracing service name cannot be empty")
	}
	if cfg.SampleFraction < 0 || cfg.SampleFraction > 1 {
		return nil, errors.Errorf("sample fraction %f is not in [0, 1]", cfg.SampleFraction)
	}

	trace.ApplyConfig(trace.Config{DefaultSampler: trace.ProbabilitySampler(cfg.SampleFraction)})

	log.WithField("endpoint", cfg.Endpoint).Info("Starting Jaeger exporter")
	exporter, err := jaeger.NewExporter(jaeger.Options{
		CollectorEndpoint: cfg.Endpoint,
		Process: jaeger.Process{
			ServiceName: cfg.ServiceName,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create jaeger exporter")
	}
	trace.RegisterExporter(exporter)
	return exporter, nil
}
