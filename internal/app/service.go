package app

import (
	"postcraft/internal/metrics"
	"postcraft/pkg/config"
)

type Service struct {
	cfg      *config.Config
	pipeline *Pipeline
	metrics  *metrics.PrometheusCollector
}

type ServiceOptions struct {
	Config   *config.Config
	Pipeline *Pipeline
	Metrics  *metrics.PrometheusCollector
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		cfg:      opts.Config,
		pipeline: opts.Pipeline,
		metrics:  opts.Metrics,
	}
}

func (s *Service) Config() *config.Config {
	return s.cfg
}

func (s *Service) Pipeline() *Pipeline {
	return s.pipeline
}

func (s *Service) Metrics() *metrics.PrometheusCollector {
	return s.metrics
}
