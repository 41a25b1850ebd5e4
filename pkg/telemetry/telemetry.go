// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package telemetry builds the OpenTelemetry meter and tracer providers that
// the key manager, the proof validator and the grant cleanup report through.
// Metrics go to an OTLP endpoint, a Prometheus scrape handler, or both.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/stacklok/tokencore/pkg/logger"
	"github.com/stacklok/tokencore/pkg/versions"
)

// DefaultServiceName is reported as service.name when none is configured.
const DefaultServiceName = "tokencore"

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// Endpoint is the OTLP/HTTP endpoint as host:port.
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`

	ServiceName    string `yaml:"service_name,omitempty" json:"service_name,omitempty"`
	ServiceVersion string `yaml:"service_version,omitempty" json:"service_version,omitempty"`

	// TracingEnabled exports spans to Endpoint.
	TracingEnabled bool `yaml:"tracing_enabled" json:"tracing_enabled"`

	// MetricsEnabled exports metrics to Endpoint.
	MetricsEnabled bool `yaml:"metrics_enabled" json:"metrics_enabled"`

	// SamplingRate is the trace sampling ratio (0.0-1.0).
	SamplingRate float64 `yaml:"sampling_rate" json:"sampling_rate"`

	// Headers are sent with every export request, usually for authentication.
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`

	// Insecure uses HTTP instead of HTTPS for the OTLP endpoint.
	Insecure bool `yaml:"insecure" json:"insecure"`

	// PrometheusEnabled builds a scrape handler over the same meter provider.
	PrometheusEnabled bool `yaml:"prometheus_enabled" json:"prometheus_enabled"`
}

// DefaultConfig returns a configuration that exports nothing.
func DefaultConfig() Config {
	return Config{
		ServiceName:  DefaultServiceName,
		SamplingRate: 0.05,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("sampling rate must be between 0.0 and 1.0, got %v", c.SamplingRate)
	}
	if c.Endpoint == "" && (c.TracingEnabled || c.MetricsEnabled) {
		return errors.New("an OTLP endpoint is required when tracing or metrics are enabled")
	}
	if c.Endpoint != "" && !c.TracingEnabled && !c.MetricsEnabled {
		return errors.New("OTLP endpoint is set but neither tracing nor metrics are enabled")
	}
	return nil
}

func (c Config) exportsMetrics() bool {
	return (c.Endpoint != "" && c.MetricsEnabled) || c.PrometheusEnabled
}

// Provider carries the meter and tracer providers built from a Config.
type Provider struct {
	meterProvider     metric.MeterProvider
	tracerProvider    trace.TracerProvider
	prometheusHandler http.Handler
	shutdownFuncs     []func(context.Context) error
}

// NewProvider builds the providers described by config. With nothing enabled
// it returns no-op providers.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	p := &Provider{
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
	}
	if !config.exportsMetrics() && !config.TracingEnabled {
		return p, nil
	}

	res, err := newResource(ctx, config)
	if err != nil {
		return nil, err
	}

	if config.exportsMetrics() {
		if err := p.buildMeterProvider(ctx, config, res); err != nil {
			return nil, err
		}
	}

	if config.TracingEnabled {
		tp, shutdown, err := newTracerProvider(ctx, config, res)
		if err != nil {
			_ = p.Shutdown(ctx)
			return nil, err
		}
		p.tracerProvider = tp
		p.shutdownFuncs = append(p.shutdownFuncs, shutdown)
	}

	logger.Debugw("telemetry enabled",
		"endpoint", config.Endpoint,
		"tracing", config.TracingEnabled,
		"metrics", config.MetricsEnabled,
		"prometheus", config.PrometheusEnabled)
	return p, nil
}

func (p *Provider) buildMeterProvider(ctx context.Context, config Config, res *resource.Resource) error {
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if config.Endpoint != "" && config.MetricsEnabled {
		reader, err := newOTLPMetricReader(ctx, config)
		if err != nil {
			return err
		}
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	if config.PrometheusEnabled {
		reader, handler, err := newPrometheusReader()
		if err != nil {
			return err
		}
		opts = append(opts, sdkmetric.WithReader(reader))
		p.prometheusHandler = handler
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	p.meterProvider = mp
	p.shutdownFuncs = append(p.shutdownFuncs, mp.Shutdown)
	return nil
}

func newResource(ctx context.Context, config Config) (*resource.Resource, error) {
	name := config.ServiceName
	if name == "" {
		name = DefaultServiceName
	}
	version := config.ServiceVersion
	if version == "" {
		version = versions.GetVersionInfo().Version
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(name),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry resource: %w", err)
	}
	return res, nil
}

// MeterProvider returns the meter provider.
func (p *Provider) MeterProvider() metric.MeterProvider { return p.meterProvider }

// TracerProvider returns the tracer provider.
func (p *Provider) TracerProvider() trace.TracerProvider { return p.tracerProvider }

// PrometheusHandler returns the scrape handler, or nil when Prometheus is off.
func (p *Provider) PrometheusHandler() http.Handler { return p.prometheusHandler }

// Shutdown flushes and stops every exporter in reverse creation order.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(p.shutdownFuncs) - 1; i >= 0; i-- {
		if err := p.shutdownFuncs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	p.shutdownFuncs = nil
	if len(errs) > 0 {
		return fmt.Errorf("failed to shut down telemetry: %w", errors.Join(errs...))
	}
	return nil
}
