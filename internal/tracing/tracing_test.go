package tracing

import (
	"context"
	"testing"
	"time"
)

func TestNewProviderDisabled(t *testing.T) {
	provider, err := NewProvider(Config{
		ServiceName: "discovery-api",
		Enabled:     false,
	})
	if err != nil {
		t.Fatalf("NewProvider(): %v", err)
	}
	if provider.IsEnabled() {
		t.Error("IsEnabled() = true for disabled config")
	}

	// Shutdown on a disabled provider is a no-op.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown(): %v", err)
	}
}

func TestNewProviderValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing service name", Config{Enabled: true, SamplingRate: 0.1}},
		{"sampling rate too high", Config{Enabled: true, ServiceName: "discovery-api", SamplingRate: 1.5}},
		{"sampling rate negative", Config{Enabled: true, ServiceName: "discovery-api", SamplingRate: -0.1}},
		{"unknown exporter", Config{Enabled: true, ServiceName: "discovery-api", SamplingRate: 0.5, ExporterType: "jaeger"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProvider(tt.cfg); err == nil {
				t.Error("NewProvider() succeeded with invalid config")
			}
		})
	}
}

func TestTracerFromDisabledProvider(t *testing.T) {
	provider, err := NewProvider(Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider(): %v", err)
	}
	if provider.Tracer("discovery") == nil {
		t.Error("Tracer() = nil")
	}
}
