package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/condo-console/internal/telemetry"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type fakeTelemetryConfig struct {
	endpoint string
	insecure bool
}

func (f fakeTelemetryConfig) GetOTLPEndpoint() string { return f.endpoint }
func (f fakeTelemetryConfig) GetOTLPInsecure() bool   { return f.insecure }
func (f fakeTelemetryConfig) GetServiceName() string  { return "condo-console-test" }

func TestSetup_NoEndpoint(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown := telemetry.Setup(context.Background(), fakeTelemetryConfig{})
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
	require.Equal(t, before, otel.GetTracerProvider())
}

func TestSetup_WithEndpoint(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	// The gRPC exporter dials lazily so no collector is needed
	shutdown := telemetry.Setup(context.Background(), fakeTelemetryConfig{endpoint: "localhost:4317", insecure: true})
	require.NotNil(t, shutdown)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(ctx)
}
