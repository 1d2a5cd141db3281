package config

type TelemetryConfig interface {
	GetOTLPEndpoint() string
	GetOTLPInsecure() bool
	GetServiceName() string
}

type Telemetry struct{}

var _ TelemetryConfig = Telemetry{}

func (Telemetry) GetOTLPEndpoint() string {
	return GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
}

func (Telemetry) GetOTLPInsecure() bool {
	return GetEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false)
}

func (Telemetry) GetServiceName() string {
	return GetEnv("OTEL_SERVICE_NAME", "condo-console")
}
