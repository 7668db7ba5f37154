// Package telemetry wires OpenTelemetry tracing and metrics for devflow.
//
// Spans and metrics are exported over OTLP (gRPC or HTTP/protobuf) to a
// collector. Telemetry is off by default; enable it in config.yaml:
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  protocol: grpc
//	  sample_rate: 1.0
//
// Initialization failures degrade to no-op providers rather than failing
// startup. Health reports why.
//
// Tests use NewTestTelemetry:
//
//	tt := telemetry.NewTestTelemetry()
//	_, span := tt.Tracer("test").Start(ctx, "collect.git")
//	span.End()
//	tt.AssertSpanExists(t, "collect.git")
package telemetry
