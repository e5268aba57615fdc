// Package observe provides observability primitives for the proxy service.
//
// It is a pure instrumentation library: structured JSON logging, OpenTelemetry
// tracing and metrics, and HTTP middleware that ties the three together per
// request. No transport or business logic lives here.
package observe
