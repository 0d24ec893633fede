// Package timeouts defines shared timeout constants used across the service.
// Centralizing these values prevents drift between the transport boundaries
// and makes the durations discoverable.
package timeouts

import "time"

// GRPCRequest caps the time allowed for a single gRPC request issued by the
// CLI client.
const GRPCRequest = 5 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long each listener waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
