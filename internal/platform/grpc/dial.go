// Package grpc provides shared client connection helpers for blog gRPC peers.
package grpc

import (
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// DefaultClientDialOptions returns standard dial options for blog clients.
// The OTel stats handler propagates trace context on every outbound call when
// a TracerProvider is registered, and WaitForReady holds calls until the
// connection is up instead of failing while the server is still booting.
func DefaultClientDialOptions() []gogrpc.DialOption {
	return []gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithDefaultCallOptions(gogrpc.WaitForReady(true)),
		gogrpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
}

// Dial opens a client connection to addr. When no options are given the
// standard blog client options apply. The connection is lazy; callers bound
// individual calls with their own contexts.
func Dial(addr string, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("gRPC address is required")
	}
	if len(opts) == 0 {
		opts = DefaultClientDialOptions()
	}
	conn, err := gogrpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	return conn, nil
}
