// Package server parses blog server flags and launches the service.
package server

import (
	"context"
	"flag"

	app "github.com/inkstream/inkstream/internal/blog/app"
	entrypoint "github.com/inkstream/inkstream/internal/platform/cmd"
)

// Config holds blog server command configuration. The signing secret has no
// flag on purpose so it never shows up in process listings.
type Config struct {
	GRPCPort  int    `env:"INKSTREAM_GRPC_PORT" envDefault:"50051"`
	HTTPAddr  string `env:"INKSTREAM_HTTP_ADDR" envDefault:":8080"`
	DBPath    string `env:"INKSTREAM_DB_PATH" envDefault:"data/blog.db"`
	JWTSecret string `env:"INKSTREAM_JWT_SECRET"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, "The blog gRPC server port")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The blog HTTP server address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database file")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the blog service with its gRPC and HTTP listeners.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBlog, func(context.Context) error {
		return app.Run(ctx, app.Config{
			GRPCPort:  cfg.GRPCPort,
			HTTPAddr:  cfg.HTTPAddr,
			DBPath:    cfg.DBPath,
			JWTSecret: cfg.JWTSecret,
		})
	})
}
