// Package main provides the blogctl command line client for the blog service.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/inkstream/inkstream/internal/cmd/blogctl"
	"github.com/inkstream/inkstream/internal/platform/config"
)

func main() {
	cfg, err := blogctl.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := blogctl.Run(ctx, cfg, os.Stdout); err != nil {
		config.Exitf("%v", err)
	}
}
