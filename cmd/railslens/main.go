package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/toyz/railslens/internal/cli"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.NewApp(Version).Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
