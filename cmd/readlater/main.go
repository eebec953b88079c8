package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Leopold1975/readlater/internal/readlater/cli"
)

func main() {
	interruptSignals := []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

	ctx, cancel := signal.NotifyContext(context.Background(), interruptSignals...)

	code := cli.Execute(ctx)

	cancel()
	os.Exit(code)
}
