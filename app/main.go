package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/statalih/statalih/app/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := cli.New(ctx, os.Stdout, os.Stderr).Run(os.Args[1:])

	stop()
	os.Exit(code)
}
