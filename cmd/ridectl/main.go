// README: Terminal client; estimates a fare, books a ride, or watches one until it ends.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"ridebook/internal/config"
	"ridebook/internal/logger"
)

const usage = `usage: ridectl <command> [flags]

commands:
  estimate   price a route for every ride class
  book       estimate, then request a ride
  watch      follow a ride's status until it completes or is cancelled
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	log := logger.New(cfg.Log)
	log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(cfg, log)
	args := os.Args[2:]
	switch os.Args[1] {
	case "estimate":
		err = app.estimate(ctx, args)
	case "book":
		err = app.book(ctx, args)
	case "watch":
		err = app.watch(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "ridectl:", err)
		os.Exit(1)
	}
}
