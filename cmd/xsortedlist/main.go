package main

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/fx"
)

func run(args []string) int {
	cfg, err := parseAppConfig(args)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%+v\n", err)
		return 2
	}

	app := fx.New(appOptions(cfg, os.Stdout))
	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	startErr := app.Start(startCtx)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	if stopErr := app.Stop(stopCtx); startErr != nil || stopErr != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}
