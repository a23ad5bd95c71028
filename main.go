/*
This is an example of application that will use the
engine resource packages to test things out
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/resources"
	"github.com/spaghettifunk/ember/testbed"
)

func main() {
	app, err := testbed.NewTestApp(testbed.Config{
		AssetRoot: resources.DefaultAssetBasePath,
		Workers:   4,
		LogLevel:  core.DebugLevel,
	})
	if err != nil {
		panic(err)
	}

	if err := app.Initialize(); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	ctx, cancel := context.WithCancel(context.Background())

	// start shutdown goroutine
	go func() {
		<-sigCh
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		panic(err)
	}
	if err := app.Shutdown(); err != nil {
		panic(err)
	}
}
