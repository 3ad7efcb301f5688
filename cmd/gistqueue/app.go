package main

import (
	"context"

	"github.com/bonjohen/gistqueue/internal/gist"
	"github.com/bonjohen/gistqueue/internal/queue"
)

// app wires the gist client and queue services for one command invocation
type app struct {
	client     *gist.Client
	directory  *queue.Directory
	store      *queue.Store
	controller *queue.Controller
	sweeper    *queue.Sweeper

	sweeperRunning bool
}

func newApp() (*app, error) {
	client, err := gist.NewClient(config, logger)
	if err != nil {
		return nil, err
	}

	directory := queue.NewDirectory(client, config, logger)
	store := queue.NewStore(directory, client, logger)

	a := &app{
		client:     client,
		directory:  directory,
		store:      store,
		controller: queue.NewController(directory, client, config, logger),
		sweeper:    queue.NewSweeper(directory, store, config, logger),
	}

	// With auto-start enabled the cleanup loop runs alongside whatever the
	// command does, for as long as the process lives
	if config.Cleanup.AutoStart {
		if err := a.sweeper.Start(); err != nil {
			logger.Warn().Err(err).Msg("Failed to auto-start cleanup loop")
		} else {
			a.sweeperRunning = true
		}
	}

	return a, nil
}

// checkEnvironment verifies credentials with a live API call
func (a *app) checkEnvironment(ctx context.Context) error {
	return a.client.TestConnection(ctx)
}
