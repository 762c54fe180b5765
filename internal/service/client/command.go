package client

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/sleep-clock/internal/config"
	"github.com/oshokin/sleep-clock/internal/events"
	"github.com/oshokin/sleep-clock/internal/logger"
	"github.com/oshokin/sleep-clock/internal/service/common"
)

// Options configures how the CLI reaches the server.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string
}

// Action is one CLI command executed with a connected client.
type Action func(ctx context.Context, client *common.Client) error

// defaultRetryInterval is the delay between reconnection attempts of Watch.
const defaultRetryInterval = 1 * time.Second

// Run connects to the server and executes action.
func Run(ctx context.Context, opts *Options, action Action) error {
	ctx = logger.WithName(ctx, "sleepclock")

	client, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	return action(ctx, client)
}

// Watch streams fired alarms to handle until ctx is canceled or handle fails.
// Dropped streams are retried every second.
func Watch(ctx context.Context, opts *Options, handle func(events.Event) error) error {
	ctx = logger.WithName(ctx, "sleepclock-watch")

	client, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	var handlerErr error

	forward := func(e events.Event) error {
		handlerErr = handle(e)

		return handlerErr
	}

	// attempt streams once and reports whether watching is over.
	attempt := func() (bool, error) {
		err := client.WatchTriggers(ctx, forward)

		switch {
		case handlerErr != nil:
			return true, handlerErr
		case ctx.Err() != nil:
			return true, nil
		case err != nil:
			logger.ErrorKV(ctx, "Trigger stream failed, reconnecting", "error", err)
		default:
			logger.Info(ctx, "Trigger stream closed by server, reconnecting")
		}

		return false, nil
	}

	if done, err := attempt(); done {
		return err
	}

	ticker := time.NewTicker(defaultRetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if done, err := attempt(); done {
				return err
			}
		}
	}
}

func connect(ctx context.Context, opts *Options) (*common.Client, error) {
	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	dialOptions := []common.Option{common.WithCallTimeout(cfg.Timeout)}

	// Requests are tagged with the local user when it can be detected.
	if actor, err := common.DetectActor(); err == nil {
		dialOptions = append(dialOptions, common.WithActor(actor))
	} else {
		logger.DebugKV(ctx, "Unable to detect local user", "error", err)
	}

	client, err := common.Dial(ctx, serverAddress, dialOptions...)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", serverAddress, err)
	}

	logger.DebugKV(ctx, "Connected", "server_address", serverAddress)

	return client, nil
}
