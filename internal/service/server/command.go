package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"

	api "github.com/oshokin/sleep-clock/internal/api/grpc/sleepclock"
	"github.com/oshokin/sleep-clock/internal/api/ws"
	"github.com/oshokin/sleep-clock/internal/config"
	"github.com/oshokin/sleep-clock/internal/events"
	"github.com/oshokin/sleep-clock/internal/logger"
	"github.com/oshokin/sleep-clock/internal/repository/alarms"
	"github.com/oshokin/sleep-clock/internal/repository/timezones"
	"github.com/oshokin/sleep-clock/internal/repository/triggers"
	"github.com/oshokin/sleep-clock/internal/service/monitor"
)

// Options controls the sleepclock-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// EventsAddress provides an optional listen address override for the WebSocket event stream.
	EventsAddress string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

const shutdownTimeout = 5 * time.Second

// Run starts the alarm monitor, the gRPC server and the optional event stream,
// and blocks until the context is canceled or a server stops.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "sleepclock-server")

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	applyLogLevel(ctx, settings)

	// Determine listen address: CLI argument overrides config port extraction.
	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	eventsAddress := settings.EventsAddress
	if opts.EventsAddress != "" {
		eventsAddress = opts.EventsAddress
	}

	schedule, err := config.ParseSchedule(settings.CheckSchedule)
	if err != nil {
		return fmt.Errorf("parse check schedule: %w", err)
	}

	journal, err := triggers.Open(ctx, settings.Journal)
	if err != nil {
		return fmt.Errorf("open trigger journal: %w", err)
	}

	defer func() {
		if closeErr := journal.Close(); closeErr != nil {
			logger.ErrorKV(ctx, "Failed to close trigger journal", "error", closeErr)
		}
	}()

	alarmRegistry := alarms.New()
	bus := events.NewBus()
	svc := newService(alarmRegistry, timezones.New(), journal, bus, time.Now)

	// Both run on runCtx so a failing gRPC server tears down the rest too.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var httpServer *http.Server

	if eventsAddress != "" {
		httpServer, err = serveEvents(runCtx, eventsAddress, bus)
		if err != nil {
			return err
		}
	}

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(runCtx, "tcp", listenAddress)
	if err != nil {
		shutdownEvents(ctx, httpServer)

		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryInterceptors(settings)...))
	api.Register(grpcServer, api.NewServer(svc))

	mon := monitor.New(alarmRegistry, monitor.WithSchedule(schedule))
	mon.Start(runCtx, svc.HandleTrigger)

	go watchSettings(runCtx, opts.ConfigPath)

	logger.InfoKV(ctx, "Sleep clock server listening",
		"listen_address", listenAddress,
		"events_address", eventsAddress,
		"check_schedule", settings.CheckSchedule,
		"journal", settings.Journal.Driver,
	)

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-runCtx.Done()
		logger.Info(ctx, "Shutting down servers")

		mon.Stop()
		// Closing the bus ends the watch streams so GracefulStop does not wait on them.
		bus.Close()
		shutdownEvents(ctx, httpServer)
		grpcServer.GracefulStop()
		close(done)
	}()

	serveErr := grpcServer.Serve(lis)

	// Serve only returns on its own when it failed, so the teardown has to be triggered here.
	cancel()
	<-done

	if serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", serveErr)
	}

	logger.Info(ctx, "Servers stopped")

	return nil
}

// unaryInterceptors builds the interceptor chain, rate limiting only when configured.
func unaryInterceptors(settings *config.Config) []grpc.UnaryServerInterceptor {
	interceptors := []grpc.UnaryServerInterceptor{api.LoggingInterceptor()}

	if settings.RateLimit > 0 {
		limiter := rate.NewLimiter(rate.Limit(settings.RateLimit), settings.RateBurst)
		interceptors = append(interceptors, api.RateLimitInterceptor(limiter))
	}

	return interceptors
}

// serveEvents starts the WebSocket event stream in the background.
func serveEvents(ctx context.Context, address string, bus *events.Bus) (*http.Server, error) {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}

	srv := &http.Server{
		Handler:           ws.NewMux(bus),
		ReadHeaderTimeout: shutdownTimeout,
	}

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorKV(ctx, "Event stream stopped", "error", err)
		}
	}()

	return srv, nil
}

func shutdownEvents(ctx context.Context, srv *http.Server) {
	if srv == nil {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorKV(ctx, "Failed to shut down event stream", "error", err)
	}
}

// watchSettings applies log level changes from the settings file while the server runs.
func watchSettings(ctx context.Context, path string) {
	err := config.Watch(ctx, path, func(updated *config.Config) {
		applyLogLevel(ctx, updated)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WarnKV(ctx, "Settings hot reload disabled", "error", err)
	}
}

func applyLogLevel(ctx context.Context, settings *config.Config) {
	level, ok := logger.ParseLogLevel(settings.LogLevel)
	if !ok {
		logger.WarnKV(ctx, "Unknown log level, keeping current", "log_level", settings.LogLevel)

		return
	}

	if level != logger.Level() {
		logger.SetLevel(level)
		logger.InfoKV(ctx, "Log level applied", "log_level", level.String())
	}
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	// Extract port from config address (e.g., "server.example.com:8080" -> ":8080").
	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	// Parse the address to extract port.
	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Return port-only listen address to bind on all interfaces.
	return ":" + port, nil
}
