//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/sleep-clock/internal/api/grpc/sleepclock"
	"github.com/oshokin/sleep-clock/internal/config"
	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
	"github.com/oshokin/sleep-clock/internal/domain/timezone"
	"github.com/oshokin/sleep-clock/internal/events"
	"github.com/oshokin/sleep-clock/internal/repository/triggers"
	"github.com/oshokin/sleep-clock/internal/version"
)

// Client talks to the sleep clock server.
type Client struct {
	// conn is the underlying gRPC connection to the server.
	conn *grpc.ClientConn
	// actor tags outgoing calls when set.
	actor *Actor

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errNotConnected is returned when a call is made on a client without a connection.
	errNotConnected = errors.New("client is not connected")
	// errIDRequired is returned when an alarm id is missing.
	errIDRequired = errors.New("alarm id must be provided")
)

// Dial creates a client for the sleep clock server. The connection is established lazily.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	client := &Client{
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	dialOptions := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUserAgent(version.UserAgent()),
	}

	if client.actor != nil {
		dialOptions = append(dialOptions,
			grpc.WithChainUnaryInterceptor(actorUnary(client.actor)),
			grpc.WithChainStreamInterceptor(actorStream(client.actor)),
		)
	}

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(address, dialOptions...)
	if err != nil {
		return nil, fmt.Errorf("dial sleep clock server: %w", err)
	}

	client.conn = conn

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// ListAlarms returns every alarm in creation order.
func (c *Client) ListAlarms(ctx context.Context) ([]*domain.Alarm, error) {
	resp, err := c.invoke(ctx, api.FullMethodListAlarms, new(structpb.Struct))
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}

	return api.DecodeAlarmList(resp)
}

// GetAlarm returns one alarm.
func (c *Client) GetAlarm(ctx context.Context, id string) (*domain.Alarm, error) {
	if id == "" {
		return nil, errIDRequired
	}

	resp, err := c.invoke(ctx, api.FullMethodGetAlarm, api.EncodeID(id))
	if err != nil {
		return nil, fmt.Errorf("get alarm: %w", err)
	}

	return api.DecodeAlarm(resp)
}

// AddAlarm creates an alarm. Empty name and sound are filled in by the server.
func (c *Client) AddAlarm(ctx context.Context, draft *domain.Draft) (*domain.Alarm, error) {
	resp, err := c.invoke(ctx, api.FullMethodAddAlarm, api.EncodeDraft(draft))
	if err != nil {
		return nil, fmt.Errorf("add alarm: %w", err)
	}

	return api.DecodeAlarm(resp)
}

// UpdateAlarm applies the non-nil fields of patch.
func (c *Client) UpdateAlarm(ctx context.Context, id string, patch *domain.Patch) (*domain.Alarm, error) {
	if id == "" {
		return nil, errIDRequired
	}

	resp, err := c.invoke(ctx, api.FullMethodUpdateAlarm, api.EncodePatch(id, patch))
	if err != nil {
		return nil, fmt.Errorf("update alarm: %w", err)
	}

	return api.DecodeAlarm(resp)
}

// RemoveAlarm deletes an alarm by id.
func (c *Client) RemoveAlarm(ctx context.Context, id string) error {
	if id == "" {
		return errIDRequired
	}

	if _, err := c.invoke(ctx, api.FullMethodRemoveAlarm, api.EncodeID(id)); err != nil {
		return fmt.Errorf("remove alarm: %w", err)
	}

	return nil
}

// RemoveAlarmAt deletes the oldest alarm set to at and returns it.
func (c *Client) RemoveAlarmAt(ctx context.Context, at domain.Time) (*domain.Alarm, error) {
	resp, err := c.invoke(ctx, api.FullMethodRemoveAlarm, api.EncodeRemoveByTime(at))
	if err != nil {
		return nil, fmt.Errorf("remove alarm: %w", err)
	}

	return api.DecodeAlarm(resp)
}

// SetSleepSchedule replaces the sleep alarms and returns the created ones.
func (c *Client) SetSleepSchedule(ctx context.Context, schedule *domain.SleepSchedule) ([]*domain.Alarm, error) {
	resp, err := c.invoke(ctx, api.FullMethodSetSleepSchedule, api.EncodeSleepSchedule(schedule))
	if err != nil {
		return nil, fmt.Errorf("set sleep schedule: %w", err)
	}

	return api.DecodeAlarmList(resp)
}

// ListTimezones returns every zone with its current local time.
func (c *Client) ListTimezones(ctx context.Context) ([]timezone.ZoneTime, error) {
	resp, err := c.invoke(ctx, api.FullMethodListTimezones, new(structpb.Struct))
	if err != nil {
		return nil, fmt.Errorf("list timezones: %w", err)
	}

	return api.DecodeZones(resp)
}

// AddTimezone appends a zone.
func (c *Client) AddTimezone(ctx context.Context, name string, offset int) error {
	if _, err := c.invoke(ctx, api.FullMethodAddTimezone, api.EncodeTimezone(name, offset)); err != nil {
		return fmt.Errorf("add timezone: %w", err)
	}

	return nil
}

// RemoveTimezone deletes the first zone called name and reports whether one existed.
func (c *Client) RemoveTimezone(ctx context.Context, name string) (bool, error) {
	resp, err := c.invoke(ctx, api.FullMethodRemoveTimezone, api.EncodeName(name))
	if err != nil {
		return false, fmt.Errorf("remove timezone: %w", err)
	}

	return api.DecodeRemoved(resp), nil
}

// GetTime returns the server wall clock.
func (c *Client) GetTime(ctx context.Context) (*api.Clock, error) {
	resp, err := c.invoke(ctx, api.FullMethodGetTime, new(structpb.Struct))
	if err != nil {
		return nil, fmt.Errorf("get time: %w", err)
	}

	return api.DecodeClock(resp)
}

// ListTriggers returns up to limit most recent fired alarms.
func (c *Client) ListTriggers(ctx context.Context, limit int) ([]triggers.Record, error) {
	resp, err := c.invoke(ctx, api.FullMethodListTriggers, api.EncodeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list triggers: %w", err)
	}

	return api.DecodeRecords(resp)
}

// WatchTriggers calls handle for every fired alarm until ctx is canceled,
// the server closes the stream or handle returns an error.
// The call timeout does not apply to the stream.
func (c *Client) WatchTriggers(ctx context.Context, handle func(events.Event) error) error {
	if c == nil || c.conn == nil {
		return errNotConnected
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.conn.NewStream(ctx, &api.ServiceDesc.Streams[0], api.FullMethodWatchTriggers)
	if err != nil {
		return fmt.Errorf("watch triggers: %w", err)
	}

	if err = stream.SendMsg(new(structpb.Struct)); err != nil {
		return fmt.Errorf("watch triggers: %w", err)
	}

	if err = stream.CloseSend(); err != nil {
		return fmt.Errorf("watch triggers: %w", err)
	}

	for {
		msg := new(structpb.Struct)
		if err = stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			if ctx.Err() != nil {
				return ctx.Err()
			}

			return fmt.Errorf("watch triggers: %w", err)
		}

		event, err := api.DecodeEvent(msg)
		if err != nil {
			return fmt.Errorf("decode trigger: %w", err)
		}

		if err = handle(event); err != nil {
			return err
		}
	}
}

func (c *Client) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	if c == nil || c.conn == nil {
		return nil, errNotConnected
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(callCtx, method, req, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
