package sleepclock

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/sleep-clock/internal/domain/alarm"
	"github.com/oshokin/sleep-clock/internal/domain/timezone"
	"github.com/oshokin/sleep-clock/internal/events"
	"github.com/oshokin/sleep-clock/internal/logger"
	"github.com/oshokin/sleep-clock/internal/repository/triggers"
)

const (
	// DefaultTriggerLimit is used when ListTriggers omits the limit.
	DefaultTriggerLimit = 50
	// watchBuffer is the per-stream event buffer.
	watchBuffer = 16
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	AddAlarm(ctx context.Context, draft *domain.Draft) (*domain.Alarm, error)
	GetAlarm(ctx context.Context, id string) (*domain.Alarm, error)
	UpdateAlarm(ctx context.Context, id string, patch *domain.Patch) (*domain.Alarm, error)
	RemoveAlarm(ctx context.Context, id string) error
	RemoveAlarmByTime(ctx context.Context, at domain.Time) (*domain.Alarm, error)
	ListAlarms(ctx context.Context) []*domain.Alarm
	SetSleepSchedule(ctx context.Context, schedule *domain.SleepSchedule) ([]*domain.Alarm, error)
	ListTimezones(ctx context.Context) []timezone.ZoneTime
	AddTimezone(ctx context.Context, name string, offset int)
	RemoveTimezone(ctx context.Context, name string) bool
	CurrentTime(ctx context.Context) time.Time
	ListTriggers(ctx context.Context, limit int) ([]triggers.Record, error)
	SubscribeTriggers(buffer int) (<-chan events.Event, func())
}

// Server implements the SleepClockService gRPC API.
type Server struct {
	// service provides the business logic for alarm operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// ListAlarms returns every alarm in creation order.
func (s *Server) ListAlarms(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return EncodeAlarmList(s.service.ListAlarms(ctx)), nil
}

// GetAlarm returns one alarm by id.
func (s *Server) GetAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, fieldID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	found, err := s.service.GetAlarm(ctx, id)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeAlarm(found), nil
}

// AddAlarm creates an alarm.
func (s *Server) AddAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	draft, err := DecodeDraft(req)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	created, err := s.service.AddAlarm(ctx, draft)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeAlarm(created), nil
}

// UpdateAlarm applies the fields present in the request.
func (s *Server) UpdateAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, patch, err := DecodePatch(req)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	updated, err := s.service.UpdateAlarm(ctx, id, patch)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeAlarm(updated), nil
}

// RemoveAlarm deletes an alarm by id or, when no id is given, the oldest one set to the requested time.
func (s *Server) RemoveAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, ok := lookup(req, fieldID); ok {
		id, err := requiredString(req, fieldID)
		if err != nil {
			return nil, toStatus(ctx, err)
		}

		if err = s.service.RemoveAlarm(ctx, id); err != nil {
			return nil, toStatus(ctx, err)
		}

		return EncodeID(id), nil
	}

	at, err := requiredTime(req, fieldTime)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	removed, err := s.service.RemoveAlarmByTime(ctx, at)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeAlarm(removed), nil
}

// SetSleepSchedule replaces the sleep alarms and returns the created ones.
func (s *Server) SetSleepSchedule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	schedule, err := DecodeSleepSchedule(req)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	created, err := s.service.SetSleepSchedule(ctx, schedule)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeAlarmList(created), nil
}

// ListTimezones returns every zone with its current local time.
func (s *Server) ListTimezones(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return EncodeZones(s.service.ListTimezones(ctx)), nil
}

// AddTimezone appends a zone.
func (s *Server) AddTimezone(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	zone, err := DecodeTimezone(req)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	s.service.AddTimezone(ctx, zone.Name, zone.Offset)

	return EncodeTimezone(zone.Name, zone.Offset), nil
}

// RemoveTimezone deletes the first zone with the requested name.
func (s *Server) RemoveTimezone(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := requiredString(req, fieldName)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	removed := s.service.RemoveTimezone(ctx, name)

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldName:    structpb.NewStringValue(name),
			fieldRemoved: structpb.NewBoolValue(removed),
		},
	}, nil
}

// GetTime returns the server wall clock.
func (s *Server) GetTime(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return EncodeClock(s.service.CurrentTime(ctx)), nil
}

// ListTriggers returns the most recent fired alarms.
func (s *Server) ListTriggers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit := DefaultTriggerLimit

	if v, ok := lookup(req, fieldLimit); ok {
		n, err := wholeNumber(v)
		if err != nil {
			return nil, toStatus(ctx, err)
		}

		limit = n
	}

	records, err := s.service.ListTriggers(ctx, limit)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeRecords(records), nil
}

// WatchTriggers streams fired alarms until the client goes away or the event bus closes.
func (s *Server) WatchTriggers(_ *structpb.Struct, stream grpc.ServerStream) error {
	ctx := stream.Context()

	ch, unsubscribe := s.service.SubscribeTriggers(watchBuffer)
	defer unsubscribe()

	logger.Debug(ctx, "Trigger watcher connected")

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}

			if err := stream.SendMsg(EncodeEvent(e)); err != nil {
				return err
			}
		}
	}
}

// toStatus maps service errors to gRPC status codes.
func toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, domain.ErrInvalidTime):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		logger.ErrorKV(ctx, "Request failed", "error", err)

		return status.Error(codes.Internal, "internal error")
	}
}
