package sleepclock

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "sleepclock.v1.SleepClockService"

// Full method names, as used by clients and interceptors.
const (
	FullMethodListAlarms       = "/" + ServiceName + "/ListAlarms"
	FullMethodGetAlarm         = "/" + ServiceName + "/GetAlarm"
	FullMethodAddAlarm         = "/" + ServiceName + "/AddAlarm"
	FullMethodUpdateAlarm      = "/" + ServiceName + "/UpdateAlarm"
	FullMethodRemoveAlarm      = "/" + ServiceName + "/RemoveAlarm"
	FullMethodSetSleepSchedule = "/" + ServiceName + "/SetSleepSchedule"
	FullMethodListTimezones    = "/" + ServiceName + "/ListTimezones"
	FullMethodAddTimezone      = "/" + ServiceName + "/AddTimezone"
	FullMethodRemoveTimezone   = "/" + ServiceName + "/RemoveTimezone"
	FullMethodGetTime          = "/" + ServiceName + "/GetTime"
	FullMethodListTriggers     = "/" + ServiceName + "/ListTriggers"
	FullMethodWatchTriggers    = "/" + ServiceName + "/WatchTriggers"
)

// sleepClockServer is the handler type the descriptor dispatches to.
type sleepClockServer interface {
	ListAlarms(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	AddAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RemoveAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetSleepSchedule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListTimezones(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	AddTimezone(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RemoveTimezone(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetTime(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListTriggers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	WatchTriggers(req *structpb.Struct, stream grpc.ServerStream) error
}

type unaryMethod func(srv sleepClockServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// ServiceDesc describes the sleep clock service for grpc.Server.RegisterService
// and for client streams.
//
//nolint:gochecknoglobals // Mirrors the descriptors protoc-gen-go-grpc emits.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*sleepClockServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListAlarms", Handler: unaryHandler(FullMethodListAlarms, sleepClockServer.ListAlarms)},
		{MethodName: "GetAlarm", Handler: unaryHandler(FullMethodGetAlarm, sleepClockServer.GetAlarm)},
		{MethodName: "AddAlarm", Handler: unaryHandler(FullMethodAddAlarm, sleepClockServer.AddAlarm)},
		{MethodName: "UpdateAlarm", Handler: unaryHandler(FullMethodUpdateAlarm, sleepClockServer.UpdateAlarm)},
		{MethodName: "RemoveAlarm", Handler: unaryHandler(FullMethodRemoveAlarm, sleepClockServer.RemoveAlarm)},
		{MethodName: "SetSleepSchedule", Handler: unaryHandler(FullMethodSetSleepSchedule, sleepClockServer.SetSleepSchedule)},
		{MethodName: "ListTimezones", Handler: unaryHandler(FullMethodListTimezones, sleepClockServer.ListTimezones)},
		{MethodName: "AddTimezone", Handler: unaryHandler(FullMethodAddTimezone, sleepClockServer.AddTimezone)},
		{MethodName: "RemoveTimezone", Handler: unaryHandler(FullMethodRemoveTimezone, sleepClockServer.RemoveTimezone)},
		{MethodName: "GetTime", Handler: unaryHandler(FullMethodGetTime, sleepClockServer.GetTime)},
		{MethodName: "ListTriggers", Handler: unaryHandler(FullMethodListTriggers, sleepClockServer.ListTriggers)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchTriggers",
			Handler:       watchTriggersHandler,
			ServerStreams: true,
		},
	},
	Metadata: "sleepclock/v1/sleepclock.proto",
}

// Register attaches srv to a gRPC server.
func Register(registrar grpc.ServiceRegistrar, srv *Server) {
	registrar.RegisterService(&ServiceDesc, srv)
}

// unaryHandler adapts a Struct-in/Struct-out method to grpc.MethodHandler.
func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(sleepClockServer)

		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			typed, _ := req.(*structpb.Struct)

			return call(server, ctx, typed)
		}

		return interceptor(ctx, in, info, handler)
	}
}

func watchTriggersHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	server, _ := srv.(sleepClockServer)

	return server.WatchTriggers(in, stream)
}
