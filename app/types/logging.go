package types

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protowire"
)

const LoggingService_LogEvent_FullMethodName = "/logging.LoggingService/LogEvent"

// LogEventRequest is logging.LogRequest:
//
//	message LogRequest {
//	  string source = 1;
//	  string level = 2;
//	  string message = 3;
//	  string data = 4;
//	  string timestamp = 5;
//	}
type LogEventRequest struct {
	Source  string
	Level   string
	Message string
	Data    string

	// Timestamp is RFC 3339 text; empty means "when received".
	Timestamp string
}

func (x *LogEventRequest) marshalWire() []byte {
	var b []byte
	b = appendString(b, 1, x.Source)
	b = appendString(b, 2, x.Level)
	b = appendString(b, 3, x.Message)
	b = appendString(b, 4, x.Data)
	b = appendString(b, 5, x.Timestamp)
	return b
}

func (x *LogEventRequest) unmarshalWire(b []byte) error {
	*x = LogEventRequest{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, bool) {
		switch num {
		case 1:
			return consumeString(typ, v, &x.Source)
		case 2:
			return consumeString(typ, v, &x.Level)
		case 3:
			return consumeString(typ, v, &x.Message)
		case 4:
			return consumeString(typ, v, &x.Data)
		case 5:
			return consumeString(typ, v, &x.Timestamp)
		}
		return 0, false
	})
}

func (x *LogEventRequest) GetSource() string {
	if x != nil {
		return x.Source
	}
	return ""
}

func (x *LogEventRequest) GetLevel() string {
	if x != nil {
		return x.Level
	}
	return ""
}

func (x *LogEventRequest) GetMessage() string {
	if x != nil {
		return x.Message
	}
	return ""
}

func (x *LogEventRequest) GetData() string {
	if x != nil {
		return x.Data
	}
	return ""
}

func (x *LogEventRequest) GetTimestamp() string {
	if x != nil {
		return x.Timestamp
	}
	return ""
}

// LogEventResponse is logging.LogResponse { bool success = 1; }.
type LogEventResponse struct {
	Success bool
}

func (x *LogEventResponse) marshalWire() []byte {
	return appendBool(nil, 1, x.Success)
}

func (x *LogEventResponse) unmarshalWire(b []byte) error {
	*x = LogEventResponse{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, bool) {
		if num == 1 {
			return consumeBool(typ, v, &x.Success)
		}
		return 0, false
	})
}

func (x *LogEventResponse) GetSuccess() bool {
	if x != nil {
		return x.Success
	}
	return false
}

type LoggingServiceClient interface {
	LogEvent(ctx context.Context, in *LogEventRequest, opts ...grpc.CallOption) (*LogEventResponse, error)
}

type loggingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewLoggingServiceClient(cc grpc.ClientConnInterface) LoggingServiceClient {
	return &loggingServiceClient{cc}
}

func (c *loggingServiceClient) LogEvent(ctx context.Context, in *LogEventRequest, opts ...grpc.CallOption) (*LogEventResponse, error) {
	out := new(LogEventResponse)
	if err := c.cc.Invoke(ctx, LoggingService_LogEvent_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type LoggingServiceServer interface {
	LogEvent(context.Context, *LogEventRequest) (*LogEventResponse, error)
}

// UnimplementedLoggingServiceServer can be embedded to have forward compatible implementations.
type UnimplementedLoggingServiceServer struct{}

func (UnimplementedLoggingServiceServer) LogEvent(context.Context, *LogEventRequest) (*LogEventResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method LogEvent not implemented")
}

func RegisterLoggingServiceServer(s grpc.ServiceRegistrar, srv LoggingServiceServer) {
	s.RegisterService(&LoggingService_ServiceDesc, srv)
}

func _LoggingService_LogEvent_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LogEventRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LoggingServiceServer).LogEvent(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: LoggingService_LogEvent_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LoggingServiceServer).LogEvent(ctx, req.(*LogEventRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var LoggingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "logging.LoggingService",
	HandlerType: (*LoggingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "LogEvent",
			Handler:    _LoggingService_LogEvent_Handler,
		},
	},
	Streams: []grpc.StreamDesc{},
}
