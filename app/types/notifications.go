package types

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protowire"
)

const NotificationsService_SendEmail_FullMethodName = "/notifications.NotificationsService/SendEmail"

// SendEmailRequest is notifications.SendEmailRequest:
//
//	message SendEmailRequest {
//	  string template = 1;
//	  string to = 2;
//	  string to_name = 3;
//	  string subject = 4;
//	  map<string, string> content = 5;
//	}
type SendEmailRequest struct {
	Template string
	To       string
	ToName   string
	Subject  string
	Content  map[string]string
}

func (x *SendEmailRequest) marshalWire() []byte {
	var b []byte
	b = appendString(b, 1, x.Template)
	b = appendString(b, 2, x.To)
	b = appendString(b, 3, x.ToName)
	b = appendString(b, 4, x.Subject)
	b = appendStringMap(b, 5, x.Content)
	return b
}

func (x *SendEmailRequest) unmarshalWire(b []byte) error {
	*x = SendEmailRequest{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, bool) {
		switch num {
		case 1:
			return consumeString(typ, v, &x.Template)
		case 2:
			return consumeString(typ, v, &x.To)
		case 3:
			return consumeString(typ, v, &x.ToName)
		case 4:
			return consumeString(typ, v, &x.Subject)
		case 5:
			return consumeMapEntry(typ, v, &x.Content)
		}
		return 0, false
	})
}

func (x *SendEmailRequest) GetTemplate() string {
	if x != nil {
		return x.Template
	}
	return ""
}

func (x *SendEmailRequest) GetTo() string {
	if x != nil {
		return x.To
	}
	return ""
}

func (x *SendEmailRequest) GetToName() string {
	if x != nil {
		return x.ToName
	}
	return ""
}

func (x *SendEmailRequest) GetSubject() string {
	if x != nil {
		return x.Subject
	}
	return ""
}

func (x *SendEmailRequest) GetContent() map[string]string {
	if x != nil {
		return x.Content
	}
	return nil
}

// SendEmailResponse is notifications.SendEmailResponse { bool success = 1; }.
type SendEmailResponse struct {
	Success bool
}

func (x *SendEmailResponse) marshalWire() []byte {
	return appendBool(nil, 1, x.Success)
}

func (x *SendEmailResponse) unmarshalWire(b []byte) error {
	*x = SendEmailResponse{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, bool) {
		if num == 1 {
			return consumeBool(typ, v, &x.Success)
		}
		return 0, false
	})
}

func (x *SendEmailResponse) GetSuccess() bool {
	if x != nil {
		return x.Success
	}
	return false
}

type NotificationsServiceClient interface {
	SendEmail(ctx context.Context, in *SendEmailRequest, opts ...grpc.CallOption) (*SendEmailResponse, error)
}

type notificationsServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewNotificationsServiceClient(cc grpc.ClientConnInterface) NotificationsServiceClient {
	return &notificationsServiceClient{cc}
}

func (c *notificationsServiceClient) SendEmail(ctx context.Context, in *SendEmailRequest, opts ...grpc.CallOption) (*SendEmailResponse, error) {
	out := new(SendEmailResponse)
	if err := c.cc.Invoke(ctx, NotificationsService_SendEmail_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type NotificationsServiceServer interface {
	SendEmail(context.Context, *SendEmailRequest) (*SendEmailResponse, error)
}

// UnimplementedNotificationsServiceServer can be embedded to have forward compatible implementations.
type UnimplementedNotificationsServiceServer struct{}

func (UnimplementedNotificationsServiceServer) SendEmail(context.Context, *SendEmailRequest) (*SendEmailResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendEmail not implemented")
}

func RegisterNotificationsServiceServer(s grpc.ServiceRegistrar, srv NotificationsServiceServer) {
	s.RegisterService(&NotificationsService_ServiceDesc, srv)
}

func _NotificationsService_SendEmail_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SendEmailRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NotificationsServiceServer).SendEmail(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: NotificationsService_SendEmail_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NotificationsServiceServer).SendEmail(ctx, req.(*SendEmailRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var NotificationsService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "notifications.NotificationsService",
	HandlerType: (*NotificationsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SendEmail",
			Handler:    _NotificationsService_SendEmail_Handler,
		},
	},
	Streams: []grpc.StreamDesc{},
}
