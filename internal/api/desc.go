package api

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "inbox.v1.InboxService"

// InboxServer is the control API served by the daemon.
type InboxServer interface {
	Open(context.Context, *OpenRequest) (*TimelineResponse, error)
	Close(context.Context, *Empty) (*Empty, error)
	Refresh(context.Context, *Empty) (*TimelineResponse, error)
	Timeline(context.Context, *Empty) (*TimelineResponse, error)
	SendText(context.Context, *SendTextRequest) (*Empty, error)
	SendMedia(context.Context, *SendMediaRequest) (*SendMediaResponse, error)
	Conversations(context.Context, *ConversationsRequest) (*ConversationsResponse, error)
	Status(context.Context, *Empty) (*StatusResponse, error)
}

// ServiceDesc describes InboxServer to grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*InboxServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Open", InboxServer.Open),
		unary("Close", InboxServer.Close),
		unary("Refresh", InboxServer.Refresh),
		unary("Timeline", InboxServer.Timeline),
		unary("SendText", InboxServer.SendText),
		unary("SendMedia", InboxServer.SendMedia),
		unary("Conversations", InboxServer.Conversations),
		unary("Status", InboxServer.Status),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inbox/v1/inbox.proto",
}

// RegisterInboxServer registers srv on s.
func RegisterInboxServer(s grpc.ServiceRegistrar, srv InboxServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

func unary[Req, Resp any](method string, call func(InboxServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(InboxServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(InboxServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
