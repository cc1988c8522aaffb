package grpc_control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// The control plane speaks only well-known protobuf types, so the service
// descriptor is declared here instead of being generated.

const serviceName = "marketdashboard.Control"

// ControlServer is the server API of the dashboard control plane.
type ControlServer interface {
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	RefreshGroups(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListRetracements(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ClearFibonacci(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// -----------------------------------------------------------------------------

func RegisterControlServer(s grpc.ServiceRegistrar, srv ControlServer) {
	s.RegisterService(&Control_ServiceDesc, srv)
}

// -----------------------------------------------------------------------------

func unaryHandler[Req any, Resp any](method string, call func(ControlServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ControlServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ControlServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var Control_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetStatus",
			Handler:    unaryHandler("GetStatus", ControlServer.GetStatus),
		},
		{
			MethodName: "RefreshGroups",
			Handler:    unaryHandler("RefreshGroups", ControlServer.RefreshGroups),
		},
		{
			MethodName: "ListRetracements",
			Handler:    unaryHandler("ListRetracements", ControlServer.ListRetracements),
		},
		{
			MethodName: "ClearFibonacci",
			Handler:    unaryHandler("ClearFibonacci", ControlServer.ClearFibonacci),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "marketdashboard/control",
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

type ControlClient struct {
	cc grpc.ClientConnInterface
}

func NewControlClient(cc grpc.ClientConnInterface) *ControlClient {
	return &ControlClient{cc: cc}
}

func (c *ControlClient) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/GetStatus", &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) RefreshGroups(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/RefreshGroups", &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) ListRetracements(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ListRetracements", &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) ClearFibonacci(ctx context.Context, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, "/"+serviceName+"/ClearFibonacci", &emptypb.Empty{}, new(emptypb.Empty), opts...)
}
