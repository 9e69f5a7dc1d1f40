package adminpb

import (
	context "context"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
)

// AdminClient is the client API for the Admin introspection service,
// hand-written in the shape protoc-gen-go-grpc would emit for two unary
// RPCs.
type AdminClient interface {
	Dump(ctx context.Context, in *DumpRequest, opts ...grpc.CallOption) (*DumpResponse, error)
	Stats(ctx context.Context, in *StatsRequest, opts ...grpc.CallOption) (*StatsResponse, error)
}

type adminClient struct {
	cc grpc.ClientConnInterface
}

// NewAdminClient wraps a grpc.ClientConn for the Admin service.
func NewAdminClient(cc grpc.ClientConnInterface) AdminClient {
	return &adminClient{cc}
}

func (c *adminClient) Dump(ctx context.Context, in *DumpRequest, opts ...grpc.CallOption) (*DumpResponse, error) {
	out := new(DumpResponse)
	if err := c.cc.Invoke(ctx, "/adminpb.Admin/Dump", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adminClient) Stats(ctx context.Context, in *StatsRequest, opts ...grpc.CallOption) (*StatsResponse, error) {
	out := new(StatsResponse)
	if err := c.cc.Invoke(ctx, "/adminpb.Admin/Stats", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminServer is the server API for the Admin introspection service.
type AdminServer interface {
	Dump(context.Context, *DumpRequest) (*DumpResponse, error)
	Stats(context.Context, *StatsRequest) (*StatsResponse, error)
}

// UnimplementedAdminServer can be embedded to satisfy AdminServer with
// codes.Unimplemented defaults for methods a given build doesn't need.
type UnimplementedAdminServer struct{}

func (UnimplementedAdminServer) Dump(context.Context, *DumpRequest) (*DumpResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Dump not implemented")
}

func (UnimplementedAdminServer) Stats(context.Context, *StatsRequest) (*StatsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Stats not implemented")
}

// RegisterAdminServer registers srv against s under the Admin service
// descriptor.
func RegisterAdminServer(s grpc.ServiceRegistrar, srv AdminServer) {
	s.RegisterService(&Admin_ServiceDesc, srv)
}

func _Admin_Dump_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DumpRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).Dump(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/adminpb.Admin/Dump"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).Dump(ctx, req.(*DumpRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Admin_Stats_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StatsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).Stats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/adminpb.Admin/Stats"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).Stats(ctx, req.(*StatsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Admin_ServiceDesc is the grpc.ServiceDesc for the Admin service.
var Admin_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "adminpb.Admin",
	HandlerType: (*AdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Dump", Handler: _Admin_Dump_Handler},
		{MethodName: "Stats", Handler: _Admin_Stats_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "adminpb/admin.proto",
}
