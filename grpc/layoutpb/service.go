package layoutpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "fastlay.LayoutService"

const (
	LayoutService_GenerateLayout_FullMethodName = "/" + ServiceName + "/GenerateLayout"
	LayoutService_RenderGrid_FullMethodName     = "/" + ServiceName + "/RenderGrid"
	LayoutService_SearchProducts_FullMethodName = "/" + ServiceName + "/SearchProducts"
	LayoutService_ListPresets_FullMethodName    = "/" + ServiceName + "/ListPresets"
)

type LayoutServiceServer interface {
	GenerateLayout(context.Context, *GenerateLayoutRequest) (*GenerateLayoutResponse, error)
	RenderGrid(context.Context, *RenderGridRequest) (*RenderGridResponse, error)
	SearchProducts(context.Context, *SearchProductsRequest) (*SearchProductsResponse, error)
	ListPresets(context.Context, *ListPresetsRequest) (*ListPresetsResponse, error)
}

// UnimplementedLayoutServiceServer answers every RPC with codes.Unimplemented.
// Embed it to stay compatible with methods added later.
type UnimplementedLayoutServiceServer struct{}

func (UnimplementedLayoutServiceServer) GenerateLayout(context.Context, *GenerateLayoutRequest) (*GenerateLayoutResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GenerateLayout not implemented")
}

func (UnimplementedLayoutServiceServer) RenderGrid(context.Context, *RenderGridRequest) (*RenderGridResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RenderGrid not implemented")
}

func (UnimplementedLayoutServiceServer) SearchProducts(context.Context, *SearchProductsRequest) (*SearchProductsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SearchProducts not implemented")
}

func (UnimplementedLayoutServiceServer) ListPresets(context.Context, *ListPresetsRequest) (*ListPresetsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListPresets not implemented")
}

func RegisterLayoutServiceServer(s grpc.ServiceRegistrar, srv LayoutServiceServer) {
	s.RegisterService(&LayoutService_ServiceDesc, srv)
}

func unaryHandler[Req any, Resp any](method string, call func(LayoutServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LayoutServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LayoutServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var LayoutService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LayoutServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GenerateLayout",
			Handler:    unaryHandler(LayoutService_GenerateLayout_FullMethodName, LayoutServiceServer.GenerateLayout),
		},
		{
			MethodName: "RenderGrid",
			Handler:    unaryHandler(LayoutService_RenderGrid_FullMethodName, LayoutServiceServer.RenderGrid),
		},
		{
			MethodName: "SearchProducts",
			Handler:    unaryHandler(LayoutService_SearchProducts_FullMethodName, LayoutServiceServer.SearchProducts),
		},
		{
			MethodName: "ListPresets",
			Handler:    unaryHandler(LayoutService_ListPresets_FullMethodName, LayoutServiceServer.ListPresets),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fastlay/layout_service",
}

type LayoutServiceClient interface {
	GenerateLayout(ctx context.Context, in *GenerateLayoutRequest, opts ...grpc.CallOption) (*GenerateLayoutResponse, error)
	RenderGrid(ctx context.Context, in *RenderGridRequest, opts ...grpc.CallOption) (*RenderGridResponse, error)
	SearchProducts(ctx context.Context, in *SearchProductsRequest, opts ...grpc.CallOption) (*SearchProductsResponse, error)
	ListPresets(ctx context.Context, in *ListPresetsRequest, opts ...grpc.CallOption) (*ListPresetsResponse, error)
}

type layoutServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLayoutServiceClient returns a client that always speaks the JSON codec.
func NewLayoutServiceClient(cc grpc.ClientConnInterface) LayoutServiceClient {
	return &layoutServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *layoutServiceClient) GenerateLayout(ctx context.Context, in *GenerateLayoutRequest, opts ...grpc.CallOption) (*GenerateLayoutResponse, error) {
	return invoke[GenerateLayoutResponse](ctx, c.cc, LayoutService_GenerateLayout_FullMethodName, in, opts)
}

func (c *layoutServiceClient) RenderGrid(ctx context.Context, in *RenderGridRequest, opts ...grpc.CallOption) (*RenderGridResponse, error) {
	return invoke[RenderGridResponse](ctx, c.cc, LayoutService_RenderGrid_FullMethodName, in, opts)
}

func (c *layoutServiceClient) SearchProducts(ctx context.Context, in *SearchProductsRequest, opts ...grpc.CallOption) (*SearchProductsResponse, error) {
	return invoke[SearchProductsResponse](ctx, c.cc, LayoutService_SearchProducts_FullMethodName, in, opts)
}

func (c *layoutServiceClient) ListPresets(ctx context.Context, in *ListPresetsRequest, opts ...grpc.CallOption) (*ListPresetsResponse, error) {
	return invoke[ListPresetsResponse](ctx, c.cc, LayoutService_ListPresets_FullMethodName, in, opts)
}
