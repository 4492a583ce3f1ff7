// Package meterv1 defines the meterui.v1.MeterService gRPC contract. Messages
// are protobuf well-known types so no generated message code is needed.
package meterv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "meterui.v1.MeterService"

	GetStateMethod     = "/meterui.v1.MeterService/GetState"
	AdjustMethod       = "/meterui.v1.MeterService/Adjust"
	SetAdjustingMethod = "/meterui.v1.MeterService/SetAdjusting"
	ToggleThemeMethod  = "/meterui.v1.MeterService/ToggleTheme"
)

// MeterServiceServer is the server API for MeterService.
type MeterServiceServer interface {
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Adjust(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetAdjusting(context.Context, *wrapperspb.BoolValue) (*structpb.Struct, error)
	ToggleTheme(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// UnimplementedMeterServiceServer can be embedded for forward compatibility.
type UnimplementedMeterServiceServer struct{}

func (UnimplementedMeterServiceServer) GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetState not implemented")
}

func (UnimplementedMeterServiceServer) Adjust(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Adjust not implemented")
}

func (UnimplementedMeterServiceServer) SetAdjusting(context.Context, *wrapperspb.BoolValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SetAdjusting not implemented")
}

func (UnimplementedMeterServiceServer) ToggleTheme(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ToggleTheme not implemented")
}

// RegisterMeterServiceServer attaches srv to s.
func RegisterMeterServiceServer(s grpc.ServiceRegistrar, srv MeterServiceServer) {
	s.RegisterService(&MeterService_ServiceDesc, srv)
}

// MeterService_ServiceDesc describes MeterService for grpc.RegisterService.
var MeterService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MeterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetState", Handler: getStateHandler},
		{MethodName: "Adjust", Handler: adjustHandler},
		{MethodName: "SetAdjusting", Handler: setAdjustingHandler},
		{MethodName: "ToggleTheme", Handler: toggleThemeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "meterui/v1/meter.proto",
}

func getStateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MeterServiceServer).GetState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetStateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MeterServiceServer).GetState(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func adjustHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MeterServiceServer).Adjust(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AdjustMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MeterServiceServer).Adjust(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func setAdjustingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BoolValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MeterServiceServer).SetAdjusting(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SetAdjustingMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MeterServiceServer).SetAdjusting(ctx, req.(*wrapperspb.BoolValue))
	}
	return interceptor(ctx, in, info, handler)
}

func toggleThemeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MeterServiceServer).ToggleTheme(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ToggleThemeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MeterServiceServer).ToggleTheme(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// MeterServiceClient is the client API for MeterService.
type MeterServiceClient interface {
	GetState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	Adjust(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SetAdjusting(ctx context.Context, in *wrapperspb.BoolValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	ToggleTheme(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type meterServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewMeterServiceClient wraps cc.
func NewMeterServiceClient(cc grpc.ClientConnInterface) MeterServiceClient {
	return &meterServiceClient{cc: cc}
}

func (c *meterServiceClient) GetState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetStateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *meterServiceClient) Adjust(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AdjustMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *meterServiceClient) SetAdjusting(ctx context.Context, in *wrapperspb.BoolValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SetAdjustingMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *meterServiceClient) ToggleTheme(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ToggleThemeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
