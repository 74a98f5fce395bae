package api

import (
	"context"

	grpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Fully-qualified method names.
const (
	ServiceName = "mazesync.v1.MapSync"

	GenerateMethod = "/" + ServiceName + "/Generate"
	MapDataMethod  = "/" + ServiceName + "/MapData"
	JoinMethod     = "/" + ServiceName + "/Join"
	SetPathsMethod = "/" + ServiceName + "/SetPaths"
)

// MapSyncServer is the server API for the MapSync service.
type MapSyncServer interface {
	Generate(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	MapData(*emptypb.Empty, grpc.ServerStream) error
	Join(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	SetPaths(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

// MapSyncServiceDesc describes the MapSync service. The messages are protobuf
// well-known types, so no generated code is needed.
var MapSyncServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MapSyncServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Generate", Handler: generateHandler},
		{MethodName: "Join", Handler: joinHandler},
		{MethodName: "SetPaths", Handler: setPathsHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "MapData", Handler: mapDataHandler, ServerStreams: true},
	},
	Metadata: "mazesync/v1/mapsync.proto",
}

func generateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MapSyncServer).Generate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GenerateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MapSyncServer).Generate(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func joinHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MapSyncServer).Join(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: JoinMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MapSyncServer).Join(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func setPathsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MapSyncServer).SetPaths(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SetPathsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MapSyncServer).SetPaths(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func mapDataHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(MapSyncServer).MapData(in, stream)
}
