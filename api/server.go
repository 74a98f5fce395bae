package api

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/beka-birhanu/vinom-maze-sync/seed"
	"github.com/beka-birhanu/vinom-maze-sync/service/i"
	"github.com/google/uuid"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server exposes a MazeHost and its viewer relay over gRPC.
type Server struct {
	host  i.MazeHost
	relay i.ViewerRelay
}

// RegisterNewMapSyncServer registers a MapSync service backed by host.
// relay may be nil when the UDP relay is disabled.
func RegisterNewMapSyncServer(gsr grpc.ServiceRegistrar, host i.MazeHost, relay i.ViewerRelay) error {
	if host == nil {
		return fmt.Errorf("registering map sync server: nil host")
	}
	server := &Server{
		host:  host,
		relay: relay,
	}

	gsr.RegisterService(&MapSyncServiceDesc, server)
	return nil
}

// Generate queues a host generation. An empty seed asks for a random one.
func (s *Server) Generate(ctx context.Context, r *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	info := seed.Info{}
	if len(r.GetValue()) > 0 {
		sd, err := seed.FromBytes(r.GetValue())
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		info = seed.New(sd)
	}

	if err := s.host.Submit(info); err != nil {
		return nil, status.Error(codes.ResourceExhausted, err.Error())
	}
	return &emptypb.Empty{}, nil
}

// MapData streams the published seed as START, slices and END, one unit per message.
func (s *Server) MapData(_ *emptypb.Empty, stream grpc.ServerStream) error {
	units := s.host.MapData()
	if len(units) == 0 {
		return status.Error(codes.Unavailable, "no maze has been generated yet")
	}

	for _, unit := range units {
		if err := stream.SendMsg(wrapperspb.String(unit)); err != nil {
			return err
		}
	}
	return nil
}

// Join registers a viewer on the UDP relay and returns where to connect.
// The public key is base64 encoded.
func (s *Server) Join(ctx context.Context, r *wrapperspb.StringValue) (*structpb.Struct, error) {
	if s.relay == nil {
		return nil, status.Error(codes.Unimplemented, "udp relay is disabled")
	}

	id, err := uuid.Parse(r.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("parsing viewer id: %s", err))
	}

	s.relay.Join(id)
	pubKey, addr, err := s.relay.SessionInfo(id)
	if err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}

	return structpb.NewStruct(map[string]any{
		"server_pub_key": base64.StdEncoding.EncodeToString(pubKey),
		"server_addr":    addr,
	})
}

// SetPaths replaces the compiler and mod locations used by later generations.
func (s *Server) SetPaths(ctx context.Context, r *structpb.Struct) (*emptypb.Empty, error) {
	fields := r.GetFields()
	s.host.SetPaths(fields["compiler_path"].GetStringValue(), fields["mod_path"].GetStringValue())
	return &emptypb.Empty{}, nil
}
