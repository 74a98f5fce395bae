package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/beka-birhanu/vinom-maze-sync/seed"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// UnitHandler consumes one narrow-channel unit.
type UnitHandler interface {
	HandleLine(unit string) error
}

// Client talks to a host's MapSync service.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a Client for the host at addr.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dialing host: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// SyncMap streams the host's map data and feeds every unit, in order, to h.
// It stops at the first error h returns.
func (c *Client) SyncMap(ctx context.Context, h UnitHandler) error {
	stream, err := c.conn.NewStream(ctx, &MapSyncServiceDesc.Streams[0], MapDataMethod)
	if err != nil {
		return fmt.Errorf("opening map data stream: %w", err)
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return fmt.Errorf("requesting map data: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("requesting map data: %w", err)
	}

	for {
		unit := new(wrapperspb.StringValue)
		err := stream.RecvMsg(unit)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("receiving map data: %w", err)
		}
		if err := h.HandleLine(unit.GetValue()); err != nil {
			return err
		}
	}
}

// Backoff bounds SyncMapWhenReady's retries.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// DefaultBackoff covers a host that is still starting up.
var DefaultBackoff = Backoff{Attempts: 8, Initial: 250 * time.Millisecond, Max: 4 * time.Second}

// SyncMapWhenReady is SyncMap retried while the host is unreachable or has not
// published a maze yet. The delay doubles after every attempt up to b.Max.
func (c *Client) SyncMapWhenReady(ctx context.Context, h UnitHandler, b Backoff) error {
	delay := b.Initial
	for attempt := 1; ; attempt++ {
		err := c.SyncMap(ctx, h)
		if status.Code(err) != codes.Unavailable || attempt >= b.Attempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, b.Max)
	}
}

// Generate asks the host to generate a new maze. A nil seed lets the host pick one.
func (c *Client) Generate(ctx context.Context, s *seed.Seed) error {
	in := &wrapperspb.BytesValue{}
	if s != nil {
		in.Value = s[:]
	}
	return c.conn.Invoke(ctx, GenerateMethod, in, new(emptypb.Empty))
}

// Join registers viewerID on the host's UDP relay and returns its public key and address.
func (c *Client) Join(ctx context.Context, viewerID string) (string, string, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, JoinMethod, wrapperspb.String(viewerID), out); err != nil {
		return "", "", err
	}
	fields := out.GetFields()
	return fields["server_pub_key"].GetStringValue(), fields["server_addr"].GetStringValue(), nil
}

// SetPaths changes the host's compiler and mod locations; empty values are left unchanged.
func (c *Client) SetPaths(ctx context.Context, compilerPath, modPath string) error {
	fields := map[string]any{}
	if compilerPath != "" {
		fields["compiler_path"] = compilerPath
	}
	if modPath != "" {
		fields["mod_path"] = modPath
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return err
	}
	return c.conn.Invoke(ctx, SetPathsMethod, in, new(emptypb.Empty))
}
