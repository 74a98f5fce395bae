package api

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	logger "github.com/beka-birhanu/vinom-common/log"
	"github.com/beka-birhanu/vinom-maze-sync/compiler"
	"github.com/beka-birhanu/vinom-maze-sync/seed"
	"github.com/beka-birhanu/vinom-maze-sync/service/i"
	"github.com/beka-birhanu/vinom-maze-sync/syncproto"
	"github.com/google/uuid"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type fakeHost struct {
	mu        sync.Mutex
	outbox    *syncproto.Outbox
	emptyFor  int // MapData calls answered as if nothing was generated
	submitted []seed.Info
	compiler  string
	mod       string
}

func (h *fakeHost) Submit(info seed.Info) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.submitted = append(h.submitted, info)
	return nil
}

func (h *fakeHost) MapData() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.emptyFor > 0 {
		h.emptyFor--
		return nil
	}
	return h.outbox.Units()
}

func (h *fakeHost) SetPaths(compilerPath, modPath string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.compiler, h.mod = compilerPath, modPath
}

type fakeRelay struct {
	joined []uuid.UUID
}

func (r *fakeRelay) Join(id uuid.UUID) { r.joined = append(r.joined, id) }

func (r *fakeRelay) SessionInfo(uuid.UUID) ([]byte, string, error) {
	return []byte{0xff, 0x00, 0x01}, "127.0.0.1:7601", nil
}

func (r *fakeRelay) Announce([]string) {}
func (r *fakeRelay) CompileDone(compiler.Result) {}

func startServer(t *testing.T, host i.MazeHost, relay i.ViewerRelay) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 16)
	srv := grpc.NewServer()
	if err := RegisterNewMapSyncServer(srv, host, relay); err != nil {
		t.Fatal(err)
	}
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	client, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSyncMapDeliversSeed(t *testing.T) {
	host := &fakeHost{outbox: syncproto.NewOutbox()}
	want := seed.New(seed.Random())
	if _, err := host.outbox.Prepare(want); err != nil {
		t.Fatal(err)
	}
	client := startServer(t, host, nil)

	l, err := logger.New("API-TEST", "\033[37m", io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	got := make(chan seed.Info, 1)
	r, err := syncproto.NewReassembler(&syncproto.Config{Logger: l, OnSeed: func(info seed.Info) { got <- info }})
	if err != nil {
		t.Fatal(err)
	}

	if err := client.SyncMap(context.Background(), r); err != nil {
		t.Fatalf("SyncMap: %v", err)
	}
	select {
	case info := <-got:
		if !info.Equal(want) {
			t.Fatal("remote decoded a different seed")
		}
	default:
		t.Fatal("no seed decoded")
	}
}

func TestSyncMapBeforeGeneration(t *testing.T) {
	client := startServer(t, &fakeHost{outbox: syncproto.NewOutbox()}, nil)
	l, err := logger.New("API-TEST", "\033[37m", io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	r, err := syncproto.NewReassembler(&syncproto.Config{Logger: l})
	if err != nil {
		t.Fatal(err)
	}
	err = client.SyncMap(context.Background(), r)
	if status.Code(errors.Unwrap(err)) != codes.Unavailable {
		t.Fatalf("got %v, want Unavailable", err)
	}
}

func TestSyncMapWhenReady(t *testing.T) {
	host := &fakeHost{outbox: syncproto.NewOutbox(), emptyFor: 2}
	want := seed.New(seed.Random())
	if _, err := host.outbox.Prepare(want); err != nil {
		t.Fatal(err)
	}
	client := startServer(t, host, nil)

	l, err := logger.New("API-TEST", "\033[37m", io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	var got []seed.Info
	r, err := syncproto.NewReassembler(&syncproto.Config{Logger: l, OnSeed: func(info seed.Info) { got = append(got, info) }})
	if err != nil {
		t.Fatal(err)
	}

	b := Backoff{Attempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond}
	if err := client.SyncMapWhenReady(context.Background(), r, b); err != nil {
		t.Fatalf("SyncMapWhenReady: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(want) {
		t.Fatal("seed not delivered after the host became ready")
	}

	host.mu.Lock()
	host.emptyFor = 5
	host.mu.Unlock()
	if err := client.SyncMapWhenReady(context.Background(), r, b); status.Code(err) != codes.Unavailable {
		t.Fatalf("got %v, want Unavailable once attempts run out", err)
	}
}

func TestGenerate(t *testing.T) {
	host := &fakeHost{outbox: syncproto.NewOutbox()}
	client := startServer(t, host, nil)

	if err := client.Generate(context.Background(), nil); err != nil {
		t.Fatalf("Generate(nil): %v", err)
	}
	s := seed.Random()
	if err := client.Generate(context.Background(), &s); err != nil {
		t.Fatalf("Generate(seed): %v", err)
	}

	if len(host.submitted) != 2 || host.submitted[0].Seed != nil || !host.submitted[1].Equal(seed.New(s)) {
		t.Fatalf("unexpected submissions %+v", host.submitted)
	}
}

func TestGenerateRejectsShortSeed(t *testing.T) {
	client := startServer(t, &fakeHost{outbox: syncproto.NewOutbox()}, nil)
	err := client.conn.Invoke(context.Background(), GenerateMethod, wrapperspb.Bytes([]byte{1, 2, 3}), new(emptypb.Empty))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("got %v, want InvalidArgument", err)
	}
}

func TestJoin(t *testing.T) {
	client := startServer(t, &fakeHost{outbox: syncproto.NewOutbox()}, nil)
	if _, _, err := client.Join(context.Background(), uuid.NewString()); status.Code(err) != codes.Unimplemented {
		t.Fatalf("got %v, want Unimplemented", err)
	}

	relay := &fakeRelay{}
	client = startServer(t, &fakeHost{outbox: syncproto.NewOutbox()}, relay)
	if _, _, err := client.Join(context.Background(), "not-a-uuid"); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("got %v, want InvalidArgument", err)
	}

	id := uuid.New()
	key, addr, err := client.Join(context.Background(), id.String())
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if addr != "127.0.0.1:7601" || key != base64.StdEncoding.EncodeToString([]byte{0xff, 0x00, 0x01}) {
		t.Fatalf("unexpected session info %q %q", key, addr)
	}
	if len(relay.joined) != 1 || relay.joined[0] != id {
		t.Fatal("viewer not joined")
	}
}

func TestSetPaths(t *testing.T) {
	host := &fakeHost{outbox: syncproto.NewOutbox()}
	client := startServer(t, host, nil)
	if err := client.SetPaths(context.Background(), "/opt/remap", ""); err != nil {
		t.Fatalf("SetPaths: %v", err)
	}
	if host.compiler != "/opt/remap" || host.mod != "" {
		t.Fatalf("got %q %q", host.compiler, host.mod)
	}
}
