package mapfile

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	logger "github.com/beka-birhanu/vinom-common/log"
	"github.com/beka-birhanu/vinom-maze-sync/maze"
	"github.com/beka-birhanu/vinom-maze-sync/seed"
)

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	l, err := logger.New("MAPFILE-TEST", "\033[37m", io.Discard)
	if err != nil {
		t.Fatalf("creating logger: %v", err)
	}
	var gl general_i.Logger = l
	return NewWriter(gl)
}

func TestWriteTwoByOne(t *testing.T) {
	m, err := maze.Generate(seed.Seed{}, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "mp_maze.map")
	if err := newTestWriter(t).Write(path, m); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	if n := strings.Count(text, `"classname" "worldspawn"`); n != 1 {
		t.Fatalf("got %d worldspawn blocks, want 1", n)
	}
	if n := strings.Count(text, "maze/"); n != 7*6 {
		t.Fatalf("got %d textured planes, want %d", n, 7*6)
	}
	if !strings.Contains(text, `"classname" "info_player_start"`+"\n"+`"origin" "128 128 50"`) {
		t.Fatal("missing player spawn")
	}
	if !strings.Contains(text, `"classname" "prop_dynamic"`+"\n"+`"origin" "256 128 0"`) {
		t.Fatal("missing centred prop")
	}
	if n := strings.Count(text, `"classname"`); n != 3 {
		t.Fatalf("got %d entities, want 3", n)
	}
	if strings.Count(text, "{") != strings.Count(text, "}") {
		t.Fatal("unbalanced braces")
	}
}

func TestWriteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mp_maze.map")
	if err := os.WriteFile(path, []byte(strings.Repeat("stale\n", 100000)), 0o644); err != nil {
		t.Fatal(err)
	}

	m, _ := maze.Generate(seed.Seed{}, 1, 1)
	if err := newTestWriter(t).Write(path, m); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "stale") {
		t.Fatal("old content survived")
	}
}

func TestWriteMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "mp_maze.map")
	m, _ := maze.Generate(seed.Seed{}, 1, 1)
	if err := newTestWriter(t).Write(path, m); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrShortWrite }

func TestRenderSurfacesWriteErrors(t *testing.T) {
	m, _ := maze.Generate(seed.Seed{}, 30, 30)
	if err := Render(failingWriter{}, m); err == nil {
		t.Fatal("expected a write error")
	}
}
