package compiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	logger "github.com/beka-birhanu/vinom-common/log"
	"github.com/beka-birhanu/vinom-maze-sync/config"
)

const fakeCompiler = `#!/bin/sh
for last; do :; done
base="${last%%.map}"
echo bsp > "$base.bsp"
echo ent > "${base}_script.ent"
exit %d
`

func testLogger(t *testing.T) general_i.Logger {
	t.Helper()
	l, err := logger.New("COMPILER-TEST", "\033[37m", io.Discard)
	if err != nil {
		t.Fatalf("creating logger: %v", err)
	}
	return l
}

// setup lays out a mod directory with a fake compiler that exits with code.
func setup(t *testing.T, code int) (*config.Paths, config.Layout) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler is a shell script")
	}

	root := t.TempDir()
	compilerPath := filepath.Join(root, "remap")
	script := []byte(fmt.Sprintf(fakeCompiler, code))
	if err := os.WriteFile(compilerPath, script, 0o755); err != nil {
		t.Fatal(err)
	}

	mod := filepath.Join(root, "mod")
	paths := config.NewPaths(config.Config{CompilerPath: compilerPath, ModPath: mod, MapName: "mp_maze", GameDir: "Titanfall2"})
	layout := paths.Snapshot()
	if err := os.MkdirAll(layout.MapsDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(layout.MapFile(), []byte("{\n}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return paths, layout
}

func TestCompileCopiesArtifactsAndNotifies(t *testing.T) {
	paths, layout := setup(t, 0)
	stale := filepath.Join(layout.Mod, "mp_maze.bsp")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	done := make(chan Result, 1)
	b := New(&Config{Paths: paths, Connect: "127.0.0.1:39000", Logger: testLogger(t), OnComplete: func(r Result) { done <- r }})

	if err := b.Compile(layout.MapFile()); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	b.Wait()

	r := <-done
	if r.Err != nil || r.MapName != "mp_maze" {
		t.Fatalf("unexpected result %+v", r)
	}
	for name, want := range map[string]string{"mp_maze.bsp": "bsp\n", "mp_maze_script.ent": "ent\n"} {
		got, err := os.ReadFile(filepath.Join(layout.Mod, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if string(got) != want {
			t.Fatalf("%s holds %q, want %q", name, got, want)
		}
	}
}

func TestCompileFailureStillNotifies(t *testing.T) {
	paths, layout := setup(t, 3)

	done := make(chan Result, 1)
	b := New(&Config{Paths: paths, Logger: testLogger(t), OnComplete: func(r Result) { done <- r }})
	if err := b.Compile(layout.MapFile()); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	b.Wait()

	if r := <-done; !errors.Is(r.Err, ErrFailed) {
		t.Fatalf("got %v, want ErrFailed", r.Err)
	}
}

func TestCompileSpawnFailure(t *testing.T) {
	paths, layout := setup(t, 0)
	paths.SetCompilerPath(filepath.Join(t.TempDir(), "does-not-exist"))

	called := false
	b := New(&Config{Paths: paths, Logger: testLogger(t), OnComplete: func(Result) { called = true }})
	if err := b.Compile(layout.MapFile()); !errors.Is(err, ErrSpawn) {
		t.Fatalf("got %v, want ErrSpawn", err)
	}
	b.Wait()
	if called {
		t.Fatal("completion ran after a spawn failure")
	}
}

func TestCopyArtifactsMissingSource(t *testing.T) {
	root := t.TempDir()
	layout := config.Layout{Mod: root, MapName: "mp_maze", GameDir: "Titanfall2"}

	// Nothing to copy: every failure is logged, none is fatal.
	CopyArtifacts(layout, testLogger(t))

	if _, err := os.Stat(filepath.Join(root, "mp_maze.bsp")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("unexpected artifact: %v", err)
	}
}
