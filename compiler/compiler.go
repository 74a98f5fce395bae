package compiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"github.com/beka-birhanu/vinom-maze-sync/config"
)

// Compiler errors.
var (
	ErrSpawn  = errors.New("compiler could not be started")
	ErrFailed = errors.New("compiler exited unsuccessfully")
)

// Result describes a finished compilation.
type Result struct {
	MapName string
	Err     error // nil on a clean exit
}

// Config configures a Bridge.
type Config struct {
	Paths      *config.Paths
	Connect    string
	Logger     general_i.Logger
	OnComplete func(Result)
}

// Bridge runs the external map compiler without blocking its caller.
type Bridge struct {
	paths      *config.Paths
	connect    string
	logger     general_i.Logger
	onComplete func(Result)
	wg         sync.WaitGroup
}

// New creates a Bridge.
func New(c *Config) *Bridge {
	onComplete := c.OnComplete
	if onComplete == nil {
		onComplete = func(Result) {}
	}
	return &Bridge{
		paths:      c.Paths,
		connect:    c.Connect,
		logger:     c.Logger,
		onComplete: onComplete,
	}
}

// Compile starts the compiler on mapFile and returns once the process is running.
// When it exits, the artifacts are copied into the mod directory and the
// completion callback runs, whatever the exit status.
func (b *Bridge) Compile(mapFile string) error {
	layout := b.paths.Snapshot()
	b.logger.Info(fmt.Sprintf("compiling %s", layout.MapName))

	cmd := exec.Command(layout.Compiler,
		"-v",
		"-connect", b.connect,
		"-game", "titanfall2",
		"-fs_basepath", layout.Mod,
		"-fs_game", layout.GameDir,
		"-meta", mapFile,
	)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		b.logger.Error(fmt.Sprintf("compilation failed: command not started: %s", err))
		return fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	b.wg.Add(1)
	go b.await(cmd, layout)
	return nil
}

// Wait blocks until every started compilation has been handled.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

func (b *Bridge) await(cmd *exec.Cmd, layout config.Layout) {
	defer b.wg.Done()

	result := Result{MapName: layout.MapName}
	if err := cmd.Wait(); err != nil {
		result.Err = fmt.Errorf("%w: %w", ErrFailed, err)
		b.logger.Error(fmt.Sprintf("compilation finished with error: %s", err))
	} else {
		b.logger.Info("compilation finished")
	}

	CopyArtifacts(layout, b.logger)
	b.onComplete(result)
}

// CopyArtifacts replaces the artifacts in the mod directory with the ones the
// compiler left next to the level description. Failures are logged per file.
func CopyArtifacts(layout config.Layout, logger general_i.Logger) {
	for _, name := range layout.Artifacts() {
		dst := filepath.Join(layout.Mod, name)
		src := filepath.Join(layout.MapsDir(), name)
		logger.Info(fmt.Sprintf("copying %s to %s", name, layout.Mod))

		if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warning(fmt.Sprintf("removing old %s: %s", name, err))
		}
		if err := copyFile(src, dst); err != nil {
			logger.Error(fmt.Sprintf("copying %s: %s", name, err))
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
