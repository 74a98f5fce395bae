package service

import (
	"errors"
	"fmt"
	"os"
	"sync"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"github.com/beka-birhanu/vinom-maze-sync/config"
	"github.com/beka-birhanu/vinom-maze-sync/mapfile"
	"github.com/beka-birhanu/vinom-maze-sync/maze"
	"github.com/beka-birhanu/vinom-maze-sync/seed"
	"github.com/beka-birhanu/vinom-maze-sync/service/i"
	"github.com/beka-birhanu/vinom-maze-sync/syncproto"
	"github.com/google/uuid"
)

// Generator-related errors.
var (
	ErrMissingDependency = errors.New("generator is missing a dependency")
)

// Generator runs the maze pipeline: generate, write, publish, compile.
type Generator struct {
	paths    *config.Paths
	outbox   *syncproto.Outbox
	writer   *mapfile.Writer
	compiler i.Compiler
	pool     *Pool
	announce func([]string)
	width    int
	height   int
	last     seed.Info
	logger   general_i.Logger
	sync.RWMutex

	// publishMu keeps the map on disk, the published seed and the compile
	// dispatch on the same generation.
	publishMu sync.Mutex
}

// Config configures a Generator. Outbox and Announce are optional: a remote
// regenerates without publishing.
type Config struct {
	Paths    *config.Paths
	Outbox   *syncproto.Outbox
	Compiler i.Compiler
	Pool     *Pool
	Announce func(units []string)
	Width    int
	Height   int
	Logger   general_i.Logger
}

// NewGenerator creates a Generator. Zero dimensions fall back to the default grid.
func NewGenerator(c *Config) (*Generator, error) {
	if c.Paths == nil || c.Compiler == nil || c.Pool == nil || c.Logger == nil {
		return nil, ErrMissingDependency
	}

	width, height := c.Width, c.Height
	if width == 0 && height == 0 {
		width, height = maze.DefaultWidth, maze.DefaultHeight
	}

	return &Generator{
		paths:    c.Paths,
		outbox:   c.Outbox,
		writer:   mapfile.NewWriter(c.Logger),
		compiler: c.Compiler,
		pool:     c.Pool,
		announce: c.Announce,
		width:    width,
		height:   height,
		logger:   c.Logger,
	}, nil
}

// Submit hands a generation to the worker pool and returns immediately.
func (g *Generator) Submit(info seed.Info) error {
	err := g.pool.Submit(func() {
		if err := g.Generate(info); err != nil {
			g.logger.Error(fmt.Sprintf("generating maze: %s", err))
		}
	})
	if err != nil {
		g.logger.Warning(fmt.Sprintf("maze generation not queued: %s", err))
	}
	return err
}

// Generate runs the whole pipeline on the calling goroutine. Nothing is written
// when the maze cannot be generated, and nothing is compiled when the write fails.
// Concurrent calls may build mazes in parallel but write, publish and compile one
// at a time.
func (g *Generator) Generate(info seed.Info) error {
	info, drawn := info.Resolve()
	id := uuid.New()
	if drawn {
		g.logger.Info(fmt.Sprintf("[%s] generated random seed: %s", id, info.Seed))
	}

	m, err := maze.Generate(*info.Seed, g.width, g.height)
	if err != nil {
		return fmt.Errorf("maze %s: %w", id, err)
	}
	g.logger.Info(fmt.Sprintf("[%s] maze generated from seed %s", id, info.Seed))

	g.publishMu.Lock()
	defer g.publishMu.Unlock()

	layout := g.paths.Snapshot()
	if err := os.MkdirAll(layout.MapsDir(), 0o755); err != nil {
		return fmt.Errorf("maze %s: creating maps directory: %w", id, err)
	}
	if err := g.writer.Write(layout.MapFile(), m); err != nil {
		return fmt.Errorf("maze %s: %w", id, err)
	}

	g.Lock()
	g.last = info
	g.Unlock()

	if g.outbox != nil {
		units, err := g.outbox.Prepare(info)
		if err != nil {
			return fmt.Errorf("maze %s: publishing seed: %w", id, err)
		}
		g.logger.Info(fmt.Sprintf("[%s] seed published in %d slices", id, len(units)))
		if g.announce != nil {
			g.announce(syncproto.Frame(units))
		}
	}

	if err := g.compiler.Compile(layout.MapFile()); err != nil {
		return fmt.Errorf("maze %s: %w", id, err)
	}
	return nil
}

// LastInfo returns the seed info of the most recent generation.
func (g *Generator) LastInfo() seed.Info {
	g.RLock()
	defer g.RUnlock()
	return g.last
}

// MapData returns the framed units of the published seed.
func (g *Generator) MapData() []string {
	if g.outbox == nil {
		return nil
	}
	return g.outbox.Units()
}

// SetPaths replaces the compiler and mod locations; empty values are left unchanged.
func (g *Generator) SetPaths(compilerPath, modPath string) {
	if compilerPath != "" {
		old := g.paths.SetCompilerPath(compilerPath)
		g.logger.Info(fmt.Sprintf("replacing compiler path: %s with %s", old, compilerPath))
	}
	if modPath != "" {
		old := g.paths.SetModPath(modPath)
		g.logger.Info(fmt.Sprintf("replacing mod path: %s with %s", old, modPath))
	}
}
