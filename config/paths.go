package config

import (
	"path/filepath"
	"sync"
)

// Paths holds the compiler and mod locations. Both may change while the
// process runs; readers take a fresh snapshot for every generation.
type Paths struct {
	compiler string
	mod      string
	mapName  string
	gameDir  string
	sync.RWMutex
}

// Layout is an immutable snapshot of Paths.
type Layout struct {
	Compiler string
	Mod      string
	MapName  string
	GameDir  string
}

// NewPaths creates Paths from the loaded configuration.
func NewPaths(c Config) *Paths {
	return &Paths{
		compiler: c.CompilerPath,
		mod:      c.ModPath,
		mapName:  c.MapName,
		gameDir:  c.GameDir,
	}
}

// SetCompilerPath replaces the compiler location and returns the previous one.
func (p *Paths) SetCompilerPath(path string) string {
	p.Lock()
	defer p.Unlock()
	old := p.compiler
	p.compiler = path
	return old
}

// SetModPath replaces the mod directory and returns the previous one.
func (p *Paths) SetModPath(path string) string {
	p.Lock()
	defer p.Unlock()
	old := p.mod
	p.mod = path
	return old
}

// Snapshot returns the current locations.
func (p *Paths) Snapshot() Layout {
	p.RLock()
	defer p.RUnlock()
	return Layout{
		Compiler: p.compiler,
		Mod:      p.mod,
		MapName:  p.mapName,
		GameDir:  p.gameDir,
	}
}

// MapsDir is where the level description is written and the compiler leaves its output.
func (l Layout) MapsDir() string {
	return filepath.Join(l.Mod, l.GameDir, "maps")
}

// MapFile is the level description path.
func (l Layout) MapFile() string {
	return filepath.Join(l.MapsDir(), l.MapName+".map")
}

// Artifacts lists the files the compiler produces for the level.
func (l Layout) Artifacts() []string {
	return []string{l.MapName + ".bsp", l.MapName + "_script.ent"}
}
