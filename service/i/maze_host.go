package i

import (
	"github.com/beka-birhanu/vinom-maze-sync/seed"
)

// MazeHost owns maze generation and serves the published seed.
type MazeHost interface {
	// Submit queues a generation for the given seed info; it never blocks.
	Submit(seed.Info) error

	// MapData returns the START, slice and END units of the last published seed.
	MapData() []string

	// SetPaths replaces the compiler and mod locations; empty values are left unchanged.
	SetPaths(compilerPath, modPath string)
}
