package geometry

import (
	"fmt"
	"io"
	"iter"
	"strconv"

	"github.com/beka-birhanu/vinom-maze-sync/maze"
)

// Level-space constants.
const (
	CellSize      float32 = 256
	WallThickness float32 = 5
)

// Texture identifiers per brush role.
const (
	WallTexture    = "maze/wallpaper"
	FloorTexture   = "maze/floor"
	CeilingTexture = "maze/tiles"
)

// Vec3 is a point in level space.
type Vec3 struct {
	X, Y, Z float32
}

// Brush is an axis-aligned solid box with a single texture.
type Brush struct {
	Min     Vec3
	Max     Vec3
	Texture string
}

// NewBrush builds a brush from any two opposite corners.
func NewBrush(a, b Vec3, texture string) Brush {
	return Brush{
		Min:     Vec3{min(a.X, b.X), min(a.Y, b.Y), min(a.Z, b.Z)},
		Max:     Vec3{max(a.X, b.X), max(a.Y, b.Y), max(a.Z, b.Z)},
		Texture: texture,
	}
}

// Synthesize yields the brushes for m: a north and a west wall for every cell whose
// edge is closed, then the bottom and right borders, the ceiling and the floor.
// Each interior edge belongs to the cell south or east of it.
func Synthesize(m *maze.Maze) iter.Seq[Brush] {
	return func(yield func(Brush) bool) {
		for y := range m.Height() {
			for x := range m.Width() {
				if !m.HasPassage(x, y, maze.North) && !yield(northWall(x, y)) {
					return
				}
			}
			for x := range m.Width() {
				if !m.HasPassage(x, y, maze.West) && !yield(westWall(x, y)) {
					return
				}
			}
		}

		for _, b := range enclosure(m.Width(), m.Height()) {
			if !yield(b) {
				return
			}
		}
	}
}

func northWall(x, y int) Brush {
	x1, x2 := float32(x)*CellSize, float32(x+1)*CellSize
	edge := float32(y) * CellSize
	return NewBrush(
		Vec3{x1, edge + WallThickness, 0},
		Vec3{x2, edge - WallThickness, CellSize},
		WallTexture,
	)
}

func westWall(x, y int) Brush {
	y1, y2 := float32(y)*CellSize, float32(y+1)*CellSize
	edge := float32(x) * CellSize
	return NewBrush(
		Vec3{edge + WallThickness, y1, 0},
		Vec3{edge - WallThickness, y2, CellSize},
		WallTexture,
	)
}

// enclosure returns the bottom border, right border, ceiling and floor.
func enclosure(width, height int) []Brush {
	w := float32(width) * CellSize
	h := float32(height) * CellSize
	return []Brush{
		NewBrush(Vec3{0, h + WallThickness, 0}, Vec3{w, h - WallThickness, CellSize}, WallTexture),
		NewBrush(Vec3{w + WallThickness, 0, 0}, Vec3{w - WallThickness, h, CellSize}, WallTexture),
		NewBrush(Vec3{0, 0, CellSize + WallThickness}, Vec3{w, h, CellSize - WallThickness}, CeilingTexture),
		NewBrush(Vec3{0, 0, 0}, Vec3{w, h, -WallThickness}, FloorTexture),
	}
}

// WriteTo writes the brush as a six-plane block of the level description.
func (b Brush) WriteTo(w io.Writer) (int64, error) {
	lo, hi := b.Min, b.Max
	planes := [6][3]Vec3{
		{{lo.X, 0, 0}, {lo.X, 1, 0}, {lo.X, 0, 1}},
		{{0, lo.Y, 0}, {0, lo.Y, 1}, {1, lo.Y, 0}},
		{{0, 0, lo.Z}, {1, 0, lo.Z}, {0, 1, lo.Z}},
		{{hi.X, 0, 0}, {hi.X, 0, 1}, {hi.X, 1, 0}},
		{{0, hi.Y, 0}, {1, hi.Y, 0}, {0, hi.Y, 1}},
		{{0, 0, hi.Z}, {0, 1, hi.Z}, {1, 0, hi.Z}},
	}

	var total int64
	n, err := io.WriteString(w, "{\n")
	total += int64(n)
	if err != nil {
		return total, err
	}
	for _, p := range planes {
		n, err = fmt.Fprintf(w, "%s %s %s %s 0 0 0 0.5 0.5 0 0 0\n", p[0], p[1], p[2], b.Texture)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	n, err = io.WriteString(w, "}\n")
	total += int64(n)
	return total, err
}

// String formats the point as "( x y z )".
func (v Vec3) String() string {
	return "( " + formatUnit(v.X) + " " + formatUnit(v.Y) + " " + formatUnit(v.Z) + " )"
}

func formatUnit(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
