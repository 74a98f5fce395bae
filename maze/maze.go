package maze

import (
	"errors"
	"math/rand/v2"

	"github.com/beka-birhanu/vinom-maze-sync/seed"
)

// Default grid dimensions.
const (
	DefaultWidth  = 30
	DefaultHeight = 30
)

// Maze-related errors.
var (
	ErrZeroDimension = errors.New("maze width and height must be positive")
	ErrOutOfBounds   = errors.New("cell is out of the maze")
	ErrCellCount     = errors.New("cell count does not match the maze size")
	ErrOneSided      = errors.New("passage is not open on both sides")
)

// Direction is a passage bit on a cell. North is toward row 0, West toward column 0.
type Direction uint8

const (
	North Direction = 1 << iota
	South
	East
	West
)

// Opposite returns the direction pointing back across the same edge.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return 0
}

func (d Direction) offset() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

// Maze is a grid of cells where each cell holds a bitmask of open passages.
type Maze struct {
	width  int
	height int
	cells  []Direction
}

func newMaze(width, height int) (*Maze, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrZeroDimension
	}
	return &Maze{
		width:  width,
		height: height,
		cells:  make([]Direction, width*height),
	}, nil
}

// FromCells builds a maze from row-major passage masks. Every passage must
// stay inside the grid and be open from both cells it joins.
func FromCells(width, height int, cells []Direction) (*Maze, error) {
	m, err := newMaze(width, height)
	if err != nil {
		return nil, err
	}
	if len(cells) != len(m.cells) {
		return nil, ErrCellCount
	}
	copy(m.cells, cells)

	for y := range height {
		for x := range width {
			for _, d := range []Direction{North, South, East, West} {
				if !m.HasPassage(x, y, d) {
					continue
				}
				dx, dy := d.offset()
				if !m.HasPassage(x+dx, y+dy, d.Opposite()) {
					return nil, ErrOneSided
				}
			}
		}
	}
	return m, nil
}

// Width returns the number of columns.
func (m *Maze) Width() int { return m.width }

// Height returns the number of rows.
func (m *Maze) Height() int { return m.height }

// InBound reports whether (x, y) names a cell.
func (m *Maze) InBound(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.width && y < m.height
}

// Cell returns the passage mask of the cell at (x, y).
func (m *Maze) Cell(x, y int) (Direction, error) {
	if !m.InBound(x, y) {
		return 0, ErrOutOfBounds
	}
	return m.cells[y*m.width+x], nil
}

// HasPassage reports whether the cell at (x, y) is open toward d.
func (m *Maze) HasPassage(x, y int, d Direction) bool {
	c, err := m.Cell(x, y)
	if err != nil {
		return false
	}
	return c&d != 0
}

// Passages counts the open edges between cells. A spanning tree has width*height-1.
func (m *Maze) Passages() int {
	n := 0
	for y := range m.height {
		for x := range m.width {
			if m.HasPassage(x, y, East) {
				n++
			}
			if m.HasPassage(x, y, South) {
				n++
			}
		}
	}
	return n
}

// carve opens the edge between (x, y) and its neighbour toward d on both sides.
func (m *Maze) carve(x, y int, d Direction) {
	dx, dy := d.offset()
	m.cells[y*m.width+x] |= d
	m.cells[(y+dy)*m.width+x+dx] |= d.Opposite()
}

// Equal reports whether two mazes have the same dimensions and passages.
func (m *Maze) Equal(o *Maze) bool {
	if m.width != o.width || m.height != o.height {
		return false
	}
	for i := range m.cells {
		if m.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Generate builds a perfect maze of the given size with Eller's algorithm.
// The same seed and dimensions always yield the same maze.
func Generate(s seed.Seed, width, height int) (*Maze, error) {
	m, err := newMaze(width, height)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewChaCha8(s))
	sets := make([]int, width)
	nextSet := 1

	for y := range height {
		lastRow := y == height-1

		for x := range width {
			if sets[x] == 0 {
				sets[x] = nextSet
				nextSet++
			}
		}

		for x := 0; x < width-1; x++ {
			if sets[x] == sets[x+1] {
				continue
			}
			if lastRow || rng.IntN(2) == 0 {
				m.carve(x, y, East)
				merge(sets, sets[x+1], sets[x])
			}
		}

		if lastRow {
			break
		}

		next := make([]int, width)
		for _, members := range groupBySet(sets) {
			carved := false
			for _, x := range members {
				if rng.IntN(2) == 0 {
					m.carve(x, y, South)
					next[x] = sets[x]
					carved = true
				}
			}
			if !carved {
				x := members[rng.IntN(len(members))]
				m.carve(x, y, South)
				next[x] = sets[x]
			}
		}
		sets = next
	}

	return m, nil
}

// merge relabels every cell of set from into set to.
func merge(sets []int, from, to int) {
	for i, s := range sets {
		if s == from {
			sets[i] = to
		}
	}
}

// groupBySet returns the columns of each set, ordered by the set's leftmost column.
func groupBySet(sets []int) [][]int {
	index := make(map[int]int)
	groups := make([][]int, 0)
	for x, s := range sets {
		i, ok := index[s]
		if !ok {
			i = len(groups)
			index[s] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], x)
	}
	return groups
}
