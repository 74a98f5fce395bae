package mapfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"github.com/beka-birhanu/vinom-maze-sync/geometry"
	"github.com/beka-birhanu/vinom-maze-sync/maze"
)

// Fixed auxiliary entities.
const (
	SpawnOrigin = "128 128 50"
	PropModel   = "models/humans/heroes/mlt_hero_sarah.mdl"
	PropScale   = "2"
)

// Writer renders mazes into level description files.
type Writer struct {
	logger general_i.Logger
}

// NewWriter creates a Writer that reports non-fatal problems to logger.
func NewWriter(logger general_i.Logger) *Writer {
	return &Writer{logger: logger}
}

// Write replaces the file at path with the level description of m.
// A failure part way leaves a truncated file behind; the next Write overwrites it.
func (w *Writer) Write(path string, m *maze.Maze) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		w.logger.Warning(fmt.Sprintf("removing old map file %s: %s", path, err))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating map file: %w", err)
	}

	if err := Render(f, m); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing map file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing map file: %w", err)
	}

	w.logger.Info(fmt.Sprintf("map fully written to %s", path))
	return nil
}

// Render writes the worldspawn block holding every brush of m, followed by the
// player spawn and a prop at the centre of the maze.
func Render(out io.Writer, m *maze.Maze) error {
	bw := bufio.NewWriter(out)

	if _, err := io.WriteString(bw, "{\n\"classname\" \"worldspawn\"\n"); err != nil {
		return err
	}
	for brush := range geometry.Synthesize(m) {
		if _, err := brush.WriteTo(bw); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(bw, "}\n"); err != nil {
		return err
	}

	centerX := float32(m.Width()) * geometry.CellSize / 2
	centerY := float32(m.Height()) * geometry.CellSize / 2
	_, err := fmt.Fprintf(bw, `{
"classname" "info_player_start"
"origin" "%s"
}
{
"classname" "prop_dynamic"
"origin" "%g %g 0"
"model" "%s"
"angles" "0 0 0"
"modelscale" "%s"
}
`, SpawnOrigin, centerX, centerY, PropModel, PropScale)
	if err != nil {
		return err
	}

	return bw.Flush()
}
