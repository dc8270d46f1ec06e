// internal/woodoku/catalogue.go
//
// Shape catalogue management for the woodoku engine.
//
// Responsibilities:
//   - Load the shape catalogue from SHAPES_FILE or fall back to the embedded default.
//   - Normalise each entry into a ShapeSize footprint (ShapeSide×ShapeSide, row-major).
//   - Map catalogue entries to stable ids (id 0 is reserved for a placed slot).
//
// Catalogue format (JSON):
//   [{"name": "corner3-nw", "rows": ["##", "#."]}, ...]
//   '#' is a filled cell, anything else is empty. Rows shorter than ShapeSide
//   are right-padded; missing rows are empty.

package woodoku

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/robalobadob/woodoku-env/assets"
)

var (
	defaultOnce sync.Once
	defaultCat  *Catalogue
	defaultErr  error
)

// Shape is one catalogue entry.
type Shape struct {
	ID    int    // 1-based catalogue id
	Name  string // human-readable name from the catalogue file
	Cells []bool // ShapeSize footprint, row-major
}

// Catalogue is an immutable, ordered list of shapes.
type Catalogue struct {
	shapes []Shape
}

type shapeEntry struct {
	Name string   `json:"name"`
	Rows []string `json:"rows"`
}

// DefaultCatalogue loads the catalogue exactly once.
// SHAPES_FILE overrides the embedded assets/shapes.json.
func DefaultCatalogue() (*Catalogue, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = LoadCatalogue(os.Getenv("SHAPES_FILE"))
	})
	return defaultCat, defaultErr
}

// LoadCatalogue reads a catalogue from path, or the embedded one when path is empty.
func LoadCatalogue(path string) (*Catalogue, error) {
	var (
		raw []byte
		err error
	)
	if path != "" {
		raw, err = os.ReadFile(path)
	} else {
		raw, err = assets.ShapesJSON()
	}
	if err != nil {
		return nil, fmt.Errorf("load shapes: %w", err)
	}
	return ParseCatalogue(raw)
}

// ParseCatalogue decodes a JSON catalogue.
func ParseCatalogue(raw []byte) (*Catalogue, error) {
	var entries []shapeEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}
	shapes := make([]Shape, 0, len(entries))
	for i, e := range entries {
		cells, err := footprint(e.Rows)
		if err != nil {
			return nil, fmt.Errorf("shape %d (%s): %w", i, e.Name, err)
		}
		shapes = append(shapes, Shape{ID: i + 1, Name: e.Name, Cells: cells})
	}
	return NewCatalogue(shapes)
}

// NewCatalogue builds a catalogue from explicit shapes; ids are reassigned by position.
func NewCatalogue(shapes []Shape) (*Catalogue, error) {
	if len(shapes) < ShapesBatchSize {
		return nil, fmt.Errorf("catalogue needs at least %d shapes, got %d", ShapesBatchSize, len(shapes))
	}
	out := make([]Shape, len(shapes))
	for i, s := range shapes {
		if len(s.Cells) != ShapeSize {
			return nil, fmt.Errorf("shape %d: want %d cells, got %d", i, ShapeSize, len(s.Cells))
		}
		if !anyTrue(s.Cells) {
			return nil, fmt.Errorf("shape %d: no filled cell", i)
		}
		cells := make([]bool, ShapeSize)
		copy(cells, s.Cells)
		out[i] = Shape{ID: i + 1, Name: s.Name, Cells: cells}
	}
	return &Catalogue{shapes: out}, nil
}

// Len returns the number of shapes.
func (c *Catalogue) Len() int { return len(c.shapes) }

// Shape returns the shape for a 1-based id.
func (c *Catalogue) Shape(id int) (Shape, bool) {
	if id < 1 || id > len(c.shapes) {
		return Shape{}, false
	}
	return c.shapes[id-1], true
}

// Lookup returns the shape with the given name.
func (c *Catalogue) Lookup(name string) (Shape, bool) {
	for _, s := range c.shapes {
		if s.Name == name {
			return s, true
		}
	}
	return Shape{}, false
}

func footprint(rows []string) ([]bool, error) {
	if len(rows) == 0 || len(rows) > ShapeSide {
		return nil, fmt.Errorf("want 1..%d rows, got %d", ShapeSide, len(rows))
	}
	cells := make([]bool, ShapeSize)
	for r, row := range rows {
		if len(row) > ShapeSide {
			return nil, fmt.Errorf("row %d wider than %d", r, ShapeSide)
		}
		for c, ch := range row {
			cells[r*ShapeSide+c] = ch == '#'
		}
	}
	if !anyTrue(cells) {
		return nil, errors.New("no filled cell")
	}
	return cells, nil
}

func anyTrue(cells []bool) bool {
	for _, c := range cells {
		if c {
			return true
		}
	}
	return false
}
