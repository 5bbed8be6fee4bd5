package crafting

import (
	"errors"
	"fmt"
)

var (
	ErrFootprint   = errors.New("footprint out of bounds")
	ErrInputsLen   = errors.New("inputs length does not match footprint")
	ErrEmptyInputs = errors.New("footprint has no required items")
	ErrOutput      = errors.New("invalid output")
	ErrDuplicateID = errors.New("duplicate recipe id")
	ErrUnknownItem = errors.New("unknown item")
)

// Recipe is a width x height pattern of required items (row-major, Empty for
// a cell that must stay empty) producing Count of Output.
type Recipe struct {
	ID     string
	Width  int
	Height int
	Inputs []ItemID
	Output ItemID
	Count  int
}

func (r *Recipe) Validate() error {
	if r.Width < 1 || r.Width > GridSide || r.Height < 1 || r.Height > GridSide {
		return fmt.Errorf("recipe %q: %w: %dx%d", r.ID, ErrFootprint, r.Width, r.Height)
	}
	if len(r.Inputs) != r.Width*r.Height {
		return fmt.Errorf("recipe %q: %w: got %d want %d", r.ID, ErrInputsLen, len(r.Inputs), r.Width*r.Height)
	}
	nonEmpty := false
	for _, in := range r.Inputs {
		if in != Empty {
			nonEmpty = true
			break
		}
	}
	if !nonEmpty {
		return fmt.Errorf("recipe %q: %w", r.ID, ErrEmptyInputs)
	}
	if r.Output == Empty || r.Count <= 0 {
		return fmt.Errorf("recipe %q: %w: %s x%d", r.ID, ErrOutput, r.Output, r.Count)
	}
	return nil
}

// ToGrid places the footprint with its top-left corner at (ox, oy). Offsets
// outside [0, 3-Width] x [0, 3-Height] panic.
func (r *Recipe) ToGrid(ox, oy int) Grid {
	if ox < 0 || oy < 0 || ox > GridSide-r.Width || oy > GridSide-r.Height {
		panic(fmt.Sprintf("crafting: offset (%d,%d) out of range for %dx%d recipe %q", ox, oy, r.Width, r.Height, r.ID))
	}
	var g Grid
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			g[CellIndex(x+ox, y+oy)] = r.Inputs[y*r.Width+x]
		}
	}
	return g
}
