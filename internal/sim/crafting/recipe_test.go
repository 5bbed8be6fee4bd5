package crafting

import (
	"errors"
	"testing"
)

func TestRecipeToGridPlacesFootprint(t *testing.T) {
	r := Recipe{ID: "l", Width: 2, Height: 2, Inputs: []ItemID{Wood, Empty, Planks, Stick}, Output: Stick, Count: 1}
	for oy := 0; oy <= 1; oy++ {
		for ox := 0; ox <= 1; ox++ {
			g := r.ToGrid(ox, oy)
			if again := r.ToGrid(ox, oy); again != g {
				t.Fatalf("ToGrid(%d,%d) not deterministic: %v vs %v", ox, oy, g, again)
			}
			for y := 0; y < GridSide; y++ {
				for x := 0; x < GridSide; x++ {
					want := Empty
					lx, ly := x-ox, y-oy
					if lx >= 0 && lx < r.Width && ly >= 0 && ly < r.Height {
						want = r.Inputs[ly*r.Width+lx]
					}
					if got := g.At(x, y); got != want {
						t.Fatalf("offset (%d,%d) cell (%d,%d): got %q want %q", ox, oy, x, y, got, want)
					}
				}
			}
		}
	}
}

func TestRecipeToGridPanicsOutOfRange(t *testing.T) {
	r := Recipe{ID: "tall", Width: 1, Height: 2, Inputs: []ItemID{Planks, Planks}, Output: Stick, Count: 4}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for offset (0,2)")
		}
	}()
	_ = r.ToGrid(0, 2)
}

func TestNewRecipeBookRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		r    Recipe
		want error
	}{
		{"too wide", Recipe{ID: "a", Width: 4, Height: 1, Inputs: make([]ItemID, 4), Output: Stick, Count: 1}, ErrFootprint},
		{"zero height", Recipe{ID: "b", Width: 1, Height: 0, Output: Stick, Count: 1}, ErrFootprint},
		{"inputs len", Recipe{ID: "c", Width: 2, Height: 1, Inputs: []ItemID{Wood}, Output: Stick, Count: 1}, ErrInputsLen},
		{"all empty", Recipe{ID: "d", Width: 1, Height: 1, Inputs: []ItemID{Empty}, Output: Stick, Count: 1}, ErrEmptyInputs},
		{"no output", Recipe{ID: "e", Width: 1, Height: 1, Inputs: []ItemID{Wood}, Count: 1}, ErrOutput},
		{"zero count", Recipe{ID: "f", Width: 1, Height: 1, Inputs: []ItemID{Wood}, Output: Planks}, ErrOutput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRecipeBook([]Recipe{tc.r})
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestNewRecipeBookRejectsDuplicateID(t *testing.T) {
	r := Recipe{ID: "x", Width: 1, Height: 1, Inputs: []ItemID{Wood}, Output: Planks, Count: 4}
	if _, err := NewRecipeBook([]Recipe{r, r}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestRecipeBookCheckItems(t *testing.T) {
	items := DefaultItems()
	if err := DefaultRecipeBook().CheckItems(items); err != nil {
		t.Fatalf("default book: %v", err)
	}
	b, err := NewRecipeBook([]Recipe{{ID: "iron", Width: 1, Height: 1, Inputs: []ItemID{"IRON_ORE"}, Output: Stick, Count: 1}})
	if err != nil {
		t.Fatalf("NewRecipeBook: %v", err)
	}
	if err := b.CheckItems(items); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
}
