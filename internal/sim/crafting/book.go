package crafting

import "fmt"

// RecipeBook is an ordered, immutable recipe list. Order decides ties.
type RecipeBook struct {
	recipes []Recipe
}

// Match is a recipe together with the offset it matched at.
type Match struct {
	Recipe  *Recipe
	OffsetX int
	OffsetY int
}

func NewRecipeBook(recipes []Recipe) (*RecipeBook, error) {
	b := &RecipeBook{recipes: make([]Recipe, 0, len(recipes))}
	seen := make(map[string]struct{}, len(recipes))
	for _, r := range recipes {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if r.ID != "" {
			if _, dup := seen[r.ID]; dup {
				return nil, fmt.Errorf("recipe %q: %w", r.ID, ErrDuplicateID)
			}
			seen[r.ID] = struct{}{}
		}
		r.Inputs = append([]ItemID(nil), r.Inputs...)
		b.recipes = append(b.recipes, r)
	}
	return b, nil
}

func DefaultRecipeBook() *RecipeBook {
	b, err := NewRecipeBook([]Recipe{
		{ID: "planks_from_wood", Width: 1, Height: 1, Inputs: []ItemID{Wood}, Output: Planks, Count: 4},
		{ID: "sticks_from_planks", Width: 1, Height: 2, Inputs: []ItemID{Planks, Planks}, Output: Stick, Count: 4},
	})
	if err != nil {
		panic(err)
	}
	return b
}

func (b *RecipeBook) Len() int { return len(b.recipes) }

// Recipe returns the i-th recipe in book order.
func (b *RecipeBook) Recipe(i int) *Recipe { return &b.recipes[i] }

// CheckItems reports the first recipe that references an item the catalog
// does not know.
func (b *RecipeBook) CheckItems(items *ItemCatalog) error {
	for i := range b.recipes {
		r := &b.recipes[i]
		for _, in := range r.Inputs {
			if in != Empty && !items.Known(in) {
				return fmt.Errorf("recipe %q: %w: %s", r.ID, ErrUnknownItem, in)
			}
		}
		if !items.Known(r.Output) {
			return fmt.Errorf("recipe %q: %w: %s", r.ID, ErrUnknownItem, r.Output)
		}
	}
	return nil
}

// Match returns the first recipe whose footprint, expanded at some offset,
// equals the whole grid. Recipes are tried in book order, offsets with oy
// outer and ox inner, both ascending.
func (b *RecipeBook) Match(g Grid) (Match, bool) {
	for i := range b.recipes {
		r := &b.recipes[i]
		for oy := 0; oy <= GridSide-r.Height; oy++ {
			for ox := 0; ox <= GridSide-r.Width; ox++ {
				if r.ToGrid(ox, oy) == g {
					return Match{Recipe: r, OffsetX: ox, OffsetY: oy}, true
				}
			}
		}
	}
	return Match{}, false
}
