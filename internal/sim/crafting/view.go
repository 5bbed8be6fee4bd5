package crafting

import "strconv"

type CellView struct {
	Item ItemID `json:"item,omitempty"`
	Icon string `json:"icon,omitempty"`
}

type OutputView struct {
	Item  ItemID `json:"item,omitempty"`
	Icon  string `json:"icon,omitempty"`
	Count string `json:"count"`
}

type SlotView struct {
	Item     ItemID `json:"item"`
	Icon     string `json:"icon,omitempty"`
	Selected bool   `json:"selected"`
}

// View is what the host UI renders: grid cells, the output slot and the
// inventory highlight.
type View struct {
	Cells     [GridCells]CellView `json:"cells"`
	Output    OutputView          `json:"output"`
	Inventory []SlotView          `json:"inventory"`
}

// View projects the last Sync result; call Sync first after mutating.
func (s *Session) View(icons IconResolver) View {
	var v View
	for i, c := range s.grid {
		if c != Empty {
			v.Cells[i] = CellView{Item: c, Icon: icons.Icon(c)}
		}
	}
	if m, ok := s.Result(); ok {
		v.Output = OutputView{
			Item:  m.Recipe.Output,
			Icon:  icons.Icon(m.Recipe.Output),
			Count: strconv.Itoa(m.Recipe.Count),
		}
	}
	v.Inventory = make([]SlotView, len(s.inventory))
	for i, it := range s.inventory {
		v.Inventory[i] = SlotView{Item: it, Icon: icons.Icon(it), Selected: i == s.selected}
	}
	return v
}
