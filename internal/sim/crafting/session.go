package crafting

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonOther
)

func (b Button) String() string {
	switch b {
	case ButtonPrimary:
		return "PRIMARY"
	case ButtonSecondary:
		return "SECONDARY"
	default:
		return "OTHER"
	}
}

// ParseButton maps wire names to buttons; anything unrecognized is ButtonOther.
func ParseButton(s string) Button {
	switch s {
	case "PRIMARY":
		return ButtonPrimary
	case "SECONDARY":
		return ButtonSecondary
	default:
		return ButtonOther
	}
}

// NoSelection is the Selected value of a state with no selected slot.
const NoSelection = -1

// SessionState is the persistable part of a Session.
type SessionState struct {
	Inventory []ItemID `json:"inventory"`
	Selected  int      `json:"selected"`
	Grid      Grid     `json:"grid"`
}

// Session holds one player's inventory, selection and crafting grid. It is
// not safe for concurrent use; the owner applies events and calls Sync from
// a single goroutine.
type Session struct {
	book *RecipeBook

	inventory []ItemID
	selected  int
	grid      Grid

	dirty   bool
	match   Match
	matched bool
	evals   uint64
}

// NewSession starts with an empty grid. selected is a slot index or
// NoSelection.
func NewSession(book *RecipeBook, inventory []ItemID, selected int) *Session {
	s := &Session{
		book:      book,
		inventory: append([]ItemID(nil), inventory...),
		selected:  NoSelection,
		dirty:     true,
	}
	if selected != NoSelection {
		s.Select(selected)
	}
	return s
}

func (s *Session) Book() *RecipeBook { return s.book }

func (s *Session) Inventory() []ItemID { return append([]ItemID(nil), s.inventory...) }

func (s *Session) Selection() (int, bool) {
	return s.selected, s.selected != NoSelection
}

func (s *Session) Grid() Grid { return s.grid }

func (s *Session) Dirty() bool { return s.dirty }

// Evaluations counts matcher runs performed by Sync.
func (s *Session) Evaluations() uint64 { return s.evals }

// Select makes inventory slot k the current selection.
func (s *Session) Select(k int) {
	if k < 0 || k >= len(s.inventory) {
		panic(fmt.Sprintf("crafting: inventory slot %d out of range [0,%d)", k, len(s.inventory)))
	}
	s.selected = k
}

// Interact applies a click on crafting cell. Primary places the selected
// item (or nothing without a selection), secondary clears, anything else is
// ignored. Reports whether the cell changed.
func (s *Session) Interact(cell int, b Button) bool {
	if cell < 0 || cell >= GridCells {
		panic(fmt.Sprintf("crafting: grid cell %d out of range [0,%d)", cell, GridCells))
	}
	var item ItemID
	switch b {
	case ButtonPrimary:
		if s.selected != NoSelection {
			item = s.inventory[s.selected]
		}
	case ButtonSecondary:
		item = Empty
	default:
		return false
	}
	if s.grid[cell] == item {
		return false
	}
	s.grid[cell] = item
	s.dirty = true
	return true
}

// Sync re-runs the matcher if the grid changed since the last run.
func (s *Session) Sync() bool {
	if !s.dirty {
		return false
	}
	s.match, s.matched = s.book.Match(s.grid)
	s.evals++
	s.dirty = false
	return true
}

// Result is the outcome of the most recent Sync.
func (s *Session) Result() (Match, bool) { return s.match, s.matched }

func (s *Session) State() SessionState {
	return SessionState{
		Inventory: s.Inventory(),
		Selected:  s.selected,
		Grid:      s.grid,
	}
}

// Restore replaces inventory, selection and grid with st. Unlike Select it
// reports bad indices as errors since st usually comes from disk.
func (s *Session) Restore(st SessionState) error {
	if st.Selected != NoSelection && (st.Selected < 0 || st.Selected >= len(st.Inventory)) {
		return fmt.Errorf("restore: selected slot %d out of range [0,%d)", st.Selected, len(st.Inventory))
	}
	s.inventory = append([]ItemID(nil), st.Inventory...)
	s.selected = st.Selected
	s.grid = st.Grid
	s.dirty = true
	return nil
}

func (s *Session) Digest() string {
	b, _ := json.Marshal(s.State())
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
