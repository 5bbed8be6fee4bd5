package crafting

import "testing"

func newDefaultSession() *Session {
	return NewSession(DefaultRecipeBook(), []ItemID{Wood, Planks}, 0)
}

func TestSessionPrimaryPlacesSelectedItem(t *testing.T) {
	s := newDefaultSession()
	if !s.Interact(0, ButtonPrimary) {
		t.Fatalf("expected cell change")
	}
	if !s.Sync() {
		t.Fatalf("expected evaluation after change")
	}
	m, ok := s.Result()
	if !ok || m.Recipe.Output != Planks || m.Recipe.Count != 4 {
		t.Fatalf("expected PLANKS x4, got %+v ok=%v", m, ok)
	}
}

func TestSessionSticksFromVerticalPlanks(t *testing.T) {
	s := newDefaultSession()
	s.Select(1)
	s.Interact(1, ButtonPrimary)
	s.Interact(4, ButtonPrimary)
	s.Sync()
	if m, ok := s.Result(); !ok || m.Recipe.Output != Stick {
		t.Fatalf("expected STICK, got %+v ok=%v", m, ok)
	}

	s.Interact(4, ButtonSecondary)
	s.Interact(2, ButtonPrimary)
	s.Sync()
	if _, ok := s.Result(); ok {
		t.Fatalf("planks side by side must not match")
	}
}

func TestSessionSecondaryClearsRegardlessOfSelection(t *testing.T) {
	s := newDefaultSession()
	s.Interact(3, ButtonPrimary)
	s.Sync()
	if _, ok := s.Result(); !ok {
		t.Fatalf("expected match before clear")
	}
	s.Select(1)
	if !s.Interact(3, ButtonSecondary) {
		t.Fatalf("expected secondary to clear cell")
	}
	if got := s.Grid()[3]; got != Empty {
		t.Fatalf("cell 3 = %q, want empty", got)
	}
	s.Sync()
	if _, ok := s.Result(); ok {
		t.Fatalf("cleared grid must not match")
	}
}

func TestSessionPrimaryWithoutSelectionPlacesNothing(t *testing.T) {
	s := NewSession(DefaultRecipeBook(), []ItemID{Wood}, NoSelection)
	if _, ok := s.Selection(); ok {
		t.Fatalf("expected no selection")
	}
	if s.Interact(0, ButtonPrimary) {
		t.Fatalf("placing nothing on an empty cell is not a change")
	}
	s.Select(0)
	s.Interact(0, ButtonPrimary)
	if s.Grid()[0] != Wood {
		t.Fatalf("expected WOOD placed")
	}
}

func TestSessionOtherButtonIgnored(t *testing.T) {
	s := newDefaultSession()
	s.Sync()
	if s.Interact(0, ButtonOther) {
		t.Fatalf("other button must be ignored")
	}
	if s.Dirty() {
		t.Fatalf("other button must not mark dirty")
	}
	if s.Grid() != (Grid{}) {
		t.Fatalf("grid changed: %s", s.Grid())
	}
}

func TestSessionSyncOnlyWhenDirty(t *testing.T) {
	s := newDefaultSession()
	if !s.Sync() {
		t.Fatalf("first sync must evaluate")
	}
	if s.Sync() {
		t.Fatalf("sync on unchanged grid must not evaluate")
	}
	s.Interact(0, ButtonPrimary)
	s.Interact(0, ButtonPrimary)
	s.Sync()
	if got := s.Evaluations(); got != 2 {
		t.Fatalf("evaluations = %d, want 2", got)
	}
	before, _ := s.Result()
	s.Select(1)
	s.Sync()
	after, _ := s.Result()
	if before != after || s.Evaluations() != 2 {
		t.Fatalf("selection change must not re-evaluate")
	}
}

func TestSessionSelectOutOfRangePanics(t *testing.T) {
	s := newDefaultSession()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	s.Select(2)
}

func TestSessionInteractOutOfRangePanics(t *testing.T) {
	s := newDefaultSession()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	s.Interact(GridCells, ButtonPrimary)
}

func TestSessionRestoreAndDigest(t *testing.T) {
	s := newDefaultSession()
	s.Interact(0, ButtonPrimary)
	st := s.State()

	r := NewSession(DefaultRecipeBook(), nil, NoSelection)
	if err := r.Restore(st); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if r.Digest() != s.Digest() {
		t.Fatalf("digest mismatch after restore")
	}
	r.Sync()
	if m, ok := r.Result(); !ok || m.Recipe.Output != Planks {
		t.Fatalf("restored session must re-evaluate, got %+v ok=%v", m, ok)
	}

	st.Selected = 5
	if err := r.Restore(st); err == nil {
		t.Fatalf("expected error for out-of-range selection")
	}
}

func TestSessionView(t *testing.T) {
	items := DefaultItems()
	s := newDefaultSession()
	s.Interact(4, ButtonPrimary)
	s.Sync()
	v := s.View(items)

	if v.Cells[4].Item != Wood || v.Cells[4].Icon != "icons/crafting/wood.png" {
		t.Fatalf("cell 4 = %+v", v.Cells[4])
	}
	if v.Cells[0] != (CellView{}) {
		t.Fatalf("cell 0 should be empty, got %+v", v.Cells[0])
	}
	if v.Output.Item != Planks || v.Output.Count != "4" || v.Output.Icon != "icons/crafting/planks.png" {
		t.Fatalf("output = %+v", v.Output)
	}
	if len(v.Inventory) != 2 || !v.Inventory[0].Selected || v.Inventory[1].Selected {
		t.Fatalf("inventory = %+v", v.Inventory)
	}

	s.Interact(4, ButtonSecondary)
	s.Sync()
	if v := s.View(items); v.Output != (OutputView{}) {
		t.Fatalf("output should be cleared, got %+v", v.Output)
	}
}
