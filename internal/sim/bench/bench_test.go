package bench

import (
	"errors"
	"testing"

	"craftbench.ai/internal/sim/catalogs"
	"craftbench.ai/internal/sim/crafting"
)

type memLogger struct{ entries []LogEntry }

func (m *memLogger) WriteEvent(e LogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func testCatalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	c, err := catalogs.Parse(
		[]byte(`[{"id":"WOOD","icon":"w.png"},{"id":"PLANKS","icon":"p.png"},{"id":"STICK","icon":"s.png"}]`),
		[]byte(`[
		  {"recipe_id":"planks_from_wood","size":[1,1],"inputs":["WOOD"],"output":{"item":"PLANKS","count":4}},
		  {"recipe_id":"sticks_from_planks","size":[1,2],"inputs":["PLANKS","PLANKS"],"output":{"item":"STICK","count":4}}
		]`),
	)
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	return c
}

func newTestBench(t *testing.T) (*Bench, *memLogger) {
	t.Helper()
	cats := testCatalogs(t)
	s := crafting.NewSession(cats.Recipes.Book, []crafting.ItemID{crafting.Wood, crafting.Planks}, 0)
	b := New("S1", cats, s)
	l := &memLogger{}
	b.SetEventLogger(l)
	return b, l
}

func TestApplyCraftsSticks(t *testing.T) {
	b, l := newTestBench(t)
	events := []Event{
		{Kind: EventClick, Widget: crafting.InventoryWidget(1), Button: "PRIMARY"},
		{Kind: EventInteract, Cell: 2, Button: "PRIMARY"},
		{Kind: EventClick, Widget: crafting.InputWidget(5), Button: "PRIMARY"},
	}
	var last LogEntry
	for _, ev := range events {
		e, err := b.Apply(ev)
		if err != nil {
			t.Fatalf("Apply(%+v): %v", ev, err)
		}
		last = e
	}
	if last.Seq != 3 || last.RecipeID != "sticks_from_planks" || last.Output != "STICK" || last.Count != 4 {
		t.Fatalf("last entry = %+v", last)
	}
	if len(l.entries) != 3 {
		t.Fatalf("logged %d entries, want 3", len(l.entries))
	}
	if l.entries[0].Evaluated {
		t.Fatalf("selection alone must not re-run the matcher")
	}
	if !l.entries[0].Changed {
		t.Fatalf("selection change must be reported")
	}

	v := b.View()
	if v.Output.Item != crafting.Stick || v.Output.Count != "4" || v.Output.Icon != "s.png" {
		t.Fatalf("output view = %+v", v.Output)
	}
}

func TestApplyRejectsInvalidTargets(t *testing.T) {
	b, l := newTestBench(t)
	bad := []Event{
		{Kind: EventSelect, Slot: 2},
		{Kind: EventSelect, Slot: -1},
		{Kind: EventInteract, Cell: 9, Button: "PRIMARY"},
		{Kind: EventClick, Widget: "grid/12", Button: "PRIMARY"},
	}
	for _, ev := range bad {
		if _, err := b.Apply(ev); !errors.Is(err, ErrInvalidTarget) {
			t.Fatalf("Apply(%+v) = %v, want ErrInvalidTarget", ev, err)
		}
	}
	if _, err := b.Apply(Event{Kind: "JUMP"}); err == nil {
		t.Fatalf("expected unknown kind error")
	}
	if len(l.entries) != 0 || b.Seq() != 0 {
		t.Fatalf("rejected events must not be logged")
	}
}

func TestApplyOtherButtonIsNoop(t *testing.T) {
	b, _ := newTestBench(t)
	e, err := b.Apply(Event{Kind: EventInteract, Cell: 0, Button: "MIDDLE"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if e.Changed || e.Evaluated {
		t.Fatalf("middle click must not change anything: %+v", e)
	}
}
