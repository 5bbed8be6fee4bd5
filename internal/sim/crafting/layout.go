package crafting

import (
	"fmt"
	"strconv"
)

type WidgetKind int

const (
	WidgetInventorySlot WidgetKind = iota + 1
	WidgetInputSlot
	WidgetOutputSlot
)

// WidgetRef is the logical slot behind a widget handle.
type WidgetRef struct {
	Kind  WidgetKind
	Index int
}

const OutputWidget = "output"

func InventoryWidget(k int) string { return "inv/" + strconv.Itoa(k) }
func InputWidget(cell int) string  { return "grid/" + strconv.Itoa(cell) }

// Layout maps widget handles of the bench UI to slots.
type Layout struct {
	refs    map[string]WidgetRef
	handles []string
}

func NewLayout(inventorySlots int) *Layout {
	l := &Layout{refs: make(map[string]WidgetRef, inventorySlots+GridCells+1)}
	for s := 0; s < GridCells; s++ {
		l.add(InputWidget(s), WidgetRef{Kind: WidgetInputSlot, Index: s})
	}
	l.add(OutputWidget, WidgetRef{Kind: WidgetOutputSlot})
	for k := 0; k < inventorySlots; k++ {
		l.add(InventoryWidget(k), WidgetRef{Kind: WidgetInventorySlot, Index: k})
	}
	return l
}

func (l *Layout) add(h string, ref WidgetRef) {
	if _, dup := l.refs[h]; dup {
		panic(fmt.Sprintf("crafting: duplicate widget %q", h))
	}
	l.refs[h] = ref
	l.handles = append(l.handles, h)
}

func (l *Layout) Lookup(handle string) (WidgetRef, bool) {
	ref, ok := l.refs[handle]
	return ref, ok
}

// Handles lists widget handles in registration order.
func (l *Layout) Handles() []string { return append([]string(nil), l.handles...) }

// Dispatch routes a click on handle to the session. It reports false for
// unknown handles and for the output slot.
func (l *Layout) Dispatch(s *Session, handle string, b Button) bool {
	ref, ok := l.refs[handle]
	if !ok {
		return false
	}
	switch ref.Kind {
	case WidgetInventorySlot:
		s.Select(ref.Index)
		return true
	case WidgetInputSlot:
		s.Interact(ref.Index, b)
		return true
	default:
		return false
	}
}
