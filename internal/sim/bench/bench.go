package bench

import (
	"errors"
	"fmt"

	"craftbench.ai/internal/sim/catalogs"
	"craftbench.ai/internal/sim/crafting"
)

var ErrInvalidTarget = errors.New("invalid target")

type EventKind string

const (
	EventSelect   EventKind = "SELECT"
	EventInteract EventKind = "INTERACT"
	EventClick    EventKind = "CLICK"
)

// Event is one host interaction. Slot is used by SELECT, Cell and Button by
// INTERACT, Widget and Button by CLICK.
type Event struct {
	Kind   EventKind `json:"kind"`
	Slot   int       `json:"slot,omitempty"`
	Cell   int       `json:"cell,omitempty"`
	Widget string    `json:"widget,omitempty"`
	Button string    `json:"button,omitempty"`
}

// LogEntry records an applied event and the state it produced.
type LogEntry struct {
	SessionID string `json:"session_id"`
	Seq       uint64 `json:"seq"`
	Event     Event  `json:"event"`
	Changed   bool   `json:"changed"`
	Evaluated bool   `json:"evaluated"`
	Digest    string `json:"digest"`
	RecipeID  string `json:"recipe_id,omitempty"`
	Output    string `json:"output,omitempty"`
	Count     int    `json:"count,omitempty"`
}

type EventLogger interface {
	WriteEvent(entry LogEntry) error
}

// Bench owns one crafting session and the widget layout built for it.
type Bench struct {
	id      string
	cats    *catalogs.Catalogs
	session *crafting.Session
	layout  *crafting.Layout
	seq     uint64
	logger  EventLogger
}

func New(id string, cats *catalogs.Catalogs, session *crafting.Session) *Bench {
	b := &Bench{
		id:      id,
		cats:    cats,
		session: session,
		layout:  crafting.NewLayout(len(session.Inventory())),
	}
	b.session.Sync()
	return b
}

func (b *Bench) SetEventLogger(l EventLogger) { b.logger = l }

func (b *Bench) ID() string                   { return b.id }
func (b *Bench) Seq() uint64                  { return b.seq }
func (b *Bench) Session() *crafting.Session   { return b.session }
func (b *Bench) Layout() *crafting.Layout     { return b.layout }
func (b *Bench) Catalogs() *catalogs.Catalogs { return b.cats }

// SetSeq continues numbering after a resume.
func (b *Bench) SetSeq(seq uint64) { b.seq = seq }

// Apply validates ev, mutates the session, re-evaluates, and logs the result.
// Out-of-range targets are rejected here so the session never sees them.
func (b *Bench) Apply(ev Event) (LogEntry, error) {
	before := b.session.Grid()
	prevSel, hadSel := b.session.Selection()

	switch ev.Kind {
	case EventSelect:
		if ev.Slot < 0 || ev.Slot >= len(b.session.Inventory()) {
			return LogEntry{}, fmt.Errorf("%w: inventory slot %d", ErrInvalidTarget, ev.Slot)
		}
		b.session.Select(ev.Slot)
	case EventInteract:
		if ev.Cell < 0 || ev.Cell >= crafting.GridCells {
			return LogEntry{}, fmt.Errorf("%w: grid cell %d", ErrInvalidTarget, ev.Cell)
		}
		b.session.Interact(ev.Cell, crafting.ParseButton(ev.Button))
	case EventClick:
		if _, ok := b.layout.Lookup(ev.Widget); !ok {
			return LogEntry{}, fmt.Errorf("%w: widget %q", ErrInvalidTarget, ev.Widget)
		}
		b.layout.Dispatch(b.session, ev.Widget, crafting.ParseButton(ev.Button))
	default:
		return LogEntry{}, fmt.Errorf("unknown event kind %q", ev.Kind)
	}

	sel, hasSel := b.session.Selection()
	changed := before != b.session.Grid() || hadSel != hasSel || prevSel != sel
	evaluated := b.session.Sync()

	b.seq++
	entry := LogEntry{
		SessionID: b.id,
		Seq:       b.seq,
		Event:     ev,
		Changed:   changed,
		Evaluated: evaluated,
		Digest:    b.session.Digest(),
	}
	if m, ok := b.session.Result(); ok {
		entry.RecipeID = m.Recipe.ID
		entry.Output = string(m.Recipe.Output)
		entry.Count = m.Recipe.Count
	}
	if b.logger != nil {
		_ = b.logger.WriteEvent(entry)
	}
	return entry, nil
}

func (b *Bench) View() crafting.View {
	return b.session.View(b.cats.Items.Catalog)
}
