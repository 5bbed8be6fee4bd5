package crafting

import (
	"fmt"
	"sort"
)

// ItemID identifies an item kind. The zero value is the empty-cell marker.
type ItemID string

const Empty ItemID = ""

const (
	Wood   ItemID = "WOOD"
	Planks ItemID = "PLANKS"
	Stick  ItemID = "STICK"
)

type ItemDef struct {
	ID   ItemID `json:"id"`
	Icon string `json:"icon"`
}

// IconResolver resolves the display asset for an item.
type IconResolver interface {
	Icon(id ItemID) string
}

type ItemCatalog struct {
	defs map[ItemID]ItemDef
	ids  []ItemID
}

func NewItemCatalog(defs []ItemDef) (*ItemCatalog, error) {
	c := &ItemCatalog{defs: make(map[ItemID]ItemDef, len(defs))}
	for _, d := range defs {
		if d.ID == Empty {
			return nil, fmt.Errorf("item catalog: empty id")
		}
		if _, dup := c.defs[d.ID]; dup {
			return nil, fmt.Errorf("item catalog: duplicate id %s", d.ID)
		}
		c.defs[d.ID] = d
		c.ids = append(c.ids, d.ID)
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	return c, nil
}

func DefaultItems() *ItemCatalog {
	c, err := NewItemCatalog([]ItemDef{
		{ID: Wood, Icon: "icons/crafting/wood.png"},
		{ID: Planks, Icon: "icons/crafting/planks.png"},
		{ID: Stick, Icon: "icons/crafting/stick.png"},
	})
	if err != nil {
		panic(err)
	}
	return c
}

func (c *ItemCatalog) Known(id ItemID) bool {
	_, ok := c.defs[id]
	return ok
}

func (c *ItemCatalog) Get(id ItemID) (ItemDef, bool) {
	d, ok := c.defs[id]
	return d, ok
}

// Icon returns "" for Empty and for unknown ids.
func (c *ItemCatalog) Icon(id ItemID) string {
	return c.defs[id].Icon
}

// IDs returns the known ids in sorted order.
func (c *ItemCatalog) IDs() []ItemID {
	return append([]ItemID(nil), c.ids...)
}

func (c *ItemCatalog) Len() int { return len(c.ids) }
