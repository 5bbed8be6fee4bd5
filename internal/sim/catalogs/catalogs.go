package catalogs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"craftbench.ai/internal/sim/crafting"
)

type Catalogs struct {
	Items   ItemCatalog
	Recipes RecipeCatalog
}

type ItemCatalog struct {
	Defs    []ItemDef
	Catalog *crafting.ItemCatalog
	Digest  string
}

type ItemDef struct {
	ID   string `json:"id"`
	Icon string `json:"icon"`
}

type RecipeCatalog struct {
	Defs   []RecipeDef
	Book   *crafting.RecipeBook
	Digest string
}

// RecipeDef is one entry of recipes.json. Inputs are row-major over Size
// (width, height); null marks a cell that must stay empty.
type RecipeDef struct {
	RecipeID string    `json:"recipe_id"`
	Size     [2]int    `json:"size"`
	Inputs   []*string `json:"inputs"`
	Output   ItemCount `json:"output"`
}

type ItemCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

func Load(configDir string) (*Catalogs, error) {
	itemsRaw, err := os.ReadFile(filepath.Join(configDir, "items.json"))
	if err != nil {
		return nil, err
	}
	recipesRaw, err := os.ReadFile(filepath.Join(configDir, "recipes.json"))
	if err != nil {
		return nil, err
	}
	return Parse(itemsRaw, recipesRaw)
}

// Parse builds both catalogs from raw items.json and recipes.json content.
func Parse(itemsRaw, recipesRaw []byte) (*Catalogs, error) {
	var c Catalogs
	if err := parseItems(itemsRaw, &c.Items); err != nil {
		return nil, err
	}
	if err := parseRecipes(recipesRaw, c.Items.Catalog, &c.Recipes); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func validate(name string, schema *jsonschema.Schema, raw []byte) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func parseItems(raw []byte, out *ItemCatalog) error {
	if err := validate("items.json", itemsSchema, raw); err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	cdefs := make([]crafting.ItemDef, 0, len(defs))
	for _, d := range defs {
		cdefs = append(cdefs, crafting.ItemDef{ID: crafting.ItemID(d.ID), Icon: d.Icon})
	}
	cat, err := crafting.NewItemCatalog(cdefs)
	if err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = defs
	out.Catalog = cat
	return nil
}

func parseRecipes(raw []byte, items *crafting.ItemCatalog, out *RecipeCatalog) error {
	if err := validate("recipes.json", recipesSchema, raw); err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []RecipeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("recipes.json: %w", err)
	}
	recipes := make([]crafting.Recipe, 0, len(defs))
	for _, d := range defs {
		recipes = append(recipes, d.toRecipe())
	}
	book, err := crafting.NewRecipeBook(recipes)
	if err != nil {
		return fmt.Errorf("recipes.json: %w", err)
	}
	if err := book.CheckItems(items); err != nil {
		return fmt.Errorf("recipes.json: %w", err)
	}
	out.Defs = defs
	out.Book = book
	return nil
}

func (d RecipeDef) toRecipe() crafting.Recipe {
	inputs := make([]crafting.ItemID, len(d.Inputs))
	for i, in := range d.Inputs {
		if in != nil {
			inputs[i] = crafting.ItemID(*in)
		}
	}
	return crafting.Recipe{
		ID:     d.RecipeID,
		Width:  d.Size[0],
		Height: d.Size[1],
		Inputs: inputs,
		Output: crafting.ItemID(d.Output.Item),
		Count:  d.Output.Count,
	}
}

// CheckInventory rejects starter inventories that reference unknown items.
func (c *Catalogs) CheckInventory(ids []string) ([]crafting.ItemID, error) {
	out := make([]crafting.ItemID, 0, len(ids))
	for i, id := range ids {
		it := crafting.ItemID(id)
		if !c.Items.Catalog.Known(it) {
			return nil, fmt.Errorf("inventory slot %d: %w: %q", i, crafting.ErrUnknownItem, id)
		}
		out = append(out, it)
	}
	return out, nil
}
