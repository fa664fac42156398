package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// Item is a single entry of the menu. The catalog is fixed at process
// start and read-only afterwards, so Item values are safe to share.
type Item struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type Catalog struct {
	items []Item
	byID  map[string]Item
}

func New(items []Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("catalog: no items")
	}
	byID := make(map[string]Item, len(items))
	for _, it := range items {
		if it.ID == "" || it.Name == "" {
			return nil, fmt.Errorf("catalog: item with empty id or name")
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("catalog: item %q has negative price", it.Name)
		}
		if _, ok := byID[it.ID]; ok {
			return nil, fmt.Errorf("catalog: duplicate item id %q", it.ID)
		}
		byID[it.ID] = it
	}
	return &Catalog{items: items, byID: byID}, nil
}

// LoadFile reads a JSON array of items from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return New(items)
}

// Default returns the built-in tea-shop menu, used when no catalog file
// is configured.
func Default() *Catalog {
	c, err := New([]Item{
		{ID: "1", Name: "Matka Chiya", Price: decimal.NewFromInt(35)},
		{ID: "2", Name: "Chiya Normal", Price: decimal.NewFromInt(30)},
		{ID: "3", Name: "Black tea", Price: decimal.NewFromInt(20)},
		{ID: "4", Name: "Lemon Tea", Price: decimal.NewFromInt(25)},
		{ID: "5", Name: "Frooti", Price: decimal.NewFromInt(30)},
		{ID: "6", Name: "Water", Price: decimal.NewFromInt(25)},
		{ID: "7", Name: "Surya Red", Price: decimal.NewFromInt(25)},
		{ID: "8", Name: "Surya Fusion", Price: decimal.NewFromInt(25)},
		{ID: "9", Name: "Shikhar", Price: decimal.NewFromInt(20)},
		{ID: "10", Name: "Brown", Price: decimal.NewFromInt(20)},
	})
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Find(id string) (Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// Items returns the menu in its declared order.
func (c *Catalog) Items() []Item {
	return c.items
}
