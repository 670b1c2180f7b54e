// Package catalog loads static item metadata from a YAML file. The host mirror
// falls back to it for items the game client has not described yet.
package catalog

import (
	"fmt"
	"os"

	"goldledger/internal/inventory"

	"gopkg.in/yaml.v3"
)

type Item struct {
	ID          inventory.ItemID `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	VendorPrice int64            `yaml:"vendor_price" json:"vendor_price"`
	ClassID     int              `yaml:"class_id" json:"class_id"`
	SubclassID  int              `yaml:"subclass_id" json:"subclass_id"`
}

type Catalog struct {
	Items []Item `yaml:"items"`

	byID map[inventory.ItemID]Item
}

func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("catalog yaml: %w", err)
	}
	c.byID = make(map[inventory.ItemID]Item, len(c.Items))
	for i, it := range c.Items {
		if it.ID <= 0 {
			return nil, fmt.Errorf("catalog yaml: item %d has no id", i)
		}
		if it.VendorPrice < 0 {
			return nil, fmt.Errorf("catalog yaml: item %d has negative vendor_price", it.ID)
		}
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("catalog yaml: duplicate item %d", it.ID)
		}
		c.byID[it.ID] = it
	}
	return &c, nil
}

func (c *Catalog) Lookup(id inventory.ItemID) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	it, ok := c.byID[id]
	return it, ok
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byID)
}
