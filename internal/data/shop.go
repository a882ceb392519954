package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ShopStockDef is the configured stock line of a shop.
type ShopStockDef struct {
	ItemID      string `yaml:"item_id"`
	Quantity    int    `yaml:"quantity"`
	RestockRate int    `yaml:"restock_rate"`
}

// ShopDef is the static definition of a shop economy.
type ShopDef struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	BuyMult     float64        `yaml:"buy_mult"`
	SellMult    float64        `yaml:"sell_mult"`
	ChangeRate  float64        `yaml:"change_rate"`
	RestockMs   int            `yaml:"restock_ms"`
	DestockMs   int            `yaml:"destock_ms"`
	MaxPurchase int            `yaml:"max_purchase"`
	Policy      string         `yaml:"policy"`
	Unlimited   bool           `yaml:"unlimited"`
	Coins       int64          `yaml:"coins"`
	Stock       []ShopStockDef `yaml:"stock"`
}

// RestockEvery returns the restock interval as a duration.
func (d *ShopDef) RestockEvery() time.Duration {
	return time.Duration(d.RestockMs) * time.Millisecond
}

// DestockEvery returns the destock interval as a duration.
func (d *ShopDef) DestockEvery() time.Duration {
	return time.Duration(d.DestockMs) * time.Millisecond
}

// ShopTable holds all shop definitions indexed by id.
type ShopTable struct {
	defs  map[string]*ShopDef
	order []string
}

// Get returns a shop definition by id, or nil.
func (t *ShopTable) Get(id string) *ShopDef { return t.defs[id] }

// Count returns the number of shops loaded.
func (t *ShopTable) Count() int { return len(t.defs) }

// IDs returns shop ids in file order.
func (t *ShopTable) IDs() []string { return t.order }

type shopListFile struct {
	Shops []ShopDef `yaml:"shops"`
}

// LoadShopTable loads shop definitions from a YAML file.
func LoadShopTable(path string) (*ShopTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shop_list: %w", err)
	}
	var f shopListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse shop_list: %w", err)
	}

	t := &ShopTable{defs: make(map[string]*ShopDef, len(f.Shops))}
	for i := range f.Shops {
		def := f.Shops[i]
		if def.ID == "" {
			return nil, fmt.Errorf("shop_list entry %d: missing id", i)
		}
		if def.BuyMult < def.SellMult {
			return nil, fmt.Errorf("shop %s: buy_mult %.2f below sell_mult %.2f", def.ID, def.BuyMult, def.SellMult)
		}
		if def.ChangeRate < 0 {
			return nil, fmt.Errorf("shop %s: negative change_rate", def.ID)
		}
		switch def.Policy {
		case "all", "listed", "none":
		case "":
			def.Policy = "listed"
		default:
			return nil, fmt.Errorf("shop %s: unknown policy %q", def.ID, def.Policy)
		}
		if def.MaxPurchase <= 0 {
			def.MaxPurchase = 100
		}
		t.defs[def.ID] = &def
		t.order = append(t.order, def.ID)
	}
	return t, nil
}
