package world

import "time"

// StockPolicy controls which player-sold items a shop accepts.
type StockPolicy string

const (
	// StockAll — the shop buys anything, creating new stock keys at need.
	StockAll StockPolicy = "all"
	// StockListed — the shop only buys item types in its default stock.
	StockListed StockPolicy = "listed"
	// StockNone — the shop never buys from players.
	StockNone StockPolicy = "none"
)

// StockDefault is the reference stock level for one key: the target the
// restock tick moves toward and the d term of the price curve.
type StockDefault struct {
	ItemID      string
	Quantity    int
	RestockRate int
}

// StockEntry is one mutable stock line. Quantity never goes below zero;
// for non-unlimited shops it only exceeds MaxQuantity transiently right
// after a sell (destock pulls the excess back down).
type StockEntry struct {
	Key         string
	ItemID      string
	Quantity    int
	MaxQuantity int
	RestockRate int

	PlayerSold bool
	Attrs      map[string]string // authoring attributes, player-sold only
	LastSold   time.Time         // zero unless PlayerSold
}

// ShopLive pairs a shop's static parameters (deep-copied at startup)
// with its mutable stock. All shops exist for the whole process
// lifetime; only stock entries come and go.
type ShopLive struct {
	ID           string
	Name         string
	BuyMult      float64
	SellMult     float64
	ChangeRate   float64
	RestockEvery time.Duration // 0 = unlimited shop, restock skipped
	DestockEvery time.Duration
	MaxPurchase  int // per-request purchase cap
	Policy       StockPolicy
	Unlimited    bool

	Coins int64

	Stock    map[string]*StockEntry
	Defaults map[string]*StockDefault
}

// Entry returns the stock entry for key, or nil.
func (s *ShopLive) Entry(key string) *StockEntry { return s.Stock[key] }

// DefaultFor returns the reference level d for a key, falling back to
// the entry's own MaxQuantity when no default exists.
func (s *ShopLive) DefaultFor(key string) int {
	if d, ok := s.Defaults[key]; ok {
		return d.Quantity
	}
	if e, ok := s.Stock[key]; ok {
		return e.MaxQuantity
	}
	return 0
}

// RemoveEntry deletes a stock key and its shadow default, if one was
// synthesized for a player sale.
func (s *ShopLive) RemoveEntry(key string) {
	e := s.Stock[key]
	delete(s.Stock, key)
	if e != nil && e.PlayerSold {
		delete(s.Defaults, key)
	}
}
