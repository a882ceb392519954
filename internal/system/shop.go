package system

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/embervale/server/internal/core/sched"
	"github.com/embervale/server/internal/data"
	"github.com/embervale/server/internal/net/message"
	"github.com/embervale/server/internal/world"
)

// ShopManager runs the shop economies: computed pricing, buy/sell
// transactions and the periodic restock/destock/decay maintenance.
type ShopManager struct {
	world      *world.State
	shops      *data.ShopTable
	items      *data.ItemTable
	sched      *sched.Scheduler
	gw         Gateway
	soldCap    int
	soldExpiry time.Duration
	now        func() time.Time
	log        *zap.Logger
}

func NewShopManager(
	ws *world.State,
	shops *data.ShopTable,
	items *data.ItemTable,
	sc *sched.Scheduler,
	gw Gateway,
	soldCap int,
	soldExpiry time.Duration,
	now func() time.Time,
	log *zap.Logger,
) *ShopManager {
	return &ShopManager{
		world:      ws,
		shops:      shops,
		items:      items,
		sched:      sc,
		gw:         gw,
		soldCap:    soldCap,
		soldExpiry: soldExpiry,
		now:        now,
		log:        log,
	}
}

// Instantiate builds every live shop from its definition, deep-copying
// default stock, and arms the maintenance timers.
func (m *ShopManager) Instantiate() int {
	for _, id := range m.shops.IDs() {
		def := m.shops.Get(id)
		live := &world.ShopLive{
			ID:           def.ID,
			Name:         def.Name,
			BuyMult:      def.BuyMult,
			SellMult:     def.SellMult,
			ChangeRate:   def.ChangeRate,
			RestockEvery: def.RestockEvery(),
			DestockEvery: def.DestockEvery(),
			MaxPurchase:  def.MaxPurchase,
			Policy:       world.StockPolicy(def.Policy),
			Unlimited:    def.Unlimited,
			Coins:        def.Coins,
			Stock:        make(map[string]*world.StockEntry, len(def.Stock)),
			Defaults:     make(map[string]*world.StockDefault, len(def.Stock)),
		}
		for _, line := range def.Stock {
			live.Stock[line.ItemID] = &world.StockEntry{
				Key:         line.ItemID,
				ItemID:      line.ItemID,
				Quantity:    line.Quantity,
				MaxQuantity: line.Quantity,
				RestockRate: line.RestockRate,
			}
			live.Defaults[line.ItemID] = &world.StockDefault{
				ItemID:      line.ItemID,
				Quantity:    line.Quantity,
				RestockRate: line.RestockRate,
			}
		}
		m.world.AddShop(live)

		shopID := live.ID
		if !live.Unlimited && live.RestockEvery > 0 {
			m.sched.Every(m.now(), live.RestockEvery, func() {
				m.restockTick(shopID)
			})
		}
		if live.DestockEvery > 0 {
			m.sched.Every(m.now(), live.DestockEvery, func() {
				m.destockTick(shopID)
			})
		}
	}
	return m.world.ShopCount()
}

// buyCost sums the per-unit buy price as stock drains: each unit is
// floor(base * (buyMult + max(0, d-s)*rate)), never below 1 coin, with
// s decreasing per unit so bulk purchases get monotonically pricier.
func buyCost(base int64, buyMult, rate float64, s, d, qty int) int64 {
	var total int64
	for i := 0; i < qty; i++ {
		mult := buyMult
		if d > s {
			mult += float64(d-s) * rate
		}
		unit := int64(math.Floor(float64(base) * mult))
		if unit < 1 {
			unit = 1
		}
		total += unit
		s--
	}
	return total
}

// sellValue mirrors buyCost as stock rises: each unit pays
// floor(base * (sellMult - max(0, s-d)*rate)), floored at 10% of base.
func sellValue(base int64, sellMult, rate float64, s, d, qty int) int64 {
	floor := int64(math.Floor(float64(base) * 0.1))
	var total int64
	for i := 0; i < qty; i++ {
		mult := sellMult
		if s > d {
			mult -= float64(s-d) * rate
		}
		unit := int64(math.Floor(float64(base) * mult))
		if unit < floor {
			unit = floor
		}
		total += unit
		s++
	}
	return total
}

// Buy purchases qty of a stock key from a shop: validate, price, move
// coins both ways, move stock into the inventory, sync the shop to
// everyone. The key is the item id for generic stock and the
// synthesized key for attribute-carrying player-sold stock, matching
// what shop_sync advertises.
func (m *ShopManager) Buy(p *world.PlayerInfo, shopID, stockKey string, qty int) (int64, error) {
	shop := m.world.Shop(shopID)
	if shop == nil {
		return 0, world.NotFoundf("unknown shop %q", shopID)
	}
	if qty <= 0 {
		return 0, world.Validationf("buy quantity must be positive")
	}
	if qty > shop.MaxPurchase {
		return 0, world.Policyf("purchase cap is %d per request", shop.MaxPurchase)
	}
	entry := shop.Entry(stockKey)
	if entry == nil {
		return 0, world.NotFoundf("shop does not stock %q", stockKey)
	}
	tpl := m.items.Get(entry.ItemID)
	if tpl == nil {
		return 0, world.NotFoundf("unknown item %q", entry.ItemID)
	}
	if !shop.Unlimited && entry.Quantity < qty {
		return 0, world.Conflictf("shop only has %d in stock", entry.Quantity)
	}

	var cost int64
	if shop.Unlimited {
		cost = int64(math.Floor(float64(tpl.BaseValue)*shop.BuyMult)) * int64(qty)
	} else {
		cost = buyCost(tpl.BaseValue, shop.BuyMult, shop.ChangeRate, entry.Quantity, shop.DefaultFor(stockKey), qty)
	}

	if int64(p.Inv.CountID(world.CoinItemID)) < cost {
		return 0, world.Conflictf("not enough coins: need %d", cost)
	}
	bought := world.ItemStack{ID: entry.ItemID, Quantity: qty}
	if len(entry.Attrs) > 0 {
		bought.Attrs = make(map[string]string, len(entry.Attrs))
		for k, v := range entry.Attrs {
			bought.Attrs[k] = v
		}
	}
	if !p.Inv.HasRoom(bought, tpl.Stackable) {
		return 0, world.Conflictf("inventory full")
	}

	p.Inv.RemoveID(world.CoinItemID, int(cost))
	shop.Coins += cost
	if !shop.Unlimited {
		entry.Quantity -= qty
		if entry.Quantity == 0 && entry.PlayerSold {
			shop.RemoveEntry(entry.Key)
		}
	}
	p.Inv.Add(bought, tpl.Stackable)
	p.Dirty = true

	m.broadcastSync()
	return cost, nil
}

// Sell sells qty from a player's inventory slot to a shop. Items with
// authoring attributes go under a synthesized stock key so they never
// merge with generic stock; a fresh player-sold entry is capped at
// max(soldCap, qty+2) so one big sale cannot flatten the price curve.
func (m *ShopManager) Sell(p *world.PlayerInfo, shopID string, slotIdx, qty int) (int64, error) {
	shop := m.world.Shop(shopID)
	if shop == nil {
		return 0, world.NotFoundf("unknown shop %q", shopID)
	}
	if shop.Policy == world.StockNone {
		return 0, world.Policyf("shop does not buy items")
	}
	slot := p.Inv.Slot(slotIdx)
	if slot == nil {
		return 0, world.NotFoundf("no item in slot %d", slotIdx)
	}
	if qty <= 0 || qty > slot.Quantity {
		return 0, world.Validationf("bad sell quantity %d", qty)
	}
	itemID := slot.ID
	if itemID == world.CoinItemID {
		return 0, world.Validationf("cannot sell coins")
	}
	tpl := m.items.Get(itemID)
	if tpl == nil {
		return 0, world.NotFoundf("unknown item %q", itemID)
	}
	if shop.Policy == world.StockListed {
		if _, ok := shop.Defaults[itemID]; !ok {
			return 0, world.Policyf("shop does not deal in %q", itemID)
		}
	}

	now := m.now()
	synthetic := slot.HasAttrs()

	// Price against the stock level the sale lands on.
	var key string
	var entry *world.StockEntry
	if synthetic {
		key = world.NewStockKey(itemID, now)
	} else {
		key = itemID
		entry = shop.Entry(key)
	}
	curQty := 0
	if entry != nil {
		curQty = entry.Quantity
	}
	value := sellValue(tpl.BaseValue, shop.SellMult, shop.ChangeRate, curQty, shop.DefaultFor(key), qty)
	if shop.Coins < value {
		return 0, world.Conflictf("shop cannot afford that sale")
	}

	removed, err := p.Inv.Remove(slotIdx, qty)
	if err != nil {
		return 0, err
	}
	if !p.Inv.Add(world.ItemStack{ID: world.CoinItemID, Quantity: int(value)}, true) {
		// undo: coins must land somewhere
		p.Inv.Add(removed, tpl.Stackable)
		return 0, world.Conflictf("no room for the coins")
	}
	p.Dirty = true
	shop.Coins -= value

	if entry != nil {
		entry.Quantity += qty
		if entry.PlayerSold {
			entry.LastSold = now
		}
	} else {
		// First sale under this key. Generic entries from the default
		// stock always exist, so a missing entry means a player-sold
		// one, capped so a single large sale cannot flatten the curve.
		maxQty := m.soldCap
		if qty+2 > maxQty {
			maxQty = qty + 2
		}
		e := &world.StockEntry{
			Key:         key,
			ItemID:      itemID,
			Quantity:    qty,
			MaxQuantity: maxQty,
			PlayerSold:  true,
			LastSold:    now,
		}
		if synthetic {
			e.Attrs = removed.CopyAttrs()
			// shadow default so the price curve has a reference level
			shop.Defaults[key] = &world.StockDefault{ItemID: itemID, Quantity: maxQty}
		}
		shop.Stock[key] = e
	}

	m.broadcastSync()
	return value, nil
}

// restockTick moves generic stock toward its reference level.
func (m *ShopManager) restockTick(shopID string) {
	shop := m.world.Shop(shopID)
	if shop == nil {
		return
	}
	changed := false
	for _, e := range shop.Stock {
		if e.PlayerSold || e.RestockRate <= 0 {
			continue
		}
		if e.Quantity < e.MaxQuantity {
			e.Quantity += e.RestockRate
			if e.Quantity > e.MaxQuantity {
				e.Quantity = e.MaxQuantity
			}
			changed = true
		}
	}
	if changed {
		m.broadcastSync()
	}
}

// destockTick trims transient excess one unit per interval and decays
// untouched player-sold entries, deleting them (shadow default
// included) once empty.
func (m *ShopManager) destockTick(shopID string) {
	shop := m.world.Shop(shopID)
	if shop == nil {
		return
	}
	now := m.now()
	changed := false
	var remove []string
	for key, e := range shop.Stock {
		if !e.PlayerSold {
			if e.Quantity > e.MaxQuantity {
				e.Quantity--
				changed = true
			}
			continue
		}
		if now.Sub(e.LastSold) >= m.soldExpiry {
			e.Quantity--
			e.LastSold = now
			changed = true
			if e.Quantity <= 0 {
				remove = append(remove, key)
			}
		}
	}
	for _, key := range remove {
		shop.RemoveEntry(key)
	}
	if changed {
		m.broadcastSync()
	}
}

// ShopsSnapshot builds the full shop registry payload.
func (m *ShopManager) ShopsSnapshot() []message.ShopState {
	shops := m.world.AllShops()
	out := make([]message.ShopState, 0, len(shops))
	for _, s := range shops {
		out = append(out, shopState(s))
	}
	return out
}

func (m *ShopManager) broadcastSync() {
	m.gw.BroadcastAll("shop_sync", message.ShopSync{Shops: m.ShopsSnapshot()})
}

func shopState(s *world.ShopLive) message.ShopState {
	st := message.ShopState{
		ID:    s.ID,
		Name:  s.Name,
		Coins: s.Coins,
		Stock: make([]message.StockState, 0, len(s.Stock)),
	}
	for _, e := range s.Stock {
		st.Stock = append(st.Stock, message.StockState{
			Key:        e.Key,
			ItemID:     e.ItemID,
			Quantity:   e.Quantity,
			MaxQty:     e.MaxQuantity,
			PlayerSold: e.PlayerSold,
			Attrs:      e.Attrs,
		})
	}
	sort.Slice(st.Stock, func(i, j int) bool { return st.Stock[i].Key < st.Stock[j].Key })
	return st
}
