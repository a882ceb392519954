package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/embervale/server/internal/world"
)

func newShopFixture(t *testing.T) (*ShopManager, *world.State, *clock, *recorder) {
	t.Helper()
	ws := world.NewState()
	clk := newClock()
	rec := &recorder{}
	m := NewShopManager(ws, testShopTable(t), testItemTable(t), clk.sc, rec, 10, time.Minute, clk.now, zap.NewNop())
	require.Equal(t, 3, m.Instantiate())
	return m, ws, clk, rec
}

func richPlayer(ws *world.State, coins int) *world.PlayerInfo {
	p := testPlayer(ws, 1, "ada", world.Position{X: 5, Y: 5})
	if coins > 0 {
		p.Inv.Add(world.ItemStack{ID: "coins", Quantity: coins}, true)
	}
	return p
}

func TestBuyCostCurve(t *testing.T) {
	// base 10, mult 1.0, rate 0.03, stock 5 of default 10:
	// floor(10 * (1.0 + 5*0.03)) = 11.
	assert.Equal(t, int64(11), buyCost(10, 1.0, 0.03, 5, 10, 1))

	// Stock at the reference level sells at base price.
	assert.Equal(t, int64(10), buyCost(10, 1.0, 0.03, 10, 10, 1))

	// Bulk: each unit depletes s first, so unit 2 prices at s=4.
	assert.Equal(t, int64(11+11), buyCost(10, 1.0, 0.03, 5, 10, 2))

	// Never below 1 coin.
	assert.Equal(t, int64(1), buyCost(1, 0.1, 0.0, 5, 5, 1))
}

func TestSellValueCurve(t *testing.T) {
	// Oversupply discounts: s 15 of default 10 at rate 0.03:
	// floor(10 * (0.6 - 5*0.03)) = 4.
	assert.Equal(t, int64(4), sellValue(10, 0.6, 0.03, 15, 10, 1))

	// Floored at 10% of base no matter the glut.
	assert.Equal(t, int64(1), sellValue(10, 0.6, 0.03, 500, 10, 1))

	// Each sold unit raises s for the next.
	assert.Equal(t, int64(4+4), sellValue(10, 0.6, 0.03, 15, 10, 2))
}

func TestBuySellRoundTripNeverProfits(t *testing.T) {
	// With buy_mult >= sell_mult, flipping an item back to the same
	// shop state can never make money.
	for _, s := range []int{0, 3, 10, 25} {
		buy := buyCost(10, 1.0, 0.03, s, 10, 1)
		sell := sellValue(10, 0.6, 0.03, s-1, 10, 1)
		assert.LessOrEqual(t, sell, buy, "stock %d", s)
	}
}

func TestBuyMovesCoinsAndStock(t *testing.T) {
	m, ws, _, rec := newShopFixture(t)
	p := richPlayer(ws, 100)
	shop := ws.Shop("store")
	startCoins := shop.Coins

	cost, err := m.Buy(p, "store", "bread", 2)
	require.NoError(t, err)
	// bread base 6, stock at the default: 2 units at floor(6*1.0) then
	// s dips below d for the second unit: 6 + floor(6*1.03)=6.
	assert.Equal(t, int64(12), cost)
	assert.Equal(t, 2, p.Inv.CountID("bread"))
	assert.Equal(t, 100-int(cost), p.Inv.CountID("coins"))
	assert.Equal(t, 8, shop.Entry("bread").Quantity)
	assert.Equal(t, startCoins+cost, shop.Coins)
	assert.True(t, p.Dirty)
	assert.Equal(t, 1, rec.count("shop_sync"))
}

func TestBuyDenials(t *testing.T) {
	m, ws, _, rec := newShopFixture(t)
	p := richPlayer(ws, 5)

	_, err := m.Buy(p, "nope", "bread", 1)
	assert.Equal(t, world.FaultNotFound, world.CodeOf(err))

	_, err = m.Buy(p, "store", "bread", 0)
	assert.Equal(t, world.FaultValidation, world.CodeOf(err))

	_, err = m.Buy(p, "store", "bread", 101)
	assert.Equal(t, world.FaultPolicy, world.CodeOf(err))

	_, err = m.Buy(p, "store", "oak_log", 1)
	assert.Equal(t, world.FaultNotFound, world.CodeOf(err), "not stocked")

	_, err = m.Buy(p, "store", "bread", 11)
	assert.Equal(t, world.FaultConflict, world.CodeOf(err), "only 10 in stock")

	_, err = m.Buy(p, "store", "bread", 1)
	assert.Equal(t, world.FaultConflict, world.CodeOf(err), "6 coins needed, 5 held")

	assert.Equal(t, 5, p.Inv.CountID("coins"), "denied buys move nothing")
	assert.Equal(t, 0, rec.count("shop_sync"))
}

func TestUnlimitedShopFlatPricing(t *testing.T) {
	m, ws, _, _ := newShopFixture(t)
	p := richPlayer(ws, 1000)
	shop := ws.Shop("post")

	cost, err := m.Buy(p, "post", "bread", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50*6), cost, "flat base*mult per unit")
	assert.Equal(t, 1, shop.Entry("bread").Quantity, "unlimited stock never drains")

	again, err := m.Buy(p, "post", "bread", 50)
	require.NoError(t, err)
	assert.Equal(t, cost, again, "price never moves")
}

func TestSellCreatesCappedPlayerSoldEntry(t *testing.T) {
	m, ws, _, _ := newShopFixture(t)
	p := richPlayer(ws, 0)
	require.True(t, p.Inv.Add(world.ItemStack{ID: "oak_log", Quantity: 20}, true))
	shop := ws.Shop("store")

	value, err := m.Sell(p, "store", 0, 20)
	require.NoError(t, err)
	assert.Positive(t, value)
	assert.Equal(t, int(value), p.Inv.CountID("coins"))
	assert.Equal(t, 0, p.Inv.CountID("oak_log"))

	e := shop.Entry("oak_log")
	require.NotNil(t, e)
	assert.True(t, e.PlayerSold)
	assert.Equal(t, 20, e.Quantity)
	assert.Equal(t, 22, e.MaxQuantity, "cap is max(soldCap, qty+2)")
}

func TestSellPolicyGates(t *testing.T) {
	m, ws, _, _ := newShopFixture(t)
	p := richPlayer(ws, 0)
	require.True(t, p.Inv.Add(world.ItemStack{ID: "oak_log", Quantity: 5}, true))

	_, err := m.Sell(p, "post", 0, 1)
	assert.Equal(t, world.FaultPolicy, world.CodeOf(err), "policy none never buys")

	_, err = m.Sell(p, "listed", 0, 1)
	assert.Equal(t, world.FaultPolicy, world.CodeOf(err), "oak_log is not listed there")

	require.True(t, p.Inv.Add(world.ItemStack{ID: "hatchet", Quantity: 1}, false))
	_, err = m.Sell(p, "listed", 1, 1)
	require.NoError(t, err, "listed item sells fine")
}

func TestSellRejectsCoins(t *testing.T) {
	m, ws, _, _ := newShopFixture(t)
	p := richPlayer(ws, 10)

	_, err := m.Sell(p, "store", 0, 5)
	assert.Equal(t, world.FaultValidation, world.CodeOf(err))
}

func TestSyntheticStockNeverMerges(t *testing.T) {
	m, ws, clk, _ := newShopFixture(t)
	p := richPlayer(ws, 0)
	attrs := map[string]string{"quality": "fine"}
	require.True(t, p.Inv.Add(world.ItemStack{ID: "oak_log", Quantity: 1, Attrs: attrs}, true))
	clk.t = clk.t.Add(time.Millisecond)
	require.True(t, p.Inv.Add(world.ItemStack{ID: "oak_log", Quantity: 1, Noted: true}, true))
	shop := ws.Shop("store")

	_, err := m.Sell(p, "store", 0, 1)
	require.NoError(t, err)
	clk.t = clk.t.Add(time.Millisecond)
	_, err = m.Sell(p, "store", 1, 1)
	require.NoError(t, err)

	// The attr-carrying sale got a synthesized key plus a shadow
	// default; the plain one landed under the item id.
	assert.Nil(t, shop.Entry("oak_log").Attrs)
	synthetic := 0
	for key, e := range shop.Stock {
		if e.Attrs != nil {
			synthetic++
			assert.NotEqual(t, "oak_log", key)
			assert.Equal(t, "fine", e.Attrs["quality"])
			_, hasDefault := shop.Defaults[key]
			assert.True(t, hasDefault, "shadow default anchors the price curve")
		}
	}
	assert.Equal(t, 1, synthetic)
}

func TestBuyBackSyntheticStockByKey(t *testing.T) {
	m, ws, _, _ := newShopFixture(t)
	p := richPlayer(ws, 500)
	attrs := map[string]string{"quality": "fine"}
	require.True(t, p.Inv.Add(world.ItemStack{ID: "oak_log", Quantity: 1, Attrs: attrs}, true))
	shop := ws.Shop("store")

	_, err := m.Sell(p, "store", 1, 1)
	require.NoError(t, err)

	var key string
	for k, e := range shop.Stock {
		if e.Attrs != nil {
			key = k
		}
	}
	require.NotEmpty(t, key)
	require.NotEqual(t, "oak_log", key)

	// The plain item id does not resolve synthetic stock.
	_, err = m.Buy(p, "store", "oak_log", 1)
	assert.Equal(t, world.FaultNotFound, world.CodeOf(err))

	// The synthesized key does, and the attributes ride back out.
	_, err = m.Buy(p, "store", key, 1)
	require.NoError(t, err)
	assert.Nil(t, shop.Entry(key), "bought-out player stock disappears")

	slot := p.Inv.Slot(1)
	require.NotNil(t, slot)
	assert.Equal(t, "oak_log", slot.ID)
	assert.Equal(t, "fine", slot.Attrs["quality"])
}

func TestBuyingPlayerSoldToZeroRemovesEntry(t *testing.T) {
	m, ws, _, _ := newShopFixture(t)
	p := richPlayer(ws, 500)
	require.True(t, p.Inv.Add(world.ItemStack{ID: "oak_log", Quantity: 3}, true))
	shop := ws.Shop("store")

	_, err := m.Sell(p, "store", 1, 3)
	require.NoError(t, err)
	require.NotNil(t, shop.Entry("oak_log"))

	_, err = m.Buy(p, "store", "oak_log", 3)
	require.NoError(t, err)
	assert.Nil(t, shop.Entry("oak_log"), "bought-out player stock disappears")
}

func TestRestockMovesTowardDefault(t *testing.T) {
	_, ws, clk, _ := newShopFixture(t)
	shop := ws.Shop("store")
	shop.Entry("bread").Quantity = 7

	clk.advance(time.Minute)
	assert.Equal(t, 8, shop.Entry("bread").Quantity)

	// Restock never overshoots the reference level.
	shop.Entry("bread").Quantity = 10
	clk.advance(time.Minute)
	assert.Equal(t, 10, shop.Entry("bread").Quantity)
}

func TestDestockTrimsExcessAndDecaysPlayerStock(t *testing.T) {
	m, ws, clk, _ := newShopFixture(t)
	p := richPlayer(ws, 0)
	require.True(t, p.Inv.Add(world.ItemStack{ID: "oak_log", Quantity: 2}, true))
	shop := ws.Shop("store")

	// Sell just after t0 so the first maintenance tick sees a fresh,
	// not-yet-stale sale.
	clk.t = clk.t.Add(time.Millisecond)
	_, err := m.Sell(p, "store", 0, 2)
	require.NoError(t, err)
	e := shop.Entry("oak_log")
	require.NotNil(t, e)

	// Transient excess on generic stock trims one unit per interval.
	shop.Entry("bread").Quantity = 12
	clk.advance(time.Minute)
	assert.Equal(t, 11, shop.Entry("bread").Quantity)

	// The fresh sale is not yet stale, so it survived the first tick.
	require.Equal(t, 2, e.Quantity)

	// Untouched past the expiry it decays one unit per interval and
	// the entry vanishes once empty.
	clk.advance(time.Minute)
	assert.Equal(t, 1, e.Quantity)
	clk.advance(time.Minute)
	assert.Nil(t, shop.Entry("oak_log"))
}
