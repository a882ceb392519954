package system

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/embervale/server/internal/core/sched"
	"github.com/embervale/server/internal/data"
	"github.com/embervale/server/internal/scripting"
	"github.com/embervale/server/internal/world"
)

// recorded is one gateway call captured by the test double.
type recorded struct {
	MsgType string
	Except  uint64 // session excluded from a broadcast, 0 = none
	To      uint64 // direct send target, 0 = broadcast
	Payload any
}

// recorder is a Gateway double that captures everything the managers
// would have put on the wire.
type recorder struct {
	events []recorded
}

func (r *recorder) BroadcastAll(msgType string, v any) {
	r.events = append(r.events, recorded{MsgType: msgType, Payload: v})
}

func (r *recorder) BroadcastExcept(sessionID uint64, msgType string, v any) {
	r.events = append(r.events, recorded{MsgType: msgType, Except: sessionID, Payload: v})
}

func (r *recorder) SendTo(sessionID uint64, msgType string, v any) {
	r.events = append(r.events, recorded{MsgType: msgType, To: sessionID, Payload: v})
}

// count returns how many events of msgType were recorded.
func (r *recorder) count(msgType string) int {
	n := 0
	for _, e := range r.events {
		if e.MsgType == msgType {
			n++
		}
	}
	return n
}

// last returns the most recent event of msgType, or nil.
func (r *recorder) last(msgType string) *recorded {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].MsgType == msgType {
			return &r.events[i]
		}
	}
	return nil
}

func (r *recorder) reset() { r.events = nil }

// clock is a manual test clock driving both now() and the scheduler.
type clock struct {
	sc *sched.Scheduler
	t  time.Time
}

func newClock() *clock {
	return &clock{sc: sched.New(), t: time.UnixMilli(0)}
}

func (c *clock) now() time.Time { return c.t }

// advance moves time forward and pumps the scheduler, firing everything
// that came due.
func (c *clock) advance(d time.Duration) {
	c.t = c.t.Add(d)
	c.sc.Run(c.t)
}

func writeFixture(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func testItemTable(t *testing.T) *data.ItemTable {
	t.Helper()
	tbl, err := data.LoadItemTable(writeFixture(t, "item_list.yaml", `
items:
  - id: coins
    name: Coins
    base_value: 1
    stackable: true
  - id: oak_log
    name: Oak Log
    base_value: 10
    stackable: true
  - id: bread
    name: Bread
    base_value: 6
    stackable: true
  - id: hatchet
    name: Hatchet
    base_value: 40
`))
	require.NoError(t, err)
	return tbl
}

func testResourceTable(t *testing.T) *data.ResourceTable {
	t.Helper()
	tbl, err := data.LoadResourceTable(writeFixture(t, "resource_list.yaml", `
resources:
  - id: oak_tree
    name: Oak Tree
    action: chop
    respawn_ms: 5000
    yield_item: oak_log
`))
	require.NoError(t, err)
	return tbl
}

func testNpcTable(t *testing.T, stopChance float64) *data.NpcTable {
	t.Helper()
	tbl, err := data.LoadNpcTable(writeFixture(t, "npc_list.yaml", fmt.Sprintf(`
npcs:
  - id: rabbit
    name: Rabbit
    wander_radius: 2
    move_min_ms: 1000
    move_max_ms: 1000
    stop_min_ms: 3000
    stop_max_ms: 3000
    stop_chance: %g
`, stopChance)))
	require.NoError(t, err)
	return tbl
}

func testShopTable(t *testing.T) *data.ShopTable {
	t.Helper()
	tbl, err := data.LoadShopTable(writeFixture(t, "shop_list.yaml", `
shops:
  - id: store
    name: Test Store
    buy_mult: 1.0
    sell_mult: 0.6
    change_rate: 0.03
    restock_ms: 60000
    destock_ms: 60000
    max_purchase: 100
    policy: all
    coins: 5000
    stock:
      - item_id: bread
        quantity: 10
        restock_rate: 1
  - id: listed
    name: Listed Only
    buy_mult: 1.2
    sell_mult: 0.7
    change_rate: 0.02
    policy: listed
    coins: 500
    stock:
      - item_id: hatchet
        quantity: 5
        restock_rate: 1
  - id: post
    name: Trading Post
    buy_mult: 1.0
    sell_mult: 0.5
    change_rate: 0.0
    policy: none
    unlimited: true
    stock:
      - item_id: bread
        quantity: 1
`))
	require.NoError(t, err)
	return tbl
}

// testScripts returns an engine with no scripts loaded, so idle
// decisions take the built-in fallback path.
func testScripts(t *testing.T) *scripting.Engine {
	t.Helper()
	eng, err := scripting.NewEngine(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	return eng
}

// openMap returns an all-walkable square map.
func openMap(size int) *data.MapTable {
	return data.NewMapTable(size, size, nil, nil, nil)
}

func testPlayer(ws *world.State, sessionID uint64, name string, pos world.Position) *world.PlayerInfo {
	p := &world.PlayerInfo{
		SessionID: sessionID,
		Name:      name,
		Pos:       pos,
		Inv:       world.NewInventory(),
	}
	ws.AddPlayer(p)
	return p
}

func testRng() *rand.Rand { return rand.New(rand.NewSource(42)) }
