package message

import (
	"encoding/json"
	"fmt"
)

// Envelope is the outer shape of every wire message. The Type tag picks
// the payload struct; Data is re-decoded by the dispatched handler.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"-"`
}

// Decode splits a raw frame into its type tag and payload.
func Decode(raw []byte) (Envelope, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Envelope{}, fmt.Errorf("malformed message: %w", err)
	}
	if probe.Type == "" {
		return Envelope{}, fmt.Errorf("message missing type tag")
	}
	return Envelope{Type: probe.Type, Data: raw}, nil
}

// Marshal tags v with the given type string and encodes it as one JSON
// object. v must marshal to a JSON object.
func Marshal(msgType string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("message payload must be a JSON object")
	}
	if len(body) == 2 { // empty object
		return []byte(fmt.Sprintf(`{"type":%q}`, msgType)), nil
	}
	out := make([]byte, 0, len(body)+len(msgType)+12)
	out = append(out, []byte(fmt.Sprintf(`{"type":%q,`, msgType))...)
	out = append(out, body[1:]...)
	return out, nil
}

// ---- client → server ----

type Join struct {
	Name string `json:"name"`
}

type ResourceAction struct {
	ResourceType string `json:"resource_type"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Action       string `json:"action"`
}

type ResourceDeplete struct {
	ResourceType string `json:"resource_type"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
}

type ItemDrop struct {
	SlotIndex int `json:"slot_index"`
	Quantity  int `json:"quantity"`
	X         int `json:"x"`
	Y         int `json:"y"`
}

type ItemPickup struct {
	FloorItemID string `json:"floor_item_id"`
}

// ShopBuy requests a purchase by stock key: the plain item id for
// generic stock, or the synthesized key a shop_sync advertised for
// attribute-carrying player-sold stock.
type ShopBuy struct {
	ShopID   string `json:"shop_id"`
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type ShopSell struct {
	ShopID    string `json:"shop_id"`
	SlotIndex int    `json:"slot_index"`
	Quantity  int    `json:"quantity"`
}

type NpcSnapshotReq struct{}

// ---- server → client replies ----

type Welcome struct {
	SessionID uint64 `json:"session_id"`
	Name      string `json:"name"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Inventory []Slot `json:"inventory"`
}

type Denial struct {
	Reason string `json:"reason"`
}

type ActionApproved struct {
	ResourceType string `json:"resource_type"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Action       string `json:"action"`
}

type DepleteConfirmed struct {
	ResourceType string `json:"resource_type"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	RespawnMs    int64  `json:"respawn_ms"`
	YieldItem    string `json:"yield_item,omitempty"`
	YieldQty     int    `json:"yield_qty,omitempty"`
	Inventory    []Slot `json:"inventory"`
}

type DepleteDenied struct {
	Reason    string `json:"reason"`
	HolderID  string `json:"holder_id,omitempty"`
	HolderAt  int64  `json:"holder_at,omitempty"`
}

type DropConfirmed struct {
	FloorItemID string `json:"floor_item_id"`
	Stacked     bool   `json:"stacked"`
	Inventory   []Slot `json:"inventory"`
}

type PickupConfirmed struct {
	FloorItemID string `json:"floor_item_id"`
	ItemID      string `json:"item_id"`
	Quantity    int    `json:"quantity"`
	Inventory   []Slot `json:"inventory"`
}

type BuyConfirmed struct {
	ShopID    string `json:"shop_id"`
	ItemID    string `json:"item_id"`
	Quantity  int    `json:"quantity"`
	Cost      int64  `json:"cost"`
	Inventory []Slot `json:"inventory"`
}

type SellConfirmed struct {
	ShopID    string `json:"shop_id"`
	ItemID    string `json:"item_id"`
	Quantity  int    `json:"quantity"`
	Value     int64  `json:"value"`
	Inventory []Slot `json:"inventory"`
}

// ---- broadcasts ----

type NpcCreate struct {
	ID      string `json:"id"`
	NpcType string `json:"npc_type"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
}

type NpcMove struct {
	ID  string `json:"id"`
	X   int    `json:"x"`
	Y   int    `json:"y"`
	Dir int    `json:"dir"`
}

type NpcStop struct {
	ID string `json:"id"`
}

type NpcResume struct {
	ID string `json:"id"`
}

type NpcRemove struct {
	ID string `json:"id"`
}

type ResourceDepleted struct {
	ResourceType string `json:"resource_type"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	By           string `json:"by"`
	At           int64  `json:"at"`
}

type ResourceRespawned struct {
	ResourceType string `json:"resource_type"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
}

type ItemCreated struct {
	FloorItemID string            `json:"floor_item_id"`
	ItemID      string            `json:"item_id"`
	Quantity    int               `json:"quantity"`
	Noted       bool              `json:"noted,omitempty"`
	Attrs       map[string]string `json:"attrs,omitempty"`
	X           int               `json:"x"`
	Y           int               `json:"y"`
	DroppedBy   string            `json:"dropped_by"`
	SpawnTime   int64             `json:"spawn_time"`
}

type ItemUpdated struct {
	FloorItemID string `json:"floor_item_id"`
	Quantity    int    `json:"quantity"`
}

type ItemPickedUp struct {
	FloorItemID string `json:"floor_item_id"`
	By          string `json:"by"`
}

type ItemDespawned struct {
	FloorItemID string `json:"floor_item_id"`
}

// ---- state payloads shared by snapshots and syncs ----

type Slot struct {
	Index    int               `json:"index"`
	ItemID   string            `json:"item_id"`
	Quantity int               `json:"quantity"`
	Noted    bool              `json:"noted,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

type NpcState struct {
	ID      string `json:"id"`
	NpcType string `json:"npc_type"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Stopped bool   `json:"stopped"`
}

type DepletedNode struct {
	ResourceType string `json:"resource_type"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	By           string `json:"by"`
	At           int64  `json:"at"`
}

type StockState struct {
	Key        string            `json:"key"`
	ItemID     string            `json:"item_id"`
	Quantity   int               `json:"quantity"`
	MaxQty     int               `json:"max_qty"`
	PlayerSold bool              `json:"player_sold,omitempty"`
	Attrs      map[string]string `json:"attrs,omitempty"`
}

type ShopState struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Coins int64        `json:"coins"`
	Stock []StockState `json:"stock"`
}

type ShopSync struct {
	Shops []ShopState `json:"shops"`
}

type SnapshotResources struct {
	Depleted []DepletedNode `json:"depleted"`
}

type SnapshotItems struct {
	Items []ItemCreated `json:"items"`
}

type SnapshotShops struct {
	Shops []ShopState `json:"shops"`
}

type SnapshotNpcs struct {
	Npcs []NpcState `json:"npcs"`
}
