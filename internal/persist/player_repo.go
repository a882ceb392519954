package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SlotRow is one inventory slot in the stored JSONB profile.
type SlotRow struct {
	Index    int               `json:"index"`
	ItemID   string            `json:"item_id"`
	Quantity int               `json:"quantity"`
	Noted    bool              `json:"noted,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

type PlayerRow struct {
	Name      string
	X         int
	Y         int
	Inventory []SlotRow
}

type PlayerRepo struct {
	db *DB
}

func NewPlayerRepo(db *DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

func (r *PlayerRepo) Load(ctx context.Context, name string) (*PlayerRow, error) {
	row := &PlayerRow{}
	var invJSON []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT name, x, y, inventory FROM players WHERE name = $1`, name,
	).Scan(&row.Name, &row.X, &row.Y, &invJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(invJSON, &row.Inventory); err != nil {
		return nil, fmt.Errorf("decode inventory for %s: %w", name, err)
	}
	return row, nil
}

func (r *PlayerRepo) Save(ctx context.Context, row *PlayerRow) error {
	invJSON, err := json.Marshal(row.Inventory)
	if err != nil {
		return fmt.Errorf("encode inventory for %s: %w", row.Name, err)
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO players (name, x, y, inventory, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (name) DO UPDATE
		 SET x = EXCLUDED.x, y = EXCLUDED.y,
		     inventory = EXCLUDED.inventory, updated_at = NOW()`,
		row.Name, row.X, row.Y, invJSON,
	)
	return err
}
