package persist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

type AccountRow struct {
	Name       string
	SecretHash string
	CreatedAt  time.Time
	LastSeen   *time.Time
}

type AccountRepo struct {
	db *DB
}

func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Load(ctx context.Context, name string) (*AccountRow, error) {
	row := &AccountRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT name, secret_hash, created_at, last_seen
		 FROM accounts WHERE name = $1`, name,
	).Scan(&row.Name, &row.SecretHash, &row.CreatedAt, &row.LastSeen)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *AccountRepo) Create(ctx context.Context, name, secret string) (*AccountRow, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	row := &AccountRow{
		Name:       name,
		SecretHash: string(hash),
		CreatedAt:  now,
		LastSeen:   &now,
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO accounts (name, secret_hash, last_seen) VALUES ($1, $2, $3)`,
		row.Name, row.SecretHash, row.LastSeen,
	)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Ensure loads an account, auto-creating it on first join. A wrong
// secret against an existing account returns ok=false.
func (r *AccountRepo) Ensure(ctx context.Context, name, secret string) (row *AccountRow, ok bool, err error) {
	row, err = r.Load(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if row == nil {
		row, err = r.Create(ctx, name, secret)
		if err != nil {
			return nil, false, err
		}
		return row, true, nil
	}
	return row, r.ValidateSecret(row.SecretHash, secret), nil
}

func (r *AccountRepo) ValidateSecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

func (r *AccountRepo) TouchLastSeen(ctx context.Context, name string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE accounts SET last_seen = NOW() WHERE name = $1`, name,
	)
	return err
}
