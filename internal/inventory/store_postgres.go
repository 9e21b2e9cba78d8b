// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package inventory

import (
	"context"
	"database/sql"
	"strings"

	"github.com/taibuivan/stockroom/internal/platform/dberr"
)

// PostgresStore implements [Store] on database/sql.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL implementation of the Store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const itemColumns = `id, sku, name, quantity, unit, created_at, updated_at`

// List returns one page of items ordered by SKU plus the total match count.
func (store *PostgresStore) List(ctx context.Context, filter Filter) ([]*Item, int, error) {
	pattern := "%" + escapeLike(filter.Search) + "%"

	var total int
	err := store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM inventory_items WHERE sku ILIKE $1 OR name ILIKE $1`,
		pattern,
	).Scan(&total)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Item", "count items")
	}

	rows, err := store.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE sku ILIKE $1 OR name ILIKE $1 ORDER BY sku LIMIT $2 OFFSET $3`,
		pattern, filter.Limit, filter.Offset(),
	)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Item", "list items")
	}
	defer rows.Close()

	items := make([]*Item, 0, filter.Limit)
	for rows.Next() {
		item := &Item{}
		if err := rows.Scan(&item.ID, &item.SKU, &item.Name, &item.Quantity, &item.Unit, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, 0, dberr.Wrap(err, "Item", "scan item")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "Item", "list items")
	}

	return items, total, nil
}

// FindByID returns a single item.
func (store *PostgresStore) FindByID(ctx context.Context, id string) (*Item, error) {
	item := &Item{}
	err := store.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`, id,
	).Scan(&item.ID, &item.SKU, &item.Name, &item.Quantity, &item.Unit, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "Item", "find item by id")
	}
	return item, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}
