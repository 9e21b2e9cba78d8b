// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package inventory serves the read side of the stock catalogue.

Every route sits behind the inventory:read permission. Writes are managed
outside this API.
*/
package inventory

import (
	"context"
	"time"

	"github.com/taibuivan/stockroom/pkg/pagination"
)

// Item is one stock-keeping unit and its on-hand quantity.
type Item struct {
	ID        string    `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filter narrows an item listing.
type Filter struct {
	// Search matches a case-insensitive substring of the SKU or name.
	Search string
	pagination.Params
}

// Store defines the data access contract for items.
type Store interface {
	List(ctx context.Context, filter Filter) ([]*Item, int, error)
	FindByID(ctx context.Context, id string) (*Item, error)
}
