// Package storage defines the persistence contract of the items service.
package storage

import (
	"context"
	"errors"

	"github.com/idilsaglam/itemboard/internal/model"
)

// ErrEmptyName is returned when an item is created without a name.
var ErrEmptyName = errors.New("name is required")

// Repository stores items and hands them back ordered by id.
type Repository interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	CreateItem(ctx context.Context, name string) (model.Item, error)
	Ping(ctx context.Context) error
	Close() error
}
