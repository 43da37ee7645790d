package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/latosol/latosol/internal/models"
)

// Sentinel errors for common error conditions
var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrAssetExists   = errors.New("asset already exists")
)

// AssetStore persists assets.
type AssetStore interface {
	// SaveAsset stores the asset and returns its ID. A zero ID is replaced
	// with a new UUIDv7 and a zero CreatedAt with the current time.
	SaveAsset(ctx context.Context, asset *models.Asset) (uuid.UUID, error)

	// GetAsset returns ErrAssetNotFound when no asset has the given ID.
	GetAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	Close()
}

// PrepareAsset fills in the ID and CreatedAt fields left zero by the caller.
func PrepareAsset(asset *models.Asset, now func() time.Time) error {
	if asset.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		asset.ID = id
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = now().UTC()
	}
	return nil
}
