package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/latosol/latosol/internal/models"
	"github.com/latosol/latosol/internal/store"
	"github.com/rs/zerolog/log"
)

var _ store.AssetStore = (*AssetStore)(nil)

// AssetStore implements store.AssetStore using PostgreSQL.
type AssetStore struct {
	pool *pgxpool.Pool
}

// NewAssetStore creates a PostgreSQL-backed asset store. The store takes
// ownership of pool and closes it in Close.
func NewAssetStore(pool *pgxpool.Pool) *AssetStore {
	return &AssetStore{pool: pool}
}

// SaveAsset inserts the asset.
func (s *AssetStore) SaveAsset(ctx context.Context, asset *models.Asset) (uuid.UUID, error) {
	if err := store.PrepareAsset(asset, time.Now); err != nil {
		return uuid.Nil, fmt.Errorf("failed to prepare asset: %w", err)
	}

	data := asset.Data
	if data == nil {
		data = []byte{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO assets (asset_id, mime_type, data, created_at)
		VALUES ($1, $2, $3, $4)
	`, asset.ID, asset.MimeType, data, asset.CreatedAt)
	if err != nil {
		return uuid.Nil, mapPostgresError(err)
	}

	log.Debug().
		Str("asset_id", asset.ID.String()).
		Str("mime_type", asset.MimeType).
		Int("size", len(data)).
		Msg("Saved asset")

	return asset.ID, nil
}

// GetAsset retrieves an asset by ID.
func (s *AssetStore) GetAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	asset := &models.Asset{}

	err := s.pool.QueryRow(ctx, `
		SELECT asset_id, mime_type, data, created_at
		FROM assets
		WHERE asset_id = $1
	`, id).Scan(&asset.ID, &asset.MimeType, &asset.Data, &asset.CreatedAt)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	return asset, nil
}

func (s *AssetStore) Ping(ctx context.Context) error {
	return mapPostgresError(s.pool.Ping(ctx))
}

func (s *AssetStore) Close() {
	s.pool.Close()
}
