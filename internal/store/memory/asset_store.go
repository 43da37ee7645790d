package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/latosol/latosol/internal/models"
	"github.com/latosol/latosol/internal/store"
)

var _ store.AssetStore = (*AssetStore)(nil)

// AssetStore implements store.AssetStore using in-memory storage.
// Data is lost on restart.
type AssetStore struct {
	mu     sync.RWMutex
	assets map[uuid.UUID]*models.Asset
}

// NewAssetStore creates a new in-memory asset store.
func NewAssetStore() *AssetStore {
	return &AssetStore{
		assets: make(map[uuid.UUID]*models.Asset),
	}
}

// SaveAsset stores a copy of the asset.
func (s *AssetStore) SaveAsset(ctx context.Context, asset *models.Asset) (uuid.UUID, error) {
	if err := store.PrepareAsset(asset, time.Now); err != nil {
		return uuid.Nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.assets[asset.ID]; exists {
		return uuid.Nil, store.ErrAssetExists
	}

	s.assets[asset.ID] = asset.Clone()

	return asset.ID, nil
}

// GetAsset returns a copy of the stored asset.
func (s *AssetStore) GetAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asset, exists := s.assets[id]
	if !exists {
		return nil, store.ErrAssetNotFound
	}

	return asset.Clone(), nil
}

func (s *AssetStore) Ping(ctx context.Context) error {
	return nil
}

func (s *AssetStore) Close() {}
