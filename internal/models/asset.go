package models

import (
	"time"

	"github.com/google/uuid"
)

// Asset is an opaque blob stored alongside the server, such as a document
// a connection handler serves to its peers.
type Asset struct {
	ID        uuid.UUID // UUIDv7, assigned on save when zero
	MimeType  string
	Data      []byte
	CreatedAt time.Time
}

// Clone returns a deep copy of the asset.
func (a *Asset) Clone() *Asset {
	clone := *a
	clone.Data = append([]byte(nil), a.Data...)
	return &clone
}
