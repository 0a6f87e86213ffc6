package services

import (
	"context"
	"errors"
	"time"

	"taikoweb/database"
	"taikoweb/models"
)

// SongStore is the write side of the catalog
type SongStore interface {
	InsertSong(ctx context.Context, song *models.Song) error
	SongExists(ctx context.Context, id string) (bool, error)
}

// CatalogWriter turns a validated staging directory into a catalog entry
type CatalogWriter struct {
	store   SongStore
	timeout time.Duration
}

// NewCatalogWriter builds a writer; timeout bounds each insert, 0 disables it
func NewCatalogWriter(store SongStore, timeout time.Duration) *CatalogWriter {
	return &CatalogWriter{store: store, timeout: timeout}
}

// Commit inserts the song. A uniqueness violation is reported as ErrDuplicateIdentity
// and is never retried, every other store failure as ErrStoreUnavailable.
func (w *CatalogWriter) Commit(ctx context.Context, id, dir string, assets *Assets) (*models.Song, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	song := &models.Song{
		ID:          id,
		Title:       assets.Title,
		ChartFormat: models.ChartFormatTJA,
		AudioFormat: models.AudioFormatOGG,
		Enabled:     true,
		AssetPath:   dir,
		Files:       assets.Files,
		CreatedAt:   time.Now().UTC(),
	}

	if err := w.store.InsertSong(ctx, song); err != nil {
		if errors.Is(err, database.ErrDuplicateKey) {
			return nil, newError(ErrDuplicateIdentity, err)
		}
		return nil, newError(ErrStoreUnavailable, err)
	}
	return song, nil
}

// MayHaveCommitted reports whether a failed insert could still have landed.
// It is false only when the store confirms the id is absent.
func (w *CatalogWriter) MayHaveCommitted(ctx context.Context, id string) bool {
	ctx = context.WithoutCancel(ctx)
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	exists, err := w.store.SongExists(ctx, id)
	return exists || err != nil
}
