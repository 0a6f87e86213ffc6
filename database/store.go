package database

import (
	"context"

	"taikoweb/models"
)

// Store is the catalog backend, implemented by GormStore and MongoStore
type Store interface {
	InsertSong(ctx context.Context, song *models.Song) error
	FindSong(ctx context.Context, id string) (*models.Song, error)
	ListSongs(ctx context.Context) ([]models.Song, error)
	SongExists(ctx context.Context, id string) (bool, error)
	CountSongs(ctx context.Context) (int64, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	Close() error
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MongoStore)(nil)
)
