package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taikoweb/metrics"
	"taikoweb/models"

	"gorm.io/gorm"
)

// GormStore keeps songs and users in a SQL database
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an opened and migrated gorm connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// InsertSong creates the song, failing with ErrDuplicateKey when the id already exists
func (s *GormStore) InsertSong(ctx context.Context, song *models.Song) error {
	defer metrics.RecordDBOperation("insert", "songs", time.Now())

	if err := s.db.WithContext(ctx).Create(song).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: song %s", ErrDuplicateKey, song.ID)
		}
		return fmt.Errorf("insert song: %w", err)
	}
	return nil
}

// FindSong returns the song with the given id
func (s *GormStore) FindSong(ctx context.Context, id string) (*models.Song, error) {
	defer metrics.RecordDBOperation("select", "songs", time.Now())

	var song models.Song
	if err := s.db.WithContext(ctx).First(&song, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find song: %w", err)
	}
	return &song, nil
}

// ListSongs returns every song, newest first
func (s *GormStore) ListSongs(ctx context.Context) ([]models.Song, error) {
	defer metrics.RecordDBOperation("select", "songs", time.Now())

	var songs []models.Song
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	return songs, nil
}

// SongExists reports whether a song with the given id is committed
func (s *GormStore) SongExists(ctx context.Context, id string) (bool, error) {
	defer metrics.RecordDBOperation("count", "songs", time.Now())

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Song{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count songs: %w", err)
	}
	return count > 0, nil
}

// CountSongs returns the number of committed songs
func (s *GormStore) CountSongs(ctx context.Context) (int64, error) {
	defer metrics.RecordDBOperation("count", "songs", time.Now())

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Song{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count songs: %w", err)
	}
	return count, nil
}

// FindUserByUsername resolves a privileged user, ErrNotFound when absent
func (s *GormStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	defer metrics.RecordDBOperation("select", "users", time.Now())

	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// Close releases the underlying connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// isDuplicateKey also matches raw driver messages for dialects without error translation
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
