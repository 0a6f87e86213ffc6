package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"taikoweb/config"
	"taikoweb/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := OpenDialector(sqlite.Open(filepath.Join(t.TempDir(), "catalog.db")))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store := NewGormStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGormStoreInsertAndFind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	song := &models.Song{
		ID:          "4b7c1f3e-9a51-4df4-8f3d-2f5b2a0c6e11",
		Title:       "song",
		ChartFormat: models.ChartFormatTJA,
		AudioFormat: models.AudioFormatOGG,
		Enabled:     true,
		AssetPath:   "/srv/uploads/4b7c1f3e-9a51-4df4-8f3d-2f5b2a0c6e11",
		Files:       []string{"song.tja", "track.ogg"},
	}
	if err := store.InsertSong(ctx, song); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := store.FindSong(ctx, song.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Title != "song" || !got.Enabled || got.ChartFormat != "tja" || got.AudioFormat != "ogg" {
		t.Fatalf("unexpected song: %+v", got)
	}
	if len(got.Files) != 2 || got.Files[0] != "song.tja" {
		t.Fatalf("unexpected files: %v", got.Files)
	}

	exists, err := store.SongExists(ctx, song.ID)
	if err != nil || !exists {
		t.Fatalf("expected song to exist, err=%v", err)
	}
	exists, err = store.SongExists(ctx, "missing")
	if err != nil || exists {
		t.Fatalf("expected missing song, err=%v", err)
	}
}

func TestGormStoreDuplicateID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &models.Song{ID: "dup", Title: "a", ChartFormat: "tja", AudioFormat: "ogg", Enabled: true, AssetPath: "/a"}
	if err := store.InsertSong(ctx, first); err != nil {
		t.Fatalf("insert: %v", err)
	}
	second := &models.Song{ID: "dup", Title: "b", ChartFormat: "tja", AudioFormat: "ogg", Enabled: true, AssetPath: "/b"}
	err := store.InsertSong(ctx, second)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}

	count, err := store.CountSongs(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one song, got %d", count)
	}
}

func TestGormStoreFindMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.FindSong(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.FindUserByUsername(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPopulateCreatesBootstrapAdminOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	cfg := &config.Config{BootstrapAdmin: "admin", BootstrapAdminLevel: 100}
	log := zaptest.NewLogger(t)

	if err := Populate(ctx, store.db, cfg, log); err != nil {
		t.Fatalf("populate: %v", err)
	}
	if err := Populate(ctx, store.db, cfg, log); err != nil {
		t.Fatalf("second populate: %v", err)
	}

	user, err := store.FindUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("find admin: %v", err)
	}
	if user.UserLevel != 100 {
		t.Fatalf("unexpected level %d", user.UserLevel)
	}
	var count int64
	store.db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single admin, got %d", count)
	}
}

func TestListSongsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"one", "two"} {
		if err := store.InsertSong(ctx, &models.Song{ID: id, Title: id, ChartFormat: "tja", AudioFormat: "ogg", Enabled: true, AssetPath: "/" + id}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	songs, err := store.ListSongs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("expected two songs, got %d", len(songs))
	}
}
