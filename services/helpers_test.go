package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"taikoweb/config"
	"taikoweb/database"
	"taikoweb/models"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap/zaptest"
)

type zipEntry struct {
	Name string
	Body string
	Mode os.FileMode
}

func buildZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		if e.Mode != 0 {
			hdr.SetMode(e.Mode)
		}
		fw, err := w.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", e.Name, err)
		}
		if _, err := fw.Write([]byte(e.Body)); err != nil {
			t.Fatalf("write zip entry %s: %v", e.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func songZip(t *testing.T) []byte {
	return buildZip(t,
		zipEntry{Name: "song.tja", Body: "TITLE:song\nBPM:120\n#START\n1111,\n#END\n"},
		zipEntry{Name: "track.ogg", Body: "OggS fake audio"},
	)
}

// memStore is a concurrency safe in-memory catalog enforcing id uniqueness
type memStore struct {
	mu        sync.Mutex
	songs     map[string]models.Song
	users     map[string]models.User
	userCalls int
	insertErr error
	// landErr is returned after the song has been stored, like a timeout racing the commit
	landErr   error
	existsErr error
}

func newMemStore(users ...models.User) *memStore {
	s := &memStore{songs: map[string]models.Song{}, users: map[string]models.User{}}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s
}

func (s *memStore) InsertSong(ctx context.Context, song *models.Song) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	if _, ok := s.songs[song.ID]; ok {
		return fmt.Errorf("%w: song %s", database.ErrDuplicateKey, song.ID)
	}
	s.songs[song.ID] = *song
	return s.landErr
}

func (s *memStore) SongExists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.songs[id]
	return ok, nil
}

func (s *memStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userCalls++
	u, ok := s.users[username]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &u, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.songs)
}

type fixedAllocator struct {
	mu  sync.Mutex
	ids []string
}

func (a *fixedAllocator) NewID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.ids[0]
	if len(a.ids) > 1 {
		a.ids = a.ids[1:]
	}
	return id
}

type recordingNotifier struct {
	mu    sync.Mutex
	songs []models.Song
}

func (r *recordingNotifier) SongIngested(song models.Song) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.songs = append(r.songs, song)
}

func testLimits() config.UploadLimits {
	limits := config.DefaultUploadLimits
	limits.MaxUploadBytes = 1 << 20
	limits.MaxExtractedBytes = 1 << 20
	limits.MaxArchiveEntries = 16
	limits.ExtractTimeout = 10 * time.Second
	return limits
}

func newTestStaging(t *testing.T, limits config.UploadLimits, ids IDAllocator) *Staging {
	t.Helper()
	staging, err := NewStaging(filepath.Join(t.TempDir(), "uploads"), limits, ids, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("new staging: %v", err)
	}
	return staging
}

// listTree returns every path under root, relative to root
func listTree(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, _ := filepath.Rel(root, p)
		out = append(out, rel)
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("walk %s: %v", root, err)
	}
	return out
}
