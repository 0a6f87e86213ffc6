package songs

import "time"

// Error message constants
const (
	ErrNoFilePart       = "No file part"
	ErrNoSelectedFile   = "No selected file"
	ErrInvalidForm      = "Invalid multipart form"
	ErrSongNotFound     = "Song not found"
	ErrFetchSongsFailed = "Failed to fetch songs"
	ErrReadUpload       = "Failed to read the uploaded file"
)

const (
	DatabaseTimeout    = 5 * time.Second
	SongsCacheKey      = "songs:list"
	SongsCacheDuration = 5 * time.Minute

	// room for multipart boundaries and headers on top of the archive itself
	multipartOverhead = 1 << 20
)

// UploadResponse is the body returned after a successful upload
type UploadResponse struct {
	Data SongResponse `json:"data"`
}

// SongResponse mirrors models.Song for the API docs
type SongResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	MusicType string    `json:"music_type"`
	Enabled   bool      `json:"enabled"`
	Path      string    `json:"path"`
	Files     []string  `json:"files"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse is the body returned on failure
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
