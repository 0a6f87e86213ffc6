package songs

import (
	"context"
	"errors"
	"net/http"

	"taikoweb/database"
	"taikoweb/middleware"
	"taikoweb/models"
	"taikoweb/services"
	"taikoweb/utils/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SongReader is the read side of the catalog
type SongReader interface {
	FindSong(ctx context.Context, id string) (*models.Song, error)
	ListSongs(ctx context.Context) ([]models.Song, error)
}

// Handler serves the song administration endpoints
type Handler struct {
	pipeline   *services.Pipeline
	songs      SongReader
	cache      *database.Cache
	maxUpload  int64
	locationFn func(id string) string
	log        *zap.Logger
}

// NewHandler builds the song handlers. location maps a song id to its resource URL.
func NewHandler(pipeline *services.Pipeline, songs SongReader, cache *database.Cache, maxUpload int64, location func(id string) string, log *zap.Logger) *Handler {
	return &Handler{
		pipeline:   pipeline,
		songs:      songs,
		cache:      cache,
		maxUpload:  maxUpload,
		locationFn: location,
		log:        log,
	}
}

// UploadSong ingests a zipped song
// @Summary Upload a song archive
// @Description Extracts a .zip holding a .tja chart and an .ogg track and adds it to the catalog
// @Tags Songs
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Song archive (.zip)"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Failure 504 {object} ErrorResponse
// @Router /admin/songs/upload [post]
// @Security Bearer
func (h *Handler) UploadSong(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var maxBytes *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytes):
			response.Failure(c, services.Wrap(services.ErrArchiveTooLarge, err))
		case errors.Is(err, http.ErrMissingFile):
			response.Error(c, http.StatusBadRequest, ErrNoFilePart)
		default:
			response.Error(c, http.StatusBadRequest, ErrInvalidForm)
		}
		return
	}
	if header.Filename == "" {
		response.Error(c, http.StatusBadRequest, ErrNoSelectedFile)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.log.Error("failed to open uploaded file", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, ErrReadUpload)
		return
	}
	defer file.Close()

	song, err := h.pipeline.Ingest(c.Request.Context(), middleware.GetCaller(c), services.Upload{
		Filename: header.Filename,
		Body:     file,
	})
	if err != nil {
		if response.StatusFor(err) >= http.StatusInternalServerError {
			h.log.Error("song upload failed", zap.String("filename", header.Filename), zap.Error(err))
		}
		response.Failure(c, err)
		return
	}

	if h.locationFn != nil {
		c.Header("Location", h.locationFn(song.ID))
	}
	response.Success(c, http.StatusCreated, song)
}

// GetSongs lists the catalog
// @Summary List songs
// @Description Every song in the catalog, newest first
// @Tags Songs
// @Produce json
// @Success 200 {array} SongResponse
// @Failure 403 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /admin/songs [get]
// @Security Bearer
func (h *Handler) GetSongs(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DatabaseTimeout)
	defer cancel()

	var songs []models.Song
	if found, err := h.cache.GetFromCache(ctx, SongsCacheKey, &songs); err == nil && found {
		c.JSON(http.StatusOK, songs)
		return
	} else if err != nil {
		h.log.Warn("songs cache unavailable", zap.Error(err))
	}

	songs, err := h.songs.ListSongs(ctx)
	if err != nil {
		h.log.Error("failed to list songs", zap.Error(err))
		response.Error(c, http.StatusServiceUnavailable, ErrFetchSongsFailed)
		return
	}
	if songs == nil {
		songs = []models.Song{}
	}
	if err := h.cache.SetToCache(ctx, SongsCacheKey, songs, SongsCacheDuration); err != nil {
		h.log.Warn("failed to cache songs", zap.Error(err))
	}
	c.JSON(http.StatusOK, songs)
}

// GetSong returns one song
// @Summary Get a song
// @Tags Songs
// @Produce json
// @Param id path string true "Song ID"
// @Success 200 {object} SongResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /admin/songs/{id} [get]
// @Security Bearer
func (h *Handler) GetSong(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DatabaseTimeout)
	defer cancel()

	song, err := h.songs.FindSong(ctx, c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		response.Error(c, http.StatusNotFound, ErrSongNotFound)
		return
	}
	if err != nil {
		h.log.Error("failed to fetch song", zap.String("id", c.Param("id")), zap.Error(err))
		response.Error(c, http.StatusServiceUnavailable, ErrFetchSongsFailed)
		return
	}
	c.JSON(http.StatusOK, song)
}

// CacheInvalidator drops the cached song list whenever a song is committed
type CacheInvalidator struct {
	cache *database.Cache
	log   *zap.Logger
}

func NewCacheInvalidator(cache *database.Cache, log *zap.Logger) *CacheInvalidator {
	return &CacheInvalidator{cache: cache, log: log}
}

func (i *CacheInvalidator) SongIngested(song models.Song) {
	ctx, cancel := context.WithTimeout(context.Background(), DatabaseTimeout)
	defer cancel()
	if err := i.cache.Invalidate(ctx, SongsCacheKey); err != nil {
		i.log.Warn("failed to invalidate songs cache", zap.String("id", song.ID), zap.Error(err))
	}
}
