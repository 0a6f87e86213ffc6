package services

import (
	"context"
	"errors"
	"io"
	"time"

	"taikoweb/config"
	"taikoweb/metrics"
	"taikoweb/models"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// SongNotifier is told about every song committed to the catalog
type SongNotifier interface {
	SongIngested(song models.Song)
}

// Upload is a raw archive as received from a client
type Upload struct {
	Filename string
	Body     io.Reader
}

// Pipeline runs one upload through the gate, staging, validation and the catalog writer.
// Runs share nothing but the store and the concurrency bound.
type Pipeline struct {
	gate      *Gate
	level     int
	staging   *Staging
	writer    *CatalogWriter
	limits    config.UploadLimits
	slots     *semaphore.Weighted
	notifiers []SongNotifier
	log       *zap.Logger
}

// NewPipeline wires the pipeline stages. level is the privilege required to ingest.
func NewPipeline(gate *Gate, level int, staging *Staging, writer *CatalogWriter, limits config.UploadLimits, log *zap.Logger, notifiers ...SongNotifier) *Pipeline {
	return &Pipeline{
		gate:      gate,
		level:     level,
		staging:   staging,
		writer:    writer,
		limits:    limits,
		slots:     semaphore.NewWeighted(limits.MaxConcurrentUploads),
		notifiers: notifiers,
		log:       log,
	}
}

// Level returns the privilege level required to ingest
func (p *Pipeline) Level() int {
	return p.level
}

// Ingest authorizes caller, stages and validates the upload, then commits the song.
// On any failure the staging directory is removed and no record is written.
func (p *Pipeline) Ingest(ctx context.Context, caller string, upload Upload) (song *models.Song, err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = string(KindOf(err))
		}
		metrics.RecordIngestion(outcome, start)
	}()

	user, err := p.gate.Authorize(ctx, caller, p.level)
	if err != nil {
		return nil, err
	}
	if err := CheckUploadName(upload.Filename); err != nil {
		return nil, err
	}
	if upload.Body == nil {
		return nil, newError(ErrEmptyUpload, nil)
	}

	if err := p.slots.Acquire(ctx, 1); err != nil {
		return nil, newError(ErrTimeout, err)
	}
	defer p.slots.Release(1)
	metrics.UploadsInProgress.Inc()
	defer metrics.UploadsInProgress.Dec()

	stage, err := p.staging.Acquire()
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := stage.Release(); rerr != nil {
			p.log.Warn("failed to release staging area", zap.String("id", stage.ID), zap.Error(rerr))
		}
	}()

	log := p.log.With(zap.String("id", stage.ID), zap.String("username", user.Username))

	extractCtx, cancel := context.WithTimeout(ctx, p.limits.ExtractTimeout)
	defer cancel()

	received, err := stage.Receive(extractCtx, upload.Body)
	if err != nil {
		log.Info("upload rejected", zap.String("filename", upload.Filename), zap.Error(err))
		return nil, err
	}
	extracted, err := stage.Extract(extractCtx)
	if err != nil {
		log.Info("archive rejected", zap.String("filename", upload.Filename), zap.Error(err))
		return nil, err
	}
	metrics.ExtractedBytes.Observe(float64(extracted))

	assets, err := ValidateAssets(stage.Dir)
	if err != nil {
		log.Info("archive content rejected", zap.String("filename", upload.Filename), zap.Error(err))
		return nil, err
	}

	song, err = p.writer.Commit(ctx, stage.ID, stage.Dir, assets)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) && p.writer.MayHaveCommitted(ctx, stage.ID) {
			// a record may point at the directory; CleanStale removes it once the store says otherwise
			stage.Commit()
			log.Warn("insert outcome unknown, keeping staging directory", zap.String("dir", stage.Dir))
		}
		log.Error("failed to commit song", zap.Error(err))
		return nil, err
	}
	stage.Commit()

	log.Info("song ingested",
		zap.String("title", song.Title),
		zap.String("path", song.AssetPath),
		zap.Int64("received_bytes", received),
		zap.Int64("extracted_bytes", extracted),
	)
	for _, n := range p.notifiers {
		n.SongIngested(*song)
	}
	return song, nil
}
