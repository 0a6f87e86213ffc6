package config

import (
	"fmt"
	"time"
)

// UploadLimits bounds the resources a single song upload may consume
type UploadLimits struct {
	MaxUploadBytes       int64         // Size of the raw archive accepted from the client
	MaxExtractedBytes    int64         // Total decompressed size allowed across all entries
	MaxArchiveEntries    int           // Number of entries an archive may contain
	MaxConcurrentUploads int64         // Uploads staged and extracted at the same time
	ExtractTimeout       time.Duration // Deadline for persisting and extracting one archive
	StoreTimeout         time.Duration // Deadline for each catalog store call
	UploadsPerMinute     int           // Upload requests allowed per client per minute
	UploadBurst          int           // Burst capacity of the per client limiter
}

var DefaultUploadLimits = UploadLimits{
	MaxUploadBytes:       64 << 20,
	MaxExtractedBytes:    256 << 20,
	MaxArchiveEntries:    512,
	MaxConcurrentUploads: 4,
	ExtractTimeout:       2 * time.Minute,
	StoreTimeout:         5 * time.Second,
	UploadsPerMinute:     10,
	UploadBurst:          5,
}

// LoadUploadLimits overlays the environment on DefaultUploadLimits
func LoadUploadLimits() UploadLimits {
	d := DefaultUploadLimits
	return UploadLimits{
		MaxUploadBytes:       envInt64("MAX_UPLOAD_BYTES", d.MaxUploadBytes),
		MaxExtractedBytes:    envInt64("MAX_EXTRACTED_BYTES", d.MaxExtractedBytes),
		MaxArchiveEntries:    envInt("MAX_ARCHIVE_ENTRIES", d.MaxArchiveEntries),
		MaxConcurrentUploads: envInt64("MAX_CONCURRENT_UPLOADS", d.MaxConcurrentUploads),
		ExtractTimeout:       envDuration("EXTRACT_TIMEOUT", d.ExtractTimeout),
		StoreTimeout:         envDuration("STORE_TIMEOUT", d.StoreTimeout),
		UploadsPerMinute:     envInt("UPLOADS_PER_MINUTE", d.UploadsPerMinute),
		UploadBurst:          envInt("UPLOAD_BURST", d.UploadBurst),
	}
}

// Validate rejects limits that would disable a bound
func (l UploadLimits) Validate() error {
	switch {
	case l.MaxUploadBytes <= 0:
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	case l.MaxExtractedBytes <= 0:
		return fmt.Errorf("MAX_EXTRACTED_BYTES must be positive")
	case l.MaxArchiveEntries <= 0:
		return fmt.Errorf("MAX_ARCHIVE_ENTRIES must be positive")
	case l.MaxConcurrentUploads <= 0:
		return fmt.Errorf("MAX_CONCURRENT_UPLOADS must be positive")
	case l.UploadsPerMinute <= 0 || l.UploadBurst <= 0:
		return fmt.Errorf("upload rate limits must be positive")
	}
	return nil
}
