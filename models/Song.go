package models

import (
	"time"

	"gorm.io/datatypes"
)

// Chart and audio encodings recognised by the ingestion pipeline
const (
	ChartFormatTJA = "tja"
	AudioFormatOGG = "ogg"
)

// Song represents a playable catalog entry whose assets live in an extracted directory
type Song struct {
	ID          string                      `gorm:"type:varchar(36);primaryKey" json:"id" bson:"id"`
	Title       string                      `gorm:"type:varchar(255);not null" json:"title" bson:"title"`
	ChartFormat string                      `gorm:"type:varchar(16);not null;column:type" json:"type" bson:"type"`
	AudioFormat string                      `gorm:"type:varchar(16);not null;column:music_type" json:"music_type" bson:"music_type"`
	Enabled     bool                        `gorm:"not null;default:true" json:"enabled" bson:"enabled"`
	AssetPath   string                      `gorm:"type:varchar(1024);not null;column:path" json:"path" bson:"path"`
	Files       datatypes.JSONSlice[string] `gorm:"column:files" json:"files" bson:"files"`
	CreatedAt   time.Time                   `json:"created_at" bson:"created_at"`
}
