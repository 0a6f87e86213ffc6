package services

import (
	"os"
	"strings"

	"taikoweb/models"
)

const (
	chartSuffix = "." + models.ChartFormatTJA
	audioSuffix = "." + models.AudioFormatOGG
)

// Assets describes the validated top level content of an extracted archive
type Assets struct {
	Title string   // chart file name without its suffix
	Chart string   // canonical chart file
	Audio string   // first audio file
	Files []string // every regular file at the top level
}

// ValidateAssets checks the direct content of dir (subdirectories are not searched)
// for at least one chart and one audio file. Suffixes are case sensitive. os.ReadDir
// sorts by name, so the lexicographically first chart is canonical on every filesystem.
func ValidateAssets(dir string) (*Assets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, newError(ErrIOFailure, err)
	}

	assets := &Assets{}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		assets.Files = append(assets.Files, name)

		switch {
		case assets.Chart == "" && strings.HasSuffix(name, chartSuffix):
			assets.Chart = name
		case assets.Audio == "" && strings.HasSuffix(name, audioSuffix):
			assets.Audio = name
		}
	}

	if assets.Chart == "" {
		return nil, newErrorf(ErrMissingChartAsset, "no %s file at the archive root", chartSuffix)
	}
	if assets.Audio == "" {
		return nil, newErrorf(ErrMissingAudioAsset, "no %s file at the archive root", audioSuffix)
	}
	assets.Title = strings.TrimSuffix(assets.Chart, chartSuffix)
	return assets, nil
}
