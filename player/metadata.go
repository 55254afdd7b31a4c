package player

import (
	"os"
	"path/filepath"

	"github.com/dhowden/tag"
)

// TrackInfo holds the tag metadata of an audio file.
type TrackInfo struct {
	Path   string
	Title  string
	Artist string
	Album  string
	Year   int
	Track  int
}

// ReadTrackInfo reads tag metadata from an audio file. Files without
// readable tags fall back to the file name as title.
func ReadTrackInfo(path string) (*TrackInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return &TrackInfo{
			Path:  path,
			Title: filepath.Base(path),
		}, nil
	}

	title := m.Title()
	if title == "" {
		title = filepath.Base(path)
	}
	trackNum, _ := m.Track()

	return &TrackInfo{
		Path:   path,
		Title:  title,
		Artist: m.Artist(),
		Album:  m.Album(),
		Year:   m.Year(),
		Track:  trackNum,
	}, nil
}
