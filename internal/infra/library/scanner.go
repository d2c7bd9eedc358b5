// Package library builds playable track lists from local audio files.
package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/musila/player/internal/domain/track"
)

// DefaultExtensions are the audio formats scanned when none are configured.
var DefaultExtensions = []string{".mp3", ".flac", ".wav", ".ogg"}

// Scanner walks a directory tree and extracts track metadata from tags.
type Scanner struct {
	extensions map[string]bool
}

// NewScanner creates a scanner for the given extensions (DefaultExtensions
// when empty).
func NewScanner(extensions []string) *Scanner {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[strings.ToLower(ext)] = true
	}
	return &Scanner{extensions: set}
}

// Scan walks root and returns a track per supported audio file, in
// lexical path order. Unreadable tags degrade to filename-derived titles;
// they never fail the scan.
func (s *Scanner) Scan(root string) ([]track.Track, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, "library path not accessible")
	}
	if !info.IsDir() {
		return nil, errors.Newf("library path is not a directory: %s", root)
	}

	var tracks []track.Track
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !s.extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		tracks = append(tracks, s.buildTrack(path))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to walk library")
	}

	zlog.Info().Int("tracks", len(tracks)).Str("path", root).Msg("library: scan complete")
	return tracks, nil
}

// buildTrack reads tag metadata from the file, falling back to the
// filename when the file carries no readable tags.
func (s *Scanner) buildTrack(path string) track.Track {
	t := track.Track{
		ID:       uuid.New().String(),
		Title:    titleFromFilename(path),
		MediaURL: path,
	}

	f, err := os.Open(path)
	if err != nil {
		zlog.Warn().Err(err).Str("path", path).Msg("library: failed to open file, using filename metadata")
		return t
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		zlog.Debug().Err(err).Str("path", path).Msg("library: no readable tags, using filename metadata")
		return t
	}

	if title := strings.TrimSpace(meta.Title()); title != "" {
		t.Title = title
	}
	t.Authors = parseAuthors(meta.Artist())
	return t
}

// titleFromFilename derives a display title from the file name: extension
// stripped, separators normalized to spaces.
func titleFromFilename(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// parseAuthors splits a tag artist string into author credits. Multiple
// artists are comma separated; the first word of each becomes the given
// name and the remainder the surname.
func parseAuthors(artist string) []track.Author {
	artist = strings.TrimSpace(artist)
	if artist == "" {
		return nil
	}

	var authors []track.Author
	for _, part := range strings.Split(artist, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		a := track.Author{Name: fields[0], Role: track.RoleAuthor}
		if len(fields) > 1 {
			a.Surname = strings.Join(fields[1:], " ")
		}
		authors = append(authors, a)
	}
	return authors
}
