package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Tolits3/PanelX-Backend/internal/models"
)

// NewFileStorage returns a Storage that loads its state from JSON files in
// dir and rewrites them after every mutation. This is the flat-file mode the
// platform launched with, kept behind the same Storage interface so the
// services do not care which backend runs underneath.
func NewFileStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage dir: %w", err)
	}

	s := NewStorage()
	s.dir = dir

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Storage) load() error {
	if err := readJSON(filepath.Join(s.dir, "accounts.json"), &s.accounts); err != nil {
		return err
	}
	if err := readJSON(filepath.Join(s.dir, "transactions.json"), &s.transactions); err != nil {
		return err
	}
	if err := readJSON(filepath.Join(s.dir, "profiles.json"), &s.profiles); err != nil {
		return err
	}

	var seriesList []models.Series
	if err := readJSON(filepath.Join(s.dir, "series.json"), &seriesList); err != nil {
		return err
	}
	for _, item := range seriesList {
		s.series[item.ID] = item
	}

	var episodeList []models.Episode
	if err := readJSON(filepath.Join(s.dir, "episodes.json"), &episodeList); err != nil {
		return err
	}
	for _, item := range episodeList {
		s.episodes[item.ID] = item
	}

	panels := map[uuid.UUID][]models.Panel{}
	if err := readJSON(filepath.Join(s.dir, "panels.json"), &panels); err != nil {
		return err
	}
	for id, list := range panels {
		s.panels[id] = list
	}

	var progressList []models.Progress
	if err := readJSON(filepath.Join(s.dir, "reading_progress.json"), &progressList); err != nil {
		return err
	}
	for _, item := range progressList {
		key := progressKey{UserID: item.UserID, SeriesID: item.SeriesID, EpisodeID: item.EpisodeID}
		s.progress[key] = item
	}

	return nil
}

// persistLocked rewrites the snapshot files. Callers must hold s.mu.
// A write failure only loses durability of the flat-file mode, the in-memory
// state stays consistent, so the error is swallowed the same way the original
// launch backend ignored file errors.
func (s *Storage) persistLocked() {
	if s.dir == "" {
		return
	}

	seriesList := make([]models.Series, 0, len(s.series))
	for _, item := range s.series {
		seriesList = append(seriesList, item)
	}
	episodeList := make([]models.Episode, 0, len(s.episodes))
	for _, item := range s.episodes {
		episodeList = append(episodeList, item)
	}
	progressList := make([]models.Progress, 0, len(s.progress))
	for _, item := range s.progress {
		progressList = append(progressList, item)
	}

	_ = writeJSON(filepath.Join(s.dir, "accounts.json"), s.accounts)
	_ = writeJSON(filepath.Join(s.dir, "transactions.json"), s.transactions)
	_ = writeJSON(filepath.Join(s.dir, "profiles.json"), s.profiles)
	_ = writeJSON(filepath.Join(s.dir, "series.json"), seriesList)
	_ = writeJSON(filepath.Join(s.dir, "episodes.json"), episodeList)
	_ = writeJSON(filepath.Join(s.dir, "panels.json"), s.panels)
	_ = writeJSON(filepath.Join(s.dir, "reading_progress.json"), progressList)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
