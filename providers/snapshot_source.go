package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"portfolioapi.app/errors"
	"portfolioapi.app/models"
)

// SnapshotSource serves the committed snapshot artifact from disk. It is the
// terminal fallback of the aggregation chain; if it fails the whole metrics
// request fails.
type SnapshotSource struct {
	path string
}

// NewSnapshotSource creates a source reading the given JSON artifact
func NewSnapshotSource(path string) *SnapshotSource {
	return &SnapshotSource{path: path}
}

// FetchLatest reads and decodes the static snapshot file
func (s *SnapshotSource) FetchLatest(ctx context.Context) (*models.QualitySnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.NewSourceError(SourceSnapshot, err)
	}

	var snapshot models.QualitySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, errors.NewSourceError(SourceSnapshot,
			fmt.Errorf("decode snapshot file %s: %w", s.path, err))
	}

	return &snapshot, nil
}
