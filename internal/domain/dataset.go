package domain

import (
	"context"
	"errors"
)

// ErrDatasetNotFound reports a dataset that does not exist at the source.
// Callers treat it as an empty layer, not as a failure.
var ErrDatasetNotFound = errors.New("dataset not found")

// DatasetFetcher retrieves static dataset files by slash-separated path,
// e.g. "CAN/rivers.geojson" or "locations.json".
type DatasetFetcher interface {
	FetchDataset(ctx context.Context, path string) ([]byte, error)
}
