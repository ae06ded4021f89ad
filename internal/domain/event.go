package domain

import (
	"context"
	"time"
)

// DatasetNotice announces that a new dataset version was published upstream.
// The payload fields are informational; any notice triggers a reload.
type DatasetNotice struct {
	Version     string    `json:"version,omitempty"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at,omitzero"`

	Topic     string                          `json:"-"`
	Partition int                             `json:"-"`
	Offset    int64                           `json:"-"`
	Commit    func(ctx context.Context) error `json:"-"`
}
