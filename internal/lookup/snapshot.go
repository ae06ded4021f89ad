package lookup

import (
	"time"

	"github.com/couchcryptid/treecover-lookup-service/internal/domain"
	"github.com/google/uuid"
)

// Snapshot summarizes one successfully loaded dataset.
type Snapshot struct {
	ID         string            `json:"id"`
	Generation uint64            `json:"generation"`
	Source     string            `json:"source"`
	LoadedAt   time.Time         `json:"loaded_at"`
	Duration   time.Duration     `json:"duration_ns"`
	Stats      domain.BuildStats `json:"stats"`
}

func newSnapshot(generation uint64, source string, started time.Time, stats domain.BuildStats) Snapshot {
	now := clock.Now().UTC()
	return Snapshot{
		ID:         uuid.NewString(),
		Generation: generation,
		Source:     source,
		LoadedAt:   now,
		Duration:   now.Sub(started),
		Stats:      stats,
	}
}
