package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/treecover-lookup-service/internal/domain"
	"github.com/couchcryptid/treecover-lookup-service/internal/lookup"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMapMessageToNotice(t *testing.T) {
	published := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	msg := kafkago.Message{
		Value:     []byte(`{"version":"2026-05","url":"https://example.org/lookup.json","published_at":"2026-05-04T09:30:00Z"}`),
		Topic:     "treecover-dataset-published",
		Partition: 1,
		Offset:    7,
		Time:      time.Date(2026, 5, 4, 9, 31, 0, 0, time.UTC),
	}

	notice := mapMessageToNotice(msg, discardLogger())

	assert.Equal(t, "2026-05", notice.Version)
	assert.Equal(t, "https://example.org/lookup.json", notice.URL)
	assert.True(t, published.Equal(notice.PublishedAt))
	assert.Equal(t, "treecover-dataset-published", notice.Topic)
	assert.Equal(t, 1, notice.Partition)
	assert.Equal(t, int64(7), notice.Offset)
}

func TestMapMessageToNotice_BareTrigger(t *testing.T) {
	msgTime := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	for _, value := range []string{"", "reload", `[1,2]`} {
		t.Run(value, func(t *testing.T) {
			notice := mapMessageToNotice(kafkago.Message{Value: []byte(value), Time: msgTime, Offset: 3}, discardLogger())

			assert.Empty(t, notice.Version)
			assert.Equal(t, msgTime, notice.PublishedAt)
			assert.Equal(t, int64(3), notice.Offset)
		})
	}
}

func TestSerializeToMessage(t *testing.T) {
	loaded := time.Date(2026, 5, 4, 9, 32, 0, 0, time.UTC)
	snap := lookup.Snapshot{
		ID:         "5f0c6a1e-3f43-4d6b-9a55-5a2b0f1b9c01",
		Generation: 12,
		Source:     "data/districts_trees_needed_lookup.json",
		LoadedAt:   loaded,
		Stats:      domain.BuildStats{Entries: 974, Indexed: 973, Provinces: 81},
	}

	msg, err := serializeToMessage(snap)
	require.NoError(t, err)

	assert.Equal(t, []byte(snap.ID), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "snapshot_id", msg.Headers[0].Key)
	assert.Equal(t, []byte(snap.ID), msg.Headers[0].Value)
	assert.Equal(t, "generation", msg.Headers[1].Key)
	assert.Equal(t, []byte("12"), msg.Headers[1].Value)
	assert.Equal(t, "loaded_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(loaded.Format(time.RFC3339)), msg.Headers[2].Value)

	var decoded lookup.Snapshot
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, 973, decoded.Stats.Indexed)
	assert.Equal(t, uint64(12), decoded.Generation)
}
