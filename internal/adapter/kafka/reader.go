package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/treecover-lookup-service/internal/config"
	"github.com/couchcryptid/treecover-lookup-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Reader consumes dataset-published notices from Kafka.
// It implements pipeline.NoticeSource.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a consumer-group reader for the configured notify topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaNotifyTopic,
		GroupID:     cfg.KafkaGroupID,
		StartOffset: kafkago.LastOffset,
		MinBytes:    1,
		MaxBytes:    1 << 20,
	})
	return &Reader{reader: r, logger: logger}
}

// ReadNotice blocks until the next notice arrives. The offset is committed
// through the notice's Commit callback once the reload has been requested.
func (r *Reader) ReadNotice(ctx context.Context) (domain.DatasetNotice, error) {
	msg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return domain.DatasetNotice{}, fmt.Errorf("fetch notice: %w", err)
	}
	notice := mapMessageToNotice(msg, r.logger)
	notice.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return notice, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToNotice decodes the optional JSON body of a notice. Bodies that
// do not decode still count as a notice.
func mapMessageToNotice(msg kafkago.Message, logger *slog.Logger) domain.DatasetNotice {
	var notice domain.DatasetNotice
	if len(msg.Value) > 0 {
		if err := json.Unmarshal(msg.Value, &notice); err != nil {
			logger.Debug("notice body is not JSON, treating as bare trigger",
				"topic", msg.Topic,
				"offset", msg.Offset,
				"error", err,
			)
			notice = domain.DatasetNotice{}
		}
	}
	if notice.PublishedAt.IsZero() {
		notice.PublishedAt = msg.Time
	}
	notice.Topic = msg.Topic
	notice.Partition = msg.Partition
	notice.Offset = msg.Offset
	return notice
}
