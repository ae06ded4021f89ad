package pipeline

import (
	"context"
	"log/slog"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/treecover-lookup-service/internal/domain"
)

// NoticeSource yields dataset-published notices.
type NoticeSource interface {
	ReadNotice(ctx context.Context) (domain.DatasetNotice, error)
}

// NoticeWatcher requests a reload for every dataset-published notice.
type NoticeWatcher struct {
	source   NoticeSource
	reloader *Reloader
	logger   *slog.Logger
}

// NewNoticeWatcher creates a watcher feeding reloader.
func NewNoticeWatcher(source NoticeSource, reloader *Reloader, logger *slog.Logger) *NoticeWatcher {
	return &NoticeWatcher{source: source, reloader: reloader, logger: logger}
}

// Run reads notices until the context is cancelled.
func (w *NoticeWatcher) Run(ctx context.Context) error {
	w.logger.Info("notice watcher started")

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		notice, err := w.source.ReadNotice(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("notice watcher stopping", "reason", ctx.Err())
				return nil
			}
			w.logger.Error("read notice failed", "error", err)
			if !sharedretry.SleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = sharedretry.NextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = 200 * time.Millisecond

		w.logger.Info("dataset notice received",
			"version", notice.Version,
			"published_at", notice.PublishedAt,
			"offset", notice.Offset,
		)
		w.reloader.Request(TriggerNotify)
		w.commit(ctx, notice)
	}
}

// commit commits the notice offset if a commit function is available.
func (w *NoticeWatcher) commit(ctx context.Context, notice domain.DatasetNotice) {
	if notice.Commit == nil {
		return
	}
	if err := notice.Commit(ctx); err != nil {
		w.logger.Warn("commit offset failed", "error", err,
			"topic", notice.Topic, "partition", notice.Partition, "offset", notice.Offset)
	}
}
