// Package events publishes sync lifecycle events to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/anihistory/internal/reconcile"
)

const (
	SubjectSyncCompleted = "anihistory.sync.completed"
	SubjectSyncFailed    = "anihistory.sync.failed"
	streamName           = "ANIHISTORY"
)

// Publisher emits sync lifecycle events. When no NATS URL is configured it
// degrades to a logging stub, so wiring stays unconditional.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

// New connects to NATS and ensures the ANIHISTORY stream exists.
// If natsURL is empty, returns a no-op publisher (stub).
func New(natsURL string, log *zap.Logger) (*Publisher, error) {
	if natsURL == "" {
		log.Warn("NATS_URL not set, sync events will not be published (stub mode)")
		return &Publisher{log: log}, nil
	}

	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{"anihistory.>"},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		log.Warn("failed to create NATS stream (may already exist)", zap.Error(err))
	}

	log.Info("NATS publisher initialised", zap.String("stream", streamName))
	return &Publisher{js: js, log: log}, nil
}

type SyncCompletedEvent struct {
	UserID     int   `json:"user_id"`
	Upserted   int   `json:"upserted"`
	Deleted    int   `json:"deleted"`
	Failed     int   `json:"failed"`
	DurationMs int64 `json:"duration_ms"`
}

type SyncFailedEvent struct {
	UserID int    `json:"user_id"`
	Error  string `json:"error"`
}

// SyncCompleted implements reconcile.Notifier. Publish failures are
// logged, never propagated; events are strictly best effort.
func (p *Publisher) SyncCompleted(ctx context.Context, userID int, rep reconcile.Report, took time.Duration) {
	p.publish(ctx, SubjectSyncCompleted, SyncCompletedEvent{
		UserID:     userID,
		Upserted:   rep.Upserted,
		Deleted:    rep.Deleted,
		Failed:     len(rep.Failures),
		DurationMs: took.Milliseconds(),
	})
}

func (p *Publisher) SyncFailed(ctx context.Context, userID int, cause error) {
	p.publish(ctx, SubjectSyncFailed, SyncFailedEvent{UserID: userID, Error: cause.Error()})
}

func (p *Publisher) publish(_ context.Context, subject string, payload any) {
	if p.js == nil {
		p.log.Debug("NATS stub: skipping publish", zap.String("subject", subject))
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.log.Error("event marshal failed", zap.String("subject", subject), zap.Error(err))
		return
	}
	ack, err := p.js.Publish(subject, data)
	if err != nil {
		p.log.Error("event publish failed", zap.String("subject", subject), zap.Error(err))
		return
	}
	p.log.Debug("sync event published",
		zap.String("subject", subject),
		zap.Uint64("seq", ack.Sequence),
	)
}
