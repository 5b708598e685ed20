package library

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"guidewell/internal/domain/models"
)

// SubjectStatusChanged is the NATS subject for content moderation
// status transitions.
const SubjectStatusChanged = "library.content.status.changed"

// StatusChangedEvent is emitted when a content item moves between
// moderation states, so curation dashboards and notification workers can
// react without polling.
type StatusChangedEvent struct {
	ContentID  string `json:"content_id"`
	FolderID   string `json:"folder_id"`
	Title      string `json:"title"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ChangedAt  string `json:"changed_at"`
}

// StatusPublisher publishes content status transitions to NATS.
// A nil-connection publisher is valid and drops events, so the library
// works without a broker in development.
type StatusPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewStatusPublisher connects to NATS and returns a publisher.
func NewStatusPublisher(url, token string, logger *slog.Logger) (*StatusPublisher, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &StatusPublisher{conn: nc, logger: logger}, nil
}

// NewDisabledPublisher returns a publisher that drops all events.
func NewDisabledPublisher(logger *slog.Logger) *StatusPublisher {
	return &StatusPublisher{logger: logger}
}

// PublishStatusChange emits a StatusChangedEvent. Publish failures are
// logged, not returned: the status update already committed.
func (p *StatusPublisher) PublishStatusChange(ctx context.Context, content *models.Content, fromStatus string) {
	if p == nil || p.conn == nil {
		return
	}

	event := StatusChangedEvent{
		ContentID:  content.ID,
		FolderID:   content.FolderID,
		Title:      content.Title,
		FromStatus: fromStatus,
		ToStatus:   content.Status,
		ChangedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal status event", "content_id", content.ID, "error", err)
		return
	}

	if err := p.conn.Publish(SubjectStatusChanged, payload); err != nil {
		p.logger.Error("failed to publish status event", "content_id", content.ID, "error", err)
	}
}

// Close drains the connection.
func (p *StatusPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
