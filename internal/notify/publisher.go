// Package notify publishes run-completion events to NATS so external
// systems (CI dashboards, chat hooks) can observe watch-mode verification
// runs without polling the history database.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/structgen/internal/config"
	"git.home.luguber.info/inful/structgen/internal/logfields"
)

// RunEvent is the wire format of one published run.
type RunEvent struct {
	RunID      string    `json:"run_id"`
	Schema     string    `json:"schema"`
	Package    string    `json:"package,omitempty"`
	Outcome    string    `json:"outcome"`
	Workspace  string    `json:"workspace,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher sends run events to a NATS subject. Fire-and-forget: publish
// failures are the caller's to log, never to abort a run over.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to the configured NATS server.
func NewPublisher(cfg *config.NotifyConfig) (*Publisher, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("run event publishing is disabled")
	}

	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("structgen"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("Run event publisher connected", slog.String("url", cfg.NATSURL), logfields.Subject(cfg.Subject))
	return &Publisher{conn: conn, subject: cfg.Subject}, nil
}

// PublishRun publishes one run event.
func (p *Publisher) PublishRun(event RunEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("Published run event",
		logfields.RunID(event.RunID),
		logfields.Schema(event.Schema),
		logfields.Outcome(event.Outcome))
	return nil
}

// Close flushes pending publishes and drops the connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.FlushTimeout(5 * time.Second); err != nil {
		slog.Warn("Flush of pending run events failed", logfields.Error(err))
	}
	p.conn.Close()
}
