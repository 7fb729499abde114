package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/studyq-platform/studyq/internal/config"
)

// usageRetention bounds how long unconsumed usage records stay on the
// stream. A consumer that is down longer than this loses them.
const usageRetention = 7 * 24 * time.Hour

// Client holds the connection used to ship usage records to the
// STUDYQ_EVENTS stream.
type Client struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// NewClient dials cfg.URL and declares the usage stream before returning.
// The connection keeps retrying in the background after a drop.
func NewClient(ctx context.Context, cfg config.NATSConfig) (*Client, error) {
	nc, err := nats.Connect(cfg.URL, connectOptions()...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("opening JetStream: %w", err)
	}

	c := &Client{conn: nc, js: js}
	if err := c.declareUsageStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}

	slog.Info("usage event stream ready", "url", cfg.URL, "stream", StreamEvents)
	return c, nil
}

func connectOptions() []nats.Option {
	return []nats.Option{
		nats.Name("studyq-api"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("usage stream connection lost", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("usage stream connection restored", "url", nc.ConnectedUrl())
		}),
	}
}

// usageStreamConfig describes STUDYQ_EVENTS. Limits retention keeps records
// around until they age out, so a restarted consumer picks up its backlog.
func usageStreamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:      StreamEvents,
		Subjects:  []string{"studyq.events.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    usageRetention,
	}
}

func (c *Client) declareUsageStream(ctx context.Context) error {
	sc := usageStreamConfig()
	if _, err := c.js.CreateOrUpdateStream(ctx, sc); err != nil {
		return fmt.Errorf("declaring stream %s: %w", sc.Name, err)
	}
	slog.Debug("declared usage stream", "name", sc.Name, "max_age", sc.MaxAge)
	return nil
}

// JetStream is handed to the usage publisher and consumer manager.
func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

// Healthy reports whether the connection is currently up. The readiness
// check on /health uses it.
func (c *Client) Healthy() bool {
	return c.conn.IsConnected()
}

// Close drains pending usage publishes before closing the connection.
func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		slog.Warn("draining usage stream connection", "error", err)
	}
}
