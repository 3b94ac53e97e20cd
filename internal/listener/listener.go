// Package listener broadcasts data refreshes over Postgres LISTEN/NOTIFY so
// every API process drops its cached responses when matches or standings
// change, including after a sync run from cmd/ingest. It holds a dedicated
// pgx connection (not from the pool) listening on the `data_refreshed`
// channel.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	channel          = "data_refreshed"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Event is the JSON payload of pg_notify('data_refreshed', ...).
type Event struct {
	Kind      string `json:"kind"`
	Source    string `json:"source"`
	Timestamp int64  `json:"ts"`
}

// ParseEvent decodes a notification payload.
func ParseEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("decode %s payload: %w", channel, err)
	}
	if ev.Kind == "" {
		return Event{}, fmt.Errorf("%s payload has no kind", channel)
	}
	return ev, nil
}

// Publish sends ev to every listener. Delivery happens when the calling
// transaction commits; outside a transaction that is immediate.
func Publish(ctx context.Context, pool *pgxpool.Pool, ev Event) error {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := pool.Exec(ctx, "SELECT pg_notify($1, $2)", channel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", channel, err)
	}
	return nil
}

// Start opens a dedicated connection and listens on the data_refreshed
// channel, calling handle for each event. It reconnects automatically on
// connection loss. Blocks until ctx is cancelled. Intended to be called
// with `go`.
func Start(ctx context.Context, dbURL string, handle func(Event), logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, handle, logger)
		if ctx.Err() != nil {
			logger.Info("Refresh listener stopped (context cancelled)")
			return
		}

		logger.Error("Refresh listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, handle func(Event), logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		return fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	logger.Info("Refresh listener connected", "channel", channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		ev, err := ParseEvent(notification.Payload)
		if err != nil {
			logger.Warn("Ignoring refresh event", "payload", notification.Payload, "error", err)
			continue
		}
		logger.Debug("Refresh event received", "kind", ev.Kind, "source", ev.Source)
		handle(ev)
	}
}
