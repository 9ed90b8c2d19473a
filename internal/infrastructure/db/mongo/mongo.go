package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultTimeout = 10 * time.Second
	indexTimeout   = 30 * time.Second
	appName        = "ecg-api"
)

// Config names the cluster and the two databases the API reads from.
// UserDatabase holds users and consult_requests; ECGDatabase holds
// ecg_records. Both may name the same database.
type Config struct {
	URI          string
	UserDatabase string
	ECGDatabase  string
	Timeout      time.Duration
}

// Store owns the client and hands out the configured databases.
type Store struct {
	client *mongo.Client
	Users  *mongo.Database
	ECG    *mongo.Database
}

// Connect dials the cluster and pings the primary before returning. The
// timeout bounds both steps and also becomes the server selection timeout.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.UserDatabase == "" || cfg.ECGDatabase == "" {
		return nil, fmt.Errorf("mongo: user and ecg database names are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Store{
		client: client,
		Users:  client.Database(cfg.UserDatabase),
		ECG:    client.Database(cfg.ECGDatabase),
	}, nil
}

// Ping reports whether the primary is reachable; used by /readyz.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
