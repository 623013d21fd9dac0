// Package stream appends posts to a partitioned, append-only stream.
//
// Publisher is the only type the poll loop talks to; the concrete
// backend (Kinesis, Redis Streams or NATS JetStream) sits behind Appender.
package stream

import (
	"context"
	"errors"
	"fmt"

	"sentiment-producer/internal/config"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("stream: unknown backend")

// Record is a single entry appended to the stream.
type Record struct {
	PartitionKey string
	Data         []byte
}

// Info describes the configured stream, as reported by the backend.
type Info struct {
	Backend    string
	Name       string
	Status     string
	Partitions int   // shards for Kinesis; 0 when the backend has no such notion
	Records    int64 // retained entries, when the backend reports it
}

// Appender is one stream backend.
type Appender interface {
	// Append writes exactly one record.
	Append(ctx context.Context, rec Record) error
	// Describe reports the stream's state.
	Describe(ctx context.Context) (Info, error)
	Close() error
}

// Open connects the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StreamConfig) (Appender, error) {
	switch cfg.Backend {
	case config.BackendKinesis:
		k, err := NewKinesis(ctx, cfg.Name, cfg.Kinesis)
		if err != nil {
			return nil, err
		}
		return k, nil
	case config.BackendRedis:
		return NewRedis(cfg.Name, cfg.Redis), nil
	case config.BackendNATS:
		n, err := NewNATS(cfg.NATS)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, cfg.Backend)
	}
}
