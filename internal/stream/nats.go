package stream

import (
	"context"
	"fmt"
	"strings"

	"sentiment-producer/internal/config"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
)

// PartitionKeyHeader carries the partition key on every JetStream message.
const PartitionKeyHeader = "Partition-Key"

// headerCarrier adapts nats.Msg headers for the OTel TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// NATS publishes records to JetStream under <subject>.<partition key>.
// The JetStream stream capturing those subjects is provisioned externally.
type NATS struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	subject string
	owned   bool
}

// NewNATS connects to cfg.URL.
func NewNATS(cfg config.NATSConfig) (*NATS, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("sentiment-producer"))
	if err != nil {
		return nil, fmt.Errorf("nats: connect %s: %w", cfg.URL, err)
	}
	n, err := NewNATSWithConn(nc, cfg.Subject)
	if err != nil {
		nc.Close()
		return nil, err
	}
	n.owned = true
	return n, nil
}

// NewNATSWithConn wraps an existing connection; Close leaves it open.
func NewNATSWithConn(nc *nats.Conn, subject string) (*NATS, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("nats: jetstream: %w", err)
	}
	return &NATS{nc: nc, js: js, subject: subject}, nil
}

// Subject returns the subject a record with the given partition key is published to.
func (n *NATS) Subject(partitionKey string) string {
	return n.subject + "." + subjectToken(partitionKey)
}

func (n *NATS) Append(ctx context.Context, rec Record) error {
	msg := &nats.Msg{
		Subject: n.Subject(rec.PartitionKey),
		Data:    rec.Data,
		Header:  nats.Header{},
	}
	msg.Header.Set(PartitionKeyHeader, rec.PartitionKey)
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	if _, err := n.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("nats: publish %s: %w", msg.Subject, err)
	}
	return nil
}

func (n *NATS) Describe(ctx context.Context) (Info, error) {
	name, err := n.js.StreamNameBySubject(ctx, n.subject+".>")
	if err != nil {
		return Info{}, fmt.Errorf("nats: no stream for %s.>: %w", n.subject, err)
	}
	s, err := n.js.Stream(ctx, name)
	if err != nil {
		return Info{}, fmt.Errorf("nats: stream %s: %w", name, err)
	}
	si, err := s.Info(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("nats: stream info %s: %w", name, err)
	}
	return Info{
		Backend: config.BackendNATS,
		Name:    name,
		Status:  "ACTIVE",
		Records: int64(si.State.Msgs),
	}, nil
}

func (n *NATS) Close() error {
	if n.owned {
		return n.nc.Drain()
	}
	return nil
}

// subjectToken turns a partition key into a single subject token.
func subjectToken(key string) string {
	if key == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, key)
}
