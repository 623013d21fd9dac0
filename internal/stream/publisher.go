package stream

import (
	"context"
	"encoding/json"
	"log/slog"

	"sentiment-producer/internal/config"
	"sentiment-producer/internal/metrics"
	"sentiment-producer/internal/model"

	"golang.org/x/time/rate"
)

// Publisher appends one post per call. Failures are logged and dropped; they
// never reach the caller.
type Publisher struct {
	appender    Appender
	backend     string
	fallbackKey string
	limiter     *rate.Limiter
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithFallbackKey sets the partition key used for posts without an id.
func WithFallbackKey(key string) Option {
	return func(p *Publisher) {
		if key != "" {
			p.fallbackKey = key
		}
	}
}

// WithRateLimit caps appends per second. perSecond <= 0 leaves publishing unthrottled.
func WithRateLimit(perSecond float64) Option {
	return func(p *Publisher) {
		if perSecond > 0 {
			burst := int(perSecond)
			if burst < 1 {
				burst = 1
			}
			p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithBackendLabel sets the backend label used in metrics and logs.
func WithBackendLabel(name string) Option {
	return func(p *Publisher) { p.backend = name }
}

// NewPublisher wraps an Appender.
func NewPublisher(a Appender, opts ...Option) *Publisher {
	p := &Publisher{
		appender:    a,
		backend:     "unknown",
		fallbackKey: config.DefaultFallbackPartitionKey,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// PartitionKey returns the post id, or fallback when the post has none.
func PartitionKey(post model.Post, fallback string) string {
	if post.ID != "" {
		return post.ID
	}
	return fallback
}

// Publish serializes post and appends it as one record.
func (p *Publisher) Publish(ctx context.Context, post model.Post) {
	key := PartitionKey(post, p.fallbackKey)
	data, err := json.Marshal(post)
	if err != nil {
		p.fail(key, err)
		return
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			p.fail(key, err)
			return
		}
	}
	if err := p.appender.Append(ctx, Record{PartitionKey: key, Data: data}); err != nil {
		p.fail(key, err)
		return
	}
	metrics.RecordsPublished.WithLabelValues(p.backend).Inc()
	slog.Debug("stream: record appended", "backend", p.backend, "partition_key", key, "bytes", len(data))
}

func (p *Publisher) fail(key string, err error) {
	metrics.RecordsFailed.WithLabelValues(p.backend).Inc()
	slog.Error("stream: publish failed", "backend", p.backend, "partition_key", key, "error", err)
}
