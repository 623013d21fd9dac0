package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingBearerToken is returned when no search API token was configured.
var ErrMissingBearerToken = errors.New("config: TWITTER_BEARER_TOKEN is not set")

// Defaults taken from the original producer deployment.
const (
	DefaultQuery                = "#tecnologia OR #devops OR #cloud -is:retweet lang:es"
	DefaultSearchBaseURL        = "https://api.twitter.com/2"
	DefaultPollInterval         = "300s"
	DefaultRequestTimeout       = "30s"
	DefaultStreamName           = "twittersentiment-stream"
	DefaultRegion               = "us-east-1"
	DefaultFallbackPartitionKey = "default_partition_key"
	DefaultNATSSubject          = "twittersentiment"
)

// Supported stream backends.
const (
	BackendKinesis = "kinesis"
	BackendRedis   = "redis"
	BackendNATS    = "nats"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"` // text or json
}

// TwitterConfig controls the recent-search data source.
type TwitterConfig struct {
	BearerToken    string   `mapstructure:"bearer_token" yaml:"bearer_token"`
	BaseURL        string   `mapstructure:"base_url" yaml:"base_url"`
	Query          string   `mapstructure:"query" yaml:"query"`
	TweetFields    []string `mapstructure:"tweet_fields" yaml:"tweet_fields"`
	PollInterval   string   `mapstructure:"poll_interval" yaml:"poll_interval"`     // duration string, e.g., "5m"
	RequestTimeout string   `mapstructure:"request_timeout" yaml:"request_timeout"` // "0" disables the client timeout
}

// KinesisConfig holds AWS Kinesis settings.
type KinesisConfig struct {
	Region   string `mapstructure:"region" yaml:"region"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"` // optional, e.g. localstack
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	MaxLen   int64  `mapstructure:"max_len" yaml:"max_len"` // approximate XADD trim, 0 = unbounded
}

// NATSConfig holds NATS JetStream settings.
type NATSConfig struct {
	URL     string `mapstructure:"url" yaml:"url"`
	Subject string `mapstructure:"subject" yaml:"subject"` // records go to <subject>.<partition key>
}

// StreamConfig selects and configures the append-only stream.
type StreamConfig struct {
	Backend              string        `mapstructure:"backend" yaml:"backend"`
	Name                 string        `mapstructure:"name" yaml:"name"`
	FallbackPartitionKey string        `mapstructure:"fallback_partition_key" yaml:"fallback_partition_key"`
	RecordsPerSecond     float64       `mapstructure:"records_per_second" yaml:"records_per_second"` // 0 = unlimited
	Kinesis              KinesisConfig `mapstructure:"kinesis" yaml:"kinesis"`
	Redis                RedisConfig   `mapstructure:"redis" yaml:"redis"`
	NATS                 NATSConfig    `mapstructure:"nats" yaml:"nats"`
}

// MetricsConfig controls the metrics/health HTTP listener.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"` // empty disables the listener
}

// Config is the top-level configuration structure.
type Config struct {
	App     AppConfig     `mapstructure:"app" yaml:"app"`
	Twitter TwitterConfig `mapstructure:"twitter" yaml:"twitter"`
	Stream  StreamConfig  `mapstructure:"stream" yaml:"stream"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.LogFormat == "" {
		c.App.LogFormat = "text"
	}
	if c.Twitter.BaseURL == "" {
		c.Twitter.BaseURL = DefaultSearchBaseURL
	}
	if strings.TrimSpace(c.Twitter.Query) == "" {
		c.Twitter.Query = DefaultQuery
	}
	if len(c.Twitter.TweetFields) == 0 {
		c.Twitter.TweetFields = []string{"created_at", "public_metrics"}
	}
	if c.Twitter.PollInterval == "" {
		c.Twitter.PollInterval = DefaultPollInterval
	}
	if c.Twitter.RequestTimeout == "" {
		c.Twitter.RequestTimeout = DefaultRequestTimeout
	}
	if c.Stream.Backend == "" {
		c.Stream.Backend = BackendKinesis
	}
	c.Stream.Backend = strings.ToLower(strings.TrimSpace(c.Stream.Backend))
	if c.Stream.Name == "" {
		c.Stream.Name = DefaultStreamName
	}
	if c.Stream.FallbackPartitionKey == "" {
		c.Stream.FallbackPartitionKey = DefaultFallbackPartitionKey
	}
	if c.Stream.Kinesis.Region == "" {
		c.Stream.Kinesis.Region = DefaultRegion
	}
	if c.Stream.Redis.Addr == "" {
		c.Stream.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Stream.NATS.URL == "" {
		c.Stream.NATS.URL = "nats://127.0.0.1:4222"
	}
	if c.Stream.NATS.Subject == "" {
		c.Stream.NATS.Subject = DefaultNATSSubject
	}
}

// Validate reports configuration that would prevent the producer from starting.
// A missing bearer token is reported as ErrMissingBearerToken.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Twitter.BearerToken) == "" {
		return ErrMissingBearerToken
	}
	if _, err := c.PollInterval(); err != nil {
		return err
	}
	if _, err := c.RequestTimeout(); err != nil {
		return err
	}
	switch c.Stream.Backend {
	case BackendKinesis, BackendRedis, BackendNATS:
	default:
		return fmt.Errorf("config: unknown stream backend %q", c.Stream.Backend)
	}
	if c.Stream.RecordsPerSecond < 0 {
		return fmt.Errorf("config: records_per_second must not be negative")
	}
	return nil
}

// PollInterval parses the configured wait between poll cycles.
func (c Config) PollInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Twitter.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("config: invalid poll_interval %q: %w", c.Twitter.PollInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: poll_interval must be positive, got %s", d)
	}
	return d, nil
}

// RequestTimeout parses the search request timeout. Zero means no client timeout.
func (c Config) RequestTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Twitter.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("config: invalid request_timeout %q: %w", c.Twitter.RequestTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: request_timeout must not be negative, got %s", d)
	}
	return d, nil
}

// Redacted returns a copy with secrets masked, suitable for printing.
func (c Config) Redacted() Config {
	out := c
	out.Twitter.TweetFields = append([]string(nil), c.Twitter.TweetFields...)
	if out.Twitter.BearerToken != "" {
		out.Twitter.BearerToken = "******"
	}
	if out.Stream.Redis.Password != "" {
		out.Stream.Redis.Password = "******"
	}
	return out
}
