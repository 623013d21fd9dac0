package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"sentiment-producer/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateConfigLookup(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func TestLoadConfigEnvOverridesWithoutFile(t *testing.T) {
	isolateConfigLookup(t)
	t.Setenv("TWITTER_BEARER_TOKEN", "tok")
	t.Setenv("PRODUCER_TWITTER_BEARER_TOKEN", "")
	t.Setenv("PRODUCER_STREAM_BACKEND", "redis")
	t.Setenv("PRODUCER_TWITTER_POLL_INTERVAL", "10s")
	t.Setenv("PRODUCER_STREAM_REDIS_MAX_LEN", "5000")
	t.Setenv("PRODUCER_TWITTER_TWEET_FIELDS", "created_at,lang")
	t.Setenv("PRODUCER_METRICS_ADDR", ":9102")

	v := viper.New()
	cfg, err := loadConfig(v, "")
	require.NoError(t, err)

	assert.Empty(t, v.ConfigFileUsed())
	assert.Equal(t, "tok", cfg.Twitter.BearerToken)
	assert.Equal(t, config.BackendRedis, cfg.Stream.Backend)
	assert.Equal(t, "10s", cfg.Twitter.PollInterval)
	assert.Equal(t, int64(5000), cfg.Stream.Redis.MaxLen)
	assert.Equal(t, []string{"created_at", "lang"}, cfg.Twitter.TweetFields)
	assert.Equal(t, ":9102", cfg.Metrics.Addr)
	assert.Equal(t, config.DefaultStreamName, cfg.Stream.Name)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	isolateConfigLookup(t)
	t.Setenv("TWITTER_BEARER_TOKEN", "")
	t.Setenv("PRODUCER_TWITTER_BEARER_TOKEN", "")
	t.Setenv("PRODUCER_STREAM_BACKEND", "")
	t.Setenv("PRODUCER_TWITTER_POLL_INTERVAL", "")

	cfg, err := loadConfig(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, config.BackendKinesis, cfg.Stream.Backend)
	assert.Equal(t, config.DefaultPollInterval, cfg.Twitter.PollInterval)
	assert.Equal(t, config.DefaultQuery, cfg.Twitter.Query)
	assert.Equal(t, config.DefaultFallbackPartitionKey, cfg.Stream.FallbackPartitionKey)
	assert.ErrorIs(t, cfg.Validate(), config.ErrMissingBearerToken)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	isolateConfigLookup(t)
	path := filepath.Join(t.TempDir(), "producer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
twitter:
  poll_interval: 60s
stream:
  backend: redis
  name: from-file
`), 0o600))
	t.Setenv("PRODUCER_STREAM_BACKEND", "nats")
	t.Setenv("PRODUCER_TWITTER_BEARER_TOKEN", "prefixed")

	v := viper.New()
	cfg, err := loadConfig(v, path)
	require.NoError(t, err)

	assert.Equal(t, path, v.ConfigFileUsed())
	assert.Equal(t, config.BackendNATS, cfg.Stream.Backend)
	assert.Equal(t, "from-file", cfg.Stream.Name)
	assert.Equal(t, "60s", cfg.Twitter.PollInterval)
	assert.Equal(t, "prefixed", cfg.Twitter.BearerToken)
}

func TestLoadConfigBadFile(t *testing.T) {
	isolateConfigLookup(t)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stream: [unclosed"), 0o600))

	_, err := loadConfig(viper.New(), path)
	assert.ErrorContains(t, err, "read config")
}
