package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"sentiment-producer/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	appCfg  config.Config
)

// rootCmd is the base command called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "sentiment-producer",
	Short:         "Forward recent-search posts to a partitioned stream",
	Long:          "Polls the recent-search API on a fixed interval and appends every matching post to Kinesis, Redis Streams or NATS JetStream.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		slog.Error("sentiment-producer: fatal", "error", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
}

func initConfig() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	v := viper.GetViper()
	cfg, err := loadConfig(v, cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}
	if used := v.ConfigFileUsed(); used != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", used)
	}

	appCfg = cfg
	slog.SetDefault(newLogger(os.Stdout, appCfg.App))
}

// loadConfig reads the optional config file and PRODUCER_* environment
// overrides into a Config. A missing config file is not an error.
func loadConfig(v *viper.Viper, file string) (config.Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/sentiment-producer")
		v.AddConfigPath("configs")
	}

	// Unmarshal only consults the environment for keys viper already knows,
	// so every key is registered through a default.
	setDefaults(v)
	v.SetEnvPrefix("PRODUCER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("twitter.bearer_token", "PRODUCER_TWITTER_BEARER_TOKEN", "TWITTER_BEARER_TOKEN")

	var cfg config.Config
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.FillDefaults()
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "text")

	v.SetDefault("twitter.base_url", config.DefaultSearchBaseURL)
	v.SetDefault("twitter.query", config.DefaultQuery)
	v.SetDefault("twitter.tweet_fields", []string{"created_at", "public_metrics"})
	v.SetDefault("twitter.poll_interval", config.DefaultPollInterval)
	v.SetDefault("twitter.request_timeout", config.DefaultRequestTimeout)

	v.SetDefault("stream.backend", config.BackendKinesis)
	v.SetDefault("stream.name", config.DefaultStreamName)
	v.SetDefault("stream.fallback_partition_key", config.DefaultFallbackPartitionKey)
	v.SetDefault("stream.records_per_second", 0)
	v.SetDefault("stream.kinesis.region", config.DefaultRegion)
	v.SetDefault("stream.kinesis.endpoint", "")
	v.SetDefault("stream.redis.addr", "127.0.0.1:6379")
	v.SetDefault("stream.redis.username", "")
	v.SetDefault("stream.redis.password", "")
	v.SetDefault("stream.redis.db", 0)
	v.SetDefault("stream.redis.max_len", 0)
	v.SetDefault("stream.nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("stream.nats.subject", config.DefaultNATSSubject)

	v.SetDefault("metrics.addr", "")
}

// GetConfig exposes the loaded configuration to subcommands.
func GetConfig() config.Config {
	return appCfg
}

func newLogger(w io.Writer, cfg config.AppConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
