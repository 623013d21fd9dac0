package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"sentiment-producer/internal/config"
	"sentiment-producer/internal/stream"
	"sentiment-producer/internal/twitter"
	"sentiment-producer/worker"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll the search API and publish matches to the stream until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Signal handling for systemd and Ctrl+C
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, GetConfig(), stream.Open)
	},
}

type openStreamFunc func(ctx context.Context, cfg config.StreamConfig) (stream.Appender, error)

// runServe validates cfg before touching the network, then runs the producer
// (and the metrics server, if configured) until ctx is cancelled or a fetch fails.
func runServe(ctx context.Context, cfg config.Config, open openStreamFunc) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	interval, _ := cfg.PollInterval()
	timeout, _ := cfg.RequestTimeout()

	req, err := twitter.NewSearchRequest(cfg.Twitter.Query, cfg.Twitter.TweetFields, cfg.Twitter.BearerToken)
	if err != nil {
		return err
	}

	appender, err := open(ctx, cfg.Stream)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer appender.Close()

	publisher := stream.NewPublisher(appender,
		stream.WithBackendLabel(cfg.Stream.Backend),
		stream.WithFallbackKey(cfg.Stream.FallbackPartitionKey),
		stream.WithRateLimit(cfg.Stream.RecordsPerSecond),
	)
	producer := &worker.SearchProducer{
		Client:    twitter.NewClient(cfg.Twitter.BaseURL, timeout),
		Publisher: publisher,
		Request:   req,
		Interval:  interval,
	}

	slog.Info("starting search producer", "query", cfg.Twitter.Query, "interval", interval)
	slog.Info("publishing to stream", "backend", cfg.Stream.Backend, "stream", cfg.Stream.Name, "region", cfg.Stream.Kinesis.Region)
	slog.Info("press Ctrl+C to stop")

	ws := []worker.Worker{producer}
	if cfg.Metrics.Addr != "" {
		ws = append(ws, worker.NewMetricsServer(cfg.Metrics.Addr))
	}
	if err := worker.NewManager(ws...).Start(ctx); err != nil {
		return err
	}
	slog.Info("search producer stopped")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
