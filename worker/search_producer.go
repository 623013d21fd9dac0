package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sentiment-producer/internal/metrics"
	"sentiment-producer/internal/model"
	"sentiment-producer/internal/twitter"

	"github.com/google/uuid"
)

const (
	DefaultPollInterval = 300 * time.Second
	DefaultPreviewLen   = 80
)

// Searcher fetches one page of recent posts.
type Searcher interface {
	SearchRecent(ctx context.Context, req twitter.SearchRequest) (model.SearchResult, error)
}

// Publisher appends a single post to the stream. It reports nothing back.
type Publisher interface {
	Publish(ctx context.Context, post model.Post)
}

// State is the poll loop's position in its cycle.
type State int32

const (
	StateInitializing State = iota
	StateFetching
	StatePublishing
	StateSleeping
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateFetching:
		return "fetching"
	case StatePublishing:
		return "publishing"
	case StateSleeping:
		return "sleeping"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// SearchProducer polls the recent-search endpoint with a fixed request and
// publishes every returned post, one at a time, then waits Interval.
//
// A fetch failure stops the loop and is returned. Publish failures are
// handled by the Publisher and never interrupt a batch.
type SearchProducer struct {
	Client     Searcher
	Publisher  Publisher
	Request    twitter.SearchRequest
	Interval   time.Duration
	PreviewLen int

	// Wait blocks for d or until ctx is done. Defaults to a timer.
	Wait func(ctx context.Context, d time.Duration) error
	// OnState, when set, observes every state transition.
	OnState func(State)
}

// Start runs poll cycles until ctx is cancelled (returns nil) or a fetch fails.
func (w *SearchProducer) Start(ctx context.Context) error {
	w.setState(StateInitializing)
	defer w.setState(StateTerminated)

	if err := w.Request.Validate(); err != nil {
		return err
	}
	if w.Interval <= 0 {
		w.Interval = DefaultPollInterval
	}
	if w.PreviewLen <= 0 {
		w.PreviewLen = DefaultPreviewLen
	}
	wait := w.Wait
	if wait == nil {
		wait = sleepCtx
	}

	for {
		if err := w.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		w.setState(StateSleeping)
		slog.Info("search-producer: waiting for next poll", "interval", w.Interval)
		if err := wait(ctx, w.Interval); err != nil {
			return nil
		}
	}
}

func (w *SearchProducer) runOnce(ctx context.Context) error {
	cycle := uuid.NewString()
	w.setState(StateFetching)
	res, err := w.Client.SearchRecent(ctx, w.Request)
	if err != nil {
		return fmt.Errorf("search recent: %w", err)
	}
	metrics.PostsFetched.Add(float64(len(res.Data)))

	w.setState(StatePublishing)
	if res.Meta.ResultCount == 0 {
		slog.Info("search-producer: no matches", "cycle", cycle)
		metrics.PollCycles.Inc()
		return nil
	}
	slog.Info("search-producer: found posts", "cycle", cycle, "count", len(res.Data))
	for _, post := range res.Data {
		if ctx.Err() != nil {
			slog.Warn("search-producer: batch abandoned", "cycle", cycle, "id", post.ID)
			return nil
		}
		slog.Info("search-producer: processing post", "cycle", cycle, "id", post.ID, "text", post.Preview(w.PreviewLen))
		w.Publisher.Publish(ctx, post)
	}
	metrics.PollCycles.Inc()
	return nil
}

func (w *SearchProducer) setState(s State) {
	metrics.State.Set(float64(s))
	slog.Debug("search-producer: state", "state", s.String())
	if w.OnState != nil {
		w.OnState(s)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
