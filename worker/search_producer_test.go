package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"sentiment-producer/internal/config"
	"sentiment-producer/internal/model"
	"sentiment-producer/internal/stream"
	"sentiment-producer/internal/twitter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchReply struct {
	res model.SearchResult
	err error
}

// fakeSearcher returns replies in order; the last one repeats.
type fakeSearcher struct {
	mu      sync.Mutex
	replies []searchReply
	calls   int
}

func (f *fakeSearcher) SearchRecent(context.Context, twitter.SearchRequest) (model.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	f.calls++
	return f.replies[i].res, f.replies[i].err
}

type recordingPublisher struct {
	ids    []string
	onPost func()
}

func (p *recordingPublisher) Publish(_ context.Context, post model.Post) {
	p.ids = append(p.ids, post.ID)
	if p.onPost != nil {
		p.onPost()
	}
}

// stopAfter returns a Wait func that records durations and cancels after n waits.
func stopAfter(n int, cancel context.CancelFunc, waits *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		if len(*waits) >= n {
			cancel()
			return ctx.Err()
		}
		return nil
	}
}

func mustResult(t *testing.T, body string) model.SearchResult {
	t.Helper()
	var res model.SearchResult
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	return res
}

func mustRequest(t *testing.T) twitter.SearchRequest {
	t.Helper()
	req, err := twitter.NewSearchRequest(config.DefaultQuery, []string{"created_at", "public_metrics"}, "token")
	require.NoError(t, err)
	return req
}

func TestSearchProducerPublishesInOrderThenWaits(t *testing.T) {
	res := mustResult(t, `{"meta":{"result_count":2},"data":[{"id":"111","text":"hola"},{"id":"222","text":"mundo"}]}`)
	fs := &fakeSearcher{replies: []searchReply{{res: res}}}
	pub := &recordingPublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var waits []time.Duration

	w := &SearchProducer{
		Client:    fs,
		Publisher: pub,
		Request:   mustRequest(t),
		Wait:      stopAfter(1, cancel, &waits),
	}
	require.NoError(t, w.Start(ctx))

	assert.Equal(t, []string{"111", "222"}, pub.ids)
	assert.Equal(t, []time.Duration{300 * time.Second}, waits)
	assert.Equal(t, 1, fs.calls)
}

func TestSearchProducerNoMatchesSkipsPublish(t *testing.T) {
	fs := &fakeSearcher{replies: []searchReply{{res: mustResult(t, `{"meta":{"result_count":0}}`)}}}
	pub := &recordingPublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var waits []time.Duration

	w := &SearchProducer{Client: fs, Publisher: pub, Request: mustRequest(t), Interval: time.Minute, Wait: stopAfter(2, cancel, &waits)}
	require.NoError(t, w.Start(ctx))

	assert.Empty(t, pub.ids)
	assert.Equal(t, []time.Duration{time.Minute, time.Minute}, waits)
	assert.Equal(t, 2, fs.calls)
}

func TestSearchProducerFetchFailureIsFatal(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusInternalServerError} {
		fs := &fakeSearcher{replies: []searchReply{{err: &twitter.StatusError{StatusCode: code, Body: "boom"}}}}
		pub := &recordingPublisher{}
		var waits []time.Duration
		var states []State

		w := &SearchProducer{
			Client:    fs,
			Publisher: pub,
			Request:   mustRequest(t),
			Wait:      stopAfter(100, func() {}, &waits),
			OnState:   func(s State) { states = append(states, s) },
		}
		err := w.Start(context.Background())

		var se *twitter.StatusError
		require.True(t, errors.As(err, &se), "status %d", code)
		assert.Equal(t, code, se.StatusCode)
		assert.Empty(t, pub.ids)
		assert.Empty(t, waits)
		assert.Equal(t, 1, fs.calls)
		assert.Equal(t, []State{StateInitializing, StateFetching, StateTerminated}, states)
	}
}

func TestSearchProducerFailureAfterSuccessfulCycle(t *testing.T) {
	fs := &fakeSearcher{replies: []searchReply{
		{res: mustResult(t, `{"meta":{"result_count":1},"data":[{"id":"1","text":"a"}]}`)},
		{err: errors.New("connection reset")},
	}}
	pub := &recordingPublisher{}
	var waits []time.Duration

	w := &SearchProducer{Client: fs, Publisher: pub, Request: mustRequest(t), Wait: stopAfter(100, func() {}, &waits)}
	err := w.Start(context.Background())

	assert.ErrorContains(t, err, "connection reset")
	assert.Equal(t, []string{"1"}, pub.ids)
	assert.Len(t, waits, 1)
	assert.Equal(t, 2, fs.calls)
}

func TestSearchProducerPublishFailureDoesNotStopBatch(t *testing.T) {
	res := mustResult(t, `{"meta":{"result_count":3},"data":[{"id":"1","text":"a"},{"id":"2","text":"b"},{"id":"3","text":"c"}]}`)
	fs := &fakeSearcher{replies: []searchReply{{res: res}}}
	app := &failingAppender{failKey: "2"}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var waits []time.Duration

	w := &SearchProducer{
		Client:    fs,
		Publisher: stream.NewPublisher(app),
		Request:   mustRequest(t),
		Wait:      stopAfter(1, cancel, &waits),
	}
	require.NoError(t, w.Start(ctx))

	assert.Equal(t, []string{"1", "2", "3"}, app.attempted)
	assert.Len(t, waits, 1, "cycle must still reach the wait")
}

func TestSearchProducerInterruptDuringBatch(t *testing.T) {
	res := mustResult(t, `{"meta":{"result_count":3},"data":[{"id":"1","text":"a"},{"id":"2","text":"b"},{"id":"3","text":"c"}]}`)
	fs := &fakeSearcher{replies: []searchReply{{res: res}}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pub := &recordingPublisher{onPost: cancel}
	var waits []time.Duration

	w := &SearchProducer{Client: fs, Publisher: pub, Request: mustRequest(t), Wait: stopAfter(100, cancel, &waits)}
	require.NoError(t, w.Start(ctx))

	assert.Equal(t, []string{"1"}, pub.ids)
	assert.Empty(t, waits)
}

func TestSearchProducerInterruptDuringFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fs := &fakeSearcher{replies: []searchReply{{err: context.Canceled}}}

	w := &SearchProducer{Client: fs, Publisher: &recordingPublisher{}, Request: mustRequest(t)}
	assert.NoError(t, w.Start(ctx))
}

func TestSearchProducerMissingTokenNeverFetches(t *testing.T) {
	fs := &fakeSearcher{replies: []searchReply{{res: mustResult(t, `{"meta":{"result_count":0}}`)}}}
	pub := &recordingPublisher{}

	w := &SearchProducer{Client: fs, Publisher: pub}
	err := w.Start(context.Background())

	assert.ErrorIs(t, err, config.ErrMissingBearerToken)
	assert.Zero(t, fs.calls)
	assert.Empty(t, pub.ids)
}

func TestSearchProducerStateTransitions(t *testing.T) {
	fs := &fakeSearcher{replies: []searchReply{{res: mustResult(t, `{"meta":{"result_count":1},"data":[{"id":"1","text":"a"}]}`)}}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var waits []time.Duration
	var states []State

	w := &SearchProducer{
		Client:    fs,
		Publisher: &recordingPublisher{},
		Request:   mustRequest(t),
		Wait:      stopAfter(2, cancel, &waits),
		OnState:   func(s State) { states = append(states, s) },
	}
	require.NoError(t, w.Start(ctx))

	assert.Equal(t, []State{
		StateInitializing,
		StateFetching, StatePublishing, StateSleeping,
		StateFetching, StatePublishing, StateSleeping,
		StateTerminated,
	}, states)
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "sleeping", StateSleeping.String())
	assert.Equal(t, "state(9)", State(9).String())
}

// failingAppender records every attempted key and fails for failKey.
type failingAppender struct {
	failKey   string
	attempted []string
}

func (a *failingAppender) Append(_ context.Context, rec stream.Record) error {
	a.attempted = append(a.attempted, rec.PartitionKey)
	if rec.PartitionKey == a.failKey {
		return errors.New("service unavailable")
	}
	return nil
}

func (a *failingAppender) Describe(context.Context) (stream.Info, error) { return stream.Info{}, nil }
func (a *failingAppender) Close() error                                  { return nil }
