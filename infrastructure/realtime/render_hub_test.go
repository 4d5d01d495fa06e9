package realtime_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"youtube-card/domain/model"
	"youtube-card/infrastructure/realtime"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2024, 8, 14, 9, 0, 0, 0, time.UTC)

func jobAt(progress float64) *model.RenderJob {
	job := model.NewRenderJob("r-1", "bucket-a", "youtube-video-card", "t", at)
	_ = job.Apply(model.RenderSnapshot{OverallProgress: progress}, at)
	return job
}

func doneJob() *model.RenderJob {
	job := jobAt(0.9)
	_ = job.Apply(model.RenderSnapshot{Done: true, OutputURL: "https://cdn/out.webm", OutputSize: 99}, at)
	return job
}

func TestBroadcastReachesEverySubscriber(t *testing.T) {
	hub := realtime.NewRenderHub()
	key := realtime.RenderKey("bucket-a", "r-1")

	first, releaseFirst := hub.Subscribe(key)
	defer releaseFirst()
	second, releaseSecond := hub.Subscribe(key)
	defer releaseSecond()
	other, releaseOther := hub.Subscribe(realtime.RenderKey("bucket-a", "r-2"))
	defer releaseOther()

	hub.Broadcast(jobAt(0.5))

	for _, ch := range []<-chan realtime.RenderEvent{first, second} {
		evt := <-ch
		assert.Equal(t, "progress", evt.Payload.Type)
		assert.Equal(t, 0.5, evt.Payload.Progress)
		assert.False(t, evt.Terminal)
	}
	assert.Empty(t, other)
}

func TestTerminalEventIsNeverDropped(t *testing.T) {
	hub := realtime.NewRenderHub()
	events, release := hub.Subscribe(realtime.RenderKey("bucket-a", "r-1"))
	defer release()

	// nobody reads: fill the buffer with progress, then finish
	for i := 0; i < 20; i++ {
		hub.Broadcast(jobAt(float64(i) / 100))
	}
	hub.Broadcast(doneJob())

	var last realtime.RenderEvent
	for len(events) > 0 {
		last = <-events
	}
	assert.True(t, last.Terminal)
	assert.Equal(t, "done", last.Payload.Type)
}

func TestTrackRunsOnePerKey(t *testing.T) {
	hub := realtime.NewRenderHub()
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	assert.True(t, hub.Track("k", func(context.Context) { defer wg.Done(); <-release }))
	assert.False(t, hub.Track("k", func(context.Context) { t.Error("second tracker must not run") }))
	close(release)
	wg.Wait()

	require.Eventually(t, func() bool {
		return hub.Track("k", func(context.Context) {})
	}, time.Second, 5*time.Millisecond)
}

func TestServeStreamsUntilTerminal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := realtime.NewRenderHub()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/lambda/stream/bucket-a/r-1", nil)

	hub.Serve(c, realtime.RenderKey("bucket-a", "r-1"), func() {
		go func() {
			hub.Broadcast(jobAt(0.5))
			hub.Broadcast(doneJob())
		}()
	})

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, body, `"progress":0.5`)
	assert.Contains(t, body, `"url":"https://cdn/out.webm"`)
}

func TestBroadcastErrorEndsStream(t *testing.T) {
	hub := realtime.NewRenderHub()
	events, release := hub.Subscribe(realtime.RenderKey("bucket-a", "r-1"))
	defer release()

	hub.BroadcastError("bucket-a", "r-1", "render timed out")

	evt := <-events
	assert.True(t, evt.Terminal)
	assert.Equal(t, "error", evt.Payload.Type)
	assert.Equal(t, "render timed out", evt.Payload.Message)
}

func TestTrackerStopsWhenLastSubscriberLeaves(t *testing.T) {
	hub := realtime.NewRenderHub()
	key := realtime.RenderKey("bucket-a", "r-1")
	_, releaseFirst := hub.Subscribe(key)
	_, releaseSecond := hub.Subscribe(key)

	stopped := make(chan struct{})
	require.True(t, hub.Track(key, func(ctx context.Context) {
		<-ctx.Done()
		close(stopped)
	}))

	releaseFirst()
	select {
	case <-stopped:
		t.Fatal("tracker stopped while a subscriber remained")
	case <-time.After(50 * time.Millisecond):
	}

	releaseSecond()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("tracker still running after the last subscriber left")
	}

	// the key is free for the next listener
	require.Eventually(t, func() bool {
		return hub.Track(key, func(context.Context) {})
	}, time.Second, 5*time.Millisecond)
}

func TestTrackerStopsWithHubContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := realtime.NewRenderHub().WithContext(ctx)
	key := realtime.RenderKey("bucket-a", "r-1")
	_, release := hub.Subscribe(key)
	defer release()

	stopped := make(chan error, 1)
	require.True(t, hub.Track(key, func(ctx context.Context) {
		<-ctx.Done()
		stopped <- ctx.Err()
	}))

	cancel()
	select {
	case err := <-stopped:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("tracker outlived the hub context")
	}
}
