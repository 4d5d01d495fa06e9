package realtime

import (
	"context"
	"net/http"
	"sync"

	"youtube-card/domain/dto"
	"youtube-card/domain/model"

	"github.com/gin-gonic/gin"
)

// RenderEvent is one SSE payload for a render, keyed by bucket and render id.
type RenderEvent struct {
	Key      string
	Terminal bool
	Payload  dto.RenderProgressResponse
}

// Hub fans render progress out to every SSE subscriber of the same render.
type Hub struct {
	mu       sync.RWMutex
	renders  map[string]map[chan RenderEvent]struct{}
	trackers map[string]*tracker
	ctx      context.Context
}

type tracker struct {
	cancel context.CancelFunc
}

func NewRenderHub() *Hub {
	return &Hub{
		renders:  make(map[string]map[chan RenderEvent]struct{}),
		trackers: make(map[string]*tracker),
		ctx:      context.Background(),
	}
}

// WithContext bounds every tracker to ctx, normally the server lifetime.
func (h *Hub) WithContext(ctx context.Context) *Hub {
	h.ctx = ctx
	return h
}

func RenderKey(bucketName, renderID string) string {
	return bucketName + "/" + renderID
}

// Subscribe returns a buffered event channel and the function that releases it.
func (h *Hub) Subscribe(key string) (<-chan RenderEvent, func()) {
	ch := make(chan RenderEvent, 8)
	h.mu.Lock()
	if h.renders[key] == nil {
		h.renders[key] = make(map[chan RenderEvent]struct{})
	}
	h.renders[key][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() { once.Do(func() { h.removeSubscriber(key, ch) }) }
}

func (h *Hub) removeSubscriber(key string, ch chan RenderEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.renders[key]; subs != nil {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.renders, key)
			// nobody is listening any more
			if t := h.trackers[key]; t != nil {
				t.cancel()
			}
		}
	}
}

// Broadcast sends the job state to its subscribers. Slow subscribers miss intermediate
// progress events but never the terminal one, which replaces whatever is queued.
func (h *Hub) Broadcast(job *model.RenderJob) {
	if job == nil {
		return
	}
	key := RenderKey(job.BucketName, job.ID)
	h.publish(RenderEvent{Key: key, Terminal: job.Status.Terminal(), Payload: dto.NewRenderProgressResponse(job)})
}

// BroadcastError ends the streams for a render that could not be followed to the end.
// The job itself is left as it is.
func (h *Hub) BroadcastError(bucketName, renderID, message string) {
	key := RenderKey(bucketName, renderID)
	h.publish(RenderEvent{Key: key, Terminal: true, Payload: dto.RenderProgressResponse{Type: dto.ProgressTypeError, Message: message}})
}

func (h *Hub) publish(evt RenderEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.renders[evt.Key] {
		select { // non-blocking
		case ch <- evt:
			continue
		default:
		}
		if evt.Terminal {
			// drain one stale progress event to make room
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}
}

// Track runs fn in its own goroutine unless a tracker for key is already running.
// The context given to fn ends with the hub context or when the last subscriber of
// key leaves.
func (h *Hub) Track(key string, fn func(ctx context.Context)) bool {
	h.mu.Lock()
	if _, running := h.trackers[key]; running {
		h.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(h.ctx)
	t := &tracker{cancel: cancel}
	h.trackers[key] = t
	h.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			h.mu.Lock()
			if h.trackers[key] == t {
				delete(h.trackers, key)
			}
			h.mu.Unlock()
		}()
		fn(ctx)
	}()
	return true
}

// Serve streams events for key until the render finishes or the client leaves.
// start is called once the subscription is registered, so no event is missed.
func (h *Hub) Serve(c *gin.Context, key string, start func()) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	events, release := h.Subscribe(key)
	defer release()
	if start != nil {
		start()
	}

	c.Status(http.StatusOK)
	// Initial comment to keep connection open
	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent(evt.Payload.Type, evt.Payload)
			c.Writer.Flush()
			if evt.Terminal {
				return
			}
		}
	}
}
