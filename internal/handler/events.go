package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/arturoeanton/go-gitstat/internal/domain"
	"github.com/gofiber/fiber/v3"
)

// RepoEventBus broadcasts materialization status changes to SSE
// subscribers. Publishing never blocks; slow subscribers drop events.
type RepoEventBus struct {
	mu   sync.RWMutex
	subs []chan domain.RepoEvent
}

func NewRepoEventBus() *RepoEventBus {
	return &RepoEventBus{}
}

func (b *RepoEventBus) Publish(evt domain.RepoEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (b *RepoEventBus) Subscribe() chan domain.RepoEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan domain.RepoEvent, 10)
	b.subs = append(b.subs, ch)
	return ch
}

func (b *RepoEventBus) Unsubscribe(ch chan domain.RepoEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
	close(ch)
}

func (b *RepoEventBus) subscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// heartbeatInterval bounds how long a disconnected client can hold a
// subscriber before the dead connection is noticed.
const heartbeatInterval = 30 * time.Second

// StreamEvents streams materialization status changes via SSE.
func (h *RepoHandler) StreamEvents(c fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	ch := h.events.Subscribe()

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer h.events.Unsubscribe(ch)
		streamRepoEvents(w, ch, heartbeatInterval)
	})
}

// streamRepoEvents writes events until the channel closes or the
// client goes away. A failing flush means the connection is gone, so
// the writer must return rather than block on the channel forever;
// heartbeat comments surface dead connections even when no events
// arrive.
func streamRepoEvents(w *bufio.Writer, ch <-chan domain.RepoEvent, heartbeat time.Duration) {
	fmt.Fprintf(w, ": connected\n\n")
	if err := w.Flush(); err != nil {
		return
	}

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, _ := json.Marshal(evt)
			fmt.Fprintf(w, "event: repo_status\ndata: %s\n\n", string(data))
			if err := w.Flush(); err != nil {
				return
			}
		case <-ticker.C:
			fmt.Fprintf(w, ": keep-alive\n\n")
			if err := w.Flush(); err != nil {
				return
			}
		}
	}
}
