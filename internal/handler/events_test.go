package handler

import (
	"bufio"
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/arturoeanton/go-gitstat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deadConn accepts a fixed number of writes, then behaves like a
// closed connection.
type deadConn struct {
	okWrites int
	writes   int
}

func (c *deadConn) Write(p []byte) (int, error) {
	c.writes++
	if c.writes > c.okWrites {
		return 0, errors.New("connection closed")
	}
	return len(p), nil
}

func waitStream(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream writer did not return")
	}
}

func TestStreamRepoEventsExitsWhenChannelCloses(t *testing.T) {
	var buf bytes.Buffer
	ch := make(chan domain.RepoEvent, 1)
	ch <- domain.RepoEvent{ID: 1, URL: "https://example.com/r.git", Status: domain.StatusReady}
	close(ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		streamRepoEvents(bufio.NewWriter(&buf), ch, time.Minute)
	}()
	waitStream(t, done)

	out := buf.String()
	assert.Contains(t, out, ": connected")
	assert.Contains(t, out, "event: repo_status")
	assert.Contains(t, out, `"status":"ready"`)
}

func TestStreamRepoEventsExitsWhenClientGone(t *testing.T) {
	// First flush (the connected comment) succeeds, the event flush fails.
	conn := &deadConn{okWrites: 1}
	ch := make(chan domain.RepoEvent, 1)
	ch <- domain.RepoEvent{ID: 1, Status: domain.StatusReady}

	done := make(chan struct{})
	go func() {
		defer close(done)
		streamRepoEvents(bufio.NewWriter(conn), ch, time.Minute)
	}()
	waitStream(t, done)
}

func TestStreamRepoEventsHeartbeatDetectsDisconnect(t *testing.T) {
	// No events ever arrive; the keep-alive flush must notice the dead
	// connection instead of blocking on the channel forever.
	conn := &deadConn{okWrites: 1}
	ch := make(chan domain.RepoEvent)

	done := make(chan struct{})
	go func() {
		defer close(done)
		streamRepoEvents(bufio.NewWriter(conn), ch, 10*time.Millisecond)
	}()
	waitStream(t, done)
}

func TestRepoEventBusUnsubscribeRemovesSubscriber(t *testing.T) {
	bus := NewRepoEventBus()

	a := bus.Subscribe()
	b := bus.Subscribe()
	require.Equal(t, 2, bus.subscriberCount())

	bus.Unsubscribe(a)
	assert.Equal(t, 1, bus.subscriberCount())

	// Publishing after an unsubscribe reaches only the live subscriber.
	bus.Publish(domain.RepoEvent{ID: 1, Status: domain.StatusReady})
	select {
	case evt := <-b:
		assert.Equal(t, int64(1), evt.ID)
	default:
		t.Fatal("live subscriber did not receive the event")
	}

	bus.Unsubscribe(b)
	assert.Equal(t, 0, bus.subscriberCount())
}
