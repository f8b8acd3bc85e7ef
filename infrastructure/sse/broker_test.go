package sse_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/cooper/infrastructure/sse"
)

func receive(t *testing.T, events <-chan sse.Event) sse.Event {
	t.Helper()

	select {
	case event, ok := <-events:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return sse.Event{}
	}
}

func TestBroker_PublishSubscribe(t *testing.T) {
	t.Parallel()

	b := sse.NewBroker(nil)
	events, cleanup, err := b.Subscribe(context.Background(), nil)
	require.NoError(t, err)
	defer cleanup()

	b.Publish(sse.Event{Type: "RUN_STARTED", ID: "1", Data: map[string]any{"query": "cooking"}})

	event := receive(t, events)
	assert.Equal(t, "RUN_STARTED", event.Type)
	assert.Equal(t, "1", event.ID)
	assert.Equal(t, 1, b.ClientCount())
}

func TestBroker_TypeFilter(t *testing.T) {
	t.Parallel()

	b := sse.NewBroker(nil)
	events, cleanup, err := b.Subscribe(context.Background(), sse.TypeFilter("RUN_COMPLETED"))
	require.NoError(t, err)
	defer cleanup()

	b.Publish(sse.Event{Type: "RUN_STARTED"})
	b.Publish(sse.Event{Type: "RUN_COMPLETED"})

	assert.Equal(t, "RUN_COMPLETED", receive(t, events).Type)
	assert.Nil(t, sse.TypeFilter())
}

func TestBroker_MaxClients(t *testing.T) {
	t.Parallel()

	b := sse.NewBroker(nil, sse.WithMaxClients(1))
	_, cleanup, err := b.Subscribe(context.Background(), nil)
	require.NoError(t, err)

	_, _, err = b.Subscribe(context.Background(), nil)
	require.ErrorIs(t, err, sse.ErrTooManyClients)

	cleanup()
	assert.Equal(t, 0, b.ClientCount())

	_, cleanup, err = b.Subscribe(context.Background(), nil)
	require.NoError(t, err)
	cleanup()
}

func TestBroker_SlowClientDisconnected(t *testing.T) {
	t.Parallel()

	b := sse.NewBroker(nil, sse.WithClientBufferSize(1))
	events, cleanup, err := b.Subscribe(context.Background(), nil)
	require.NoError(t, err)
	defer cleanup()

	b.Publish(sse.Event{Type: "a"})
	b.Publish(sse.Event{Type: "b"})

	assert.Equal(t, 0, b.ClientCount())
	assert.Equal(t, "a", receive(t, events).Type)
	_, ok := <-events
	assert.False(t, ok)
}

func TestBroker_ContextEndsSubscription(t *testing.T) {
	t.Parallel()

	b := sse.NewBroker(nil)
	ctx, cancel := context.WithCancel(context.Background())
	events, cleanup, err := b.Subscribe(ctx, nil)
	require.NoError(t, err)
	defer cleanup()

	cancel()
	require.Eventually(t, func() bool { return b.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-events
	assert.False(t, ok)
}

func TestBroker_Close(t *testing.T) {
	t.Parallel()

	b := sse.NewBroker(nil)
	events, _, err := b.Subscribe(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, ok := <-events
	assert.False(t, ok)

	_, _, err = b.Subscribe(context.Background(), nil)
	require.ErrorIs(t, err, sse.ErrClosed)

	// dropped, must not panic
	b.Publish(sse.Event{Type: "late"})
}

func TestWriteEvent(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	require.NoError(t, sse.WriteEvent(&sb, sse.Event{Type: "RUN_FAILED", ID: "abc", Data: map[string]int{"n": 1}}))
	assert.Equal(t, "event: RUN_FAILED\nid: abc\ndata: {\"n\":1}\n\n", sb.String())

	sb.Reset()
	require.NoError(t, sse.WriteEvent(&sb, sse.Event{Data: "x"}))
	assert.Equal(t, "data: \"x\"\n\n", sb.String())
}

func TestHandler_Streams(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	b := sse.NewBroker(nil)
	router := gin.New()
	router.GET("/events", b.Handler())
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?types=RUN_COMPLETED", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	b.Publish(sse.Event{Type: "RUN_STARTED"})
	b.Publish(sse.Event{Type: "RUN_COMPLETED", ID: "run-1", Data: "done"})

	var got []string
	for len(got) < 3 {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") || line == "\n" {
			continue
		}
		got = append(got, line)
	}
	assert.Equal(t, []string{"event: RUN_COMPLETED\n", "id: run-1\n", "data: \"done\"\n"}, got)
}

func TestHandler_TooManyClients(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	b := sse.NewBroker(nil, sse.WithMaxClients(1))
	_, cleanup, err := b.Subscribe(context.Background(), nil)
	require.NoError(t, err)
	defer cleanup()

	router := gin.New()
	router.GET("/events", b.Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
