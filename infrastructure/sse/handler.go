package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/cooper/infrastructure/logger"
)

// Handler streams broker events to the caller. The optional "types" query
// parameter is a comma separated list of event types to receive.
func (b *Broker) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		events, cleanup, err := b.Subscribe(c.Request.Context(), TypeFilter(splitTypes(c.Query("types"))...))
		if err != nil {
			status := http.StatusServiceUnavailable
			if errors.Is(err, ErrClosed) {
				status = http.StatusGone
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		defer cleanup()

		// streams outlive the server write timeout
		_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

		setHeaders(c.Writer)
		c.Status(http.StatusOK)

		connected := Event{
			Type: eventTypeConnected,
			Data: gin.H{"timestamp": time.Now().UTC().Format(time.RFC3339)},
		}
		if err := writeEvent(c.Writer, connected); err != nil {
			b.log.Debug("SSE connect write failed", logger.Error(err))
			return
		}

		ticker := time.NewTicker(b.heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				if err := writeEvent(c.Writer, event); err != nil {
					b.log.Debug("SSE write failed", logger.Error(err))
					return
				}
			case <-ticker.C:
				if _, err := io.WriteString(c.Writer, ": heartbeat\n\n"); err != nil {
					return
				}
				c.Writer.Flush()
			case <-c.Request.Context().Done():
				return
			}
		}
	}
}

func splitTypes(raw string) []string {
	var types []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}

func setHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// WriteEvent writes event in wire format.
func WriteEvent(w io.Writer, event Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	var sb strings.Builder
	if event.Type != "" {
		fmt.Fprintf(&sb, "event: %s\n", event.Type)
	}
	if event.ID != "" {
		fmt.Fprintf(&sb, "id: %s\n", event.ID)
	}
	fmt.Fprintf(&sb, "data: %s\n\n", data)

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

func writeEvent(w gin.ResponseWriter, event Event) error {
	if err := WriteEvent(w, event); err != nil {
		return err
	}
	w.Flush()
	return nil
}
