// Package events implements the events command, which follows the run
// event stream.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/cooper/cmd/common"
	infraevents "github.com/jonesrussell/cooper/infrastructure/events"
	infraredis "github.com/jonesrussell/cooper/infrastructure/redis"
	internalevents "github.com/jonesrussell/cooper/internal/events"
)

// Command returns the events command.
func Command() *cobra.Command {
	var (
		fromStart bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow analysis run events from Redis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := infraredis.NewClient(ctx, deps.Config.Events.Redis)
			if err != nil {
				return fmt.Errorf("connect to redis: %w", err)
			}
			defer func() { _ = client.Close() }()

			start := internalevents.LatestID
			if fromStart {
				start = "0"
			}

			out := cmd.OutOrStdout()
			err = internalevents.Tail(ctx, client, deps.Config.Events.Stream, start, func(id string, event infraevents.RunEvent) error {
				return Print(out, id, event, asJSON)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&fromStart, "from-start", false, "replay the whole stream before following")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON event per line")

	return cmd
}

// Print writes one event as a JSON line or a short text line.
func Print(w io.Writer, id string, event infraevents.RunEvent, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(event)
	}

	var payload infraevents.RunPayload
	if raw, err := json.Marshal(event.Payload); err == nil {
		_ = json.Unmarshal(raw, &payload)
	}

	line := fmt.Sprintf("%s %s %-15s run=%s",
		id,
		event.Timestamp.Format(time.RFC3339),
		event.EventType,
		event.RunID,
	)
	if payload.Stage != "" {
		line += " stage=" + payload.Stage
	}
	if payload.Query != "" {
		line += " query=" + payload.Query
	}
	if payload.Schedule != "" {
		line += " schedule=" + payload.Schedule
	}
	if payload.VideoCount > 0 {
		line += fmt.Sprintf(" videos=%d", payload.VideoCount)
	}
	if payload.DurationMS > 0 {
		line += fmt.Sprintf(" duration=%dms", payload.DurationMS)
	}
	if payload.Error != "" {
		line += fmt.Sprintf(" error=%q", payload.Error)
	}

	_, err := fmt.Fprintln(w, line)
	return err
}
