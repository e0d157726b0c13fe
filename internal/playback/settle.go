package playback

import (
	"context"

	"github.com/vmunix/mediasel/internal/events"
	"github.com/vmunix/mediasel/internal/fetch"
)

// watchSettled publishes ProviderSettled the first time each result of
// session reaches a terminal state. It returns when ctx is done.
func watchSettled(ctx context.Context, session *fetch.Session, bus *events.Bus, runID string) error {
	seen := make(map[string]bool)
	for {
		changed := session.Changed()
		for _, snap := range session.Snapshots() {
			if !snap.State.IsTerminal() || seen[snap.InstanceID] {
				continue
			}
			seen[snap.InstanceID] = true

			e := &events.ProviderSettled{
				BaseEvent:  events.NewBaseEvent(events.EventProviderSettled, events.EntityEpisode, session.Request.EpisodeID, runID),
				InstanceID: snap.InstanceID,
				SourceID:   snap.SourceID,
				State:      string(snap.State),
				Results:    len(snap.Media),
			}
			if snap.Err != nil {
				e.Error = snap.Err.Error()
			}
			if err := bus.Publish(context.WithoutCancel(ctx), e); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-changed:
		}
	}
}
