package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBaseEvent_ImplementsEvent(t *testing.T) {
	now := time.Now()
	e := BaseEvent{
		Type:      "test.event",
		Entity:    EntityEpisode,
		ID:        "ep-42",
		Run:       "run-1",
		Timestamp: now,
	}

	assert.Equal(t, "test.event", e.EventType())
	assert.Equal(t, EntityEpisode, e.EntityType())
	assert.Equal(t, "ep-42", e.EntityID())
	assert.Equal(t, "run-1", e.RunID())
	assert.Equal(t, now, e.OccurredAt())
}

func TestNewBaseEvent(t *testing.T) {
	e := NewBaseEvent(EventSelectionMade, EntityEpisode, "ep-1", "run-1")

	assert.Equal(t, EventSelectionMade, e.EventType())
	assert.Equal(t, EntityEpisode, e.EntityType())
	assert.Equal(t, "ep-1", e.EntityID())
	assert.False(t, e.OccurredAt().IsZero())
}
