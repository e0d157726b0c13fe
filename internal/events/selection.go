package events

// Entity types
const (
	EntityEpisode = "episode"
	EntitySubject = "subject"
)

// Event type constants
const (
	EventSelectionBefore  = "selection.before"
	EventSelectionMade    = "selection.made"
	EventPreferenceChange = "preference.changed"
	EventStrategyFinished = "autoselect.strategy.finished"
	EventRunFinished      = "autoselect.run.finished"
	EventProviderSettled  = "provider.settled"
)

// SelectionBefore is emitted immediately before a selection is committed.
// Subscribers can save progress for the previous media.
type SelectionBefore struct {
	BaseEvent
	PreviousMediaID  string `json:"previous_media_id,omitempty"`
	PreviousSourceID string `json:"previous_source_id,omitempty"`
	MediaID          string `json:"media_id"`
	SourceID         string `json:"source_id"`
	Manual           bool   `json:"manual"`
}

// SelectionMade is emitted after a selection is committed.
type SelectionMade struct {
	BaseEvent
	SubjectID         string   `json:"subject_id"`
	MediaID           string   `json:"media_id"`
	SourceID          string   `json:"source_id"`
	Kind              string   `json:"kind"`
	Alliance          string   `json:"alliance,omitempty"`
	Resolution        string   `json:"resolution,omitempty"`
	SubtitleLanguages []string `json:"subtitle_languages,omitempty"`
	PreviousMediaID   string   `json:"previous_media_id,omitempty"`
	Manual            bool     `json:"manual"`
	Strategy          string   `json:"strategy,omitempty"` // Empty for manual selections

	// Preferences are the explicit choices in effect when the selection was
	// committed, most specific attribute first.
	Preferences []PreferenceValue `json:"preferences,omitempty"`
}

// PreferenceValue is one explicit preference choice.
type PreferenceValue struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// PreferenceChanged is emitted when a preference item's explicit choice changes.
type PreferenceChanged struct {
	BaseEvent
	Attribute string `json:"attribute"`
	Value     string `json:"value,omitempty"` // Empty when the preference was removed
	Removed   bool   `json:"removed,omitempty"`
}

// StrategyFinished is emitted when one auto-select strategy returns.
type StrategyFinished struct {
	BaseEvent
	Strategy   string `json:"strategy"`
	MediaID    string `json:"media_id,omitempty"` // Empty when the strategy did not select
	DurationMS int64  `json:"duration_ms"`
	Canceled   bool   `json:"canceled,omitempty"`
}

// RunFinished is emitted when an auto-select run ends.
type RunFinished struct {
	BaseEvent
	MediaID    string `json:"media_id,omitempty"`
	SourceID   string `json:"source_id,omitempty"`
	Manual     bool   `json:"manual"`
	DurationMS int64  `json:"duration_ms"`
}

// ProviderSettled is emitted when a provider query reaches a final state.
type ProviderSettled struct {
	BaseEvent
	InstanceID string `json:"instance_id"`
	SourceID   string `json:"source_id"`
	State      string `json:"state"`
	Results    int    `json:"results"`
	Error      string `json:"error,omitempty"`
}
