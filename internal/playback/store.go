// Package playback drives auto-selection for one episode at a time and
// learns preferences from what gets selected.
package playback

import "context"

//go:generate mockgen -destination=mocks/store.go -package=mocks . Store

// Store persists learned preferences. *store.Store implements it.
type Store interface {
	SavedDefaults(ctx context.Context) (map[string]string, error)
	SetSavedDefault(ctx context.Context, attribute, value string) error
	PreferredWebSource(ctx context.Context, subjectID string) (string, error)
	SetPreferredWebSource(ctx context.Context, subjectID, sourceID string) error
	ClearPreferredWebSource(ctx context.Context, subjectID string) error
	LastSelectedSource(ctx context.Context) (string, error)
	SetLastSelectedSource(ctx context.Context, sourceID string) error
}
