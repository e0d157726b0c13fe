package selector

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Attribute names one preference dimension.
type Attribute string

const (
	AttrSubtitleLanguage Attribute = "subtitle_language"
	AttrAlliance         Attribute = "alliance"
	AttrResolution       Attribute = "resolution"
	AttrMediaSource      Attribute = "media_source"
)

// Attributes lists every attribute, most specific to the user first.
var Attributes = []Attribute{AttrSubtitleLanguage, AttrResolution, AttrAlliance, AttrMediaSource}

// removalOrder is the order dead-end recovery clears items in, least specific first.
var removalOrder = []Attribute{AttrMediaSource, AttrAlliance, AttrResolution, AttrSubtitleLanguage}

// ParseAttribute parses an attribute name.
func ParseAttribute(s string) (Attribute, error) {
	a := Attribute(s)
	if !slices.Contains(Attributes, a) {
		return "", fmt.Errorf("unknown preference attribute %q", s)
	}
	return a, nil
}

// PreferenceChange describes an update to an item's explicit choice or saved default.
type PreferenceChange struct {
	Attribute Attribute
	Value     string // Empty when removed
	Removed   bool
}

// PreferenceItem resolves one attribute. The final value is the explicit
// choice if set, else the saved default if it is currently available, else
// nothing. An explicit choice is kept even while no candidate offers it.
type PreferenceItem[T comparable] struct {
	attr Attribute

	mu        sync.RWMutex
	available []T
	explicit  *T
	saved     *T
	working   bool
	onChange  func(PreferenceChange)
}

// NewPreferenceItem creates an item with no values.
func NewPreferenceItem[T comparable](attr Attribute) *PreferenceItem[T] {
	return &PreferenceItem[T]{attr: attr}
}

// Attribute returns the attribute this item resolves.
func (p *PreferenceItem[T]) Attribute() Attribute { return p.attr }

// Prefer sets the explicit choice. Repeating the current choice is a no-op.
func (p *PreferenceItem[T]) Prefer(v T) {
	p.mu.Lock()
	if p.explicit != nil && *p.explicit == v {
		p.mu.Unlock()
		return
	}
	p.explicit = &v
	fn := p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn(PreferenceChange{Attribute: p.attr, Value: fmt.Sprint(v)})
	}
}

// RemovePreference clears the explicit choice, reverting to the saved default.
func (p *PreferenceItem[T]) RemovePreference() {
	p.mu.Lock()
	if p.explicit == nil {
		p.mu.Unlock()
		return
	}
	p.explicit = nil
	fn := p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn(PreferenceChange{Attribute: p.attr, Removed: true})
	}
}

// SetSavedDefault sets the externally persisted default.
func (p *PreferenceItem[T]) SetSavedDefault(v T) {
	p.mu.Lock()
	p.saved = &v
	fn := p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn(PreferenceChange{Attribute: p.attr, Value: fmt.Sprint(v)})
	}
}

// ClearSavedDefault removes the saved default.
func (p *PreferenceItem[T]) ClearSavedDefault() {
	p.mu.Lock()
	had := p.saved != nil
	p.saved = nil
	fn := p.onChange
	p.mu.Unlock()

	if had && fn != nil {
		fn(PreferenceChange{Attribute: p.attr, Removed: true})
	}
}

// Reset drops both the explicit choice and the saved default. It reports
// whether the item had a final value before.
func (p *PreferenceItem[T]) Reset() bool {
	p.mu.Lock()
	_, had := p.finalLocked()
	changed := p.explicit != nil || p.saved != nil
	p.explicit = nil
	p.saved = nil
	fn := p.onChange
	p.mu.Unlock()

	if changed && fn != nil {
		fn(PreferenceChange{Attribute: p.attr, Removed: true})
	}
	return had
}

// SetAvailable replaces the values candidates currently offer.
// Duplicates are dropped; first-seen order is kept.
func (p *PreferenceItem[T]) SetAvailable(vs []T) {
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	p.mu.Lock()
	p.available = out
	p.mu.Unlock()
}

// Available returns the values candidates currently offer.
func (p *PreferenceItem[T]) Available() []T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.available)
}

// FinalSelected returns the value the filter applies.
func (p *PreferenceItem[T]) FinalSelected() (T, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.finalLocked()
}

func (p *PreferenceItem[T]) finalLocked() (T, bool) {
	if p.explicit != nil {
		return *p.explicit, true
	}
	if p.saved != nil && slices.Contains(p.available, *p.saved) {
		return *p.saved, true
	}
	var zero T
	return zero, false
}

// Explicit returns the user's explicit choice.
func (p *PreferenceItem[T]) Explicit() (T, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.explicit == nil {
		var zero T
		return zero, false
	}
	return *p.explicit, true
}

// SavedDefault returns the saved default, available or not.
func (p *PreferenceItem[T]) SavedDefault() (T, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.saved == nil {
		var zero T
		return zero, false
	}
	return *p.saved, true
}

// Preferred returns the explicit choice or the saved default, ignoring
// availability. Used to act on a preference before its candidates exist.
func (p *PreferenceItem[T]) Preferred() (T, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch {
	case p.explicit != nil:
		return *p.explicit, true
	case p.saved != nil:
		return *p.saved, true
	}
	var zero T
	return zero, false
}

// SetWorking marks whether available values may still grow.
func (p *PreferenceItem[T]) SetWorking(working bool) {
	p.mu.Lock()
	p.working = working
	p.mu.Unlock()
}

// ItemPresentation is a display snapshot of one item.
type ItemPresentation[T comparable] struct {
	Attribute Attribute
	Available []T
	Final     T
	HasFinal  bool
	Working   bool
}

// Presentation returns a display snapshot.
func (p *PreferenceItem[T]) Presentation() ItemPresentation[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	final, ok := p.finalLocked()
	return ItemPresentation[T]{
		Attribute: p.attr,
		Available: slices.Clone(p.available),
		Final:     final,
		HasFinal:  ok,
		Working:   p.working,
	}
}

func (p *PreferenceItem[T]) setOnChange(fn func(PreferenceChange)) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

// Preferences holds the item of every attribute.
type Preferences struct {
	SubtitleLanguage *PreferenceItem[string]
	Alliance         *PreferenceItem[string]
	Resolution       *PreferenceItem[string]
	MediaSource      *PreferenceItem[string]
}

// NewPreferences creates empty items for every attribute.
func NewPreferences() *Preferences {
	return &Preferences{
		SubtitleLanguage: NewPreferenceItem[string](AttrSubtitleLanguage),
		Alliance:         NewPreferenceItem[string](AttrAlliance),
		Resolution:       NewPreferenceItem[string](AttrResolution),
		MediaSource:      NewPreferenceItem[string](AttrMediaSource),
	}
}

// Item returns the item for attr, or nil for an unknown attribute.
func (p *Preferences) Item(attr Attribute) *PreferenceItem[string] {
	switch attr {
	case AttrSubtitleLanguage:
		return p.SubtitleLanguage
	case AttrAlliance:
		return p.Alliance
	case AttrResolution:
		return p.Resolution
	case AttrMediaSource:
		return p.MediaSource
	default:
		return nil
	}
}

// Criteria returns the final value of every item. An item with a final
// value constrains the filter even when that value is empty.
func (p *Preferences) Criteria() Criteria {
	final := func(item *PreferenceItem[string]) Constraint {
		v, ok := item.FinalSelected()
		return Constraint{Value: v, Set: ok}
	}
	return Criteria{
		SubtitleLanguage: final(p.SubtitleLanguage),
		Alliance:         final(p.Alliance),
		Resolution:       final(p.Resolution),
		MediaSource:      final(p.MediaSource),
	}
}

// PreferenceStore supplies persisted defaults, keyed by attribute.
type PreferenceStore interface {
	SavedDefaults(ctx context.Context) (map[string]string, error)
}

// LoadSavedDefaults applies every persisted default the store knows.
// Unknown attributes are ignored.
func (p *Preferences) LoadSavedDefaults(ctx context.Context, store PreferenceStore) error {
	defaults, err := store.SavedDefaults(ctx)
	if err != nil {
		return fmt.Errorf("load saved defaults: %w", err)
	}
	for attr, v := range defaults {
		if item := p.Item(Attribute(attr)); item != nil && v != "" {
			item.SetSavedDefault(v)
		}
	}
	return nil
}

func (p *Preferences) each(fn func(*PreferenceItem[string])) {
	for _, attr := range Attributes {
		fn(p.Item(attr))
	}
}
