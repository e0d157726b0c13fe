package selector

import "github.com/vmunix/mediasel/internal/media"

// Presentation is a display snapshot of the selector.
type Presentation struct {
	Candidates []media.MaybeExcluded
	Included   int
	Selected   *media.Media
	Manual     bool
	Items      []ItemPresentation[string]
}

// Presentation returns the current display snapshot.
func (s *Selector) Presentation() Presentation {
	view := s.Filtered()
	included, _ := Partition(view)

	s.mu.Lock()
	p := Presentation{
		Candidates: view,
		Included:   len(included),
		Selected:   s.selected,
		Manual:     s.manual,
	}
	s.mu.Unlock()

	s.prefs.each(func(item *PreferenceItem[string]) {
		p.Items = append(p.Items, item.Presentation())
	})
	return p
}
