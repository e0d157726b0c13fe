package selector

import (
	"strings"

	"github.com/vmunix/mediasel/internal/media"
)

// Constraint is one criterion. The zero value sets no constraint; a set
// constraint applies even when its value is empty.
type Constraint struct {
	Value string
	Set   bool
}

// Require returns a constraint on v.
func Require(v string) Constraint { return Constraint{Value: v, Set: true} }

// Criteria are the final preference values a filter applies.
type Criteria struct {
	SubtitleLanguage Constraint
	Alliance         Constraint
	Resolution       Constraint
	MediaSource      Constraint
}

// Candidate is a media with its match against the request.
type Candidate struct {
	Media    *media.Media
	Metadata media.MatchMetadata
}

// Filter partitions candidates into included and excluded ones. Every
// candidate appears exactly once, in input order. A candidate is excluded for
// the first failing check: subject, episode, then each criterion.
func Filter(cands []Candidate, c Criteria) []media.MaybeExcluded {
	out := make([]media.MaybeExcluded, 0, len(cands))
	for _, cand := range cands {
		if reason := exclusion(cand, c); reason != media.ExclusionNone {
			out = append(out, media.Excluded(cand.Media, cand.Metadata, reason))
			continue
		}
		out = append(out, media.Included(cand.Media, cand.Metadata))
	}
	return out
}

func exclusion(cand Candidate, c Criteria) media.ExclusionReason {
	m := cand.Media
	switch {
	case cand.Metadata.Subject == media.SubjectMatchNone:
		return media.ExcludedBySubjectMismatch
	case cand.Metadata.Episode == media.EpisodeMatchNone:
		return media.ExcludedByEpisodeMismatch
	case c.SubtitleLanguage.Set && !hasSubtitleLanguage(m, c.SubtitleLanguage.Value):
		return media.ExcludedBySubtitleLanguage
	case c.Alliance.Set && m.Alliance != c.Alliance.Value:
		return media.ExcludedByAlliance
	case c.Resolution.Set && !strings.EqualFold(m.Resolution, c.Resolution.Value):
		return media.ExcludedByResolution
	case c.MediaSource.Set && m.SourceID != c.MediaSource.Value:
		return media.ExcludedByMediaSource
	}
	return media.ExclusionNone
}

// hasSubtitleLanguage matches lang, or no subtitles at all for an empty lang.
func hasSubtitleLanguage(m *media.Media, lang string) bool {
	if lang == "" {
		return len(m.SubtitleLanguages) == 0
	}
	return m.HasSubtitleLanguage(lang)
}

// Partition splits a filtered view, keeping order.
func Partition(view []media.MaybeExcluded) (included, excluded []media.MaybeExcluded) {
	for _, c := range view {
		if c.IsIncluded() {
			included = append(included, c)
		} else {
			excluded = append(excluded, c)
		}
	}
	return included, excluded
}

// AllianceGroup is the candidates of one release group.
type AllianceGroup struct {
	Alliance   string
	Candidates []media.MaybeExcluded
}

// GroupByAlliance groups a view for display, in order of first appearance.
func GroupByAlliance(view []media.MaybeExcluded) []AllianceGroup {
	var groups []AllianceGroup
	index := make(map[string]int)
	for _, c := range view {
		i, ok := index[c.Media.Alliance]
		if !ok {
			i = len(groups)
			index[c.Media.Alliance] = i
			groups = append(groups, AllianceGroup{Alliance: c.Media.Alliance})
		}
		groups[i].Candidates = append(groups[i].Candidates, c)
	}
	return groups
}
