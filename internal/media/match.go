package media

// SubjectMatchKind says how well a media's subject matches the requested one.
type SubjectMatchKind int

const (
	SubjectMatchNone SubjectMatchKind = iota
	SubjectMatchFuzzy
	SubjectMatchExact
)

func (k SubjectMatchKind) String() string {
	switch k {
	case SubjectMatchExact:
		return "exact"
	case SubjectMatchFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// EpisodeMatchKind says how well a media's episode matches the requested one.
// Values are ordered: None < Fuzzy < Ep < Exact.
type EpisodeMatchKind int

const (
	EpisodeMatchNone  EpisodeMatchKind = iota
	EpisodeMatchFuzzy                  // No episode info, e.g. a season pack
	EpisodeMatchEp                     // Matched the in-season episode number
	EpisodeMatchExact                  // Matched the absolute episode sort
)

func (k EpisodeMatchKind) String() string {
	switch k {
	case EpisodeMatchExact:
		return "exact"
	case EpisodeMatchEp:
		return "ep"
	case EpisodeMatchFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// MatchMetadata records how a media relates to the request it answers.
type MatchMetadata struct {
	Subject SubjectMatchKind
	Episode EpisodeMatchKind
}

// ExclusionReason explains why a candidate was excluded.
// ExclusionNone marks an included candidate.
type ExclusionReason int

const (
	ExclusionNone ExclusionReason = iota
	ExcludedBySubjectMismatch
	ExcludedByEpisodeMismatch
	ExcludedBySubtitleLanguage
	ExcludedByAlliance
	ExcludedByResolution
	ExcludedByMediaSource
)

func (r ExclusionReason) String() string {
	switch r {
	case ExclusionNone:
		return "included"
	case ExcludedBySubjectMismatch:
		return "subject_mismatch"
	case ExcludedByEpisodeMismatch:
		return "episode_mismatch"
	case ExcludedBySubtitleLanguage:
		return "subtitle_language"
	case ExcludedByAlliance:
		return "alliance"
	case ExcludedByResolution:
		return "resolution"
	case ExcludedByMediaSource:
		return "media_source"
	default:
		return "unknown"
	}
}

// Structural reports whether the reason comes from the request itself rather
// than from a user preference. Structurally excluded media are never selectable.
func (r ExclusionReason) Structural() bool {
	return r == ExcludedBySubjectMismatch || r == ExcludedByEpisodeMismatch
}

// MaybeExcluded is either an included candidate (Reason == ExclusionNone)
// or an excluded one with the reason it was excluded.
type MaybeExcluded struct {
	Media    *Media
	Metadata MatchMetadata
	Reason   ExclusionReason
}

// Included wraps m as an included candidate.
func Included(m *Media, meta MatchMetadata) MaybeExcluded {
	return MaybeExcluded{Media: m, Metadata: meta}
}

// Excluded wraps m as an excluded candidate.
func Excluded(m *Media, meta MatchMetadata, reason ExclusionReason) MaybeExcluded {
	return MaybeExcluded{Media: m, Metadata: meta, Reason: reason}
}

// IsIncluded reports whether the candidate passed every filter.
func (c MaybeExcluded) IsIncluded() bool { return c.Reason == ExclusionNone }

// IsExcluded reports whether the candidate was filtered out.
func (c MaybeExcluded) IsExcluded() bool { return c.Reason != ExclusionNone }
