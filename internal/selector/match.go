package selector

import (
	"github.com/vmunix/mediasel/internal/fetch"
	"github.com/vmunix/mediasel/internal/media"
	"github.com/vmunix/mediasel/pkg/release"
)

// Match computes how m relates to req.
func Match(req fetch.Request, m *media.Media) media.MatchMetadata {
	return media.MatchMetadata{
		Subject: matchSubject(req, m),
		Episode: matchEpisode(req, m),
	}
}

func matchSubject(req fetch.Request, m *media.Media) media.SubjectMatchKind {
	if len(req.SubjectNames) == 0 {
		return media.SubjectMatchExact
	}
	if m.SubjectName == "" {
		return media.SubjectMatchFuzzy
	}
	switch release.MatchSubject(m.SubjectName, req.SubjectNames).Confidence {
	case release.ConfidenceExact:
		return media.SubjectMatchExact
	case release.ConfidenceFuzzy:
		return media.SubjectMatchFuzzy
	default:
		return media.SubjectMatchNone
	}
}

func matchEpisode(req fetch.Request, m *media.Media) media.EpisodeMatchKind {
	sort := release.NormalizeEpisode(req.EpisodeSort)
	ep := release.NormalizeEpisode(req.EpisodeEp)
	if sort == "" && ep == "" {
		return media.EpisodeMatchExact
	}
	if m.Episode == "" {
		return media.EpisodeMatchFuzzy
	}
	got := release.NormalizeEpisode(m.Episode)
	switch {
	case got == "":
		return media.EpisodeMatchFuzzy
	case got == sort:
		return media.EpisodeMatchExact
	case got == ep:
		return media.EpisodeMatchEp
	default:
		return media.EpisodeMatchNone
	}
}
