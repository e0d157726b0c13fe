package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vmunix/mediasel/internal/fetch"
	"github.com/vmunix/mediasel/internal/media"
)

func TestMatch_Episode(t *testing.T) {
	req := fetch.Request{EpisodeSort: "13", EpisodeEp: "01"}

	tests := []struct {
		episode string
		want    media.EpisodeMatchKind
	}{
		{"13", media.EpisodeMatchExact},
		{"013", media.EpisodeMatchExact},
		{"1", media.EpisodeMatchEp},
		{"", media.EpisodeMatchFuzzy},
		{"12", media.EpisodeMatchNone},
	}
	for _, tt := range tests {
		got := Match(req, &media.Media{Episode: tt.episode}).Episode
		assert.Equal(t, tt.want, got, "episode %q", tt.episode)
	}

	// A request without an episode accepts everything.
	assert.Equal(t, media.EpisodeMatchExact, Match(fetch.Request{}, &media.Media{Episode: "7"}).Episode)
}

func TestMatch_Subject(t *testing.T) {
	req := fetch.Request{SubjectNames: []string{"Frieren: Beyond Journey's End", "Sousou no Frieren"}}

	assert.Equal(t, media.SubjectMatchExact, Match(req, &media.Media{SubjectName: "Sousou no Frieren"}).Subject)
	assert.Equal(t, media.SubjectMatchFuzzy, Match(req, &media.Media{}).Subject)
	assert.Equal(t, media.SubjectMatchNone, Match(req, &media.Media{SubjectName: "Yuru Camp"}).Subject)

	// No names to compare against.
	assert.Equal(t, media.SubjectMatchExact, Match(fetch.Request{}, &media.Media{SubjectName: "Anything"}).Subject)
}
