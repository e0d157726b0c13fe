package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"web", KindWeb},
		{"WEB", KindWeb},
		{"bt", KindBitTorrent},
		{"bittorrent", KindBitTorrent},
		{"local_cache", KindLocalCache},
		{" cache ", KindLocalCache},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseKind("usenet")
	assert.Error(t, err)
}

func TestSourceTiers_Get(t *testing.T) {
	tiers := SourceTiers{"a": 0, "b": 3}
	assert.Equal(t, Tier(0), tiers.Get("a"))
	assert.Equal(t, Tier(3), tiers.Get("b"))
	assert.Equal(t, UnknownTier, tiers.Get("missing"))

	var nilTiers SourceTiers
	assert.Equal(t, UnknownTier, nilTiers.Get("a"))
}

func TestEpisodeMatchKind_Ordered(t *testing.T) {
	assert.Less(t, EpisodeMatchNone, EpisodeMatchFuzzy)
	assert.Less(t, EpisodeMatchFuzzy, EpisodeMatchEp)
	assert.Less(t, EpisodeMatchEp, EpisodeMatchExact)
}

func TestMaybeExcluded(t *testing.T) {
	m := &Media{ID: "m1", SourceID: "s1", SubtitleLanguages: []string{"CHS"}}

	in := Included(m, MatchMetadata{Subject: SubjectMatchExact, Episode: EpisodeMatchExact})
	assert.True(t, in.IsIncluded())
	assert.False(t, in.IsExcluded())

	out := Excluded(m, MatchMetadata{}, ExcludedByAlliance)
	assert.True(t, out.IsExcluded())
	assert.Equal(t, "alliance", out.Reason.String())
	assert.False(t, out.Reason.Structural())
	assert.True(t, ExcludedByEpisodeMismatch.Structural())
}

func TestMedia_HasSubtitleLanguage(t *testing.T) {
	m := &Media{SubtitleLanguages: []string{"CHS", "jpn"}}
	assert.True(t, m.HasSubtitleLanguage("chs"))
	assert.True(t, m.HasSubtitleLanguage("JPN"))
	assert.False(t, m.HasSubtitleLanguage("CHT"))
}
