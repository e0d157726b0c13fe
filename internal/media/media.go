// Package media defines the candidate model shared by the fetch and selection layers.
package media

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Kind is the kind of provider a media was produced by.
type Kind string

const (
	KindWeb        Kind = "web"
	KindBitTorrent Kind = "bittorrent"
	KindLocalCache Kind = "local_cache"
)

// ParseKind parses a kind name as written in config and scenario files.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "web":
		return KindWeb, nil
	case "bittorrent", "bt", "torrent":
		return KindBitTorrent, nil
	case "local_cache", "localcache", "cache":
		return KindLocalCache, nil
	default:
		return "", fmt.Errorf("unknown media kind %q", s)
	}
}

// Tier is the ordinal rank of a provider. Lower is more preferred.
type Tier uint32

// InstantSelectTierThreshold is the default cut line between low tier
// (eligible for instant selection) and high tier providers.
const InstantSelectTierThreshold Tier = 0

// UnknownTier is assigned to providers missing from the tier table.
const UnknownTier Tier = math.MaxUint32

// SourceTiers maps a source id to its tier.
type SourceTiers map[string]Tier

// Get returns the tier of sourceID, or UnknownTier.
func (t SourceTiers) Get(sourceID string) Tier {
	if tier, ok := t[sourceID]; ok {
		return tier
	}
	return UnknownTier
}

// Media is a single playable candidate returned by a provider.
// A Media is immutable once emitted; share it by pointer.
type Media struct {
	ID                string
	SourceID          string
	Kind              Kind
	Tier              Tier
	Title             string
	SubjectName       string // Subject name as reported by the provider
	Episode           string // Episode sort as reported; empty for packs
	SubtitleLanguages []string
	Alliance          string // Release group
	Resolution        string
	Size              int64
}

// HasSubtitleLanguage reports whether lang is one of m's subtitle languages.
func (m *Media) HasSubtitleLanguage(lang string) bool {
	return slices.ContainsFunc(m.SubtitleLanguages, func(l string) bool {
		return strings.EqualFold(l, lang)
	})
}

func (m *Media) String() string {
	return fmt.Sprintf("%s@%s", m.ID, m.SourceID)
}
