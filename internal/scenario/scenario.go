// Package scenario loads scripted provider timelines and plays them into a
// fetch session.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vmunix/mediasel/internal/fetch"
	"github.com/vmunix/mediasel/internal/media"
	"github.com/vmunix/mediasel/internal/selector"
	"github.com/vmunix/mediasel/pkg/release"
)

// Final provider states a scenario may script. StateNever keeps the
// provider working forever.
const (
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
	StateAbandoned = "abandoned"
	StateNever     = "never"
)

// Scenario is one scripted episode: the request, what every provider
// returns and when, and what the user does.
type Scenario struct {
	Name      string        `toml:"name"`
	Duration  time.Duration `toml:"duration"` // Zero derives it from the timeline
	Request   Request       `toml:"request"`
	Providers []Provider    `toml:"providers"`
	Actions   []Action      `toml:"actions"`
}

type Request struct {
	SubjectID    string   `toml:"subject_id"`
	EpisodeID    string   `toml:"episode_id"`
	EpisodeSort  string   `toml:"episode_sort"`
	EpisodeEp    string   `toml:"episode_ep"`
	SubjectNames []string `toml:"subject_names"`
	EpisodeName  string   `toml:"episode_name"`
}

// Provider scripts one provider instance. Its timeline starts when play
// starts, or when it is enabled if Disabled.
type Provider struct {
	Source   string        `toml:"source"`
	Instance string        `toml:"instance"` // Defaults to "<source>-1"
	Kind     string        `toml:"kind"`
	Disabled bool          `toml:"disabled"`
	Finish   time.Duration `toml:"finish"` // Never earlier than the last release
	State    string        `toml:"state"`  // Defaults to succeeded
	Error    string        `toml:"error"`
	Releases []Release     `toml:"releases"`

	kind media.Kind
}

// Release is one emitted candidate. Attributes not set explicitly are
// parsed from Title.
type Release struct {
	ID                string        `toml:"id"`
	Title             string        `toml:"title"`
	At                time.Duration `toml:"at"`
	Subject           string        `toml:"subject"`
	Episode           string        `toml:"episode"`
	Resolution        string        `toml:"resolution"`
	Alliance          string        `toml:"alliance"`
	SubtitleLanguages []string      `toml:"subtitle_languages"`
	Size              int64         `toml:"size"`
}

// Action is a scripted user interaction. Exactly one of Pick, Prefer or
// Remove is set.
type Action struct {
	At     time.Duration `toml:"at"`
	Pick   string        `toml:"pick"`   // Media id to select
	Prefer string        `toml:"prefer"` // "attribute=value"
	Remove string        `toml:"remove"` // Attribute to clear
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(string(data))
}

// Parse decodes and validates a scenario.
func Parse(content string) (*Scenario, error) {
	var s Scenario
	if _, err := toml.Decode(content, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) normalize() error {
	var errs []error
	seen := make(map[string]bool)
	for i := range s.Providers {
		p := &s.Providers[i]
		if p.Source == "" {
			errs = append(errs, fmt.Errorf("providers[%d].source: required", i))
			continue
		}
		if p.Instance == "" {
			p.Instance = p.Source + "-1"
		}
		if seen[p.Instance] {
			errs = append(errs, fmt.Errorf("providers[%d].instance: duplicate %q", i, p.Instance))
		}
		seen[p.Instance] = true

		kind, err := media.ParseKind(p.Kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("providers[%d].kind: %w", i, err))
		}
		p.kind = kind

		if p.State == "" {
			p.State = StateSucceeded
		}
		switch p.State {
		case StateSucceeded, StateFailed, StateAbandoned, StateNever:
		default:
			errs = append(errs, fmt.Errorf("providers[%d].state: unknown state %q", i, p.State))
		}

		for j := range p.Releases {
			r := &p.Releases[j]
			if r.ID == "" {
				r.ID = fmt.Sprintf("%s-%d", p.Instance, j+1)
			}
			if r.Title == "" && r.Subject == "" {
				errs = append(errs, fmt.Errorf("providers[%d].releases[%d]: title or subject required", i, j))
			}
			if r.At > p.Finish {
				p.Finish = r.At
			}
		}
	}

	for i, a := range s.Actions {
		n := 0
		for _, v := range []string{a.Pick, a.Prefer, a.Remove} {
			if v != "" {
				n++
			}
		}
		if n != 1 {
			errs = append(errs, fmt.Errorf("actions[%d]: exactly one of pick, prefer, remove required", i))
			continue
		}
		if a.Prefer != "" {
			if _, _, err := parsePrefer(a.Prefer); err != nil {
				errs = append(errs, fmt.Errorf("actions[%d].prefer: %w", i, err))
			}
		}
		if a.Remove != "" {
			if _, err := selector.ParseAttribute(a.Remove); err != nil {
				errs = append(errs, fmt.Errorf("actions[%d].remove: %w", i, err))
			}
		}
	}

	if s.Duration == 0 {
		s.Duration = s.lastEvent() + time.Second
	}
	return errors.Join(errs...)
}

// lastEvent returns the time of the latest scripted event.
func (s *Scenario) lastEvent() time.Duration {
	var last time.Duration
	for _, p := range s.Providers {
		last = max(last, p.Finish)
	}
	for _, a := range s.Actions {
		last = max(last, a.At)
	}
	return last
}

// FetchRequest converts the scripted request.
func (s *Scenario) FetchRequest() fetch.Request {
	return fetch.Request{
		SubjectID:    s.Request.SubjectID,
		EpisodeID:    s.Request.EpisodeID,
		EpisodeSort:  s.Request.EpisodeSort,
		EpisodeEp:    s.Request.EpisodeEp,
		SubjectNames: s.Request.SubjectNames,
		EpisodeName:  s.Request.EpisodeName,
	}
}

// Media builds the candidate a release describes.
func (r Release) Media() *media.Media {
	attrs := release.Parse(r.Title)
	m := &media.Media{
		ID:                r.ID,
		Title:             r.Title,
		SubjectName:       attrs.Title,
		Episode:           attrs.Episode,
		SubtitleLanguages: attrs.Languages,
		Alliance:          attrs.Alliance,
		Resolution:        attrs.Resolution,
		Size:              r.Size,
	}
	if r.Subject != "" {
		m.SubjectName = r.Subject
	}
	if r.Title == "" {
		m.Title = r.Subject
	}
	if r.Episode != "" {
		m.Episode = r.Episode
	}
	if r.Resolution != "" {
		m.Resolution = release.NormalizeResolution(r.Resolution)
	}
	if r.Alliance != "" {
		m.Alliance = r.Alliance
	}
	if len(r.SubtitleLanguages) > 0 {
		m.SubtitleLanguages = r.SubtitleLanguages
	}
	return m
}

func parsePrefer(s string) (selector.Attribute, string, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(value) == "" {
		return "", "", fmt.Errorf("want attribute=value, got %q", s)
	}
	attr, err := selector.ParseAttribute(strings.TrimSpace(name))
	if err != nil {
		return "", "", err
	}
	return attr, strings.TrimSpace(value), nil
}
