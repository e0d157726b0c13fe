// Package release extracts selection attributes from release titles and
// matches provider subject names against the requested subject.
package release

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/MunifTanjim/go-ptt"
)

// Attributes are the selection-relevant facts parsed from a release title.
type Attributes struct {
	Title      string
	Alliance   string   // Release group
	Resolution string   // Normalized: "2160p", "1080p", "720p", "480p" or ""
	Languages  []string // Subtitle language ids, e.g. "CHS", "CHT", "JPN"
	Episode    string   // First episode number; empty for packs
	Season     int
}

// subtitleTagPattern finds fansub language tags ptt does not report.
var subtitleTagPattern = regexp.MustCompile(`(?i)(?:^|[\[\]\(\)\s_\.\-&/])(chs|cht|gb|big5|sc|tc|jpsc|jptc|eng)(?:$|[\[\]\(\)\s_\.\-&/])`)

// Parse extracts Attributes from a release title.
func Parse(title string) Attributes {
	info := ptt.Parse(title)

	attrs := Attributes{
		Title:      info.Title,
		Alliance:   strings.TrimSpace(info.Group),
		Resolution: NormalizeResolution(info.Resolution),
	}
	if len(info.Seasons) > 0 {
		attrs.Season = info.Seasons[0]
	}
	if len(info.Episodes) == 1 {
		attrs.Episode = strconv.Itoa(info.Episodes[0])
	}

	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			attrs.Languages = append(attrs.Languages, id)
		}
	}
	for _, m := range subtitleTagPattern.FindAllStringSubmatch(title, -1) {
		add(languageID(m[1]))
	}
	for _, lang := range info.Languages {
		add(languageID(lang))
	}
	return attrs
}

// languageID maps a language tag or ptt language code to a subtitle id.
func languageID(tag string) string {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "chs", "gb", "sc", "jpsc", "zh", "zh-hans", "chinese":
		return "CHS"
	case "cht", "big5", "tc", "jptc", "zh-tw", "zh-hant":
		return "CHT"
	case "ja", "jp", "jpn", "japanese":
		return "JPN"
	case "en", "eng", "english":
		return "ENG"
	case "":
		return ""
	default:
		return strings.ToUpper(tag)
	}
}

// NormalizeResolution maps resolution spellings onto a small fixed set.
func NormalizeResolution(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return ""
	case strings.Contains(s, "2160") || strings.Contains(s, "4k"):
		return "2160p"
	case strings.Contains(s, "1080"):
		return "1080p"
	case strings.Contains(s, "720"):
		return "720p"
	case strings.Contains(s, "480") || strings.Contains(s, "576"):
		return "480p"
	default:
		return s
	}
}
