package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/mediasel/pkg/release"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] <release-title>",
	Short: "Show the attributes derived from a release title",
	Long: `Parse a release title into the attributes the selector filters on.

Examples:
  mediasel parse "[ANi] Sousou no Frieren - 13 [1080P][Baha][WEB-DL][AAC AVC][CHT].mp4"
  mediasel parse --subject "Sousou no Frieren" --subject "Frieren" "<title>"
  mediasel parse --file titles.txt --json`,
	RunE: runParseCmd,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringP("file", "f", "", "Read titles from file (one per line)")
	parseCmd.Flags().StringArray("subject", nil, "Subject name to match against (repeatable)")
}

// ParseResult is one parsed title.
type ParseResult struct {
	Input      string   `json:"input"`
	Title      string   `json:"title"`
	CleanTitle string   `json:"clean_title"`
	Episode    string   `json:"episode,omitempty"`
	Season     int      `json:"season,omitempty"`
	Resolution string   `json:"resolution,omitempty"`
	Alliance   string   `json:"alliance,omitempty"`
	Languages  []string `json:"subtitle_languages,omitempty"`
	Match      string   `json:"match,omitempty"`
	MatchScore float64  `json:"match_score,omitempty"`
	MatchName  string   `json:"match_name,omitempty"`
}

func runParseCmd(cmd *cobra.Command, args []string) error {
	inputFile, _ := cmd.Flags().GetString("file")
	subjects, _ := cmd.Flags().GetStringArray("subject")

	var titles []string
	switch {
	case inputFile != "":
		names, err := readTitleFile(inputFile)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		titles = names
	case len(args) > 0:
		titles = args
	default:
		return fmt.Errorf("usage: mediasel parse <release-title> or mediasel parse --file <filename>")
	}

	results := make([]ParseResult, 0, len(titles))
	for _, t := range titles {
		results = append(results, parseTitle(t, subjects))
	}

	if jsonOutput {
		if len(results) == 1 {
			return printJSON(cmd.OutOrStdout(), results[0])
		}
		return printJSON(cmd.OutOrStdout(), results)
	}
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		printParseResult(cmd.OutOrStdout(), r)
	}
	return nil
}

func parseTitle(title string, subjects []string) ParseResult {
	attrs := release.Parse(title)
	r := ParseResult{
		Input:      title,
		Title:      attrs.Title,
		CleanTitle: release.CleanTitle(attrs.Title),
		Episode:    attrs.Episode,
		Season:     attrs.Season,
		Resolution: attrs.Resolution,
		Alliance:   attrs.Alliance,
		Languages:  attrs.Languages,
	}
	if len(subjects) > 0 {
		m := release.MatchSubject(attrs.Title, subjects)
		r.Match = m.Confidence.String()
		r.MatchScore = m.Score
		r.MatchName = m.Name
	}
	return r
}

func printParseResult(w io.Writer, r ParseResult) {
	fmt.Fprintf(w, "Input:       %s\n", r.Input)
	fmt.Fprintf(w, "Title:       %s\n", r.Title)
	fmt.Fprintf(w, "Clean title: %s\n", r.CleanTitle)
	if r.Season > 0 {
		fmt.Fprintf(w, "Season:      %d\n", r.Season)
	}
	fmt.Fprintf(w, "Episode:     %s\n", orDash(r.Episode))
	fmt.Fprintf(w, "Resolution:  %s\n", orDash(r.Resolution))
	fmt.Fprintf(w, "Alliance:    %s\n", orDash(r.Alliance))
	fmt.Fprintf(w, "Subtitles:   %s\n", orDash(strings.Join(r.Languages, ", ")))
	if r.Match != "" {
		fmt.Fprintf(w, "Match:       %s (%.2f, %s)\n", r.Match, r.MatchScore, r.MatchName)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// readTitleFile reads titles, one per line. Blank lines and # comments are
// skipped.
func readTitleFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var titles []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		titles = append(titles, line)
	}
	return titles, scanner.Err()
}
