package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vmunix/mediasel/internal/events"
	"github.com/vmunix/mediasel/internal/playback"
	"github.com/vmunix/mediasel/internal/scenario"
	"github.com/vmunix/mediasel/internal/selector"
	"github.com/vmunix/mediasel/internal/store"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [flags] <scenario.toml>",
	Short: "Replay a scripted provider scenario",
	Long: `Replay a scripted provider scenario through the selection engine and
print the resulting decision. Learned preferences and events are persisted
to the configured database.

Examples:
  mediasel simulate testdata/frieren.toml
  mediasel simulate --pick slow-13 --pick-at 2s scenario.toml
  mediasel simulate --prefer resolution=720p --json scenario.toml`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulateCmd,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().String("pick", "", "Media id to pick manually")
	simulateCmd.Flags().Duration("pick-at", 0, "When to pick, relative to the start")
	simulateCmd.Flags().StringArray("prefer", nil, "Preference set at the start, as attribute=value (repeatable)")
	simulateCmd.Flags().Duration("duration", 0, "How long to run (default: derived from the scenario)")
	simulateCmd.Flags().Bool("no-fast-select", false, "Disable the fast web path")
}

// Decision is the outcome printed by simulate.
type Decision struct {
	Scenario   string          `json:"scenario"`
	RunID      string          `json:"run_id"`
	Selected   string          `json:"selected,omitempty"`
	Source     string          `json:"source,omitempty"`
	Manual     bool            `json:"manual"`
	Candidates []CandidateView `json:"candidates"`
	Items      []ItemView      `json:"preferences"`
}

type CandidateView struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Alliance   string `json:"alliance,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	Excluded   string `json:"excluded,omitempty"`
}

type ItemView struct {
	Attribute string   `json:"attribute"`
	Final     string   `json:"final,omitempty"`
	Available []string `json:"available"`
	Working   bool     `json:"working,omitempty"`
}

func runSimulateCmd(cmd *cobra.Command, args []string) error {
	pick, _ := cmd.Flags().GetString("pick")
	pickAt, _ := cmd.Flags().GetDuration("pick-at")
	prefer, _ := cmd.Flags().GetStringArray("prefer")
	duration, _ := cmd.Flags().GetDuration("duration")
	noFast, _ := cmd.Flags().GetBool("no-fast-select")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log)

	scn, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	for _, p := range prefer {
		scn.Actions = append(scn.Actions, scenario.Action{Prefer: p})
	}
	if pick != "" {
		scn.Actions = append(scn.Actions, scenario.Action{At: pickAt, Pick: pick})
	}
	if duration == 0 {
		duration = max(scn.Duration, pickAt+time.Second)
	}

	settings, err := cfg.Selector.Settings()
	if err != nil {
		return err
	}
	if noFast {
		settings.FastSelectWeb = false
	}

	ctx := cmd.Context()
	db, err := openDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	bus := events.NewBus(events.NewEventLog(db), logger.With("component", "bus"))
	defer func() { _ = bus.Close() }()

	runner := playback.NewRunner(store.New(db), bus, settings, logger)
	sim := scn.NewSimulation(cfg.SourceTiers(), logger)

	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	p, err := runner.Start(ctx, sim.Session)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sim.Play(gctx) })
	g.Go(func() error { return sim.Act(gctx, p.Selector()) })
	if err := g.Wait(); err != nil {
		_ = p.Stop()
		return err
	}
	<-ctx.Done()
	if err := p.Stop(); err != nil {
		return err
	}

	d := decision(scn.Name, p.RunID, p.Selector().Presentation())
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), d)
	}
	printDecision(cmd.OutOrStdout(), d)
	return nil
}

func decision(name, runID string, pres selector.Presentation) Decision {
	d := Decision{Scenario: name, RunID: runID, Manual: pres.Manual}
	if pres.Selected != nil {
		d.Selected = pres.Selected.ID
		d.Source = pres.Selected.SourceID
	}
	for _, c := range pres.Candidates {
		v := CandidateView{
			ID:         c.Media.ID,
			Source:     c.Media.SourceID,
			Alliance:   c.Media.Alliance,
			Resolution: c.Media.Resolution,
		}
		if c.IsExcluded() {
			v.Excluded = c.Reason.String()
		}
		d.Candidates = append(d.Candidates, v)
	}
	for _, item := range pres.Items {
		v := ItemView{Attribute: string(item.Attribute), Available: item.Available, Working: item.Working}
		if item.HasFinal {
			v.Final = item.Final
		}
		d.Items = append(d.Items, v)
	}
	return d
}

func printDecision(w io.Writer, d Decision) {
	fmt.Fprintf(w, "Scenario: %s (run %s)\n\n", d.Scenario, d.RunID)

	fmt.Fprintf(w, "  %-20s %-12s %-16s %-8s %s\n", "MEDIA", "SOURCE", "ALLIANCE", "RES", "STATUS")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 72))
	for _, c := range d.Candidates {
		status := "included"
		if c.Excluded != "" {
			status = c.Excluded
		}
		if c.ID == d.Selected {
			status = "* selected"
		}
		fmt.Fprintf(w, "  %-20s %-12s %-16s %-8s %s\n", c.ID, c.Source, c.Alliance, c.Resolution, status)
	}

	fmt.Fprintln(w, "\nPreferences:")
	for _, item := range d.Items {
		final := item.Final
		if final == "" {
			final = "-"
		}
		fmt.Fprintf(w, "  %-18s %-12s (available: %s)\n", item.Attribute, final, strings.Join(item.Available, ", "))
	}

	fmt.Fprintln(w)
	switch {
	case d.Selected == "":
		fmt.Fprintln(w, "Nothing selected")
	case d.Manual:
		fmt.Fprintf(w, "Selected %s from %s (manual)\n", d.Selected, d.Source)
	default:
		fmt.Fprintf(w, "Selected %s from %s (automatic)\n", d.Selected, d.Source)
	}
}
