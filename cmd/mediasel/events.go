package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/mediasel/internal/events"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show persisted events",
	Long: `Show persisted events, newest last.

Examples:
  mediasel events --since 1h
  mediasel events --run 3f0c...
  mediasel events --prune 720h`,
	Args: cobra.NoArgs,
	RunE: runEventsCmd,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().IntP("limit", "n", 20, "Number of recent events to show")
	eventsCmd.Flags().Duration("since", 0, "Show events from this long ago")
	eventsCmd.Flags().String("run", "", "Show the events of one run")
	eventsCmd.Flags().Duration("prune", 0, "Delete events older than this instead of listing")
}

func runEventsCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	since, _ := cmd.Flags().GetDuration("since")
	runID, _ := cmd.Flags().GetString("run")
	prune, _ := cmd.Flags().GetDuration("prune")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	db, err := openDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	log := events.NewEventLog(db)

	if prune > 0 {
		n, err := log.Prune(ctx, prune)
		if err != nil {
			return fmt.Errorf("prune events: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d events\n", n)
		return nil
	}

	var raw []events.RawEvent
	switch {
	case runID != "":
		raw, err = log.ForRun(ctx, runID)
	case since > 0:
		raw, err = log.Since(ctx, time.Now().Add(-since))
	default:
		raw, err = log.Recent(ctx, limit)
		// Recent is newest first.
		for i, j := 0, len(raw)-1; i < j; i, j = i+1, j-1 {
			raw[i], raw[j] = raw[j], raw[i]
		}
	}
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), decodeEvents(raw))
	}

	w := cmd.OutOrStdout()
	if len(raw) == 0 {
		fmt.Fprintln(w, "No events")
		return nil
	}
	fmt.Fprintf(w, "Events (%d):\n\n", len(raw))
	fmt.Fprintf(w, "  %-12s %-30s %-20s %s\n", "TIME", "TYPE", "ENTITY", "RUN")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 80))
	for _, e := range raw {
		entity := fmt.Sprintf("%s/%s", e.EntityType, e.EntityID)
		fmt.Fprintf(w, "  %-12s %-30s %-20s %s\n", e.OccurredAt.Local().Format("15:04:05.000"), e.EventType, entity, shortID(e.RunID))
	}
	return nil
}

// decodeEvents decodes known event types; unknown ones keep their raw
// payload.
func decodeEvents(raw []events.RawEvent) []any {
	reg := events.DefaultRegistry()
	out := make([]any, 0, len(raw))
	for _, r := range raw {
		e, err := reg.Unmarshal(r)
		if err != nil {
			out = append(out, r)
			continue
		}
		out = append(out, e)
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
