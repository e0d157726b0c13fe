package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vmunix/mediasel/internal/selector"
	"github.com/vmunix/mediasel/internal/store"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Inspect and edit saved preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show saved defaults and learned sources",
	Args:  cobra.NoArgs,
	RunE:  runPrefsShow,
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <attribute> <value>",
	Short: "Save a default preference",
	Long: `Save a default preference. Attributes: subtitle_language, resolution,
alliance, media_source.`,
	Args: cobra.ExactArgs(2),
	RunE: runPrefsSet,
}

var prefsClearCmd = &cobra.Command{
	Use:   "clear <attribute>",
	Short: "Remove a saved default",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrefsClear,
}

var prefsWebSourceCmd = &cobra.Command{
	Use:   "web-source <subject-id> [source-id]",
	Short: "Show, set or clear (--clear) the preferred web source of a subject",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runPrefsWebSource,
}

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsShowCmd, prefsSetCmd, prefsClearCmd, prefsWebSourceCmd)
	prefsWebSourceCmd.Flags().Bool("clear", false, "Forget the preferred web source")
}

// openStore loads the config and opens the preference store.
func openStore(cmd *cobra.Command) (*store.Store, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := openDB(cmd.Context(), cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return store.New(db), func() { _ = db.Close() }, nil
}

func runPrefsShow(cmd *cobra.Command, args []string) error {
	st, done, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer done()

	ctx := cmd.Context()
	defaults, err := st.SavedDefaults(ctx)
	if err != nil {
		return err
	}
	last, err := st.LastSelectedSource(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"defaults":             defaults,
			"last_selected_source": last,
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Saved defaults:")
	if len(defaults) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	attrs := make([]string, 0, len(defaults))
	for attr := range defaults {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)
	for _, attr := range attrs {
		fmt.Fprintf(w, "  %-18s %s\n", attr, defaults[attr])
	}
	fmt.Fprintf(w, "\nLast selected source: %s\n", orDash(last))
	return nil
}

func runPrefsSet(cmd *cobra.Command, args []string) error {
	attr, err := selector.ParseAttribute(args[0])
	if err != nil {
		return err
	}
	st, done, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer done()

	if err := st.SetSavedDefault(cmd.Context(), string(attr), args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s = %s\n", attr, args[1])
	return nil
}

func runPrefsClear(cmd *cobra.Command, args []string) error {
	attr, err := selector.ParseAttribute(args[0])
	if err != nil {
		return err
	}
	st, done, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer done()

	err = st.ClearSavedDefault(cmd.Context(), string(attr))
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintf(cmd.OutOrStdout(), "No default saved for %s\n", attr)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", attr)
	return nil
}

func runPrefsWebSource(cmd *cobra.Command, args []string) error {
	forget, _ := cmd.Flags().GetBool("clear")
	subject := args[0]

	st, done, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer done()
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	switch {
	case forget:
		if err := st.ClearPreferredWebSource(ctx, subject); err != nil {
			return err
		}
		fmt.Fprintf(w, "Forgot preferred web source of %s\n", subject)
	case len(args) == 2:
		if err := st.SetPreferredWebSource(ctx, subject, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(w, "Preferred web source of %s: %s\n", subject, args[1])
	default:
		source, err := st.PreferredWebSource(ctx, subject)
		if errors.Is(err, store.ErrNotFound) {
			source = ""
		} else if err != nil {
			return err
		}
		fmt.Fprintf(w, "Preferred web source of %s: %s\n", subject, orDash(source))
	}
	return nil
}
