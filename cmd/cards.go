package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/agent-platform/worldclock/internal/session"
	"github.com/agent-platform/worldclock/internal/ui"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	addAt    string
	addFirst bool
)

var addCmd = &cobra.Command{
	Use:   "add [city]",
	Short: "Add a card to the front",
	Long: `Adds a city to the front of the card list and saves the list.

Examples:
  worldclock add Tokyo                  # A known city
  worldclock add Asia/Kathmandu         # Any IANA zone
  worldclock add --first kolk           # First zone containing "kolk"
  worldclock add --at 35.68,139.69      # The zone at these coordinates`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addAt == "" && len(args) == 0 {
			return fmt.Errorf("give a city, a zone id, or --at lat,lon")
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		name := joinArgs(args)
		var added string
		switch {
		case addAt != "":
			lat, lon, perr := parseLatLon(addAt)
			if perr != nil {
				return perr
			}
			e, err := a.ctrl.AddAt(ctx, lat, lon)
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}
			added = e.City
		case addFirst:
			e, err := a.ctrl.AddFirstMatch(ctx, name)
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}
			added = e.City
		default:
			e, err := a.ctrl.Add(ctx, name)
			if errors.Is(err, session.ErrDuplicateZone) {
				fmt.Println(ui.Yellowf("%s is already shown.", name))
				return nil
			}
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}
			added = e.City
		}

		fmt.Println(ui.Greenf("✓ Added %s", added))
		render(a)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <city>",
	Aliases: []string{"rm"},
	Short:   "Remove a card",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.ctrl.Remove(cmd.Context(), joinArgs(args))
		if errors.Is(err, session.ErrLastEntry) {
			return fmt.Errorf("cannot remove the last time zone")
		}
		if err != nil {
			return fmt.Errorf("remove: %w", err)
		}

		fmt.Println(ui.Greenf("✓ Removed %s", removed.City))
		render(a)
		return nil
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <from> <to>",
	Short: "Move a card to another position",
	Long: `Moves the card at position <from> to position <to>; positions start at 1
as shown by 'worldclock list'. <from> may also be a city name.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		from, err := strconv.Atoi(args[0])
		if err != nil {
			i, ok := a.ctrl.Find(args[0])
			if !ok {
				return fmt.Errorf("move: %w: %q", session.ErrNotInSet, args[0])
			}
			from = i + 1
		}
		to, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("move: invalid position %q", args[1])
		}

		if err := a.ctrl.Move(cmd.Context(), from-1, to-1); err != nil {
			return fmt.Errorf("move: %w", err)
		}
		return listCards(a)
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the saved cards in order",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		return listCards(a)
	},
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the card list",
	Long: `Writes the current card list to the settings database. Adding, removing
and moving cards already save; use this to store the list after changing
the config defaults or to check that storage works.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		// The notifier already printed the outcome.
		if err := a.ctrl.Save(cmd.Context()); err != nil {
			return errReported
		}
		return nil
	},
}

func listCards(a *app) error {
	entries := a.ctrl.Entries()
	if len(entries) == 0 {
		fmt.Println(ui.Dimf("No cities saved."))
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "City", "Zone"})
	table.SetBorder(false)
	table.SetColumnSeparator(" ")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for i, e := range entries {
		table.Append([]string{strconv.Itoa(i + 1), e.City, e.ZoneID})
	}
	table.Render()
	return nil
}

// joinArgs lets multi-word city names be given without quotes.
func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

func parseLatLon(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid coordinates %q, want lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q", parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q", parts[1])
	}
	return lat, lon, nil
}

func init() {
	addCmd.Flags().StringVar(&addAt, "at", "", "add the zone at these coordinates (lat,lon)")
	addCmd.Flags().BoolVar(&addFirst, "first", false, "add the first zone whose id contains the term")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(saveCmd)
}
