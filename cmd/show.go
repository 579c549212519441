package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/agent-platform/worldclock/internal/clock"
	"github.com/agent-platform/worldclock/internal/display"
	"github.com/spf13/cobra"
)

var (
	setDate   string
	setSlider int
	setHour   int
	showWidth int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cards at the current time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		render(a)
		return nil
	},
}

var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Reset every card to the current time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		a.ctrl.Now()
		render(a)
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <city> [HH:MM]",
	Short: "Move every card to a local time in one city",
	Long: `Reads a local time on one card and moves every card to the same instant.

Examples:
  worldclock set "New York" 09:30                    # Today in New York
  worldclock set London 18:00 --date 2024-07-01      # A given day
  worldclock set Beijing --slider 570                # Minutes since midnight
  worldclock set Tokyo --hour 8                      # Keep the minute, change the hour

Times that fall in a daylight saving gap move forward by the gap; times that
occur twice resolve to the first occurrence.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := editCard(cmd, a, args); err != nil {
			return err
		}
		render(a)
		return nil
	},
}

var shareCmd = &cobra.Command{
	Use:   "share [city HH:MM]",
	Short: "Print the cards as shareable text",
	Long: `Prints one "City: 9:30 AM EST" line per card. With a city and a time the
cards are first moved as with 'worldclock set'.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 || len(args) > 2 {
			return fmt.Errorf("share takes no arguments or a city and a time")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 2 {
			if err := editCard(cmd, a, args); err != nil {
				return err
			}
		}
		display.RenderShare(os.Stdout, a.ctrl.Share())
		return nil
	},
}

// editCard applies the set flags and arguments to the card named by args[0].
func editCard(cmd *cobra.Command, a *app, args []string) error {
	zoneID := args[0]
	if i, ok := a.ctrl.Find(args[0]); ok {
		zoneID = a.ctrl.Entries()[i].ZoneID
	}
	flags := cmd.Flags()

	var err error
	switch {
	case len(args) == 2:
		date := setDate
		if date == "" {
			date = cardDate(a, zoneID)
		}
		var wc clock.WallClock
		wc, err = clock.ParseWallClock(date, args[1])
		if err == nil {
			_, err = a.ctrl.Edit(zoneID, wc)
		}
	case flags.Changed("slider"):
		_, err = a.ctrl.EditSlider(zoneID, setSlider)
	case flags.Changed("hour"):
		_, err = a.ctrl.EditHour(zoneID, setHour)
	case setDate != "":
		var d time.Time
		d, err = time.Parse("2006-01-02", setDate)
		if err != nil {
			return fmt.Errorf("%w: date %q", clock.ErrInvalidWallClock, setDate)
		}
		_, err = a.ctrl.EditDate(zoneID, d.Year(), d.Month(), d.Day())
	default:
		return fmt.Errorf("nothing to set: give a time, --slider, --hour or --date")
	}
	if err != nil {
		return fmt.Errorf("set %s: %w", args[0], err)
	}
	return nil
}

func cardDate(a *app, zoneID string) string {
	for _, v := range a.ctrl.Views() {
		if v.ZoneID == zoneID {
			return v.DateValue()
		}
	}
	return a.ctrl.Instant().Format("2006-01-02")
}

func render(a *app) {
	display.Render(os.Stdout, a.ctrl.Views(), display.Options{
		Instant:       a.ctrl.Instant(),
		TimelineWidth: showWidth,
	})
}

func init() {
	for _, c := range []*cobra.Command{setCmd, shareCmd} {
		c.Flags().StringVarP(&setDate, "date", "d", "", "date on the card, YYYY-MM-DD (default: the card's current date)")
	}
	setCmd.Flags().IntVarP(&setSlider, "slider", "s", 0, "slider position in minutes since midnight (0-1439)")
	setCmd.Flags().IntVarP(&setHour, "hour", "H", 0, "hour select (0-23), keeping the card's minute")
	for _, c := range []*cobra.Command{showCmd, nowCmd, setCmd} {
		c.Flags().IntVarP(&showWidth, "width", "w", display.DefaultTimelineWidth, "timeline width in cells")
	}

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(nowCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(shareCmd)
}
