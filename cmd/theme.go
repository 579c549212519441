package cmd

import (
	"fmt"

	"github.com/agent-platform/worldclock/internal/ui"
	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:   "theme [dark|light|toggle]",
	Short: "Show or switch the color theme",
	Long: `Without an argument, prints the current theme. The choice is saved and
used whenever the config's theme is "auto".`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"dark", "light", "toggle"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			printTheme()
			return nil
		}

		var dark bool
		switch args[0] {
		case "dark":
			dark = true
		case "light":
			dark = false
		case "toggle":
			dark = !ui.DarkTheme()
		default:
			return fmt.Errorf("unknown theme %q (want dark, light or toggle)", args[0])
		}

		if err := a.store.SaveDarkTheme(cmd.Context(), dark); err != nil {
			return fmt.Errorf("save theme: %w", err)
		}
		ui.SetDarkTheme(dark)
		printTheme()
		if a.cfg.Theme != "auto" {
			fmt.Println(ui.Dimf("Note: config sets theme %q, which takes precedence.", a.cfg.Theme))
		}
		return nil
	},
}

func printTheme() {
	name := "light"
	if ui.DarkTheme() {
		name = "dark"
	}
	fmt.Printf("%s %s\n", ui.ThemeIcon(), ui.Accentf("%s theme", name))
}

func init() {
	rootCmd.AddCommand(themeCmd)
}
