package cmd

import (
	"os"
	"time"

	"github.com/agent-platform/worldclock/internal/display"
	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Find cities and time zones",
	Long: `Searches city names, regions, zone abbreviations and UTC offsets. Major
cities come first, then results by region and name.

Examples:
  worldclock search tokyo       # By city
  worldclock search europe      # By region
  worldclock search EST         # By abbreviation
  worldclock search +05:30      # By offset`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		limit := a.cfg.SearchLimit
		if searchLimit > 0 {
			limit = searchLimit
		}
		results := a.registry.Search(joinArgs(args), time.Now(), limit)
		display.RenderSearch(os.Stdout, results)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default: search_limit from config)")
	rootCmd.AddCommand(searchCmd)
}
