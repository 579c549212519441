// worldclock shows the local time for a list of cities, all synchronized to a
// single instant that can be moved from any card.
//
// Usage:
//
//	worldclock show                       # Cards at the current time
//	worldclock set "New York" 09:30       # Move every card to 9:30 AM in New York
//	worldclock watch                      # Live-updating display
//	worldclock add Tokyo                  # Add a card to the front
package main

import (
	_ "time/tzdata"

	"github.com/agent-platform/worldclock/cmd"
)

func main() {
	cmd.Execute()
}
