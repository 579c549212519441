package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/agent-platform/worldclock/internal/display"
	"github.com/agent-platform/worldclock/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	watchClock  string
	watchResync string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live-updating display",
	Long: `Redraws the cards as time passes. The current-time readout refreshes on
the clock schedule and every card moves to the current time on the resync
schedule. Both take cron specs with a seconds field, e.g. "@every 1s" or
"*/30 * * * * *".

When stdin is a terminal, lines typed under the cards edit them. Resyncs
are held off from the first keystroke until Enter or Esc.

  09:30                    Set the focused card's time
  set <city> 09:30         Set a card's time
  slider <city> 570        Minutes since midnight
  hour <city> 8            Hour, keeping the minute
  date <city> 2024-07-01   Date, keeping the time
  now                      Back to the current time
  q                        Quit
  Tab                      Focus the next card

Examples:
  worldclock watch                        # Schedules from config
  worldclock watch --resync "@every 10s"  # Resync faster`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		sched := session.Schedule{
			Clock:  a.cfg.Tick.Clock,
			Resync: a.cfg.Tick.Resync,
		}
		if watchClock != "" {
			sched.Clock = watchClock
		}
		if watchResync != "" {
			sched.Resync = watchResync
		}

		var out io.Writer = os.Stdout
		var keys io.Reader
		fd := int(syscall.Stdin)
		if term.IsTerminal(fd) {
			oldState, err := term.MakeRaw(fd)
			if err != nil {
				return err
			}
			defer term.Restore(fd, oldState)
			out = crlfWriter{os.Stdout}
			keys = os.Stdin
		}

		err = display.Live(ctx, a.ctrl, out, sched, keys)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// crlfWriter restores the carriage returns raw mode stops adding.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

func init() {
	watchCmd.Flags().StringVar(&watchClock, "clock", "", "clock refresh schedule (overrides config)")
	watchCmd.Flags().StringVar(&watchResync, "resync", "", "resync schedule (overrides config)")
	rootCmd.AddCommand(watchCmd)
}
