// Package display handles terminal rendering of the city cards with live updates.
package display

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/agent-platform/worldclock/internal/clock"
	"github.com/agent-platform/worldclock/internal/session"
	"github.com/agent-platform/worldclock/internal/ui"
	"github.com/agent-platform/worldclock/internal/zone"
	"github.com/olekukonko/tablewriter"
)

const (
	clearScreen = "\033[2J"
	cursorHome  = "\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"

	// DefaultTimelineWidth is the slider bar width in cells.
	DefaultTimelineWidth = 24
)

// Options controls a card render.
type Options struct {
	// Instant is the shared instant shown in the header; the zero value
	// omits it.
	Instant time.Time
	// Now is the wall-clock time of the redraw, shown in live mode.
	Now time.Time
	// Editing marks the card being edited.
	Editing string
	// Focus marks the card keystrokes apply to.
	Focus string
	// Prompt is the input line shown under the cards in live mode.
	Prompt string
	// TimelineWidth is the slider bar width; DefaultTimelineWidth when zero.
	TimelineWidth int
	// Live clears the screen first and prints the exit hint.
	Live bool
}

// Render writes one table row per card in display order.
func Render(w io.Writer, views []clock.LocalView, opts Options) {
	width := opts.TimelineWidth
	if width <= 0 {
		width = DefaultTimelineWidth
	}

	if opts.Live {
		fmt.Fprint(w, clearScreen+cursorHome)
	}
	header := ui.Boldf(" %s World Clock ", ui.ThemeIcon())
	if !opts.Instant.IsZero() {
		header += ui.Dimf("%s", opts.Instant.UTC().Format("(UTC 2006-01-02 15:04:05)"))
	}
	fmt.Fprintln(w, header)
	if !opts.Now.IsZero() {
		fmt.Fprintln(w, ui.Dimf(" now %s", opts.Now.Format("15:04:05 MST")))
	}

	if len(views) == 0 {
		fmt.Fprintln(w, ui.Dimf("No cities shown. Add one with: worldclock add <city>"))
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "City", "Region", "Time", "Zone", "Date", "00:00 ─ 23:59"})
	table.SetBorder(false)
	table.SetColumnSeparator(" ")
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for i, v := range views {
		marker := " "
		switch {
		case opts.Editing != "" && v.ZoneID == opts.Editing:
			marker = "✎"
		case opts.Focus != "" && v.ZoneID == opts.Focus:
			marker = "›"
		}
		table.Append([]string{
			fmt.Sprintf("%d%s", i+1, marker),
			ui.Accentf("%s", v.City),
			zone.RegionOf(v.ZoneID),
			ui.DayPeriodColor(v.Clock12(), v.Hour),
			fmt.Sprintf("%s %s", v.Abbreviation, ui.Dimf("%s", v.UTCOffset())),
			v.DateLabel(),
			ui.Timeline(v.TimelinePercent(), width),
		})
	}
	table.Render()

	if opts.Live {
		if opts.Prompt != "" {
			fmt.Fprintln(w, opts.Prompt)
			fmt.Fprintln(w, ui.Dimf("Type 09:30 or set|slider|hour|date <city> <value>, Tab to switch card, q to quit"))
			return
		}
		fmt.Fprintln(w, ui.Dimf("Press Ctrl+C to exit"))
	}
}

// RenderSearch lists search results with their current zone abbreviation
// and offset.
func RenderSearch(w io.Writer, results []zone.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, ui.Dimf("No matching time zones."))
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"City", "Zone", "Region", "Abbr", "UTC Offset"})
	table.SetBorder(false)
	table.SetColumnSeparator(" ")
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, r := range results {
		name := r.Name
		if r.Major {
			name = ui.Accentf("%s", r.Name)
		}
		table.Append([]string{
			name,
			r.ZoneID,
			r.Region,
			r.Abbreviation,
			clock.FormatOffset(r.OffsetSeconds),
		})
	}
	table.Render()
}

// RenderShare writes the share text inside a plain frame.
func RenderShare(w io.Writer, text string) {
	rule := strings.Repeat("─", 32)
	fmt.Fprintln(w, ui.Dimf("%s", rule))
	fmt.Fprintln(w, text)
	fmt.Fprintln(w, ui.Dimf("%s", rule))
}

// Live redraws the cards on every controller update and drives the
// controller's schedule. Keystrokes read from keys edit the cards (see
// Input); keys may be nil for a read-only display. It blocks until ctx is
// cancelled or the user quits.
func Live(ctx context.Context, ctrl *session.Controller, w io.Writer, sched session.Schedule, keys io.Reader) error {
	updates := make(chan struct{}, 1)
	poke := func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	}
	ctrl.OnUpdate(func([]clock.LocalView) { poke() })

	onClock := sched.OnClock
	sched.OnClock = func(t time.Time) {
		if onClock != nil {
			onClock(t)
		}
		poke()
	}

	var in *Input
	if keys != nil {
		in = NewInput(ctrl)
	}
	draw := func() {
		opts := Options{Instant: ctrl.Instant(), Now: time.Now(), Live: true}
		if editing, ok := ctrl.Editing(); ok {
			opts.Editing = editing
		}
		if in != nil {
			opts.Focus = in.Focus()
			opts.Prompt = in.Prompt()
		}
		Render(w, ctrl.Views(), opts)
	}

	fmt.Fprint(w, hideCursor)
	draw()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		errc <- ctrl.Run(runCtx, sched)
	}()

	var runes chan rune
	if keys != nil {
		runes = make(chan rune)
		go readKeys(runCtx, keys, runes)
	}

	for {
		select {
		case <-ctx.Done():
			return finish(w, <-errc)
		case err := <-errc:
			if ctx.Err() != nil {
				return finish(w, err)
			}
			fmt.Fprint(w, showCursor)
			return err
		case r, ok := <-runes:
			if !ok {
				runes = nil
				continue
			}
			if in.Key(r) {
				cancel()
				return finish(w, <-errc)
			}
			draw()
		case <-updates:
			draw()
		}
	}
}

func readKeys(ctx context.Context, keys io.Reader, out chan<- rune) {
	defer close(out)
	br := bufio.NewReader(keys)
	for {
		r, _, err := br.ReadRune()
		if err != nil {
			return
		}
		select {
		case out <- r:
		case <-ctx.Done():
			return
		}
	}
}

func finish(w io.Writer, err error) error {
	fmt.Fprint(w, clearScreen+cursorHome+showCursor)
	fmt.Fprintln(w, "Goodbye!")
	return err
}
