package display

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agent-platform/worldclock/internal/clock"
	"github.com/agent-platform/worldclock/internal/session"
)

// Key codes handled by Input.
const (
	keyCtrlC     = 0x03
	keyCtrlD     = 0x04
	keyBackspace = 0x08
	keyTab       = '\t'
	keyEsc       = 0x1b
	keyDelete    = 0x7f
)

// Input turns keystrokes typed under the live display into card edits.
// Typing the first character of a line puts the focused card into Editing,
// which holds off resyncs; Enter commits the line and Esc or an empty line
// cancels it.
//
// Lines:
//
//	09:30                  time on the focused card
//	set <city> 09:30       time on a card
//	slider <city> 570      minutes since midnight on a card
//	hour <city> 8          hour on a card, keeping its minute
//	date <city> 2024-07-01 date on a card, keeping its time
//	now                    every card back to the current time
//	q                      quit
//
// Tab moves the focus to the next card.
type Input struct {
	ctrl   *session.Controller
	line   []rune
	focus  string
	status string
	esc    int
}

// NewInput focuses the first card.
func NewInput(ctrl *session.Controller) *Input {
	in := &Input{ctrl: ctrl}
	if entries := ctrl.Entries(); len(entries) > 0 {
		in.focus = entries[0].ZoneID
	}
	return in
}

// Focus returns the zone id of the focused card.
func (in *Input) Focus() string {
	return in.focus
}

// Prompt is the line being typed plus the last status message.
func (in *Input) Prompt() string {
	p := "> " + string(in.line)
	if in.status != "" {
		p += "  " + in.status
	}
	return p
}

// Key handles one keystroke and reports whether the user asked to quit.
func (in *Input) Key(r rune) (quit bool) {
	// Swallow the rest of an escape sequence (arrow keys send ESC [ A).
	if in.esc > 0 {
		if in.esc == 2 && r != '[' && r != 'O' {
			in.esc = 0
		} else {
			in.esc--
			return false
		}
	}

	switch r {
	case keyCtrlC:
		in.ctrl.Cancel()
		return true
	case keyCtrlD:
		if len(in.line) == 0 {
			return true
		}
		return false
	case keyEsc:
		in.esc = 2
		in.cancel("")
		return false
	case '\r', '\n':
		line := strings.TrimSpace(string(in.line))
		in.line = in.line[:0]
		return in.submit(line)
	case keyDelete, keyBackspace:
		if len(in.line) > 0 {
			in.line = in.line[:len(in.line)-1]
			if len(in.line) == 0 {
				in.cancel("")
			}
		}
		return false
	case keyTab:
		in.nextFocus()
		return false
	}

	if r < ' ' {
		return false
	}
	if len(in.line) == 0 {
		in.begin()
	}
	in.line = append(in.line, r)
	return false
}

func (in *Input) begin() {
	in.status = ""
	if err := in.ctrl.BeginEdit(in.focus); errors.Is(err, session.ErrNotInSet) {
		if entries := in.ctrl.Entries(); len(entries) > 0 {
			in.focus = entries[0].ZoneID
			_ = in.ctrl.BeginEdit(in.focus)
		}
	}
}

func (in *Input) cancel(status string) {
	in.line = in.line[:0]
	in.status = status
	in.ctrl.Cancel()
}

func (in *Input) nextFocus() {
	entries := in.ctrl.Entries()
	if len(entries) == 0 {
		return
	}
	next := 0
	for i, e := range entries {
		if e.ZoneID == in.focus {
			next = (i + 1) % len(entries)
			break
		}
	}
	in.focus = entries[next].ZoneID
	if _, editing := in.ctrl.Editing(); editing {
		_ = in.ctrl.BeginEdit(in.focus)
	}
}

func (in *Input) submit(line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		in.cancel("")
		return false
	}

	var err error
	switch cmd := strings.ToLower(fields[0]); {
	case cmd == "q" || cmd == "quit" || cmd == "exit":
		in.ctrl.Cancel()
		return true
	case cmd == "now" && len(fields) == 1:
		in.ctrl.Now()
	case len(fields) == 1 && strings.Contains(cmd, ":"):
		err = in.setTime(in.focus, fields[0])
	case len(fields) >= 3 && cmd == "set":
		err = in.onCard(fields, func(zoneID, arg string) error { return in.setTime(zoneID, arg) })
	case len(fields) >= 3 && cmd == "slider":
		err = in.onCard(fields, func(zoneID, arg string) error {
			n, perr := strconv.Atoi(arg)
			if perr != nil {
				return fmt.Errorf("%w: slider %q", clock.ErrInvalidWallClock, arg)
			}
			_, cerr := in.ctrl.EditSlider(zoneID, n)
			return cerr
		})
	case len(fields) >= 3 && cmd == "hour":
		err = in.onCard(fields, func(zoneID, arg string) error {
			h, perr := strconv.Atoi(arg)
			if perr != nil {
				return fmt.Errorf("%w: hour %q", clock.ErrInvalidWallClock, arg)
			}
			_, cerr := in.ctrl.EditHour(zoneID, h)
			return cerr
		})
	case len(fields) >= 3 && cmd == "date":
		err = in.onCard(fields, func(zoneID, arg string) error {
			d, perr := time.Parse("2006-01-02", arg)
			if perr != nil {
				return fmt.Errorf("%w: date %q", clock.ErrInvalidWallClock, arg)
			}
			_, cerr := in.ctrl.EditDate(zoneID, d.Year(), d.Month(), d.Day())
			return cerr
		})
	default:
		err = fmt.Errorf("unknown input %q", line)
	}

	if err != nil {
		in.cancel(err.Error())
		return false
	}
	in.status = ""
	return false
}

// onCard resolves the city named by fields[1:len-1], focuses it and applies
// fn with the last field.
func (in *Input) onCard(fields []string, fn func(zoneID, arg string) error) error {
	city := strings.Join(fields[1:len(fields)-1], " ")
	i, ok := in.ctrl.Find(city)
	if !ok {
		return fmt.Errorf("%w: %q", session.ErrNotInSet, city)
	}
	zoneID := in.ctrl.Entries()[i].ZoneID
	in.focus = zoneID
	return fn(zoneID, fields[len(fields)-1])
}

// setTime commits "HH:MM" on the card's current date.
func (in *Input) setTime(zoneID, hhmm string) error {
	date := ""
	for _, v := range in.ctrl.Views() {
		if v.ZoneID == zoneID {
			date = v.DateValue()
			break
		}
	}
	if date == "" {
		return fmt.Errorf("%w: %q", session.ErrNotInSet, zoneID)
	}
	wc, err := clock.ParseWallClock(date, hhmm)
	if err != nil {
		return err
	}
	_, err = in.ctrl.Commit(zoneID, wc)
	return err
}
