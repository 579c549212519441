package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ANSI color codes
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
)

var (
	colorEnabled = true
	darkTheme    = false
)

func init() {
	// Disable colors if NO_COLOR is set or stdout is not a terminal
	if os.Getenv("NO_COLOR") != "" {
		colorEnabled = false
	}
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		colorEnabled = false
	}
}

// SetColor enables or disables color output.
func SetColor(enabled bool) {
	colorEnabled = enabled
}

// SetDarkTheme switches the accent palette.
func SetDarkTheme(dark bool) {
	darkTheme = dark
}

// DarkTheme reports whether the dark palette is active.
func DarkTheme() bool {
	return darkTheme
}

// ThemeIcon is the toggle's icon: a sun while dark, a moon while light.
func ThemeIcon() string {
	if darkTheme {
		return "☀️"
	}
	return "🌙"
}

func colorize(color, s string) string {
	if !colorEnabled {
		return s
	}
	return color + s + Reset
}

func Boldf(format string, a ...any) string {
	return colorize(Bold, fmt.Sprintf(format, a...))
}

func Redf(format string, a ...any) string {
	return colorize(Red, fmt.Sprintf(format, a...))
}

func Greenf(format string, a ...any) string {
	return colorize(Green, fmt.Sprintf(format, a...))
}

func Yellowf(format string, a ...any) string {
	return colorize(Yellow, fmt.Sprintf(format, a...))
}

func Cyanf(format string, a ...any) string {
	return colorize(Cyan, fmt.Sprintf(format, a...))
}

func Dimf(format string, a ...any) string {
	return colorize(Dim, fmt.Sprintf(format, a...))
}

// Accentf colors card titles with the theme's accent.
func Accentf(format string, a ...any) string {
	if darkTheme {
		return colorize(Yellow, fmt.Sprintf(format, a...))
	}
	return colorize(Blue, fmt.Sprintf(format, a...))
}

// Timeline draws a 24h track of the given width with a marker at percent.
func Timeline(percent float64, width int) string {
	if width < 2 {
		width = 2
	}
	pos := int(percent / 100 * float64(width))
	if pos >= width {
		pos = width - 1
	}
	if pos < 0 {
		pos = 0
	}
	return Dimf("%s", strings.Repeat("─", pos)) + Accentf("●") + Dimf("%s", strings.Repeat("─", width-pos-1))
}

// DayPeriodColor colors a 12h clock string: daytime hours bright, night dim.
func DayPeriodColor(clock string, hour int) string {
	if hour >= 7 && hour < 19 {
		return colorize(Bold, clock)
	}
	return colorize(Dim, clock)
}
