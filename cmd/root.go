package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/agent-platform/worldclock/internal/config"
	"github.com/agent-platform/worldclock/internal/session"
	"github.com/agent-platform/worldclock/internal/store"
	"github.com/agent-platform/worldclock/internal/ui"
	"github.com/agent-platform/worldclock/internal/zone"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "worldclock",
	Short: "World clock with synchronized city cards",
	Long: `worldclock shows the local time for a list of cities. Every card is
projected from one shared instant: set the time on any card and all the
others follow, across time zones and daylight saving changes.

Usage:
  worldclock init                 Initialize configuration
  worldclock show                 Show the cards at the current time
  worldclock set <city> <HH:MM>   Move every card to a local time in one city
  worldclock watch                Live-updating display
  worldclock add <city>           Add a card to the front
  worldclock remove <city>        Remove a card
  worldclock move <from> <to>     Reorder cards
  worldclock search <term>        Find cities and time zones
  worldclock share                Print the cards as shareable text`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errReported fails a command whose error has already been shown.
var errReported = errors.New("error already reported")

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.worldclock/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with WORLDCLOCK_* overrides")
}

// loadConfig reads the config file, writing the defaults on first run, then
// applies environment overrides.
func loadConfig() (*config.Config, string, error) {
	path := cfgFile
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return nil, "", fmt.Errorf("determine config path: %w", err)
		}
	}

	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, "", err
	}
	if err := config.ApplyEnv(cfg, envFile); err != nil {
		return nil, "", err
	}

	switch cfg.LogLevel {
	case "quiet", "off", "none":
		log.SetOutput(io.Discard)
	default:
		log.SetOutput(os.Stderr)
	}
	return cfg, path, nil
}

// app bundles the collaborators every card command needs.
type app struct {
	cfg      *config.Config
	store    *store.Store
	registry *zone.Registry
	ctrl     *session.Controller
}

// openApp loads config, opens the settings database, builds the city
// registry and restores the saved cards.
func openApp(ctx context.Context) (*app, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	reg, err := zone.NewRegistry(zone.SystemSource{})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load time zones: %w", err)
	}

	ctrl := session.New(reg, st, session.Options{
		Defaults: cfg.Defaults,
		Notifier: session.NotifierFunc(printNotice),
	})
	st.SetSession(ctrl.ID())

	if err := ctrl.Load(ctx); err != nil && !errors.Is(err, session.ErrStaleLoad) {
		st.Close()
		return nil, fmt.Errorf("load saved cities: %w", err)
	}

	a := &app{cfg: cfg, store: st, registry: reg, ctrl: ctrl}
	a.applyTheme(ctx)
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// applyTheme uses the configured theme, or the saved toggle when the
// config says auto.
func (a *app) applyTheme(ctx context.Context) {
	switch a.cfg.Theme {
	case "dark":
		ui.SetDarkTheme(true)
	case "light":
		ui.SetDarkTheme(false)
	default:
		dark, ok, err := a.store.LoadDarkTheme(ctx)
		if err != nil {
			log.Printf("THEME: could not read saved theme: %v", err)
			return
		}
		if ok {
			ui.SetDarkTheme(dark)
		}
	}
}

func printNotice(n session.Notice) {
	switch n.Level {
	case session.LevelError:
		if n.Err != nil {
			fmt.Println(ui.Redf("✗ %s: %v", n.Message, n.Err))
			return
		}
		fmt.Println(ui.Redf("✗ %s", n.Message))
	default:
		fmt.Println(ui.Greenf("✓ %s", n.Message))
	}
}
