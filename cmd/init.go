package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/agent-platform/worldclock/internal/config"
	"github.com/agent-platform/worldclock/internal/store"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize worldclock configuration",
	Long: `Creates the configuration directory and default config file at ~/.worldclock/config.yaml.

If the settings database already holds saved cards, they become the config's
'defaults', the cities shown whenever nothing valid is saved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			var err error
			path, err = config.DefaultConfigPath()
			if err != nil {
				return fmt.Errorf("determine config path: %w", err)
			}
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		// If config already exists, merge with defaults to pick up new keys
		if _, err := os.Stat(path); err == nil {
			cfg, loadErr := config.Load(path)
			if loadErr != nil {
				return fmt.Errorf("load existing config: %w", loadErr)
			}
			seeded, err := seedDefaults(ctx, cfg)
			if err != nil {
				return err
			}
			if err := config.SaveWithComments(path, cfg); err != nil {
				return fmt.Errorf("update config: %w", err)
			}
			fmt.Printf("Configuration updated at %s (merged new defaults)\n", path)
			printSeeded(seeded)
			return nil
		}

		cfg := config.DefaultConfig()
		seeded, err := seedDefaults(ctx, &cfg)
		if err != nil {
			return err
		}
		if err := config.SaveWithComments(path, &cfg); err != nil {
			return fmt.Errorf("create config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", path)
		printSeeded(seeded)
		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Println("  1. Pick the cities shown on first run under 'defaults':")
		fmt.Printf("     %s\n", path)
		fmt.Println()
		fmt.Println("  2. Show the cards:")
		fmt.Println("     worldclock show")
		fmt.Println()
		fmt.Println("  3. Move every card to a time in one city:")
		fmt.Println("     worldclock set \"New York\" 09:30")

		return nil
	},
}

// seedDefaults copies the saved card order into cfg.Defaults and returns
// how many cities it copied. A missing database or one with nothing usable
// saved leaves cfg alone.
func seedDefaults(ctx context.Context, cfg *config.Config) (int, error) {
	if _, err := os.Stat(cfg.Database); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("check database: %w", err)
	}

	st, err := store.New(cfg.Database)
	if err != nil {
		return 0, fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	names, err := st.LoadCities(ctx)
	if errors.Is(err, store.ErrNoSavedState) || errors.Is(err, store.ErrMalformed) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read saved cities: %w", err)
	}
	cfg.Defaults = names
	return len(names), nil
}

func printSeeded(n int) {
	if n > 0 {
		fmt.Printf("Defaults seeded from %d saved cities\n", n)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
}
