package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cscrape/internal/config"
	"cscrape/internal/storage"
)

// CacheCommand reports on or clears the scrape cache
type CacheCommand struct {
	config *config.Config
}

// NewCacheCommand creates a new CacheCommand
func NewCacheCommand(cfg *config.Config) *CacheCommand {
	return &CacheCommand{config: cfg}
}

// Execute runs the command
func (cc *CacheCommand) Execute(cmd *cobra.Command, args []string) error {
	path := cc.config.GetScrapeCachePath()
	cache, err := storage.OpenScrapeCache(path)
	if err != nil {
		return err
	}

	if cc.config.Flags.ClearCache {
		if err := cache.Clear(); err != nil {
			return fmt.Errorf("clear scrape cache: %w", err)
		}
		color.Green("✓ Cleared %s", path)
		return nil
	}

	keys, err := cache.Keys()
	if err != nil {
		return err
	}
	color.Cyan("%s: %d snapshot(s)", path, len(keys))
	for _, k := range keys {
		fmt.Fprintln(cmd.OutOrStdout(), k)
	}
	return nil
}
