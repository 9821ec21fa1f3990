// Package main is the stockratings CLI: fetch rating pages from the paginated API,
// flatten them into one item list, and browse, serve or rank the result.
package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stockRatings/internal/config"
)

// Run limits
const (
	fetchTimeout   = 30 * time.Minute
	flattenTimeout = 5 * time.Minute
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "stockratings",
	Short:        "Fetch, flatten and browse analyst stock ratings",
	Long:         "Walks the cursor-paginated ratings API into a raw pages file, flattens the pages into one item list, and lists, serves or ranks the items.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		zap.L().Error("command failed", zap.Error(err))
		_ = zap.L().Sync()
		os.Exit(1)
	}
}
