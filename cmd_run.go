package main

import (
	"context"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch then flatten in one step",
	RunE: func(cmd *cobra.Command, args []string) error {
		fetchCtx, cancel := context.WithTimeout(cmd.Context(), fetchTimeout)
		defer cancel()
		fs := currentFetchSettings()
		if _, err := runFetch(fetchCtx, cmd.OutOrStdout(), cmd.InOrStdin(), fs); err != nil {
			return err
		}

		fl := currentFlattenSettings(cmd)
		fl.In = fs.Out
		flattenCtx, cancelFlatten := context.WithTimeout(cmd.Context(), flattenTimeout)
		defer cancelFlatten()
		_, err := runFlatten(flattenCtx, cmd.OutOrStdout(), fl)
		return err
	},
}

func init() {
	runCmd.Flags().StringVar(&fetchToken, "token", "", "bearer token (default from config, else prompted)")
	runCmd.Flags().StringVar(&fetchURL, "url", "", "ratings endpoint (default from config)")
	runCmd.Flags().StringVar(&fetchOut, "raw", "", "raw pages file (default from config)")
	runCmd.Flags().StringVar(&flattenOut, "out", "", "flattened items file (default from config)")
	runCmd.Flags().BoolVar(&flattenNormalize, "normalize", true, "rewrite currency strings in target_from/target_to as numbers")
	rootCmd.AddCommand(runCmd)
}
