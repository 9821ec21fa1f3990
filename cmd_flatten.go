package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"stockRatings/internal/flatten"
)

var (
	flattenIn        string
	flattenOut       string
	flattenNormalize bool
)

type flattenSettings struct {
	In        string
	Out       string
	Normalize bool
}

func currentFlattenSettings(cmd *cobra.Command) flattenSettings {
	s := flattenSettings{
		In:        cfg.Files.Raw,
		Out:       cfg.Files.Flattened,
		Normalize: cfg.Flatten.NormalizeMoney,
	}
	if flattenIn != "" {
		s.In = flattenIn
	}
	if flattenOut != "" {
		s.Out = flattenOut
	}
	if cmd.Flags().Changed("normalize") {
		s.Normalize = flattenNormalize
	}
	return s
}

var flattenCmd = &cobra.Command{
	Use:   "flatten",
	Short: "Flatten the raw pages file into a single items file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), flattenTimeout)
		defer cancel()
		_, err := runFlatten(ctx, cmd.OutOrStdout(), currentFlattenSettings(cmd))
		return err
	},
}

func runFlatten(ctx context.Context, w io.Writer, s flattenSettings) (flatten.Result, error) {
	res, err := flatten.File(ctx, s.In, s.Out, flatten.Options{NormalizeMoney: s.Normalize})
	if err != nil {
		return res, err
	}
	fmt.Fprintln(w, "Successfully formatted data")
	fmt.Fprintf(w, "  - Input: %s\n", s.In)
	fmt.Fprintf(w, "  - Output: %s\n", s.Out)
	fmt.Fprintf(w, "  - Total items extracted: %d\n", res.Items)
	return res, nil
}

func init() {
	flattenCmd.Flags().StringVar(&flattenIn, "in", "", "raw pages file (default from config)")
	flattenCmd.Flags().StringVar(&flattenOut, "out", "", "flattened items file (default from config)")
	flattenCmd.Flags().BoolVar(&flattenNormalize, "normalize", true, "rewrite currency strings in target_from/target_to as numbers")
	rootCmd.AddCommand(flattenCmd)
}
