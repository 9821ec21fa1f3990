package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"stockRatings/internal/format"
	"stockRatings/internal/score"
)

var (
	recommendIn    string
	recommendModel string
	recommendN     int
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank ratings with the k-means model and print the best ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := recommendIn
		if in == "" {
			in = cfg.Files.Flattened
		}
		path := recommendModel
		if path == "" {
			path = cfg.Score.ModelPath
		}
		if path == "" {
			return eris.New("no model: set --model or score.model_path")
		}

		m, err := score.LoadModel(path)
		if err != nil {
			return err
		}
		ratings, err := loadRatings(in)
		if err != nil {
			return err
		}
		recs := m.Recommend(ratings, time.Now(), recommendN)
		if len(recs) == 0 {
			return eris.New("no rating could be scored")
		}
		renderRecommendations(cmd.OutOrStdout(), recs)
		return nil
	},
}

func renderRecommendations(w io.Writer, recs []score.Recommendation) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Ticker", "Company", "Target From", "Target To", "Delta", "Rating To", "Cluster", "Cluster Gain"})
	for i, rec := range recs {
		r := rec.Rating
		from, to := r.TargetFrom.Float(), r.TargetTo.Float()
		t.AppendRow(table.Row{
			i + 1,
			r.Ticker,
			r.Company,
			format.AsMoney(from),
			format.AsMoney(to),
			format.Delta(from, to),
			r.RatingTo,
			rec.Cluster,
			fmt.Sprintf("%.1f%%", rec.ClusterGain),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func init() {
	recommendCmd.Flags().StringVar(&recommendIn, "in", "", "flattened items file (default from config)")
	recommendCmd.Flags().StringVar(&recommendModel, "model", "", "k-means model file (default from config)")
	recommendCmd.Flags().IntVarP(&recommendN, "count", "n", 1, "number of ratings to show")
	rootCmd.AddCommand(recommendCmd)
}
