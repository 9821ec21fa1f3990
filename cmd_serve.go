package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stockRatings/internal/score"
	"stockRatings/internal/server"
)

var (
	servePort int
	serveIn   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the flattened ratings over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		in := serveIn
		if in == "" {
			in = cfg.Files.Flattened
		}
		ratings, err := loadRatings(in)
		if err != nil {
			return err
		}

		var m *score.Model
		if cfg.Score.ModelPath != "" {
			if m, err = score.LoadModel(cfg.Score.ModelPath); err != nil {
				return err
			}
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := server.New(ratings, server.Options{
			PageSize:       cfg.Server.PageSize,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Model:          m,
		})
		return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveIn, "in", "", "flattened items file (default from config)")
	rootCmd.AddCommand(serveCmd)
}
