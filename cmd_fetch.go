package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stockRatings/internal/api"
	"stockRatings/internal/prompt"
)

var (
	fetchToken string
	fetchURL   string
	fetchOut   string
)

// fetchSettings is the merged flag and config view used by fetch and run.
type fetchSettings struct {
	Token             string
	BaseURL           string
	Out               string
	Timeout           time.Duration
	RequestsPerSecond float64
}

func currentFetchSettings() fetchSettings {
	s := fetchSettings{
		Token:             cfg.API.Token,
		BaseURL:           cfg.API.BaseURL,
		Out:               cfg.Files.Raw,
		Timeout:           time.Duration(cfg.API.TimeoutSecs) * time.Second,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
	}
	if fetchToken != "" {
		s.Token = fetchToken
	}
	if fetchURL != "" {
		s.BaseURL = fetchURL
	}
	if fetchOut != "" {
		s.Out = fetchOut
	}
	return s
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch every ratings page into the raw pages file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), fetchTimeout)
		defer cancel()
		_, err := runFetch(ctx, cmd.OutOrStdout(), cmd.InOrStdin(), currentFetchSettings())
		return err
	},
}

// runFetch prompts for a token when none is set, then walks every page into s.Out.
// A blank token counts as unset. It returns the number of pages written.
func runFetch(ctx context.Context, w io.Writer, r io.Reader, s fetchSettings) (int, error) {
	s.Token = strings.TrimSpace(s.Token)
	if s.Token == "" {
		t, err := prompt.Token(w, r)
		if err != nil {
			return 0, err
		}
		s.Token = t
	}

	fmt.Fprintf(w, "Fetching data from: %s\n", s.BaseURL)
	fmt.Fprintf(w, "Writing results to: %s\n", s.Out)

	client := api.NewClient(api.Options{
		BaseURL:           s.BaseURL,
		Token:             s.Token,
		Timeout:           s.Timeout,
		RequestsPerSecond: s.RequestsPerSecond,
	})
	pages, err := client.FetchAllPages(ctx, s.Out)
	if err != nil {
		return 0, err
	}

	fmt.Fprintf(w, "Successfully fetched %d pages\n", len(pages))
	return len(pages), nil
}

func init() {
	fetchCmd.Flags().StringVar(&fetchToken, "token", "", "bearer token (default from config, else prompted)")
	fetchCmd.Flags().StringVar(&fetchURL, "url", "", "ratings endpoint (default from config)")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "raw pages file (default from config)")
	rootCmd.AddCommand(fetchCmd)
}
