// Package server exposes the flattened ratings over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"stockRatings/internal/filter"
	"stockRatings/internal/model"
	"stockRatings/internal/query"
	"stockRatings/internal/score"
)

const (
	defaultRecommendations = 1
	maxPageSize            = 100
	shutdownTimeout        = 5 * time.Second
	readHeaderTimeout      = 10 * time.Second
)

// Options configures the handler.
type Options struct {
	PageSize       int
	AllowedOrigins []string
	Model          *score.Model
	Now            func() time.Time
}

type Server struct {
	ratings []model.StockRating
	opts    Options
}

func New(ratings []model.StockRating, opts Options) *Server {
	if opts.PageSize <= 0 || opts.PageSize > maxPageSize {
		opts.PageSize = query.DefaultPageSize
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{ratings: ratings, opts: opts}
}

// Handler returns the router with CORS applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/stocks", s.handleStocks)
	r.Get("/recommendation", s.handleRecommendation)
	return r
}

// handleStocks serves ?offset=&sortby=&asc=&query=, offset being a page index.
// action= and brokerage= take comma-separated or repeated values; direction= is
// up or down; raised=true keeps raised targets only.
func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset := 0
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			zap.L().Warn("server: invalid offset, using 0", zap.String("offset", v))
		} else {
			offset = n
		}
	}
	page, err := query.Run(s.ratings, query.Params{
		Offset:    offset,
		PageSize:  s.opts.PageSize,
		SortBy:    q.Get("sortby"),
		Ascending: q.Get("asc") == "true",
		Query:     q.Get("query"),

		Actions:    listParam(q["action"]),
		Brokerages: listParam(q["brokerage"]),
		Direction:  q.Get("direction"),
		Raised:     q.Get("raised") == "true",
	})
	if errors.Is(err, query.ErrUnknownColumn) || errors.Is(err, filter.ErrUnknownDirection) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, page.Items)
}

// listParam splits every value on commas and drops blanks.
func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	if s.opts.Model == nil {
		writeError(w, http.StatusServiceUnavailable, eris.New("no scoring model configured"))
		return
	}
	n := defaultRecommendations
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, eris.Errorf("invalid n %q", v))
			return
		}
		n = parsed
	}
	recs := s.opts.Model.Recommend(s.ratings, s.opts.Now(), n)
	if len(recs) == 0 {
		writeError(w, http.StatusNotFound, eris.New("no rating could be scored"))
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	zap.L().Info("starting server", zap.String("addr", addr), zap.Int("ratings", len(s.ratings)))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
