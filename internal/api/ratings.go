// Package api fetches stock ratings from the cursor-paginated list endpoint and
// persists each page as it arrives.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"stockRatings/internal/model"
	"stockRatings/internal/pagefile"
	"stockRatings/internal/trace"
)

// Request shape
const (
	queryNextPage   = "next_page"
	headerAuth      = "Authorization"
	headerType      = "Content-Type"
	bearerPrefix    = "Bearer "
	jsonContentType = "application/json"
	firstCursor     = "0"
)

const maxRespLogLen = 1200

// StatusError reports a non-success HTTP status for one page request.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d from %s", e.StatusCode, e.URL)
}

// Options configures a Client. Zero values mean transport defaults and no pacing.
type Options struct {
	BaseURL           string
	Token             string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

type Client struct {
	HTTPClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
}

func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	c := &Client{
		HTTPClient: hc,
		baseURL:    opts.BaseURL,
		token:      opts.Token,
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c
}

// PageURL builds the request URL; an empty cursor leaves next_page off.
func (c *Client) PageURL(cursor string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", eris.Wrapf(err, "api: parse base url %q", c.baseURL)
	}
	if cursor != "" {
		q := u.Query()
		q.Set(queryNextPage, cursor)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// FetchPage requests one page. A non-2xx status returns a *StatusError.
func (c *Client) FetchPage(ctx context.Context, cursor string) (model.PageEnvelope, error) {
	if c == nil {
		return model.PageEnvelope{}, eris.New("api: client is nil")
	}
	reqURL, err := c.PageURL(cursor)
	if err != nil {
		return model.PageEnvelope{}, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return model.PageEnvelope{}, eris.Wrap(err, "api: rate limiter wait")
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.PageEnvelope{}, eris.Wrap(err, "api: create request")
	}
	req.Header.Set(headerAuth, bearerPrefix+c.token)
	req.Header.Set(headerType, jsonContentType)

	log := trace.L(ctx)
	log.Debug("api: request", zap.String("url", reqURL))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return model.PageEnvelope{}, eris.Wrap(err, "api: request page")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.PageEnvelope{}, eris.Wrap(err, "api: read body")
	}
	log.Debug("api: response",
		zap.Int("status", resp.StatusCode),
		zap.Int("len", len(body)),
		zap.String("body", truncateForLog(body)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.PageEnvelope{}, eris.Wrap(&StatusError{
			StatusCode: resp.StatusCode,
			URL:        reqURL,
			Body:       truncateForLog(body),
		}, "api: fetch page")
	}
	env, err := model.ParseEnvelope(body)
	if err != nil {
		return model.PageEnvelope{}, eris.Wrap(err, "api: decode page")
	}
	return env, nil
}

// FetchAllPages follows next_page from the first page until a page has no cursor,
// appending every page to path as it arrives. Any request, status, decode or write
// failure ends the run: it is logged, the file is closed as valid JSON, and the pages
// collected so far are returned. Only failing to create path is returned as an error.
func (c *Client) FetchAllPages(ctx context.Context, path string) ([]model.PageEnvelope, error) {
	ctx = trace.Start(ctx)
	log := trace.L(ctx)

	out, err := pagefile.Create(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			log.Error("api: close output", zap.String("path", path), zap.Error(cerr))
		}
	}()

	var pages []model.PageEnvelope
	cursor := ""
	for {
		shown := cursor
		if shown == "" {
			shown = firstCursor
		}
		log.Info("Requesting page", zap.String("cursor", shown), zap.Int("fetched", len(pages)))

		env, err := c.FetchPage(ctx, cursor)
		if err != nil {
			log.Error("api: pagination stopped",
				zap.String("cursor", shown),
				zap.Int("fetched", len(pages)),
				zap.Int("written", out.Count()),
				zap.Error(err),
			)
			return pages, nil
		}
		if err := out.Append(env.Raw); err != nil {
			log.Error("api: persist page",
				zap.String("path", path),
				zap.Int("written", out.Count()),
				zap.Error(err),
			)
			return pages, nil
		}
		pages = append(pages, env)

		if !env.HasNext {
			break
		}
		cursor = env.NextPage
	}
	log.Info("api: pagination complete",
		zap.Int("pages", len(pages)),
		zap.Int("written", out.Count()),
		zap.String("path", path),
	)
	return pages, nil
}

func truncateForLog(b []byte) string {
	s := string(b)
	if len(b) > maxRespLogLen {
		s = s[:maxRespLogLen] + "..."
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r", " "), "\n", " ")
}
