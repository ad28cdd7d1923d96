package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tunogya/rally/pkg/model"
)

// APIProvider implements ResultProvider over a paginated esports results API.
// Every game yields two results, one per side: 1 for the winner, 0 otherwise.
type APIProvider struct {
	config     FetchConfig
	httpClient *http.Client
	onProgress ProgressCallback
}

// NewAPIProvider creates a new API-backed result provider
func NewAPIProvider(cfg FetchConfig, onProgress ProgressCallback) *APIProvider {
	if cfg.PerPage <= 0 {
		cfg.PerPage = 100
	}
	return &APIProvider{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		onProgress: onProgress,
	}
}

type gamesPage struct {
	Games    []apiGame `json:"games"`
	Page     int       `json:"page"`
	PerPage  int       `json:"perPage"`
	PageSize int       `json:"pageSize"`
}

type apiGame struct {
	ID     string    `json:"_id"`
	Date   time.Time `json:"date"`
	Blue   apiSide   `json:"blue"`
	Orange apiSide   `json:"orange"`
}

type apiSide struct {
	Winner bool `json:"winner"`
	Team   struct {
		Team struct {
			ID   string `json:"_id"`
			Name string `json:"name"`
		} `json:"team"`
	} `json:"team"`
}

// FetchResults pages through /games until a page comes back short
func (p *APIProvider) FetchResults(ctx context.Context, series string, start, end time.Time) ([]model.Result, error) {
	params := url.Values{}
	if !start.IsZero() {
		params.Set("after", start.UTC().Format(time.RFC3339))
	}
	if !end.IsZero() {
		params.Set("before", end.UTC().Format(time.RFC3339))
	}
	params.Set("perPage", strconv.Itoa(p.config.PerPage))

	var results []model.Result
	for page := 1; ; page++ {
		params.Set("page", strconv.Itoa(page))

		var body gamesPage
		if err := p.getWithRetry(ctx, "/games", params, &body); err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}

		for _, g := range body.Games {
			results = append(results, gameResults(series, g)...)
		}

		if p.onProgress != nil {
			p.onProgress(FetchProgress{Page: page, Results: len(results)})
		}

		if body.PageSize < p.config.PerPage {
			break
		}
	}

	return filterResults(results, series, start, zeroAsFuture(end)), nil
}

func zeroAsFuture(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().AddDate(100, 0, 0)
	}
	return t
}

func gameResults(series string, g apiGame) []model.Result {
	var out []model.Result
	for _, side := range []apiSide{g.Blue, g.Orange} {
		entity := side.Team.Team.ID
		if entity == "" {
			continue
		}
		outcome := 0.0
		if side.Winner {
			outcome = 1.0
		}
		out = append(out, model.Result{
			Series:   series,
			GameID:   g.ID,
			Entity:   entity,
			Outcome:  outcome,
			PlayedAt: g.Date,
		})
	}
	return out
}

func (p *APIProvider) getWithRetry(ctx context.Context, path string, params url.Values, v any) error {
	attempts := max(1, p.config.RetryAttempts)

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.config.RetryDelay):
			}
		}

		lastErr = p.get(ctx, path, params, v)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (p *APIProvider) get(ctx context.Context, path string, params url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch data: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}
