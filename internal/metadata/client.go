package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"github.com/JustinTDCT/CineList/internal/config"
)

const maxResponseBytes = 4 << 20

var (
	ErrNotFound      = errors.New("not found on TMDB")
	ErrNotConfigured = errors.New("TMDB API key not configured")
	ErrEmptyQuery    = errors.New("search query is empty")
)

// APIError is a non-404 error status from TMDB.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("TMDB returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("TMDB returned status %d: %s", e.StatusCode, e.Message)
}

// Client calls the TMDB v3 API. Requests share one token bucket and go
// through the response cache.
type Client struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	httpClient   *http.Client
	limiter      *rate.Limiter
	cache        Cache
}

// NewClient builds a TMDB client from cfg. A nil cache disables caching.
func NewClient(cfg *config.Config, cache Cache) *Client {
	if cache == nil {
		cache = noopCache{}
	}
	burst := int(cfg.TMDBRateLimit)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.TMDBBaseURL, "/"),
		imageBaseURL: strings.TrimRight(cfg.TMDBImageBaseURL, "/"),
		apiKey:       cfg.TMDBAPIKey,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		limiter:      rate.NewLimiter(rate.Limit(cfg.TMDBRateLimit), burst),
		cache:        cache,
	}
}

// Popular returns TMDB's popular movies, the search screen's default list.
func (c *Client) Popular(ctx context.Context, page int) (*Page, error) {
	q := url.Values{}
	q.Set("language", "en-US")
	q.Set("page", strconv.Itoa(normalizePage(page)))
	return c.page(ctx, "/movie/popular", q)
}

// Search looks up movies by title and ranks them by title similarity.
func (c *Client) Search(ctx context.Context, query string, page int) (*Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("include_adult", "false")
	q.Set("page", strconv.Itoa(normalizePage(page)))
	p, err := c.page(ctx, "/search/movie", q)
	if err != nil {
		return nil, err
	}
	rankByTitle(query, p.Results)
	return p, nil
}

// Discover lists movies in one genre.
func (c *Client) Discover(ctx context.Context, genreID, page int) (*Page, error) {
	q := url.Values{}
	q.Set("with_genres", strconv.Itoa(genreID))
	q.Set("language", "en-US")
	q.Set("page", strconv.Itoa(normalizePage(page)))
	return c.page(ctx, "/discover/movie", q)
}

// Details fetches a single movie.
func (c *Client) Details(ctx context.Context, id int) (*Movie, error) {
	q := url.Values{}
	q.Set("language", "en-US")
	var m Movie
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), q, &m); err != nil {
		return nil, err
	}
	c.decorate(&m)
	return &m, nil
}

// HomeCategories fetches the first page of every genre rail concurrently.
// Rails come back in the order of genreIDs; any failure fails the whole call.
func (c *Client) HomeCategories(ctx context.Context, genreIDs []int) ([]Category, error) {
	categories := make([]Category, len(genreIDs))
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError().WithMaxGoroutines(4)
	for i, genreID := range genreIDs {
		i, genreID := i, genreID
		p.Go(func(ctx context.Context) error {
			page, err := c.Discover(ctx, genreID, 1)
			if err != nil {
				return fmt.Errorf("genre %d: %w", genreID, err)
			}
			categories[i] = Category{
				GenreID: genreID,
				Title:   CategoryTitle(genreID),
				Movies:  page.Results,
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) page(ctx context.Context, path string, q url.Values) (*Page, error) {
	var p Page
	if err := c.get(ctx, path, q, &p); err != nil {
		return nil, err
	}
	if p.Results == nil {
		p.Results = []Movie{}
	}
	for i := range p.Results {
		c.decorate(&p.Results[i])
	}
	return &p, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst interface{}) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	key := cacheKey(path, q)
	if body, ok := c.cache.Get(ctx, key); ok {
		if err := json.Unmarshal(body, dst); err == nil {
			return nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	withKey := url.Values{}
	for k, v := range q {
		withKey[k] = v
	}
	withKey.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+withKey.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("TMDB request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("TMDB read %s: %w", path, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			StatusMessage string `json:"status_message"`
		}
		json.Unmarshal(body, &e)
		return &APIError{StatusCode: resp.StatusCode, Message: e.StatusMessage}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("TMDB decode %s: %w", path, err)
	}
	c.cache.Set(ctx, key, body)
	return nil
}

// decorate fills in the poster URL and genre names TMDB leaves out of list results.
func (c *Client) decorate(m *Movie) {
	if m.PosterPath != "" {
		m.PosterURL = c.imageBaseURL + m.PosterPath
	}
	if len(m.Genres) == 0 {
		for _, gid := range m.GenreIDs {
			if name, ok := tmdbGenreMap[gid]; ok {
				m.Genres = append(m.Genres, Genre{ID: gid, Name: name})
			}
		}
	}
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
