package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"movieguide/internal/core/logging"
	"movieguide/internal/core/metrics"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/sourcegraph/conc/pool"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"
	breakerName    = "tmdb"
)

// ErrNotConfigured dikembalikan ketika API key TMDB kosong.
var ErrNotConfigured = errors.New("tmdb: api key not configured")

// StatusError adalah respons non-2xx dari TMDB.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb %s returned non-200 status: %s", e.Endpoint, e.Status)
}

// NotFound melaporkan apakah TMDB menjawab 404.
func (e *StatusError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Client adalah klien untuk berinteraksi dengan TMDB API v3.
type Client struct {
	apiKey        string
	baseURL       string
	httpClient    *http.Client
	attempts      uint
	delay         time.Duration
	seasonWorkers int
	breaker       *gobreaker.CircuitBreaker[[]byte]
}

// Option mengubah konfigurasi Client.
type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRetry mengatur jumlah percobaan (minimal 1) dan jeda awal antar percobaan.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts < 1 {
			attempts = 1
		}
		c.attempts = uint(attempts)
		c.delay = delay
	}
}

func WithSeasonWorkers(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.seasonWorkers = n
		}
	}
}

// NewClient membuat instance baru dari TMDB Client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:        strings.TrimSpace(apiKey),
		baseURL:       DefaultBaseURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		attempts:      3,
		delay:         300 * time.Millisecond,
		seasonWorkers: 4,
	}
	for _, opt := range opts {
		opt(c)
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 4xx adalah jawaban valid dari TMDB, bukan tanda layanan sedang bermasalah.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return !retryableStatus(se.StatusCode)
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	return c
}

// Configured melaporkan apakah API key tersedia.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, v any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + query.Encode()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		var out []byte
		err := retry.Do(
			func() error {
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
				if err != nil {
					return retry.Unrecoverable(err)
				}
				req.Header.Set("Accept", "application/json")

				resp, err := c.httpClient.Do(req)
				if err != nil {
					return fmt.Errorf("failed to fetch %s: %w", endpoint, err)
				}
				defer resp.Body.Close()

				if resp.StatusCode != http.StatusOK {
					se := &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Status: resp.Status}
					if retryableStatus(resp.StatusCode) {
						return se
					}
					return retry.Unrecoverable(se)
				}

				b, err := io.ReadAll(resp.Body)
				if err != nil {
					return fmt.Errorf("failed to read %s response: %w", endpoint, err)
				}
				out = b
				return nil
			},
			retry.Context(ctx),
			retry.Attempts(c.attempts),
			retry.Delay(c.delay),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				logging.Ctx(ctx).Warn().Err(err).Str("endpoint", endpoint).Uint("attempt", n+1).Msg("tmdb request failed, retrying")
			}),
		)
		return out, err
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		metrics.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
		return err
	}
	metrics.UpstreamRequests.WithLabelValues(endpoint, "success").Inc()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// --- Structs untuk Parsing JSON Response ---

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type MovieDetails struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	Genres      []Genre `json:"genres"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	Runtime     int     `json:"runtime"`
	Status      string  `json:"status"`
	Tagline     string  `json:"tagline"`
}

type SeasonSummary struct {
	SeasonNumber int    `json:"season_number"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	EpisodeCount int    `json:"episode_count"`
	AirDate      string `json:"air_date"`
}

type ShowDetails struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Overview         string          `json:"overview"`
	Genres           []Genre         `json:"genres"`
	NumberOfEpisodes int             `json:"number_of_episodes"`
	NumberOfSeasons  int             `json:"number_of_seasons"`
	PosterPath       string          `json:"poster_path"`
	Status           string          `json:"status"`
	Tagline          string          `json:"tagline"`
	EpisodeRunTime   []int           `json:"episode_run_time"`
	Seasons          []SeasonSummary `json:"seasons"`
}

type EpisodeDetails struct {
	EpisodeNumber int    `json:"episode_number"`
	Name          string `json:"name"`
	Overview      string `json:"overview"`
	Runtime       int    `json:"runtime"`
}

type SeasonDetails struct {
	SeasonNumber int              `json:"season_number"`
	Name         string           `json:"name"`
	Overview     string           `json:"overview"`
	AirDate      string           `json:"air_date"`
	Episodes     []EpisodeDetails `json:"episodes"`
}

type SearchItem struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   *string `json:"poster_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
}

type SearchResponse struct {
	Page         int          `json:"page"`
	Results      []SearchItem `json:"results"`
	TotalResults int          `json:"total_results"`
}

// GenreNames mengembalikan nama genre berurutan; tidak pernah nil.
func GenreNames(genres []Genre) []string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return names
}

// MovieDetails mengambil detail satu film.
func (c *Client) MovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error) {
	var movie MovieDetails
	if err := c.get(ctx, "movie", "/movie/"+strconv.FormatInt(movieID, 10), nil, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// ShowDetails mengambil detail satu show tanpa daftar episode.
func (c *Client) ShowDetails(ctx context.Context, showID int64) (*ShowDetails, error) {
	var show ShowDetails
	if err := c.get(ctx, "tv", "/tv/"+strconv.FormatInt(showID, 10), nil, &show); err != nil {
		return nil, err
	}
	return &show, nil
}

// SeasonDetails mengambil satu season beserta episodenya.
func (c *Client) SeasonDetails(ctx context.Context, showID int64, seasonNumber int) (*SeasonDetails, error) {
	var season SeasonDetails
	path := fmt.Sprintf("/tv/%d/season/%d", showID, seasonNumber)
	if err := c.get(ctx, "season", path, nil, &season); err != nil {
		return nil, err
	}
	return &season, nil
}

// ShowWithSeasons mengambil show lalu semua season-nya secara paralel (terbatas).
// Hasil season diurutkan berdasarkan nomor season.
func (c *Client) ShowWithSeasons(ctx context.Context, showID int64) (*ShowDetails, []SeasonDetails, error) {
	show, err := c.ShowDetails(ctx, showID)
	if err != nil {
		return nil, nil, err
	}

	p := pool.NewWithResults[SeasonDetails]().
		WithContext(ctx).
		WithMaxGoroutines(c.seasonWorkers).
		WithCancelOnError()
	for _, s := range show.Seasons {
		number := s.SeasonNumber
		p.Go(func(ctx context.Context) (SeasonDetails, error) {
			season, err := c.SeasonDetails(ctx, showID, number)
			if err != nil {
				return SeasonDetails{}, err
			}
			return *season, nil
		})
	}
	seasons, err := p.Wait()
	if err != nil {
		return nil, nil, err
	}
	sort.Slice(seasons, func(i, j int) bool { return seasons[i].SeasonNumber < seasons[j].SeasonNumber })
	return show, seasons, nil
}

// Search mencari film ("movie") atau show (selain itu) pada halaman pertama.
func (c *Client) Search(ctx context.Context, query, mediaType string) (*SearchResponse, error) {
	path := "/search/tv"
	if mediaType == "movie" {
		path = "/search/movie"
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", "1")

	var resp SearchResponse
	if err := c.get(ctx, "search", path, q, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []SearchItem{}
	}
	return &resp, nil
}
