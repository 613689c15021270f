package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithBaseURL(srv.URL), WithRetry(1, time.Millisecond)}, opts...)
	return NewClient("test-key", opts...)
}

func TestClientNotConfigured(t *testing.T) {
	c := NewClient("   ")
	if c.Configured() {
		t.Fatal("client with blank key should not be configured")
	}
	if _, err := c.MovieDetails(context.Background(), 550); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestMovieDetails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/550" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "test-key" {
			t.Errorf("api_key not sent")
		}
		w.Write([]byte(`{"id":550,"title":"Fight Club","runtime":139,"tagline":null,"poster_path":"/p.jpg","genres":[{"id":18,"name":"Drama"}]}`))
	})

	movie, err := c.MovieDetails(context.Background(), 550)
	if err != nil {
		t.Fatalf("MovieDetails failed: %v", err)
	}
	if movie.Title != "Fight Club" || movie.Runtime != 139 || movie.Tagline != "" {
		t.Fatalf("unexpected movie: %+v", movie)
	}
	if got := GenreNames(movie.Genres); len(got) != 1 || got[0] != "Drama" {
		t.Fatalf("unexpected genres: %v", got)
	}
}

func TestNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"status_code":34}`, http.StatusNotFound)
	}, WithRetry(3, time.Millisecond))

	_, err := c.MovieDetails(context.Background(), 999999)
	var se *StatusError
	if !errors.As(err, &se) || !se.NotFound() {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected 1 call, got %d", n)
	}
}

func TestServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id":1,"name":"Show"}`))
	}, WithRetry(3, time.Millisecond))

	show, err := c.ShowDetails(context.Background(), 1)
	if err != nil {
		t.Fatalf("ShowDetails failed after retries: %v", err)
	}
	if show.Name != "Show" || calls.Load() != 3 {
		t.Fatalf("unexpected result %+v after %d calls", show, calls.Load())
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		if _, err := c.MovieDetails(context.Background(), 1); err == nil {
			t.Fatal("expected error")
		}
	}
	_, err := c.MovieDetails(context.Background(), 1)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if n := calls.Load(); n != 5 {
		t.Fatalf("expected 5 upstream calls, got %d", n)
	}
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	for i := 0; i < 10; i++ {
		_, err := c.MovieDetails(context.Background(), 1)
		if errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("breaker opened on 404 at call %d", i)
		}
	}
}

func TestShowWithSeasonsSorted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tv/1396":
			w.Write([]byte(`{"id":1396,"name":"Breaking Bad","seasons":[{"season_number":2},{"season_number":0},{"season_number":1}]}`))
		case "/tv/1396/season/0":
			w.Write([]byte(`{"season_number":0,"name":"Specials","episodes":[]}`))
		case "/tv/1396/season/1":
			w.Write([]byte(`{"season_number":1,"episodes":[{"episode_number":1,"runtime":58},{"episode_number":2,"runtime":48}]}`))
		case "/tv/1396/season/2":
			w.Write([]byte(`{"season_number":2,"episodes":[{"episode_number":1,"runtime":47}]}`))
		default:
			http.NotFound(w, r)
		}
	}, WithSeasonWorkers(2))

	show, seasons, err := c.ShowWithSeasons(context.Background(), 1396)
	if err != nil {
		t.Fatalf("ShowWithSeasons failed: %v", err)
	}
	if show.Name != "Breaking Bad" || len(seasons) != 3 {
		t.Fatalf("unexpected show %+v seasons %d", show, len(seasons))
	}
	for i, s := range seasons {
		if s.SeasonNumber != i {
			t.Fatalf("seasons not sorted: %v", seasons)
		}
	}
	if len(seasons[1].Episodes) != 2 || seasons[1].Episodes[0].Runtime != 58 {
		t.Fatalf("unexpected season 1: %+v", seasons[1])
	}
}

func TestShowWithSeasonsFailsOnSeasonError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tv/7" {
			w.Write([]byte(`{"id":7,"seasons":[{"season_number":1}]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	if _, _, err := c.ShowWithSeasons(context.Background(), 7); err == nil {
		t.Fatal("expected error when a season cannot be fetched")
	}
}

func TestSearchPaths(t *testing.T) {
	var lastPath, lastQuery atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		lastPath.Store(r.URL.Path)
		lastQuery.Store(r.URL.Query().Get("query"))
		w.Write([]byte(`{"page":1,"total_results":1,"results":[{"id":550,"title":"Fight Club","poster_path":null,"vote_average":8.4}]}`))
	})

	resp, err := c.Search(context.Background(), "fight club", "movie")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if lastPath.Load() != "/search/movie" || lastQuery.Load() != "fight club" {
		t.Fatalf("unexpected request %v %v", lastPath.Load(), lastQuery.Load())
	}
	if resp.TotalResults != 1 || resp.Results[0].PosterPath != nil {
		t.Fatalf("unexpected response %+v", resp)
	}

	if _, err := c.Search(context.Background(), "bad", "show"); err != nil {
		t.Fatalf("Search show failed: %v", err)
	}
	if !strings.HasSuffix(lastPath.Load().(string), "/search/tv") {
		t.Fatalf("expected tv search, got %v", lastPath.Load())
	}
}

func TestSearchEmptyResultsNeverNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page":1,"total_results":0}`))
	})
	resp, err := c.Search(context.Background(), "zzz", "movie")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if resp.Results == nil {
		t.Fatal("results should be an empty slice")
	}
}
