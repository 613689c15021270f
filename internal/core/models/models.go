package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// User merepresentasikan tabel 'users'
type User struct {
	ID        string    `db:"user_id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Password  string    `db:"password" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Session merepresentasikan tabel 'sessions'
type Session struct {
	Token     string    `db:"token" json:"token"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}

// Expired melaporkan apakah session sudah kedaluwarsa pada waktu now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// StringList disimpan sebagai array JSON di satu kolom teks.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("models: cannot scan %T into StringList", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("models: decode string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// Movie merepresentasikan tabel 'movies'. ID sama dengan ID numerik TMDB.
type Movie struct {
	ID          int64      `db:"movie_id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Overview    string     `db:"overview" json:"overview"`
	Genres      StringList `db:"genres" json:"genres"`
	ReleaseDate string     `db:"release_date" json:"release_date"`
	PosterPath  string     `db:"poster_path" json:"poster_path"`
	Runtime     int        `db:"runtime" json:"runtime"`
	Status      string     `db:"status" json:"status"`
	Tagline     string     `db:"tagline" json:"tagline"`
}

// Show merepresentasikan tabel 'shows' beserta season-nya.
type Show struct {
	ID               int64      `db:"show_id" json:"id"`
	Name             string     `db:"name" json:"name"`
	Overview         string     `db:"overview" json:"overview"`
	Genres           StringList `db:"genres" json:"genres"`
	NumberOfEpisodes int        `db:"number_of_episodes" json:"number_of_episodes"`
	NumberOfSeasons  int        `db:"number_of_seasons" json:"number_of_seasons"`
	PosterPath       string     `db:"poster_path" json:"poster_path"`
	Status           string     `db:"status" json:"status"`
	Tagline          string     `db:"tagline" json:"tagline"`
	Seasons          []Season   `db:"-" json:"seasons"`
}

// Season merepresentasikan tabel 'seasons'
type Season struct {
	ShowID       int64     `db:"show_id" json:"-"`
	SeasonNumber int       `db:"season_number" json:"season_number"`
	Name         string    `db:"name" json:"name"`
	Overview     string    `db:"overview" json:"overview"`
	EpisodeCount int       `db:"episode_count" json:"episode_count"`
	AirDate      string    `db:"air_date" json:"air_date"`
	Episodes     []Episode `db:"-" json:"episodes"`
}

// Episode merepresentasikan tabel 'episodes'. Watched hanya diisi di jalur baca.
type Episode struct {
	ShowID        int64  `db:"show_id" json:"-"`
	SeasonNumber  int    `db:"season_number" json:"-"`
	EpisodeNumber int    `db:"episode_number" json:"episode_number"`
	Name          string `db:"name" json:"name"`
	Overview      string `db:"overview" json:"overview"`
	Runtime       int    `db:"runtime" json:"runtime"`
	Watched       bool   `db:"-" json:"watched"`
}

// Season mencari season berdasarkan nomornya.
func (s *Show) Season(number int) (*Season, bool) {
	for i := range s.Seasons {
		if s.Seasons[i].SeasonNumber == number {
			return &s.Seasons[i], true
		}
	}
	return nil, false
}

// Episode mencari episode berdasarkan nomornya.
func (s *Season) Episode(number int) (*Episode, bool) {
	for i := range s.Episodes {
		if s.Episodes[i].EpisodeNumber == number {
			return &s.Episodes[i], true
		}
	}
	return nil, false
}

// WatchedMovie merepresentasikan tabel 'watched_movies'
type WatchedMovie struct {
	UserID    string    `db:"user_id" json:"user_id"`
	MovieID   int64     `db:"movie_id" json:"id"`
	WatchedAt time.Time `db:"watched_at" json:"watched_at"`
}

// WatchedEpisode merepresentasikan tabel 'watched_episodes'
type WatchedEpisode struct {
	UserID        string    `db:"user_id" json:"user_id"`
	ShowID        int64     `db:"show_id" json:"show_id"`
	SeasonNumber  int       `db:"season_number" json:"season_number"`
	EpisodeNumber int       `db:"episode_number" json:"episode_number"`
	WatchedAt     time.Time `db:"watched_at" json:"watched_at"`
}

// EpisodeKey adalah kunci komposit satu episode dalam sebuah show.
type EpisodeKey struct {
	SeasonNumber  int
	EpisodeNumber int
}

// Key mengembalikan kunci (season, episode) dari record.
func (w WatchedEpisode) Key() EpisodeKey {
	return EpisodeKey{SeasonNumber: w.SeasonNumber, EpisodeNumber: w.EpisodeNumber}
}

// WatchedMovieDetail adalah hasil join watched_movies dengan movies.
// Resolved bernilai false jika metadata film tidak tersimpan.
type WatchedMovieDetail struct {
	MovieID    int64
	WatchedAt  time.Time
	Resolved   bool
	Title      string
	PosterPath string
	Runtime    int
}

// WatchedEpisodeDetail adalah hasil join watched_episodes dengan episodes dan shows.
type WatchedEpisodeDetail struct {
	ShowID         int64
	SeasonNumber   int
	EpisodeNumber  int
	WatchedAt      time.Time
	Resolved       bool
	ShowName       string
	ShowPosterPath string
	EpisodeName    string
	Runtime        int
}

// RecentMovie adalah satu item di daftar film terakhir pada statistik.
type RecentMovie struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	PosterPath string    `json:"poster_path"`
	WatchedAt  time.Time `json:"watched_at"`
	Runtime    int       `json:"runtime"`
}

// RecentEpisode adalah satu item di daftar episode terakhir pada statistik.
type RecentEpisode struct {
	ShowID         int64     `json:"show_id"`
	ShowName       string    `json:"show_name"`
	ShowPosterPath string    `json:"show_poster_path"`
	SeasonNumber   int       `json:"season_number"`
	EpisodeNumber  int       `json:"episode_number"`
	EpisodeName    string    `json:"episode_name"`
	WatchedAt      time.Time `json:"watched_at"`
}

// Stats adalah ringkasan tontonan seorang user.
type Stats struct {
	MoviesWatched   int             `json:"moviesWatched"`
	ShowsWatched    int             `json:"showsWatched"`
	EpisodesWatched int             `json:"episodesWatched"`
	TotalMovieTime  int             `json:"totalMovieTime"`
	TotalShowTime   int             `json:"totalShowTime"`
	RecentMovies    []RecentMovie   `json:"recentMovies"`
	RecentEpisodes  []RecentEpisode `json:"recentEpisodes"`
}

// SearchResult adalah satu hasil pencarian TMDB.
type SearchResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	Overview     string  `json:"overview"`
	PosterPath   *string `json:"poster_path"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	VoteAverage  float64 `json:"vote_average"`
	MediaType    string  `json:"media_type"`
}

// SearchPage adalah halaman hasil pencarian.
type SearchPage struct {
	Results      []SearchResult
	TotalResults int
}
