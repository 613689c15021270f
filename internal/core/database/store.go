package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"movieguide/internal/core/logging"
	"movieguide/internal/core/models"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// ErrDuplicate dikembalikan ketika insert ditolak oleh unique key.
var ErrDuplicate = errors.New("database: duplicate key")

// Store mendefinisikan semua fungsi untuk berinteraksi dengan database.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)

	CreateSession(ctx context.Context, session models.Session) error
	FindSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	FindMovie(ctx context.Context, movieID int64) (*models.Movie, error)
	InsertMovie(ctx context.Context, movie models.Movie) error
	FindShow(ctx context.Context, showID int64) (*models.Show, error)
	InsertShow(ctx context.Context, show models.Show) error

	InsertWatchedMovie(ctx context.Context, watched models.WatchedMovie) (bool, error)
	WatchedMovieExists(ctx context.Context, userID string, movieID int64) (bool, error)
	InsertWatchedEpisode(ctx context.Context, watched models.WatchedEpisode) (bool, error)
	InsertWatchedEpisodes(ctx context.Context, watched []models.WatchedEpisode) ([]models.WatchedEpisode, error)
	ListWatchedEpisodesForShow(ctx context.Context, userID string, showID int64) ([]models.WatchedEpisode, error)

	ListWatchedMovies(ctx context.Context, userID string) ([]models.WatchedMovieDetail, error)
	ListWatchedEpisodes(ctx context.Context, userID string) ([]models.WatchedEpisodeDetail, error)

	ListMissingMovieIDs(ctx context.Context, limit int) ([]int64, error)
	ListMissingShowIDs(ctx context.Context, limit int) ([]int64, error)
	RecordBackfillFailure(ctx context.Context, mediaType string, mediaID int64, at time.Time) error

	Close() error
}

// DBStore adalah implementasi Store di atas sqlx, untuk PostgreSQL (pgx) maupun SQLite.
type DBStore struct {
	db  *sqlx.DB
	url string
}

// NewDBStore membuka pool koneksi sekali untuk seluruh proses.
func NewDBStore(driver, databaseURL string, maxOpenConns int) (*DBStore, error) {
	db, err := sqlx.Connect(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if driver == "sqlite3" {
		// :memory: hanya hidup di satu koneksi
		db.SetMaxOpenConns(1)
	} else if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	logging.Info().Str("driver", driver).Msg("Successfully connected to the database")
	return &DBStore{db: db, url: databaseURL}, nil
}

func (s *DBStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *DBStore) Close() error {
	return s.db.Close()
}

func rowsAffected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateUser menyisipkan user baru. ErrDuplicate jika username atau ID sudah terpakai.
func (s *DBStore) CreateUser(ctx context.Context, user models.User) error {
	query := `INSERT INTO users (user_id, username, password, created_at, updated_at) VALUES (?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`
	ok, err := rowsAffected(s.db.ExecContext(ctx, s.db.Rebind(query), user.ID, user.Username, user.Password, user.CreatedAt, user.UpdatedAt))
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

// FindUserByUsername mencari user berdasarkan username (persis, case-sensitive).
func (s *DBStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := `SELECT user_id, username, password, created_at, updated_at FROM users WHERE username = ?`
	err := s.db.GetContext(ctx, &user, s.db.Rebind(query), username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *DBStore) CreateSession(ctx context.Context, session models.Session) error {
	query := `INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, s.db.Rebind(query), session.Token, session.UserID, session.CreatedAt, session.ExpiresAt)
	return err
}

func (s *DBStore) FindSession(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	query := `SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?`
	err := s.db.GetContext(ctx, &session, s.db.Rebind(query), token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *DBStore) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE token = ?`), token)
	return err
}

// DeleteExpiredSessions menghapus session yang expires_at-nya sudah lewat.
func (s *DBStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`), now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const movieColumns = `movie_id, title, overview, genres, release_date, poster_path, runtime, status, tagline`

// FindMovie mengembalikan nil, nil jika film belum tersimpan.
func (s *DBStore) FindMovie(ctx context.Context, movieID int64) (*models.Movie, error) {
	var movie models.Movie
	err := s.db.GetContext(ctx, &movie, s.db.Rebind(`SELECT `+movieColumns+` FROM movies WHERE movie_id = ?`), movieID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// InsertMovie menyimpan metadata film. Baris yang sudah ada tidak pernah diperbarui.
func (s *DBStore) InsertMovie(ctx context.Context, movie models.Movie) error {
	query := `INSERT INTO movies (` + movieColumns + `, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (movie_id) DO NOTHING`
	_, err := s.db.ExecContext(ctx, s.db.Rebind(query),
		movie.ID, movie.Title, movie.Overview, movie.Genres, movie.ReleaseDate,
		movie.PosterPath, movie.Runtime, movie.Status, movie.Tagline, time.Now().UTC())
	return err
}

// FindShow mengambil satu show beserta season dan episode-nya, terurut.
func (s *DBStore) FindShow(ctx context.Context, showID int64) (*models.Show, error) {
	var show models.Show
	queryShow := `SELECT show_id, name, overview, genres, number_of_episodes, number_of_seasons, poster_path, status, tagline FROM shows WHERE show_id = ?`
	err := s.db.GetContext(ctx, &show, s.db.Rebind(queryShow), showID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var seasons []models.Season
	querySeasons := `SELECT show_id, season_number, name, overview, episode_count, air_date FROM seasons WHERE show_id = ? ORDER BY season_number ASC`
	if err := s.db.SelectContext(ctx, &seasons, s.db.Rebind(querySeasons), showID); err != nil {
		return nil, err
	}

	var episodes []models.Episode
	queryEpisodes := `SELECT show_id, season_number, episode_number, name, overview, runtime FROM episodes WHERE show_id = ? ORDER BY season_number ASC, episode_number ASC`
	if err := s.db.SelectContext(ctx, &episodes, s.db.Rebind(queryEpisodes), showID); err != nil {
		return nil, err
	}

	index := make(map[int]int, len(seasons))
	for i := range seasons {
		seasons[i].Episodes = []models.Episode{}
		index[seasons[i].SeasonNumber] = i
	}
	for _, ep := range episodes {
		if i, ok := index[ep.SeasonNumber]; ok {
			seasons[i].Episodes = append(seasons[i].Episodes, ep)
		}
	}
	if seasons == nil {
		seasons = []models.Season{}
	}
	show.Seasons = seasons
	return &show, nil
}

// InsertShow menyimpan show, season, dan episode dalam satu transaksi.
// Show yang sudah ada dibiarkan apa adanya.
func (s *DBStore) InsertShow(ctx context.Context, show models.Show) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	queryShow := `INSERT INTO shows (show_id, name, overview, genres, number_of_episodes, number_of_seasons, poster_path, status, tagline, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (show_id) DO NOTHING`
	inserted, err := rowsAffected(tx.ExecContext(ctx, tx.Rebind(queryShow),
		show.ID, show.Name, show.Overview, show.Genres, show.NumberOfEpisodes,
		show.NumberOfSeasons, show.PosterPath, show.Status, show.Tagline, time.Now().UTC()))
	if err != nil {
		return err
	}
	if !inserted {
		return tx.Commit()
	}

	querySeason := tx.Rebind(`INSERT INTO seasons (show_id, season_number, name, overview, episode_count, air_date) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (show_id, season_number) DO NOTHING`)
	queryEpisode := tx.Rebind(`INSERT INTO episodes (show_id, season_number, episode_number, name, overview, runtime) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (show_id, season_number, episode_number) DO NOTHING`)
	for _, season := range show.Seasons {
		if _, err := tx.ExecContext(ctx, querySeason, show.ID, season.SeasonNumber, season.Name, season.Overview, season.EpisodeCount, season.AirDate); err != nil {
			return fmt.Errorf("insert season %d: %w", season.SeasonNumber, err)
		}
		for _, ep := range season.Episodes {
			if _, err := tx.ExecContext(ctx, queryEpisode, show.ID, season.SeasonNumber, ep.EpisodeNumber, ep.Name, ep.Overview, ep.Runtime); err != nil {
				return fmt.Errorf("insert episode S%02dE%02d: %w", season.SeasonNumber, ep.EpisodeNumber, err)
			}
		}
	}
	return tx.Commit()
}

// InsertWatchedMovie mengembalikan false jika (user, movie) sudah ada; record lama tidak disentuh.
func (s *DBStore) InsertWatchedMovie(ctx context.Context, watched models.WatchedMovie) (bool, error) {
	query := `INSERT INTO watched_movies (user_id, movie_id, watched_at) VALUES (?, ?, ?) ON CONFLICT (user_id, movie_id) DO NOTHING`
	return rowsAffected(s.db.ExecContext(ctx, s.db.Rebind(query), watched.UserID, watched.MovieID, watched.WatchedAt))
}

func (s *DBStore) WatchedMovieExists(ctx context.Context, userID string, movieID int64) (bool, error) {
	var count int
	query := `SELECT COUNT(1) FROM watched_movies WHERE user_id = ? AND movie_id = ?`
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(query), userID, movieID); err != nil {
		return false, err
	}
	return count > 0, nil
}

const insertWatchedEpisode = `INSERT INTO watched_episodes (user_id, show_id, season_number, episode_number, watched_at) VALUES (?, ?, ?, ?, ?) ON CONFLICT (user_id, show_id, season_number, episode_number) DO NOTHING`

func (s *DBStore) InsertWatchedEpisode(ctx context.Context, watched models.WatchedEpisode) (bool, error) {
	return rowsAffected(s.db.ExecContext(ctx, s.db.Rebind(insertWatchedEpisode),
		watched.UserID, watched.ShowID, watched.SeasonNumber, watched.EpisodeNumber, watched.WatchedAt))
}

// InsertWatchedEpisodes menyisipkan semua record dalam satu transaksi dan mengembalikan
// record yang benar-benar baru. Gagal di tengah berarti tidak ada yang tersimpan.
func (s *DBStore) InsertWatchedEpisodes(ctx context.Context, watched []models.WatchedEpisode) ([]models.WatchedEpisode, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := tx.Rebind(insertWatchedEpisode)
	inserted := make([]models.WatchedEpisode, 0, len(watched))
	for _, w := range watched {
		ok, err := rowsAffected(tx.ExecContext(ctx, query, w.UserID, w.ShowID, w.SeasonNumber, w.EpisodeNumber, w.WatchedAt))
		if err != nil {
			return nil, fmt.Errorf("insert watched S%02dE%02d: %w", w.SeasonNumber, w.EpisodeNumber, err)
		}
		if ok {
			inserted = append(inserted, w)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return inserted, nil
}

func (s *DBStore) ListWatchedEpisodesForShow(ctx context.Context, userID string, showID int64) ([]models.WatchedEpisode, error) {
	var watched []models.WatchedEpisode
	query := `SELECT user_id, show_id, season_number, episode_number, watched_at FROM watched_episodes WHERE user_id = ? AND show_id = ? ORDER BY season_number ASC, episode_number ASC`
	err := s.db.SelectContext(ctx, &watched, s.db.Rebind(query), userID, showID)
	return watched, err
}

type watchedMovieRow struct {
	MovieID    int64          `db:"movie_id"`
	WatchedAt  time.Time      `db:"watched_at"`
	ResolvedID sql.NullInt64  `db:"resolved_id"`
	Title      sql.NullString `db:"title"`
	PosterPath sql.NullString `db:"poster_path"`
	Runtime    sql.NullInt64  `db:"runtime"`
}

// ListWatchedMovies menggabungkan watched_movies dengan metadata movies (left join).
func (s *DBStore) ListWatchedMovies(ctx context.Context, userID string) ([]models.WatchedMovieDetail, error) {
	var rows []watchedMovieRow
	query := `SELECT w.movie_id, w.watched_at, m.movie_id AS resolved_id, m.title, m.poster_path, m.runtime
		FROM watched_movies w LEFT JOIN movies m ON m.movie_id = w.movie_id
		WHERE w.user_id = ?`
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), userID); err != nil {
		return nil, err
	}
	out := make([]models.WatchedMovieDetail, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.WatchedMovieDetail{
			MovieID:    r.MovieID,
			WatchedAt:  r.WatchedAt,
			Resolved:   r.ResolvedID.Valid,
			Title:      r.Title.String,
			PosterPath: r.PosterPath.String,
			Runtime:    int(r.Runtime.Int64),
		})
	}
	return out, nil
}

type watchedEpisodeRow struct {
	ShowID         int64          `db:"show_id"`
	SeasonNumber   int            `db:"season_number"`
	EpisodeNumber  int            `db:"episode_number"`
	WatchedAt      time.Time      `db:"watched_at"`
	ResolvedEp     sql.NullInt64  `db:"resolved_episode"`
	EpisodeName    sql.NullString `db:"episode_name"`
	Runtime        sql.NullInt64  `db:"runtime"`
	ShowName       sql.NullString `db:"show_name"`
	ShowPosterPath sql.NullString `db:"show_poster_path"`
}

// ListWatchedEpisodes menggabungkan watched_episodes dengan episodes dan shows (left join).
func (s *DBStore) ListWatchedEpisodes(ctx context.Context, userID string) ([]models.WatchedEpisodeDetail, error) {
	var rows []watchedEpisodeRow
	query := `SELECT w.show_id, w.season_number, w.episode_number, w.watched_at,
			e.episode_number AS resolved_episode, e.name AS episode_name, e.runtime,
			sh.name AS show_name, sh.poster_path AS show_poster_path
		FROM watched_episodes w
		LEFT JOIN episodes e ON e.show_id = w.show_id AND e.season_number = w.season_number AND e.episode_number = w.episode_number
		LEFT JOIN shows sh ON sh.show_id = w.show_id
		WHERE w.user_id = ?`
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), userID); err != nil {
		return nil, err
	}
	out := make([]models.WatchedEpisodeDetail, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.WatchedEpisodeDetail{
			ShowID:         r.ShowID,
			SeasonNumber:   r.SeasonNumber,
			EpisodeNumber:  r.EpisodeNumber,
			WatchedAt:      r.WatchedAt,
			Resolved:       r.ResolvedEp.Valid,
			ShowName:       r.ShowName.String,
			ShowPosterPath: r.ShowPosterPath.String,
			EpisodeName:    r.EpisodeName.String,
			Runtime:        int(r.Runtime.Int64),
		})
	}
	return out, nil
}

// ListMissingMovieIDs mencari film yang ditandai ditonton tapi metadatanya belum tersimpan.
// ID yang belum pernah dicoba didahulukan, lalu yang percobaan gagalnya paling lama.
func (s *DBStore) ListMissingMovieIDs(ctx context.Context, limit int) ([]int64, error) {
	var ids []int64
	query := `SELECT w.movie_id FROM watched_movies w
		LEFT JOIN movies m ON m.movie_id = w.movie_id
		LEFT JOIN backfill_attempts a ON a.media_type = 'movie' AND a.media_id = w.movie_id
		WHERE m.movie_id IS NULL
		GROUP BY w.movie_id, a.attempted_at
		ORDER BY CASE WHEN a.attempted_at IS NULL THEN 0 ELSE 1 END, a.attempted_at ASC, w.movie_id ASC
		LIMIT ?`
	err := s.db.SelectContext(ctx, &ids, s.db.Rebind(query), limit)
	return ids, err
}

// ListMissingShowIDs sama seperti ListMissingMovieIDs untuk show.
func (s *DBStore) ListMissingShowIDs(ctx context.Context, limit int) ([]int64, error) {
	var ids []int64
	query := `SELECT w.show_id FROM watched_episodes w
		LEFT JOIN shows sh ON sh.show_id = w.show_id
		LEFT JOIN backfill_attempts a ON a.media_type = 'show' AND a.media_id = w.show_id
		WHERE sh.show_id IS NULL
		GROUP BY w.show_id, a.attempted_at
		ORDER BY CASE WHEN a.attempted_at IS NULL THEN 0 ELSE 1 END, a.attempted_at ASC, w.show_id ASC
		LIMIT ?`
	err := s.db.SelectContext(ctx, &ids, s.db.Rebind(query), limit)
	return ids, err
}

// RecordBackfillFailure mencatat waktu percobaan backfill terakhir yang gagal.
func (s *DBStore) RecordBackfillFailure(ctx context.Context, mediaType string, mediaID int64, at time.Time) error {
	query := `INSERT INTO backfill_attempts (media_type, media_id, attempted_at) VALUES (?, ?, ?)
		ON CONFLICT (media_type, media_id) DO UPDATE SET attempted_at = excluded.attempted_at`
	_, err := s.db.ExecContext(ctx, s.db.Rebind(query), mediaType, mediaID, at.UTC())
	return err
}
