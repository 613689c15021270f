// Package logging membungkus zerolog sebagai logger global aplikasi.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("user", username).Msg("movie marked as watched")
//	logging.Ctx(r.Context()).Error().Err(err).Msg("store failure")
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config adalah konfigurasi logger.
type Config struct {
	Level  string
	Format string // json atau console

	// File mengaktifkan output tambahan ke file dengan rotasi.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	Output io.Writer
}

var (
	mu       sync.RWMutex
	log      zerolog.Logger
	rotating *lumberjack.Logger
)

func init() {
	Init(Config{})
}

// Init mengonfigurasi ulang logger global. Aman dipanggil berulang kali.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	out := cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	if rotating != nil {
		_ = rotating.Close()
		rotating = nil
	}
	var dirErr error
	if cfg.File != "" {
		if dirErr = os.MkdirAll(filepath.Dir(cfg.File), 0o755); dirErr == nil {
			rotating = &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   cfg.Compress,
			}
			out = io.MultiWriter(out, rotating)
		}
	}

	log = zerolog.New(out).With().Timestamp().Logger()
	// Salinan baru setiap Init; pointer lama tetap valid bagi pembaca zerolog.Ctx.
	ctxLogger := log
	zerolog.DefaultContextLogger = &ctxLogger

	if dirErr != nil {
		log.Warn().Err(dirErr).Str("file", cfg.File).Msg("Could not create log directory, file output disabled")
	}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger mengembalikan salinan logger global.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// With membuat logger turunan dengan field tambahan.
func With() zerolog.Context {
	l := Logger()
	return l.With()
}

func Debug() *zerolog.Event { l := Logger(); return l.Debug() }
func Info() *zerolog.Event  { l := Logger(); return l.Info() }
func Warn() *zerolog.Event  { l := Logger(); return l.Warn() }
func Error() *zerolog.Event { l := Logger(); return l.Error() }
func Fatal() *zerolog.Event { l := Logger(); return l.Fatal() }

// Ctx mengembalikan logger yang terpasang di ctx, atau logger global.
func Ctx(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		l := Logger()
		return &l
	}
	return zerolog.Ctx(ctx)
}

// WithContext memasang logger ke ctx.
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}
