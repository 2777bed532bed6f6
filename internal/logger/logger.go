package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"reviewflow/internal/config"
)

type ctxKey string

// RequestIDKey - ключ request id в gin.Context и context.Context
const RequestIDKey = "request_id"

const requestIDCtxKey ctxKey = RequestIDKey

// Setup настраивает глобальный zerolog.
// debug - человекочитаемый вывод в stdout, prod - JSON в файл APP_LOG_PATH,
// остальные режимы - JSON в stdout.
func Setup(envConf *config.Config) *zerolog.Logger {
	level := zerolog.InfoLevel
	if envConf.ProductionType == "debug" {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	zerolog.TimeFieldFormat = "15:04:05 02.01.2006"
	zerolog.CallerMarshalFunc = shortCaller

	writer, err := output(envConf)
	if err != nil {
		log.Fatal().Err(err).Str("path", envConf.LogPath).Msg("failed to open log output")
	}

	l := zerolog.New(writer).
		With().
		Caller().
		Timestamp().
		Str("service", "reviewflow").
		Logger()

	// глобальный логгер используется всеми слоями через log.Info() и т.п.
	log.Logger = l

	log.Info().Str("level", level.String()).Msg("logger setup complete")
	return &l
}

func output(envConf *config.Config) (io.Writer, error) {
	switch envConf.ProductionType {
	case "debug":
		return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}, nil
	case "prod":
		if err := os.MkdirAll(filepath.Dir(envConf.LogPath), 0o755); err != nil {
			return nil, err
		}
		return os.OpenFile(envConf.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	default:
		return os.Stdout, nil
	}
}

// shortCaller оставляет две последние части пути к файлу
func shortCaller(_ uintptr, file string, line int) string {
	parts := strings.Split(file, "/")
	if len(parts) > 2 {
		file = strings.Join(parts[len(parts)-2:], "/")
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// WithRequestID кладёт request id в контекст
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey, requestID)
}

// GetRequestID достаёт request id из контекста
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDCtxKey).(string); ok {
		return requestID
	}
	return "unknown"
}
