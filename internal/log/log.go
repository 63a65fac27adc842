package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

func InitLogger(filepath string) zerolog.Logger {
	once.Do(func() {
		logger = NewLogger(filepath, os.Getenv("APP_ENV"))

		logger.Info().
			Str(KeyTag, "InitLogger").
			Str(KeyProcess, "InitLogger").
			Msg("finish initiating logging")
	})
	return logger
}

// NewLogger builds a logger writing to stdout and, when filepath is set, to a rotated file.
func NewLogger(filepath string, env string) zerolog.Logger {
	zerolog.DurationFieldUnit = time.Microsecond
	zerolog.ErrorFieldName = "error"
	zerolog.ErrorStackFieldName = "stack-trace"
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"
	zerolog.TimestampFieldName = "timestamp"

	logLevel := zerolog.InfoLevel
	if env == "development" {
		logLevel = zerolog.TraceLevel
	}

	var output io.Writer = os.Stdout
	if filepath != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   filepath,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		output = zerolog.MultiLevelWriter(os.Stdout, fileWriter)
	}

	return zerolog.New(output).
		Level(logLevel).
		Hook(AttachTraceIdFromContext()).
		With().
		Timestamp().
		Caller().
		Stack().
		Int("pid", os.Getpid()).
		Logger()
}
