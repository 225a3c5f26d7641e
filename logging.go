package rangecache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig configures the logger built by InitLogger.
type LogConfig struct {
	// Level is a logrus level name ("debug", "info", "warn", ...).
	Level string `mapstructure:"Level"`

	// FilePath, when set, routes log output to a size-rotated file.
	// Empty means stdout.
	FilePath string `mapstructure:"FilePath"`

	// MaxSize is the rotation threshold in megabytes.
	MaxSize int `mapstructure:"MaxSize"`

	// MaxBackups is the number of rotated files to keep.
	MaxBackups int `mapstructure:"MaxBackups"`

	// Compress gzips rotated files.
	Compress bool `mapstructure:"Compress"`
}

// InitLogger builds a JSON-formatted logrus logger from cfg, writing to
// stdout or a rotating file. On file setup failure it falls back to
// stdout and logs the problem rather than failing.
func InitLogger(cfg LogConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	output, outErr := buildLogOutput(cfg)

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(output)
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})

	if outErr != nil {
		logger.WithField("path", cfg.FilePath).Warn(outErr.Error())
	}

	return logger, nil
}

func buildLogOutput(cfg LogConfig) (io.Writer, error) {
	if cfg.FilePath == "" {
		return os.Stdout, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return os.Stdout, fmt.Errorf("create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}, nil
}
