package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/lumberjack"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

type Config struct {
	// Verbosity is the -v count: 0 info, 1 debug, 2+ trace.
	Verbosity int
	// File is the rotating log file, empty disables file output.
	File string
}

var (
	mu     sync.Mutex
	logger = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		ForceFormatting: true,
	})
	return l
}

func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	var w io.Writer = os.Stderr
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return errors.Wrapf(err, "create log directory for %q", cfg.File)
		}
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    5,
			MaxAge:     14,
			MaxBackups: 5,
		})
	}

	logger.SetOutput(w)
	logger.SetLevel(verbosityToLevel(cfg.Verbosity))
	return nil
}

func verbosityToLevel(v int) logrus.Level {
	switch {
	case v <= 0:
		return logrus.InfoLevel
	case v == 1:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// GetLogger returns an entry tagged with prefix, rendered as [prefix] by the formatter.
func GetLogger(prefix string) *logrus.Entry {
	return logger.WithField("prefix", prefix)
}
