// Package logging configures the process-wide logger.
package logging

import (
	"io"
	"os"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// New returns the shared logger. When logFile is non-empty, output is
// duplicated to a size-rotated file.
func New(logFile string) *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
		if os.Getenv("FACEREC_DEBUG") != "" {
			logger.SetLevel(logrus.DebugLevel)
		}

		logger.SetFormatter(&formatter.Formatter{
			TimestampFormat: "2006-01-02 15:04:05",
			HideKeys:        false,
			NoColors:        logFile != "",
		})

		writers := []io.Writer{os.Stderr}
		if logFile != "" {
			writers = append(writers, &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    20, // MB
				MaxAge:     7,  // days
				MaxBackups: 3,
				Compress:   true,
			})
		}
		logger.SetOutput(io.MultiWriter(writers...))
	})

	return logger
}
