package logging

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "roriage.log"

// New builds a logger that writes to a rotating file under dir. The terminal
// belongs to the TUI, so nothing is written to stdout or stderr. The returned
// closer releases the log file.
func New(dir string, level string) (*logrus.Logger, io.Closer, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	logger := logrus.New()
	logger.SetLevel(lvl)
	logger.SetFormatter(&formatter.Formatter{
		NoColors:        true,
		TimestampFormat: "02 Jan 06 - 15:04:05",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
		},
	})
	out := &lumberjack.Logger{
		Filename:   filepath.Join(dir, logFileName),
		LocalTime:  true,
		Compress:   true,
		MaxSize:    10,
		MaxAge:     7,
		MaxBackups: 3,
	}
	logger.SetOutput(out)
	logger.SetReportCaller(true)

	return logger, out, nil
}

// Discard returns a logger that drops everything. Used by tests and by
// commands that run before the config directory exists.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
