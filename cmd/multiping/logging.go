package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	ping "github.com/digineo/multiping"
	"github.com/digineo/multiping/monitor"
)

// logAdapter feeds the printf style library loggers into slog.
type logAdapter struct {
	logger *slog.Logger
	source string
}

func (l *logAdapter) log(level slog.Level, format string, v ...interface{}) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, fmt.Sprintf(format, v...), slog.String("source", l.source))
}

func (l *logAdapter) Debugf(format string, v ...interface{}) { l.log(slog.LevelDebug, format, v...) }
func (l *logAdapter) Infof(format string, v ...interface{})  { l.log(slog.LevelInfo, format, v...) }
func (l *logAdapter) Printf(format string, v ...interface{}) { l.log(slog.LevelInfo, format, v...) }
func (l *logAdapter) Warnf(format string, v ...interface{})  { l.log(slog.LevelWarn, format, v...) }
func (l *logAdapter) Errorf(format string, v ...interface{}) { l.log(slog.LevelError, format, v...) }

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// setLoggers routes the output of the ping and monitor packages through
// logger.
func setLoggers(logger *slog.Logger) {
	ping.SetLogger(&logAdapter{logger: logger, source: "ping"})
	monitor.SetLogger(&logAdapter{logger: logger, source: "monitor"})
}

func parseLogLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.Level(-1), fmt.Errorf("invalid log level: %s", levelStr)
	}
}

func errAttr(err error) slog.Attr {
	return slog.Any("error", err)
}
