package runtime

import (
	"fmt"
	"log/slog"
	"strings"
)

// badgerLogger redirects badger's printf style logging into the node's slog.Logger.
// It satisfies badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

func newBadgerLogger(log *slog.Logger) badgerLogger {
	return badgerLogger{logger: log.With("component", "badger")}
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(trim(format, args))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(trim(format, args))
}

// Infof is downgraded, badger is chatty at info level
func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(trim(format, args))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(trim(format, args))
}

// trim removes the trailing newline badger appends to most lines
func trim(format string, args []interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
